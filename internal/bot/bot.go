// Package bot serializes gateway events into the engine. One inbound event
// is fully processed, storage writes included, before the next is handled;
// this is what makes the pipeline's read-then-write validation race-free
// without locking.
package bot

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"shiritori/internal/command"
	"shiritori/internal/engine"
	"shiritori/pkg/domain"
)

type Bot struct {
	engine     *engine.Engine
	dispatcher *command.Dispatcher
	events     chan domain.IncomingMessage
	logger     *slog.Logger
}

// New builds the event loop. Buffer bounds how far the gateway may run
// ahead of processing.
func New(eng *engine.Engine, dispatcher *command.Dispatcher, logger *slog.Logger, buffer int) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	if buffer <= 0 {
		buffer = 64
	}
	return &Bot{
		engine:     eng,
		dispatcher: dispatcher,
		events:     make(chan domain.IncomingMessage, buffer),
		logger:     logger,
	}
}

// Enqueue hands one gateway event to the loop. Blocks when the buffer is
// full so ordering is preserved under backpressure.
func (b *Bot) Enqueue(msg domain.IncomingMessage) {
	b.events <- msg
}

// Run drains events until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-b.events:
			b.handle(ctx, msg)
		}
	}
}

func (b *Bot) handle(ctx context.Context, msg domain.IncomingMessage) {
	logger := b.logger.With("event_id", uuid.NewString(), "channel_id", msg.ChannelID)
	if msg.MentionsBot {
		logger.Debug("command received", "author", msg.AuthorName)
		b.dispatcher.Execute(ctx, msg)
		return
	}
	if err := b.engine.HandleMessage(ctx, msg); err != nil {
		// Storage-layer failures are the only errors that surface here.
		logger.Error("message handling failed", "err", err)
	}
}
