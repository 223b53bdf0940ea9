package engine

import (
	"context"
	"fmt"
	"time"

	"shiritori/pkg/domain"
)

// Sync backfills channel history newer than the latest known turn. History
// rows carry no game reference and skip chain/repeat validation entirely:
// no game context can be assumed for messages that predate the bot.
func (e *Engine) Sync(ctx context.Context, externalID string) (int, error) {
	channel, err := e.registry.Lookup(ctx, externalID)
	if err != nil {
		return 0, err
	}
	if channel == nil {
		return 0, &NotRegisteredError{Channel: externalID}
	}
	if e.history == nil {
		return 0, fmt.Errorf("sync: no history source configured")
	}

	var after time.Time
	if latest, found, err := e.store.LatestTurnTime(channel.ID); err != nil {
		return 0, fmt.Errorf("latest turn time: %w", err)
	} else if found {
		after = latest
	}

	messages, err := e.history.MessagesAfter(ctx, externalID, after)
	if err != nil {
		return 0, fmt.Errorf("fetch history: %w", err)
	}

	imported := 0
	for _, msg := range messages {
		token, ok := tokenize(msg.CleanText)
		if !ok {
			continue
		}
		word, err := e.words.Resolve(ctx, token)
		if err != nil {
			return imported, err
		}
		turn := domain.Turn{
			Timestamp: msg.CreatedAt,
			Content:   msg.CleanText,
			State:     domain.TurnOK,
			WordID:    word.ID,
			ChannelID: channel.ID,
		}
		if err := e.store.CreateTurn(&turn); err != nil {
			return imported, fmt.Errorf("create backfill turn: %w", err)
		}
		imported++
	}
	e.logger.Info("channel synced", "channel", channelLabel(channel), "imported", imported)
	return imported, nil
}
