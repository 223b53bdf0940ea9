package bot

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"shiritori/internal/command"
	"shiritori/internal/engine"
	"shiritori/pkg/domain"
	"shiritori/pkg/store"
)

type fakeNotifier struct {
	mu      sync.Mutex
	replies []string
}

func (f *fakeNotifier) Reply(_ context.Context, _ string, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, text)
	return nil
}

func (f *fakeNotifier) React(_ context.Context, _, _ string, _ domain.Emoji) error {
	return nil
}

type emptyHistory struct{}

func (emptyHistory) MessagesAfter(_ context.Context, _ string, _ time.Time) ([]domain.IncomingMessage, error) {
	return nil, nil
}

func newTestBot(t *testing.T) (*Bot, *fakeNotifier, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	notifier := &fakeNotifier{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng := engine.New(engine.Config{
		Store:    st,
		Notifier: notifier,
		History:  emptyHistory{},
		Logger:   logger,
	})
	dispatcher := command.NewDispatcher(eng, notifier, logger)
	return New(eng, dispatcher, logger, 4), notifier, st
}

func TestHandleRoutesMentionsToDispatcher(t *testing.T) {
	bot, notifier, st := newTestBot(t)
	ctx := context.Background()

	bot.handle(ctx, domain.IncomingMessage{
		MessageID:   "m1",
		ChannelID:   "chan-1",
		ChannelName: "shiritori",
		AuthorID:    "u1",
		AuthorName:  "alice",
		CleanText:   "@shiritori add",
		CreatedAt:   time.Now().UTC(),
		MentionsBot: true,
	})
	if len(notifier.replies) != 1 || !strings.Contains(notifier.replies[0], "added") {
		t.Fatalf("expected add reply, got %v", notifier.replies)
	}
	if _, found, _ := st.GetChannelByExternalID("chan-1"); !found {
		t.Fatalf("channel not registered via command")
	}
}

func TestHandleRoutesPlainMessagesToPipeline(t *testing.T) {
	bot, _, st := newTestBot(t)
	ctx := context.Background()

	bot.handle(ctx, domain.IncomingMessage{CleanText: "@shiritori add", ChannelID: "chan-1", ChannelName: "shiritori", AuthorID: "u1", AuthorName: "alice", MentionsBot: true})
	bot.handle(ctx, domain.IncomingMessage{CleanText: "@shiritori start", ChannelID: "chan-1", ChannelName: "shiritori", AuthorID: "u1", AuthorName: "alice", MentionsBot: true})
	bot.handle(ctx, domain.IncomingMessage{
		MessageID: "m2", ChannelID: "chan-1", AuthorID: "u1", AuthorName: "alice",
		Content: "apple", CleanText: "apple", CreatedAt: time.Now().UTC(),
	})

	channel, _, _ := st.GetChannelByExternalID("chan-1")
	count, _ := st.CountTurns(channel.ID)
	if count != 1 {
		t.Fatalf("expected 1 persisted turn, got %d", count)
	}
}

func TestRunDrainsQueueSerially(t *testing.T) {
	bot, _, st := newTestBot(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		bot.Run(ctx)
	}()

	base := time.Now().UTC()
	bot.Enqueue(domain.IncomingMessage{CleanText: "@shiritori add", ChannelID: "chan-1", ChannelName: "shiritori", AuthorID: "u1", AuthorName: "alice", MentionsBot: true, CreatedAt: base})
	bot.Enqueue(domain.IncomingMessage{CleanText: "@shiritori start", ChannelID: "chan-1", ChannelName: "shiritori", AuthorID: "u1", AuthorName: "alice", MentionsBot: true, CreatedAt: base.Add(time.Second)})
	bot.Enqueue(domain.IncomingMessage{MessageID: "m1", ChannelID: "chan-1", AuthorID: "u1", AuthorName: "alice", Content: "apple", CleanText: "apple", CreatedAt: base.Add(2 * time.Second)})
	bot.Enqueue(domain.IncomingMessage{MessageID: "m2", ChannelID: "chan-1", AuthorID: "u2", AuthorName: "bob", Content: "eagle", CleanText: "eagle", CreatedAt: base.Add(3 * time.Second)})

	deadline := time.After(2 * time.Second)
	for {
		channel, found, _ := st.GetChannelByExternalID("chan-1")
		if found {
			if count, _ := st.CountTurns(channel.ID); count == 2 {
				break
			}
		}
		select {
		case <-deadline:
			t.Fatalf("queue was not drained in time")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	<-done
}
