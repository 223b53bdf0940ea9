package engine

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"shiritori/pkg/domain"
	"shiritori/pkg/store"
)

// fakeNotifier records replies and reactions.
type fakeNotifier struct {
	mu        sync.Mutex
	replies   []string
	reactions []domain.Emoji
}

func (f *fakeNotifier) Reply(_ context.Context, _ string, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, text)
	return nil
}

func (f *fakeNotifier) React(_ context.Context, _, _ string, emoji domain.Emoji) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reactions = append(f.reactions, emoji)
	return nil
}

func (f *fakeNotifier) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = nil
	f.reactions = nil
}

func (f *fakeNotifier) hasReaction(emoji domain.Emoji) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.reactions {
		if e == emoji {
			return true
		}
	}
	return false
}

// fakeHistory serves canned backfill messages and records the cutoff it was
// asked for.
type fakeHistory struct {
	messages []domain.IncomingMessage
	after    time.Time
	called   bool
}

func (f *fakeHistory) MessagesAfter(_ context.Context, _ string, after time.Time) ([]domain.IncomingMessage, error) {
	f.called = true
	f.after = after
	return f.messages, nil
}

type testEnv struct {
	engine   *Engine
	store    *store.MemoryStore
	notifier *fakeNotifier
	history  *fakeHistory
	now      time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		store:    store.NewMemoryStore(),
		notifier: &fakeNotifier{},
		history:  &fakeHistory{},
		now:      time.Date(2021, 1, 10, 12, 0, 0, 0, time.UTC),
	}
	env.engine = New(Config{
		Store:    env.store,
		Notifier: env.notifier,
		History:  env.history,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:      func() time.Time { return env.now },
	})
	return env
}

// tick advances the environment clock and returns the new time.
func (env *testEnv) tick() time.Time {
	env.now = env.now.Add(time.Minute)
	return env.now
}

func (env *testEnv) message(channelID, authorID, authorName, text string) domain.IncomingMessage {
	return domain.IncomingMessage{
		MessageID:  "m-" + text,
		ChannelID:  channelID,
		AuthorID:   authorID,
		AuthorName: authorName,
		Content:    text,
		CleanText:  text,
		CreatedAt:  env.tick(),
	}
}
