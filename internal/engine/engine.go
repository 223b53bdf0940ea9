package engine

import (
	"context"
	"io"
	"log/slog"
	"time"

	"shiritori/pkg/domain"
	"shiritori/pkg/store"
)

// Notifier sends replies and reactions back through the chat gateway.
type Notifier interface {
	Reply(ctx context.Context, channelID, text string) error
	React(ctx context.Context, channelID, messageID string, emoji domain.Emoji) error
}

// History fetches channel messages newer than a timestamp, oldest first.
type History interface {
	MessagesAfter(ctx context.Context, channelID string, after time.Time) ([]domain.IncomingMessage, error)
}

// Audit receives accepted turns after they are committed.
type Audit interface {
	TurnAccepted(ctx context.Context, turn domain.Turn, word domain.Word, user domain.User) error
}

// Config holds the engine's collaborators.
type Config struct {
	Store        store.Store
	Notifier     Notifier
	History      History
	Audit        Audit
	WordCache    WordCache
	ChannelCache ChannelCache
	BatchSize    int
	Logger       *slog.Logger
	Now          func() time.Time
}

// Engine validates turns and runs the per-channel game state machine. All
// mutable caches are owned by the instance so tests can run isolated
// engines side by side.
type Engine struct {
	store    store.Store
	words    *Directory
	registry *Registry
	notifier Notifier
	history  History
	audit    Audit
	logger   *slog.Logger
	now      func() time.Time
}

// New constructs an engine. Notifier, History, and Audit may be nil for
// callers that never reach the paths using them (the CLI loader does this).
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Engine{
		store:    cfg.Store,
		words:    NewDirectory(cfg.Store, cfg.WordCache, cfg.BatchSize),
		registry: NewRegistry(cfg.Store, cfg.ChannelCache),
		notifier: cfg.Notifier,
		history:  cfg.History,
		audit:    cfg.Audit,
		logger:   logger,
		now:      now,
	}
}

// Register adds or renames a channel.
func (e *Engine) Register(ctx context.Context, externalID, name string) (domain.Channel, error) {
	return e.registry.Register(ctx, externalID, name)
}

// Unregister removes a channel and cascades to its games and turns.
func (e *Engine) Unregister(ctx context.Context, externalID string) (bool, error) {
	return e.registry.Unregister(ctx, externalID)
}

// LoadWordList bulk-ingests a newline-delimited word list.
func (e *Engine) LoadWordList(ctx context.Context, r io.Reader) (int, error) {
	return e.words.LoadList(ctx, r)
}

// LoadBannedList bulk-ingests a newline-delimited banned-word list.
func (e *Engine) LoadBannedList(ctx context.Context, r io.Reader) (int, error) {
	return e.words.LoadBanned(ctx, r)
}

// Info summarizes a channel's logged traffic and game status. Returns
// NotRegisteredError for unknown channels.
func (e *Engine) Info(ctx context.Context, externalID string) (domain.ChannelInfo, error) {
	channel, err := e.registry.Lookup(ctx, externalID)
	if err != nil {
		return domain.ChannelInfo{}, err
	}
	if channel == nil {
		return domain.ChannelInfo{}, &NotRegisteredError{Channel: externalID}
	}
	count, err := e.store.CountTurns(channel.ID)
	if err != nil {
		return domain.ChannelInfo{}, err
	}
	info := domain.ChannelInfo{
		Name:        channel.Name,
		Messages:    count,
		GameRunning: channel.GameRunning(),
	}
	if channel.CurrentGameID != nil {
		game, found, err := e.store.GetGame(*channel.CurrentGameID)
		if err != nil {
			return domain.ChannelInfo{}, err
		}
		if found {
			info.GameStarted = game.StartedAt
		}
	}
	return info, nil
}

func channelLabel(c *domain.Channel) string {
	if c != nil && c.Name != "" {
		return c.Name
	}
	if c != nil {
		return c.ExternalID
	}
	return ""
}
