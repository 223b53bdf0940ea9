package engine

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"shiritori/pkg/domain"
)

// WordCache maps normalized text to word records. Entries are never
// evicted; vocabulary is bounded by language size, not message volume.
type WordCache interface {
	Get(ctx context.Context, text string) (domain.Word, bool)
	Put(ctx context.Context, word domain.Word)
}

// ChannelCache maps external channel IDs to channel records. A nil entry is
// a cached miss, so unregistered channels do not hit storage on every
// message. Entries are only invalidated explicitly.
type ChannelCache interface {
	Get(ctx context.Context, externalID string) (*domain.Channel, bool)
	Put(ctx context.Context, externalID string, channel *domain.Channel)
	Delete(ctx context.Context, externalID string)
}

// MemoryWordCache is the default in-process word cache.
type MemoryWordCache struct {
	mu    sync.RWMutex
	words map[string]domain.Word
}

func NewMemoryWordCache() *MemoryWordCache {
	return &MemoryWordCache{words: make(map[string]domain.Word)}
}

func (c *MemoryWordCache) Get(_ context.Context, text string) (domain.Word, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	word, ok := c.words[text]
	return word, ok
}

func (c *MemoryWordCache) Put(_ context.Context, word domain.Word) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.words[word.Text] = word
}

// MemoryChannelCache is the default in-process channel cache.
type MemoryChannelCache struct {
	mu       sync.RWMutex
	channels map[string]*domain.Channel
}

func NewMemoryChannelCache() *MemoryChannelCache {
	return &MemoryChannelCache{channels: make(map[string]*domain.Channel)}
}

func (c *MemoryChannelCache) Get(_ context.Context, externalID string) (*domain.Channel, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	channel, ok := c.channels[externalID]
	return channel, ok
}

func (c *MemoryChannelCache) Put(_ context.Context, externalID string, channel *domain.Channel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.channels[externalID] = channel
}

func (c *MemoryChannelCache) Delete(_ context.Context, externalID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.channels, externalID)
}

// missMarker stands in for a cached nil channel in redis.
const missMarker = "miss"

// RedisWordCache shares the word cache across bot instances. Cache failures
// degrade to storage lookups, never to processing errors.
type RedisWordCache struct {
	client *redis.Client
	prefix string
}

func NewRedisWordCache(client *redis.Client, prefix string) *RedisWordCache {
	return &RedisWordCache{client: client, prefix: prefix}
}

func (c *RedisWordCache) key(text string) string {
	return c.prefix + ":word:" + text
}

func (c *RedisWordCache) Get(ctx context.Context, text string) (domain.Word, bool) {
	raw, err := c.client.Get(ctx, c.key(text)).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("word cache get failed", "err", err)
		}
		return domain.Word{}, false
	}
	var word domain.Word
	if err := json.Unmarshal(raw, &word); err != nil {
		slog.Warn("word cache decode failed", "err", err)
		return domain.Word{}, false
	}
	return word, true
}

func (c *RedisWordCache) Put(ctx context.Context, word domain.Word) {
	raw, err := json.Marshal(word)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.key(word.Text), raw, 0).Err(); err != nil {
		slog.Warn("word cache put failed", "err", err)
	}
}

// RedisChannelCache shares the channel cache across bot instances.
type RedisChannelCache struct {
	client *redis.Client
	prefix string
}

func NewRedisChannelCache(client *redis.Client, prefix string) *RedisChannelCache {
	return &RedisChannelCache{client: client, prefix: prefix}
}

func (c *RedisChannelCache) key(externalID string) string {
	return c.prefix + ":channel:" + externalID
}

func (c *RedisChannelCache) Get(ctx context.Context, externalID string) (*domain.Channel, bool) {
	raw, err := c.client.Get(ctx, c.key(externalID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("channel cache get failed", "err", err)
		}
		return nil, false
	}
	if string(raw) == missMarker {
		return nil, true
	}
	var channel domain.Channel
	if err := json.Unmarshal(raw, &channel); err != nil {
		slog.Warn("channel cache decode failed", "err", err)
		return nil, false
	}
	return &channel, true
}

func (c *RedisChannelCache) Put(ctx context.Context, externalID string, channel *domain.Channel) {
	payload := []byte(missMarker)
	if channel != nil {
		raw, err := json.Marshal(channel)
		if err != nil {
			return
		}
		payload = raw
	}
	if err := c.client.Set(ctx, c.key(externalID), payload, 0).Err(); err != nil {
		slog.Warn("channel cache put failed", "err", err)
	}
}

func (c *RedisChannelCache) Delete(ctx context.Context, externalID string) {
	if err := c.client.Del(ctx, c.key(externalID)).Err(); err != nil {
		slog.Warn("channel cache delete failed", "err", err)
	}
}
