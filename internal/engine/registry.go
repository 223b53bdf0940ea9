package engine

import (
	"context"
	"fmt"

	"shiritori/pkg/domain"
	"shiritori/pkg/store"
)

// Registry maps external channel IDs to persisted channel records. Lookups
// go through a cache that also remembers misses, so messages from
// unregistered channels don't hit storage every time.
type Registry struct {
	store store.Store
	cache ChannelCache
}

// NewRegistry builds a registry around the given store and cache.
func NewRegistry(s store.Store, cache ChannelCache) *Registry {
	if cache == nil {
		cache = NewMemoryChannelCache()
	}
	return &Registry{store: s, cache: cache}
}

// Register upserts a channel record. Re-registering refreshes the display
// name and nothing else; game state survives.
func (r *Registry) Register(ctx context.Context, externalID, name string) (domain.Channel, error) {
	channel, err := r.store.UpsertChannel(externalID, name)
	if err != nil {
		return domain.Channel{}, fmt.Errorf("upsert channel: %w", err)
	}
	r.cache.Put(ctx, externalID, &channel)
	return channel, nil
}

// Lookup returns the channel record, or nil when the channel is not
// registered.
func (r *Registry) Lookup(ctx context.Context, externalID string) (*domain.Channel, error) {
	if channel, ok := r.cache.Get(ctx, externalID); ok {
		return channel, nil
	}
	channel, found, err := r.store.GetChannelByExternalID(externalID)
	if err != nil {
		return nil, fmt.Errorf("lookup channel: %w", err)
	}
	if !found {
		r.cache.Put(ctx, externalID, nil)
		return nil, nil
	}
	r.cache.Put(ctx, externalID, &channel)
	return &channel, nil
}

// Unregister deletes the channel and everything it owns. Returns false when
// no record existed.
func (r *Registry) Unregister(ctx context.Context, externalID string) (bool, error) {
	deleted, err := r.store.DeleteChannel(externalID)
	if err != nil {
		return false, fmt.Errorf("delete channel: %w", err)
	}
	r.cache.Delete(ctx, externalID)
	return deleted, nil
}

// refresh updates the cached record after a game-state change.
func (r *Registry) refresh(ctx context.Context, channel domain.Channel) {
	r.cache.Put(ctx, channel.ExternalID, &channel)
}
