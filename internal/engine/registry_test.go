package engine

import (
	"context"
	"testing"
)

func TestRegisterIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.engine.Register(ctx, "chan-1", "shiritori")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := env.engine.StartGame(ctx, "chan-1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	second, err := env.engine.Register(ctx, "chan-1", "shiritori")
	if err != nil {
		t.Fatalf("re-register: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("re-registration must not create a second channel row")
	}
	if !second.GameRunning() {
		t.Fatalf("re-registration must not reset game state")
	}
}

func TestRegisterRenames(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if _, err := env.engine.Register(ctx, "chan-1", "old-name"); err != nil {
		t.Fatalf("register: %v", err)
	}
	channel, err := env.engine.Register(ctx, "chan-1", "new-name")
	if err != nil {
		t.Fatalf("re-register: %v", err)
	}
	if channel.Name != "new-name" {
		t.Fatalf("expected renamed channel, got %q", channel.Name)
	}
}

func TestUnregisterCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	startGame(t, env, "chan-1", "shiritori")
	if err := env.engine.HandleMessage(ctx, env.message("chan-1", "u1", "alice", "apple")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	channel, _, _ := env.store.GetChannelByExternalID("chan-1")

	deleted, err := env.engine.Unregister(ctx, "chan-1")
	if err != nil || !deleted {
		t.Fatalf("unregister: deleted=%v err=%v", deleted, err)
	}
	if _, found, _ := env.store.GetChannelByExternalID("chan-1"); found {
		t.Fatalf("channel row should be gone")
	}
	if count, _ := env.store.CountTurns(channel.ID); count != 0 {
		t.Fatalf("turns should cascade away, got %d", count)
	}

	// Second unregister is a no-op.
	deleted, err = env.engine.Unregister(ctx, "chan-1")
	if err != nil || deleted {
		t.Fatalf("expected no-op, deleted=%v err=%v", deleted, err)
	}
}

func TestLookupCachesMisses(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	registry := env.engine.registry

	channel, err := registry.Lookup(ctx, "chan-x")
	if err != nil || channel != nil {
		t.Fatalf("expected miss, got %v err=%v", channel, err)
	}
	// The miss is now cached: registering through the store alone is not
	// visible until the cache entry is replaced via Register.
	if _, err := env.store.UpsertChannel("chan-x", "sneaky"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	channel, err = registry.Lookup(ctx, "chan-x")
	if err != nil || channel != nil {
		t.Fatalf("expected cached miss, got %v err=%v", channel, err)
	}
	if _, err := registry.Register(ctx, "chan-x", "sneaky"); err != nil {
		t.Fatalf("register: %v", err)
	}
	channel, err = registry.Lookup(ctx, "chan-x")
	if err != nil || channel == nil {
		t.Fatalf("expected hit after register, err=%v", err)
	}
}
