package engine

import (
	"context"
	"errors"
	"testing"
)

func TestStartGameRequiresRegistration(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.engine.StartGame(context.Background(), "chan-x")
	var notRegistered *NotRegisteredError
	if !errors.As(err, &notRegistered) {
		t.Fatalf("expected NotRegisteredError, got %v", err)
	}
}

func TestStartGameTwiceFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if _, err := env.engine.Register(ctx, "chan-1", "shiritori"); err != nil {
		t.Fatalf("register: %v", err)
	}

	game, err := env.engine.StartGame(ctx, "chan-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	channel, _, _ := env.store.GetChannelByExternalID("chan-1")
	if !channel.GameRunning() || *channel.CurrentGameID != game.ID {
		t.Fatalf("channel should point at the new game")
	}

	_, err = env.engine.StartGame(ctx, "chan-1")
	var alreadyRunning *AlreadyRunningError
	if !errors.As(err, &alreadyRunning) {
		t.Fatalf("expected AlreadyRunningError, got %v", err)
	}
	if alreadyRunning.Channel != "shiritori" {
		t.Fatalf("error should name the channel, got %q", alreadyRunning.Channel)
	}
	channel, _, _ = env.store.GetChannelByExternalID("chan-1")
	if *channel.CurrentGameID != game.ID {
		t.Fatalf("failed start must not replace the running game")
	}
}

func TestEndGame(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if _, err := env.engine.Register(ctx, "chan-1", "shiritori"); err != nil {
		t.Fatalf("register: %v", err)
	}

	// Ending an idle channel fails.
	_, err := env.engine.EndGame(ctx, "chan-1")
	var notRunning *NotRunningError
	if !errors.As(err, &notRunning) {
		t.Fatalf("expected NotRunningError, got %v", err)
	}

	game, err := env.engine.StartGame(ctx, "chan-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	env.tick()
	ended, err := env.engine.EndGame(ctx, "chan-1")
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if ended.ID != game.ID {
		t.Fatalf("end should return the closed game")
	}
	if ended.EndedAt == nil || !ended.EndedAt.After(ended.StartedAt) {
		t.Fatalf("ended game should carry an end time after its start: %+v", ended)
	}

	channel, _, _ := env.store.GetChannelByExternalID("chan-1")
	if channel.GameRunning() || channel.CurrentGameID != nil {
		t.Fatalf("channel should be idle after end")
	}
	// The game row survives as history.
	if _, found, _ := env.store.GetGame(game.ID); !found {
		t.Fatalf("ended game row should remain queryable")
	}
}

func TestEndedGameStaysOutOfChain(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	startGame(t, env, "chan-1", "shiritori")
	if err := env.engine.HandleMessage(ctx, env.message("chan-1", "u1", "alice", "apple")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if _, err := env.engine.EndGame(ctx, "chan-1"); err != nil {
		t.Fatalf("end: %v", err)
	}

	// A fresh game has no chain constraint and no repeat memory.
	if _, err := env.engine.StartGame(ctx, "chan-1"); err != nil {
		t.Fatalf("restart: %v", err)
	}
	env.notifier.reset()
	if err := env.engine.HandleMessage(ctx, env.message("chan-1", "u1", "alice", "apple")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(env.notifier.replies) != 0 {
		t.Fatalf("new game should accept a word used last game: %v", env.notifier.replies)
	}
	if got := turnCount(t, env, "chan-1"); got != 2 {
		t.Fatalf("expected 2 turns across both games, got %d", got)
	}
}
