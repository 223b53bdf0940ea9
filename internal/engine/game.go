package engine

import (
	"context"
	"fmt"

	"shiritori/pkg/domain"
)

// StartGame begins a game in a registered, idle channel. The only states
// are idle and running, encoded by the channel's current-game reference.
func (e *Engine) StartGame(ctx context.Context, externalID string) (domain.Game, error) {
	channel, err := e.registry.Lookup(ctx, externalID)
	if err != nil {
		return domain.Game{}, err
	}
	if channel == nil {
		return domain.Game{}, &NotRegisteredError{Channel: externalID}
	}
	if channel.GameRunning() {
		return domain.Game{}, &AlreadyRunningError{Channel: channelLabel(channel)}
	}

	game := domain.Game{ChannelID: channel.ID, StartedAt: e.now()}
	if err := e.store.CreateGame(&game); err != nil {
		return domain.Game{}, fmt.Errorf("create game: %w", err)
	}
	if err := e.store.SetCurrentGame(channel.ID, &game.ID); err != nil {
		return domain.Game{}, fmt.Errorf("set current game: %w", err)
	}
	channel.CurrentGameID = &game.ID
	e.registry.refresh(ctx, *channel)
	e.logger.Info("game started", "channel", channelLabel(channel), "game_id", game.ID)
	return game, nil
}

// EndGame closes the running game. The game row is kept as history; only
// the channel's reference is cleared and the game's end time stamped.
func (e *Engine) EndGame(ctx context.Context, externalID string) (domain.Game, error) {
	channel, err := e.registry.Lookup(ctx, externalID)
	if err != nil {
		return domain.Game{}, err
	}
	if channel == nil {
		return domain.Game{}, &NotRegisteredError{Channel: externalID}
	}
	if !channel.GameRunning() {
		return domain.Game{}, &NotRunningError{Channel: channelLabel(channel)}
	}

	gameID := *channel.CurrentGameID
	endedAt := e.now()
	if err := e.store.EndGame(gameID, endedAt); err != nil {
		return domain.Game{}, fmt.Errorf("end game: %w", err)
	}
	if err := e.store.SetCurrentGame(channel.ID, nil); err != nil {
		return domain.Game{}, fmt.Errorf("clear current game: %w", err)
	}
	channel.CurrentGameID = nil
	e.registry.refresh(ctx, *channel)

	game, _, err := e.store.GetGame(gameID)
	if err != nil {
		return domain.Game{}, fmt.Errorf("load ended game: %w", err)
	}
	e.logger.Info("game ended", "channel", channelLabel(channel), "game_id", gameID)
	return game, nil
}
