package store

import (
	"time"

	"shiritori/pkg/domain"
)

// Store defines persistence operations for words, channels, games, users,
// and turns.
type Store interface {
	// words
	GetWordByText(text string) (domain.Word, bool, error)
	CreateWord(w *domain.Word) error
	CreateWords(texts []string, source domain.WordSource, batchSize int) (int, error)
	IsBannedWord(text string) (bool, error)
	AddBannedWords(texts []string, batchSize int) (int, error)

	// channels
	GetChannelByExternalID(externalID string) (domain.Channel, bool, error)
	UpsertChannel(externalID, name string) (domain.Channel, error)
	DeleteChannel(externalID string) (bool, error)
	SetCurrentGame(channelID int64, gameID *int64) error

	// games
	CreateGame(g *domain.Game) error
	GetGame(id int64) (domain.Game, bool, error)
	EndGame(id int64, endedAt time.Time) error

	// users
	GetUserByExternalID(externalID string) (domain.User, bool, error)
	GetUserByID(id int64) (domain.User, bool, error)
	CreateUser(u *domain.User) error

	// turns
	CreateTurn(t *domain.Turn) error
	// LatestChainTurn returns the most recent turn in the game whose state
	// counts toward the chain (unknown or ok), together with its word.
	LatestChainTurn(gameID int64) (domain.Turn, domain.Word, bool, error)
	// EarliestTurnForWord returns the oldest turn in the game referencing
	// the word, for repeat reporting.
	EarliestTurnForWord(gameID, wordID int64) (domain.Turn, bool, error)
	LatestTurnTime(channelID int64) (time.Time, bool, error)
	CountTurns(channelID int64) (int64, error)
}
