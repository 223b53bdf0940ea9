package domain

import "time"

// WordSource records how a word entered the directory. It is set once at
// creation and never changed by game play.
type WordSource string

const (
	SourceList     WordSource = "list"
	SourceRejected WordSource = "rejected"
	SourceGame     WordSource = "game"
	SourceVetted   WordSource = "vetted"
)

// TurnState classifies an accepted turn. Rejected candidates are never
// persisted, so "repeat" and "rejected" only appear on rows written by
// tooling or older data.
type TurnState string

const (
	TurnUnknown  TurnState = "unknown"
	TurnOK       TurnState = "ok"
	TurnRepeat   TurnState = "repeat"
	TurnRejected TurnState = "rejected"
)

// Emoji identifies a reaction the engine asks the gateway to attach.
type Emoji string

const (
	EmojiNay        Emoji = "nay"
	EmojiThumbsUp   Emoji = "thumbs_up"
	EmojiThumbsDown Emoji = "thumbs_down"
	EmojiThinking   Emoji = "thinking"
	EmojiRecycle    Emoji = "recycle"
)

type Word struct {
	ID        int64      `json:"id"`
	Text      string     `json:"text"`
	Source    WordSource `json:"source"`
	CreatedAt time.Time  `json:"createdAt"`
}

type Channel struct {
	ID            int64  `json:"id"`
	ExternalID    string `json:"externalId"`
	Name          string `json:"name"`
	CurrentGameID *int64 `json:"currentGameId,omitempty"`
}

// GameRunning reports whether a game is in session. The flag is derived so
// it can never disagree with CurrentGameID.
func (c Channel) GameRunning() bool {
	return c.CurrentGameID != nil
}

type Game struct {
	ID        int64      `json:"id"`
	ChannelID int64      `json:"channelId"`
	StartedAt time.Time  `json:"startedAt"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
}

type User struct {
	ID         int64     `json:"id"`
	ExternalID string    `json:"externalId"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Turn is one accepted word submission. GameID and UserID are nil only for
// backfill rows imported from channel history.
type Turn struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Content   string    `json:"content"`
	State     TurnState `json:"state"`
	WordID    int64     `json:"wordId"`
	GameID    *int64    `json:"gameId,omitempty"`
	ChannelID int64     `json:"channelId"`
	UserID    *int64    `json:"userId,omitempty"`
}

// IncomingMessage is one chat message as delivered by the gateway. Messages
// authored by the bot itself are filtered out before this point.
type IncomingMessage struct {
	MessageID   string
	ChannelID   string
	ChannelName string
	AuthorID    string
	AuthorName  string
	Content     string
	CleanText   string
	CreatedAt   time.Time
	MentionsBot bool
}

// ChannelInfo is the summary reported by the info command.
type ChannelInfo struct {
	Name        string
	Messages    int64
	GameRunning bool
	GameStarted time.Time
}
