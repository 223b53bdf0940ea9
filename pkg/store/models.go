package store

import "time"

// GORM models used for persistence.
type WordModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	Text      string    `gorm:"uniqueIndex;not null"`
	Source    string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (WordModel) TableName() string { return "words" }

type BannedWordModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	Text      string    `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (BannedWordModel) TableName() string { return "banned_words" }

type ChannelModel struct {
	ID            int64  `gorm:"primaryKey;autoIncrement"`
	ExternalID    string `gorm:"uniqueIndex;not null"`
	Name          string
	CurrentGameID *int64     `gorm:"index"`
	CurrentGame   *GameModel `gorm:"foreignKey:CurrentGameID;constraint:OnDelete:SET NULL"`
}

func (ChannelModel) TableName() string { return "channels" }

type GameModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	StartedAt time.Time `gorm:"not null;index"`
	EndedAt   *time.Time
	ChannelID int64         `gorm:"not null;index"`
	Channel   *ChannelModel `gorm:"foreignKey:ChannelID;constraint:OnDelete:CASCADE"`
}

func (GameModel) TableName() string { return "games" }

type UserModel struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	ExternalID string `gorm:"uniqueIndex;not null"`
	Name       string `gorm:"not null"`
	CreatedAt  time.Time
}

func (UserModel) TableName() string { return "users" }

type TurnModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	Timestamp time.Time `gorm:"not null;index"`
	Content   string    `gorm:"type:text;not null"`
	State     string    `gorm:"not null"`
	WordID    int64     `gorm:"not null;index"`
	Word      *WordModel
	GameID    *int64     `gorm:"index"`
	Game      *GameModel `gorm:"foreignKey:GameID;constraint:OnDelete:CASCADE"`
	ChannelID int64      `gorm:"not null;index"`
	Channel   *ChannelModel `gorm:"foreignKey:ChannelID;constraint:OnDelete:CASCADE"`
	UserID    *int64        `gorm:"index"`
	User      *UserModel    `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL"`
}

func (TurnModel) TableName() string { return "turns" }
