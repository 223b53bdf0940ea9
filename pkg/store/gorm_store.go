package store

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"shiritori/pkg/domain"
)

const defaultBatchSize = 1000

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(
		&WordModel{}, &BannedWordModel{}, &ChannelModel{},
		&GameModel{}, &UserModel{}, &TurnModel{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// Wipe drops every table. Used by the wipe CLI subcommand.
func (s *GormStore) Wipe() error {
	return s.db.Migrator().DropTable(
		&TurnModel{}, &GameModel{}, &ChannelModel{},
		&UserModel{}, &BannedWordModel{}, &WordModel{},
	)
}

// GetWordByText looks up a word by its normalized text.
func (s *GormStore) GetWordByText(text string) (domain.Word, bool, error) {
	var model WordModel
	if err := s.db.Where("text = ?", text).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Word{}, false, nil
		}
		return domain.Word{}, false, err
	}
	return wordFromModel(model), true, nil
}

// CreateWord inserts a word and fills in its assigned ID.
func (s *GormStore) CreateWord(w *domain.Word) error {
	model := wordToModel(*w)
	if err := s.db.Create(&model).Error; err != nil {
		return err
	}
	*w = wordFromModel(model)
	return nil
}

// CreateWords bulk-inserts tokens with the given source. Tokens already
// present are skipped without touching their source. Returns the number of
// rows actually inserted.
func (s *GormStore) CreateWords(texts []string, source domain.WordSource, batchSize int) (int, error) {
	if len(texts) == 0 {
		return 0, nil
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	now := time.Now().UTC()
	models := make([]WordModel, 0, len(texts))
	for _, text := range texts {
		models = append(models, WordModel{Text: text, Source: string(source), CreatedAt: now})
	}
	tx := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "text"}},
		DoNothing: true,
	}).CreateInBatches(&models, batchSize)
	if tx.Error != nil {
		return 0, tx.Error
	}
	return int(tx.RowsAffected), nil
}

// IsBannedWord checks banned-set membership.
func (s *GormStore) IsBannedWord(text string) (bool, error) {
	var count int64
	if err := s.db.Model(&BannedWordModel{}).Where("text = ?", text).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// AddBannedWords bulk-inserts banned tokens, skipping duplicates.
func (s *GormStore) AddBannedWords(texts []string, batchSize int) (int, error) {
	if len(texts) == 0 {
		return 0, nil
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	now := time.Now().UTC()
	models := make([]BannedWordModel, 0, len(texts))
	for _, text := range texts {
		models = append(models, BannedWordModel{Text: text, CreatedAt: now})
	}
	tx := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "text"}},
		DoNothing: true,
	}).CreateInBatches(&models, batchSize)
	if tx.Error != nil {
		return 0, tx.Error
	}
	return int(tx.RowsAffected), nil
}

// GetChannelByExternalID looks up a channel by its chat-platform ID.
func (s *GormStore) GetChannelByExternalID(externalID string) (domain.Channel, bool, error) {
	var model ChannelModel
	if err := s.db.Where("external_id = ?", externalID).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Channel{}, false, nil
		}
		return domain.Channel{}, false, err
	}
	return channelFromModel(model), true, nil
}

// UpsertChannel registers a channel or refreshes its name. Game state is
// never reset by re-registration.
func (s *GormStore) UpsertChannel(externalID, name string) (domain.Channel, error) {
	model := ChannelModel{ExternalID: externalID, Name: name}
	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name"}),
	}).Create(&model).Error; err != nil {
		return domain.Channel{}, err
	}
	// Re-read so current_game_id reflects the stored row, not the upsert
	// payload.
	channel, _, err := s.GetChannelByExternalID(externalID)
	return channel, err
}

// DeleteChannel removes the channel; games and turns go with it via FK
// cascade. Returns false when no such channel existed.
func (s *GormStore) DeleteChannel(externalID string) (bool, error) {
	tx := s.db.Where("external_id = ?", externalID).Delete(&ChannelModel{})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// SetCurrentGame points the channel at a game, or clears it when gameID is
// nil.
func (s *GormStore) SetCurrentGame(channelID int64, gameID *int64) error {
	return s.db.Model(&ChannelModel{}).
		Where("id = ?", channelID).
		Update("current_game_id", gameID).Error
}

// CreateGame inserts a game row and fills in its assigned ID.
func (s *GormStore) CreateGame(g *domain.Game) error {
	model := GameModel{StartedAt: g.StartedAt, EndedAt: g.EndedAt, ChannelID: g.ChannelID}
	if err := s.db.Create(&model).Error; err != nil {
		return err
	}
	*g = gameFromModel(model)
	return nil
}

// GetGame returns a game by ID.
func (s *GormStore) GetGame(id int64) (domain.Game, bool, error) {
	var model GameModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Game{}, false, nil
		}
		return domain.Game{}, false, err
	}
	return gameFromModel(model), true, nil
}

// EndGame stamps the game's end time. The row itself is preserved as
// history.
func (s *GormStore) EndGame(id int64, endedAt time.Time) error {
	return s.db.Model(&GameModel{}).
		Where("id = ?", id).
		Update("ended_at", endedAt).Error
}

// GetUserByExternalID looks up a player by chat-platform user ID.
func (s *GormStore) GetUserByExternalID(externalID string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where("external_id = ?", externalID).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByID returns a player by row ID.
func (s *GormStore) GetUserByID(id int64) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// CreateUser inserts a player and fills in the assigned ID.
func (s *GormStore) CreateUser(u *domain.User) error {
	model := UserModel{ExternalID: u.ExternalID, Name: u.Name, CreatedAt: u.CreatedAt}
	if err := s.db.Create(&model).Error; err != nil {
		return err
	}
	*u = userFromModel(model)
	return nil
}

// CreateTurn records an accepted move.
func (s *GormStore) CreateTurn(t *domain.Turn) error {
	model := TurnModel{
		Timestamp: t.Timestamp,
		Content:   t.Content,
		State:     string(t.State),
		WordID:    t.WordID,
		GameID:    t.GameID,
		ChannelID: t.ChannelID,
		UserID:    t.UserID,
	}
	if err := s.db.Create(&model).Error; err != nil {
		return err
	}
	*t = turnFromModel(model)
	return nil
}

// LatestChainTurn returns the newest turn in the game that counts toward
// the chain, with its word.
func (s *GormStore) LatestChainTurn(gameID int64) (domain.Turn, domain.Word, bool, error) {
	var model TurnModel
	err := s.db.Where("game_id = ? AND state IN ?", gameID,
		[]string{string(domain.TurnUnknown), string(domain.TurnOK)}).
		Order("timestamp DESC").
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Turn{}, domain.Word{}, false, nil
		}
		return domain.Turn{}, domain.Word{}, false, err
	}
	var word WordModel
	if err := s.db.First(&word, "id = ?", model.WordID).Error; err != nil {
		return domain.Turn{}, domain.Word{}, false, err
	}
	return turnFromModel(model), wordFromModel(word), true, nil
}

// EarliestTurnForWord returns the oldest turn in the game referencing the
// word. Ordering is deterministic so repeat reports always name the first
// use.
func (s *GormStore) EarliestTurnForWord(gameID, wordID int64) (domain.Turn, bool, error) {
	var model TurnModel
	err := s.db.Where("game_id = ? AND word_id = ?", gameID, wordID).
		Order("timestamp ASC").
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Turn{}, false, nil
		}
		return domain.Turn{}, false, err
	}
	return turnFromModel(model), true, nil
}

// LatestTurnTime returns the newest turn timestamp logged for the channel,
// across games and backfill rows.
func (s *GormStore) LatestTurnTime(channelID int64) (time.Time, bool, error) {
	var model TurnModel
	err := s.db.Where("channel_id = ?", channelID).
		Order("timestamp DESC").
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	return model.Timestamp, true, nil
}

// CountTurns returns the number of turns logged for the channel.
func (s *GormStore) CountTurns(channelID int64) (int64, error) {
	var count int64
	if err := s.db.Model(&TurnModel{}).Where("channel_id = ?", channelID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func wordToModel(w domain.Word) WordModel {
	return WordModel{
		ID:        w.ID,
		Text:      w.Text,
		Source:    string(w.Source),
		CreatedAt: w.CreatedAt,
	}
}

func wordFromModel(m WordModel) domain.Word {
	return domain.Word{
		ID:        m.ID,
		Text:      m.Text,
		Source:    domain.WordSource(m.Source),
		CreatedAt: m.CreatedAt,
	}
}

func channelFromModel(m ChannelModel) domain.Channel {
	return domain.Channel{
		ID:            m.ID,
		ExternalID:    m.ExternalID,
		Name:          m.Name,
		CurrentGameID: m.CurrentGameID,
	}
}

func gameFromModel(m GameModel) domain.Game {
	return domain.Game{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		StartedAt: m.StartedAt,
		EndedAt:   m.EndedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:         m.ID,
		ExternalID: m.ExternalID,
		Name:       m.Name,
		CreatedAt:  m.CreatedAt,
	}
}

func turnFromModel(m TurnModel) domain.Turn {
	return domain.Turn{
		ID:        m.ID,
		Timestamp: m.Timestamp,
		Content:   m.Content,
		State:     domain.TurnState(m.State),
		WordID:    m.WordID,
		GameID:    m.GameID,
		ChannelID: m.ChannelID,
		UserID:    m.UserID,
	}
}
