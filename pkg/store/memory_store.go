package store

import (
	"sort"
	"sync"
	"time"

	"shiritori/pkg/domain"
)

// MemoryStore keeps everything in-process. It mirrors GormStore behavior,
// including cascade deletes, so engine tests can run without a database.
type MemoryStore struct {
	mu       sync.RWMutex
	nextID   int64
	words    map[int64]domain.Word
	wordText map[string]int64
	banned   map[string]struct{}
	channels map[int64]domain.Channel
	chanExt  map[string]int64
	games    map[int64]domain.Game
	users    map[int64]domain.User
	userExt  map[string]int64
	turns    []domain.Turn
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		words:    make(map[int64]domain.Word),
		wordText: make(map[string]int64),
		banned:   make(map[string]struct{}),
		channels: make(map[int64]domain.Channel),
		chanExt:  make(map[string]int64),
		games:    make(map[int64]domain.Game),
		users:    make(map[int64]domain.User),
		userExt:  make(map[string]int64),
	}
}

func (m *MemoryStore) id() int64 {
	m.nextID++
	return m.nextID
}

// GetWordByText looks up a word by normalized text.
func (m *MemoryStore) GetWordByText(text string) (domain.Word, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.wordText[text]
	if !ok {
		return domain.Word{}, false, nil
	}
	return m.words[id], true, nil
}

// CreateWord inserts a word and assigns its ID.
func (m *MemoryStore) CreateWord(w *domain.Word) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.wordText[w.Text]; ok {
		*w = m.words[id]
		return nil
	}
	w.ID = m.id()
	m.words[w.ID] = *w
	m.wordText[w.Text] = w.ID
	return nil
}

// CreateWords bulk-inserts tokens; existing tokens keep their source.
func (m *MemoryStore) CreateWords(texts []string, source domain.WordSource, batchSize int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inserted := 0
	now := time.Now().UTC()
	for _, text := range texts {
		if _, ok := m.wordText[text]; ok {
			continue
		}
		word := domain.Word{ID: m.id(), Text: text, Source: source, CreatedAt: now}
		m.words[word.ID] = word
		m.wordText[text] = word.ID
		inserted++
	}
	return inserted, nil
}

// IsBannedWord checks banned-set membership.
func (m *MemoryStore) IsBannedWord(text string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.banned[text]
	return ok, nil
}

// AddBannedWords bulk-inserts banned tokens.
func (m *MemoryStore) AddBannedWords(texts []string, batchSize int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inserted := 0
	for _, text := range texts {
		if _, ok := m.banned[text]; ok {
			continue
		}
		m.banned[text] = struct{}{}
		inserted++
	}
	return inserted, nil
}

// GetChannelByExternalID looks up a channel by chat-platform ID.
func (m *MemoryStore) GetChannelByExternalID(externalID string) (domain.Channel, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.chanExt[externalID]
	if !ok {
		return domain.Channel{}, false, nil
	}
	return m.channels[id], true, nil
}

// UpsertChannel registers or renames a channel without touching game state.
func (m *MemoryStore) UpsertChannel(externalID, name string) (domain.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.chanExt[externalID]; ok {
		channel := m.channels[id]
		channel.Name = name
		m.channels[id] = channel
		return channel, nil
	}
	channel := domain.Channel{ID: m.id(), ExternalID: externalID, Name: name}
	m.channels[channel.ID] = channel
	m.chanExt[externalID] = channel.ID
	return channel, nil
}

// DeleteChannel removes the channel and cascades to its games and turns.
func (m *MemoryStore) DeleteChannel(externalID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.chanExt[externalID]
	if !ok {
		return false, nil
	}
	delete(m.chanExt, externalID)
	delete(m.channels, id)
	for gameID, game := range m.games {
		if game.ChannelID == id {
			delete(m.games, gameID)
		}
	}
	kept := m.turns[:0]
	for _, turn := range m.turns {
		if turn.ChannelID != id {
			kept = append(kept, turn)
		}
	}
	m.turns = kept
	return true, nil
}

// SetCurrentGame points the channel at a game or clears it.
func (m *MemoryStore) SetCurrentGame(channelID int64, gameID *int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	channel, ok := m.channels[channelID]
	if !ok {
		return nil
	}
	channel.CurrentGameID = gameID
	m.channels[channelID] = channel
	return nil
}

// CreateGame inserts a game and assigns its ID.
func (m *MemoryStore) CreateGame(g *domain.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g.ID = m.id()
	m.games[g.ID] = *g
	return nil
}

// GetGame returns a game by ID.
func (m *MemoryStore) GetGame(id int64) (domain.Game, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	game, ok := m.games[id]
	return game, ok, nil
}

// EndGame stamps the game's end time.
func (m *MemoryStore) EndGame(id int64, endedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	game, ok := m.games[id]
	if !ok {
		return nil
	}
	game.EndedAt = &endedAt
	m.games[id] = game
	return nil
}

// GetUserByExternalID looks up a player by chat-platform user ID.
func (m *MemoryStore) GetUserByExternalID(externalID string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.userExt[externalID]
	if !ok {
		return domain.User{}, false, nil
	}
	return m.users[id], true, nil
}

// GetUserByID returns a player by row ID.
func (m *MemoryStore) GetUserByID(id int64) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	return user, ok, nil
}

// CreateUser inserts a player and assigns the ID.
func (m *MemoryStore) CreateUser(u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = m.id()
	m.users[u.ID] = *u
	m.userExt[u.ExternalID] = u.ID
	return nil
}

// CreateTurn records an accepted move.
func (m *MemoryStore) CreateTurn(t *domain.Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = m.id()
	m.turns = append(m.turns, *t)
	return nil
}

// LatestChainTurn returns the newest unknown/ok turn in the game with its
// word.
func (m *MemoryStore) LatestChainTurn(gameID int64) (domain.Turn, domain.Word, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest domain.Turn
	found := false
	for _, turn := range m.turns {
		if turn.GameID == nil || *turn.GameID != gameID {
			continue
		}
		if turn.State != domain.TurnUnknown && turn.State != domain.TurnOK {
			continue
		}
		if !found || turn.Timestamp.After(latest.Timestamp) {
			latest = turn
			found = true
		}
	}
	if !found {
		return domain.Turn{}, domain.Word{}, false, nil
	}
	return latest, m.words[latest.WordID], true, nil
}

// EarliestTurnForWord returns the oldest turn in the game referencing the
// word.
func (m *MemoryStore) EarliestTurnForWord(gameID, wordID int64) (domain.Turn, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var matches []domain.Turn
	for _, turn := range m.turns {
		if turn.GameID != nil && *turn.GameID == gameID && turn.WordID == wordID {
			matches = append(matches, turn)
		}
	}
	if len(matches) == 0 {
		return domain.Turn{}, false, nil
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Timestamp.Before(matches[j].Timestamp)
	})
	return matches[0], true, nil
}

// LatestTurnTime returns the newest turn timestamp logged for the channel.
func (m *MemoryStore) LatestTurnTime(channelID int64) (time.Time, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest time.Time
	found := false
	for _, turn := range m.turns {
		if turn.ChannelID != channelID {
			continue
		}
		if !found || turn.Timestamp.After(latest) {
			latest = turn.Timestamp
			found = true
		}
	}
	return latest, found, nil
}

// CountTurns returns the number of turns logged for the channel.
func (m *MemoryStore) CountTurns(channelID int64) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var count int64
	for _, turn := range m.turns {
		if turn.ChannelID == channelID {
			count++
		}
	}
	return count, nil
}
