package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/freeeve/tilefront/api/internal/model"
	"github.com/freeeve/tilefront/api/pkg/conquest"
)

// mockGameRepo implements repository.GameRepository in memory.
type mockGameRepo struct {
	games   map[string]*model.Game
	players map[string][]model.GamePlayer
}

func newMockGameRepo() *mockGameRepo {
	return &mockGameRepo{
		games:   make(map[string]*model.Game),
		players: make(map[string][]model.GamePlayer),
	}
}

func (m *mockGameRepo) Create(_ context.Context, name, creatorID string, mapSeed int64, mapWidth, mapHeight, maxPlayers int) (*model.Game, error) {
	g := &model.Game{
		ID:         fmt.Sprintf("game-%d", len(m.games)+1),
		Name:       name,
		CreatorID:  creatorID,
		Status:     "waiting",
		MapSeed:    mapSeed,
		MapWidth:   mapWidth,
		MapHeight:  mapHeight,
		MaxPlayers: maxPlayers,
		CreatedAt:  time.Now(),
	}
	m.games[g.ID] = g
	return g, nil
}

func (m *mockGameRepo) FindByID(_ context.Context, id string) (*model.Game, error) {
	g, ok := m.games[id]
	if !ok {
		return nil, nil
	}
	cp := *g
	cp.Players = m.players[id]
	return &cp, nil
}

func (m *mockGameRepo) ListOpen(_ context.Context) ([]model.Game, error) {
	var result []model.Game
	for _, g := range m.games {
		if g.Status == "waiting" {
			result = append(result, *g)
		}
	}
	return result, nil
}

func (m *mockGameRepo) ListByUser(_ context.Context, userID string) ([]model.Game, error) {
	seen := make(map[string]bool)
	var result []model.Game
	for gameID, players := range m.players {
		for _, p := range players {
			if p.UserID == userID && !seen[gameID] {
				if g, ok := m.games[gameID]; ok {
					result = append(result, *g)
					seen[gameID] = true
				}
			}
		}
	}
	for _, g := range m.games {
		if g.CreatorID == userID && !seen[g.ID] {
			result = append(result, *g)
			seen[g.ID] = true
		}
	}
	return result, nil
}

func (m *mockGameRepo) ListActive(_ context.Context) ([]model.Game, error) {
	var result []model.Game
	for _, g := range m.games {
		if g.Status == "active" {
			cp := *g
			cp.Players = m.players[g.ID]
			result = append(result, cp)
		}
	}
	return result, nil
}

func (m *mockGameRepo) ListFinished(_ context.Context) ([]model.Game, error) {
	var result []model.Game
	for _, g := range m.games {
		if g.Status == "finished" {
			cp := *g
			cp.Players = m.players[g.ID]
			result = append(result, cp)
		}
	}
	return result, nil
}

func (m *mockGameRepo) JoinGame(_ context.Context, gameID, userID string, team int) error {
	m.players[gameID] = append(m.players[gameID], model.GamePlayer{
		GameID:   gameID,
		UserID:   userID,
		Team:     team,
		JoinedAt: time.Now(),
	})
	return nil
}

func (m *mockGameRepo) JoinGameAsBot(_ context.Context, gameID, userID, difficulty string) error {
	if difficulty == "" {
		difficulty = "easy"
	}
	m.players[gameID] = append(m.players[gameID], model.GamePlayer{
		GameID:        gameID,
		UserID:        userID,
		IsBot:         true,
		BotDifficulty: difficulty,
		JoinedAt:      time.Now(),
	})
	return nil
}

func (m *mockGameRepo) PlayerCount(_ context.Context, gameID string) (int, error) {
	return len(m.players[gameID]), nil
}

func (m *mockGameRepo) AssignPlayerNums(_ context.Context, gameID string, nums map[string]int) error {
	players := m.players[gameID]
	for i := range players {
		if n, ok := nums[players[i].UserID]; ok {
			players[i].PlayerNum = n
		}
	}
	m.players[gameID] = players
	return nil
}

func (m *mockGameRepo) SetStarted(_ context.Context, gameID string) error {
	if g, ok := m.games[gameID]; ok {
		g.Status = "active"
		now := time.Now()
		g.StartedAt = &now
	}
	return nil
}

func (m *mockGameRepo) SetFinished(_ context.Context, gameID, winner string) error {
	if g, ok := m.games[gameID]; ok {
		g.Status = "finished"
		g.Winner = winner
		now := time.Now()
		g.FinishedAt = &now
	}
	return nil
}

func (m *mockGameRepo) Delete(_ context.Context, gameID string) error {
	delete(m.games, gameID)
	delete(m.players, gameID)
	return nil
}

func (m *mockGameRepo) UpdateBotDifficulty(_ context.Context, gameID, botUserID, difficulty string) error {
	players := m.players[gameID]
	for i, p := range players {
		if p.UserID == botUserID && p.IsBot {
			players[i].BotDifficulty = difficulty
			return nil
		}
	}
	return fmt.Errorf("bot not found")
}

// mockUserRepo implements repository.UserRepository in memory.
type mockUserRepo struct {
	users map[string]*model.User
	seq   int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return u, nil
}

func (m *mockUserRepo) FindByProviderID(_ context.Context, provider, providerID string) (*model.User, error) {
	for _, u := range m.users {
		if u.Provider == provider && u.ProviderID == providerID {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) Upsert(_ context.Context, provider, providerID, displayName, avatarURL string) (*model.User, error) {
	for _, u := range m.users {
		if u.Provider == provider && u.ProviderID == providerID {
			u.DisplayName = displayName
			return u, nil
		}
	}
	m.seq++
	u := &model.User{
		ID:          fmt.Sprintf("user-%d", m.seq),
		Provider:    provider,
		ProviderID:  providerID,
		DisplayName: displayName,
		AvatarURL:   avatarURL,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *mockUserRepo) UpdateDisplayName(_ context.Context, id, displayName string) error {
	if u, ok := m.users[id]; ok {
		u.DisplayName = displayName
	}
	return nil
}

// mockSnapshotRepo implements repository.SnapshotRepository in memory.
type mockSnapshotRepo struct {
	mu    sync.Mutex
	snaps map[string][]model.GameSnapshot
}

func newMockSnapshotRepo() *mockSnapshotRepo {
	return &mockSnapshotRepo{snaps: make(map[string][]model.GameSnapshot)}
}

func (m *mockSnapshotRepo) Save(_ context.Context, gameID string, tick int64, state []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps[gameID] = append(m.snaps[gameID], model.GameSnapshot{
		GameID: gameID,
		Tick:   tick,
		State:  append([]byte(nil), state...),
	})
	return nil
}

func (m *mockSnapshotRepo) Latest(_ context.Context, gameID string) (*model.GameSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snaps := m.snaps[gameID]
	if len(snaps) == 0 {
		return nil, nil
	}
	best := snaps[0]
	for _, s := range snaps[1:] {
		if s.Tick > best.Tick {
			best = s
		}
	}
	return &best, nil
}

func (m *mockSnapshotRepo) Prune(_ context.Context, gameID string, keep int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snaps := m.snaps[gameID]
	for len(snaps) > keep {
		oldest := 0
		for i, s := range snaps {
			if s.Tick < snaps[oldest].Tick {
				oldest = i
			}
		}
		snaps = append(snaps[:oldest], snaps[oldest+1:]...)
	}
	m.snaps[gameID] = snaps
	return nil
}

// mockEventRepo implements repository.EventRepository in memory.
type mockEventRepo struct {
	mu     sync.Mutex
	events map[string][]model.GameEvent
}

func newMockEventRepo() *mockEventRepo {
	return &mockEventRepo{events: make(map[string][]model.GameEvent)}
}

func (m *mockEventRepo) Append(_ context.Context, e *model.GameEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[e.GameID] = append(m.events[e.GameID], *e)
	return nil
}

func (m *mockEventRepo) ListByGame(_ context.Context, gameID string, limit int) ([]model.GameEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	events := m.events[gameID]
	if len(events) > limit {
		events = events[len(events)-limit:]
	}
	return append([]model.GameEvent(nil), events...), nil
}

// mockCache implements repository.GameCache in memory.
type mockCache struct {
	mu      sync.Mutex
	intents map[string][]conquest.Intent
	states  map[string]json.RawMessage
	ticks   map[string]int64
	active  map[string]bool
}

func newMockCache() *mockCache {
	return &mockCache{
		intents: make(map[string][]conquest.Intent),
		states:  make(map[string]json.RawMessage),
		ticks:   make(map[string]int64),
		active:  make(map[string]bool),
	}
}

func (c *mockCache) PushIntent(_ context.Context, gameID string, in conquest.Intent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.intents[gameID] = append(c.intents[gameID], in)
	return nil
}

func (c *mockCache) DrainIntents(_ context.Context, gameID string) ([]conquest.Intent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	intents := c.intents[gameID]
	delete(c.intents, gameID)
	return intents, nil
}

func (c *mockCache) SetLiveState(_ context.Context, gameID string, tick int64, state json.RawMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states[gameID] = state
	c.ticks[gameID] = tick
	return nil
}

func (c *mockCache) GetLiveState(_ context.Context, gameID string) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.states[gameID], nil
}

func (c *mockCache) LiveTick(_ context.Context, gameID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if tick, ok := c.ticks[gameID]; ok {
		return tick, nil
	}
	return -1, nil
}

func (c *mockCache) MarkActive(_ context.Context, gameID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active[gameID] = true
	return nil
}

func (c *mockCache) UnmarkActive(_ context.Context, gameID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.active, gameID)
	return nil
}

func (c *mockCache) ActiveGames(_ context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var ids []string
	for id := range c.active {
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *mockCache) DeleteGameData(_ context.Context, gameID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.intents, gameID)
	delete(c.states, gameID)
	delete(c.ticks, gameID)
	delete(c.active, gameID)
	return nil
}

// recordingBroadcaster captures broadcast events for assertions.
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []broadcastEvent
}

type broadcastEvent struct {
	gameID    string
	eventType string
	data      any
}

func (b *recordingBroadcaster) BroadcastGameEvent(gameID, eventType string, data any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, broadcastEvent{gameID, eventType, data})
}

func (b *recordingBroadcaster) count(eventType string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, e := range b.events {
		if e.eventType == eventType {
			n++
		}
	}
	return n
}
