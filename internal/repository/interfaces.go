package repository

import (
	"context"
	"encoding/json"

	"github.com/freeeve/tilefront/api/internal/model"
	"github.com/freeeve/tilefront/api/pkg/conquest"
)

// UserRepository defines user data operations.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByProviderID(ctx context.Context, provider, providerID string) (*model.User, error)
	Upsert(ctx context.Context, provider, providerID, displayName, avatarURL string) (*model.User, error)
	UpdateDisplayName(ctx context.Context, id, displayName string) error
}

// GameRepository defines game and player data operations.
type GameRepository interface {
	Create(ctx context.Context, name, creatorID string, mapSeed int64, mapWidth, mapHeight, maxPlayers int) (*model.Game, error)
	FindByID(ctx context.Context, id string) (*model.Game, error)
	ListOpen(ctx context.Context) ([]model.Game, error)
	ListByUser(ctx context.Context, userID string) ([]model.Game, error)
	ListActive(ctx context.Context) ([]model.Game, error)
	ListFinished(ctx context.Context) ([]model.Game, error)
	JoinGame(ctx context.Context, gameID, userID string, team int) error
	JoinGameAsBot(ctx context.Context, gameID, userID, difficulty string) error
	PlayerCount(ctx context.Context, gameID string) (int, error)
	AssignPlayerNums(ctx context.Context, gameID string, nums map[string]int) error
	SetStarted(ctx context.Context, gameID string) error
	SetFinished(ctx context.Context, gameID, winner string) error
	Delete(ctx context.Context, gameID string) error
	UpdateBotDifficulty(ctx context.Context, gameID, botUserID, difficulty string) error
}

// SnapshotRepository persists simulation checkpoints.
type SnapshotRepository interface {
	Save(ctx context.Context, gameID string, tick int64, state []byte) error
	Latest(ctx context.Context, gameID string) (*model.GameSnapshot, error)
	Prune(ctx context.Context, gameID string, keep int) error
}

// EventRepository records display events for match history.
type EventRepository interface {
	Append(ctx context.Context, e *model.GameEvent) error
	ListByGame(ctx context.Context, gameID string, limit int) ([]model.GameEvent, error)
}

// GameCache defines live game state operations (Redis): the intent queue
// feeding the tick loop, the latest published tick for reconnecting
// clients, and the active-game set used for crash recovery.
type GameCache interface {
	PushIntent(ctx context.Context, gameID string, in conquest.Intent) error
	DrainIntents(ctx context.Context, gameID string) ([]conquest.Intent, error)
	SetLiveState(ctx context.Context, gameID string, tick int64, state json.RawMessage) error
	GetLiveState(ctx context.Context, gameID string) (json.RawMessage, error)
	LiveTick(ctx context.Context, gameID string) (int64, error)
	MarkActive(ctx context.Context, gameID string) error
	UnmarkActive(ctx context.Context, gameID string) error
	ActiveGames(ctx context.Context) ([]string, error)
	DeleteGameData(ctx context.Context, gameID string) error
}
