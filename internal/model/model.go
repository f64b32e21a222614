package model

import (
	"encoding/json"
	"time"
)

// User represents a registered user.
type User struct {
	ID          string    `json:"id"`
	Provider    string    `json:"provider"`
	ProviderID  string    `json:"provider_id"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Game represents a territory-conquest match.
type Game struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	CreatorID  string       `json:"creator_id"`
	Status     string       `json:"status"` // waiting, active, finished
	MapSeed    int64        `json:"map_seed"`
	MapWidth   int          `json:"map_width"`
	MapHeight  int          `json:"map_height"`
	MaxPlayers int          `json:"max_players"`
	Winner     string       `json:"winner,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	StartedAt  *time.Time   `json:"started_at,omitempty"`
	FinishedAt *time.Time   `json:"finished_at,omitempty"`
	Players    []GamePlayer `json:"players,omitempty"`
}

// GamePlayer represents a player's membership in a game. PlayerNum is the
// simulation-side owner ID, assigned in join order when the game starts.
type GamePlayer struct {
	GameID        string    `json:"game_id"`
	UserID        string    `json:"user_id"`
	PlayerNum     int       `json:"player_num,omitempty"`
	Team          int       `json:"team,omitempty"`
	IsBot         bool      `json:"is_bot"`
	BotDifficulty string    `json:"bot_difficulty"`
	JoinedAt      time.Time `json:"joined_at"`
}

// GameSnapshot is a persisted simulation checkpoint. State holds the
// zstd-compressed snapshot document; a game is recovered from its latest
// row after a server restart.
type GameSnapshot struct {
	ID        string    `json:"id"`
	GameID    string    `json:"game_id"`
	Tick      int64     `json:"tick"`
	State     []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// GameEvent is a durable record of a display event emitted by the
// simulation: attack outcomes, eliminations, the win. Payload carries the
// event's typed parameters as JSON.
type GameEvent struct {
	ID        string          `json:"id"`
	GameID    string          `json:"game_id"`
	Tick      int64           `json:"tick"`
	Key       string          `json:"key"`
	Severity  string          `json:"severity"`
	PlayerNum int             `json:"player_num"`
	TargetNum int             `json:"target_num,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
