package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/freeeve/tilefront/api/internal/model"
)

// GameRepo handles game and game_player database operations.
type GameRepo struct {
	db *sql.DB
}

// NewGameRepo creates a GameRepo.
func NewGameRepo(db *sql.DB) *GameRepo {
	return &GameRepo{db: db}
}

const gameColumns = `id, name, creator_id, status, map_seed, map_width, map_height, max_players,
       winner, created_at, started_at, finished_at`

func scanGame(row interface{ Scan(...any) error }) (*model.Game, error) {
	var g model.Game
	var winner sql.NullString
	err := row.Scan(&g.ID, &g.Name, &g.CreatorID, &g.Status, &g.MapSeed, &g.MapWidth, &g.MapHeight,
		&g.MaxPlayers, &winner, &g.CreatedAt, &g.StartedAt, &g.FinishedAt)
	if err != nil {
		return nil, err
	}
	g.Winner = winner.String
	return &g, nil
}

// Create inserts a new game in waiting status.
func (r *GameRepo) Create(ctx context.Context, name, creatorID string, mapSeed int64, mapWidth, mapHeight, maxPlayers int) (*model.Game, error) {
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO games (name, creator_id, map_seed, map_width, map_height, max_players)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+gameColumns,
		name, creatorID, mapSeed, mapWidth, mapHeight, maxPlayers,
	)
	g, err := scanGame(row)
	if err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}
	return g, nil
}

// FindByID returns a game by ID with its players.
func (r *GameRepo) FindByID(ctx context.Context, id string) (*model.Game, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+gameColumns+` FROM games WHERE id = $1`, id)
	g, err := scanGame(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find game: %w", err)
	}

	players, err := r.ListPlayers(ctx, id)
	if err != nil {
		return nil, err
	}
	g.Players = players
	return g, nil
}

func (r *GameRepo) listByStatus(ctx context.Context, status, order string, limit int) ([]model.Game, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+gameColumns+` FROM games WHERE status = $1 ORDER BY `+order+` LIMIT $2`,
		status, limit)
	if err != nil {
		return nil, fmt.Errorf("list %s games: %w", status, err)
	}
	defer rows.Close()

	var games []model.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, *g)
	}
	return games, rows.Err()
}

// ListOpen returns games in "waiting" status.
func (r *GameRepo) ListOpen(ctx context.Context) ([]model.Game, error) {
	return r.listByStatus(ctx, "waiting", "created_at DESC", 50)
}

// ListFinished returns finished games, most recent first.
func (r *GameRepo) ListFinished(ctx context.Context) ([]model.Game, error) {
	return r.listByStatus(ctx, "finished", "finished_at DESC", 100)
}

// ListActive returns all running games with their players. Used on startup
// to recover simulations from their latest snapshots.
func (r *GameRepo) ListActive(ctx context.Context) ([]model.Game, error) {
	games, err := r.listByStatus(ctx, "active", "created_at", 1000)
	if err != nil {
		return nil, err
	}
	for i := range games {
		players, err := r.ListPlayers(ctx, games[i].ID)
		if err != nil {
			return nil, err
		}
		games[i].Players = players
	}
	return games, nil
}

// ListByUser returns all games a user is part of (as player or creator).
func (r *GameRepo) ListByUser(ctx context.Context, userID string) ([]model.Game, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT g.id, g.name, g.creator_id, g.status, g.map_seed, g.map_width, g.map_height,
		        g.max_players, g.winner, g.created_at, g.started_at, g.finished_at
		 FROM games g LEFT JOIN game_players gp ON g.id = gp.game_id AND gp.user_id = $1
		 WHERE gp.user_id = $1 OR g.creator_id = $1
		 ORDER BY g.created_at DESC LIMIT 50`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user games: %w", err)
	}
	defer rows.Close()

	var games []model.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, *g)
	}
	return games, rows.Err()
}

// JoinGame adds a player to a game.
func (r *GameRepo) JoinGame(ctx context.Context, gameID, userID string, team int) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO game_players (game_id, user_id, team) VALUES ($1, $2, $3)
		 ON CONFLICT DO NOTHING`,
		gameID, userID, team,
	)
	if err != nil {
		return fmt.Errorf("join game: %w", err)
	}
	return nil
}

// JoinGameAsBot adds a bot player to a game with the given difficulty level.
func (r *GameRepo) JoinGameAsBot(ctx context.Context, gameID, userID, difficulty string) error {
	if difficulty == "" {
		difficulty = "easy"
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO game_players (game_id, user_id, is_bot, bot_difficulty) VALUES ($1, $2, true, $3)
		 ON CONFLICT DO NOTHING`,
		gameID, userID, difficulty,
	)
	if err != nil {
		return fmt.Errorf("join game as bot: %w", err)
	}
	return nil
}

// ListPlayers returns all players in a game in join order. Join order is
// what player numbers are assigned from, so it must be stable.
func (r *GameRepo) ListPlayers(ctx context.Context, gameID string) ([]model.GamePlayer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT game_id, user_id, player_num, team, is_bot, bot_difficulty, joined_at
		 FROM game_players WHERE game_id = $1 ORDER BY joined_at, user_id`,
		gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var players []model.GamePlayer
	for rows.Next() {
		var p model.GamePlayer
		var num sql.NullInt64
		if err := rows.Scan(&p.GameID, &p.UserID, &num, &p.Team, &p.IsBot, &p.BotDifficulty, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		p.PlayerNum = int(num.Int64)
		players = append(players, p)
	}
	return players, rows.Err()
}

// PlayerCount returns the number of players in a game.
func (r *GameRepo) PlayerCount(ctx context.Context, gameID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM game_players WHERE game_id = $1`, gameID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("player count: %w", err)
	}
	return count, nil
}

// AssignPlayerNums stores the simulation owner ID for each user when the
// game starts.
func (r *GameRepo) AssignPlayerNums(ctx context.Context, gameID string, nums map[string]int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for userID, num := range nums {
		_, err := tx.ExecContext(ctx,
			`UPDATE game_players SET player_num = $1 WHERE game_id = $2 AND user_id = $3`,
			num, gameID, userID,
		)
		if err != nil {
			return fmt.Errorf("assign player num: %w", err)
		}
	}
	return tx.Commit()
}

// SetStarted marks a game as running.
func (r *GameRepo) SetStarted(ctx context.Context, gameID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE games SET status = 'active', started_at = now() WHERE id = $1`, gameID)
	if err != nil {
		return fmt.Errorf("set started: %w", err)
	}
	return nil
}

// SetFinished marks a game as finished.
func (r *GameRepo) SetFinished(ctx context.Context, gameID, winner string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE games SET status = 'finished', winner = $1, finished_at = now() WHERE id = $2`,
		winner, gameID,
	)
	if err != nil {
		return fmt.Errorf("set finished: %w", err)
	}
	return nil
}

// UpdateBotDifficulty changes the difficulty level of a bot player.
func (r *GameRepo) UpdateBotDifficulty(ctx context.Context, gameID, botUserID, difficulty string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE game_players SET bot_difficulty = $1 WHERE game_id = $2 AND user_id = $3 AND is_bot = true`,
		difficulty, gameID, botUserID)
	if err != nil {
		return fmt.Errorf("update bot difficulty: %w", err)
	}
	return nil
}

// Delete removes a game and all associated data (cascades to players,
// snapshots, and events).
func (r *GameRepo) Delete(ctx context.Context, gameID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM games WHERE id = $1`, gameID)
	if err != nil {
		return fmt.Errorf("delete game: %w", err)
	}
	return nil
}
