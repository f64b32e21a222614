package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/freeeve/tilefront/api/internal/model"
)

// EventRepo persists display events emitted by the simulation so match
// history survives the live game.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo creates an EventRepo.
func NewEventRepo(db *sql.DB) *EventRepo {
	return &EventRepo{db: db}
}

// Append inserts one game event.
func (r *EventRepo) Append(ctx context.Context, e *model.GameEvent) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO game_events (game_id, tick, key, severity, player_num, target_num, payload)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.GameID, e.Tick, e.Key, e.Severity, e.PlayerNum, e.TargetNum, nullBytes(e.Payload),
	)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// ListByGame returns the most recent events for a game, oldest first.
func (r *EventRepo) ListByGame(ctx context.Context, gameID string, limit int) ([]model.GameEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, game_id, tick, key, severity, player_num, target_num, COALESCE(payload, 'null'), created_at
		 FROM (
		   SELECT * FROM game_events WHERE game_id = $1 ORDER BY tick DESC, id DESC LIMIT $2
		 ) recent
		 ORDER BY tick, id`, gameID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.GameEvent
	for rows.Next() {
		var e model.GameEvent
		if err := rows.Scan(&e.ID, &e.GameID, &e.Tick, &e.Key, &e.Severity, &e.PlayerNum, &e.TargetNum, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func nullBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return []byte(b)
}
