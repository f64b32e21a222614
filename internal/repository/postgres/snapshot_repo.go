package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/freeeve/tilefront/api/internal/model"
)

// SnapshotRepo persists simulation checkpoints. Snapshot documents are
// JSON and compress extremely well (the owner grid is long runs of the
// same ID), so rows are stored zstd-compressed.
type SnapshotRepo struct {
	db  *sql.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewSnapshotRepo creates a SnapshotRepo.
func NewSnapshotRepo(db *sql.DB) (*SnapshotRepo, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return &SnapshotRepo{db: db, enc: enc, dec: dec}, nil
}

// Save stores one checkpoint for a game at the given tick.
func (r *SnapshotRepo) Save(ctx context.Context, gameID string, tick int64, state []byte) error {
	compressed := r.enc.EncodeAll(state, nil)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO game_snapshots (game_id, tick, state) VALUES ($1, $2, $3)`,
		gameID, tick, compressed,
	)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Latest returns the newest checkpoint for a game, decompressed, or nil if
// none exists.
func (r *SnapshotRepo) Latest(ctx context.Context, gameID string) (*model.GameSnapshot, error) {
	var s model.GameSnapshot
	var compressed []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT id, game_id, tick, state, created_at
		 FROM game_snapshots WHERE game_id = $1
		 ORDER BY tick DESC LIMIT 1`, gameID,
	).Scan(&s.ID, &s.GameID, &s.Tick, &compressed, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}

	s.State, err = r.dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot: %w", err)
	}
	return &s, nil
}

// Prune deletes all but the newest keep checkpoints for a game.
func (r *SnapshotRepo) Prune(ctx context.Context, gameID string, keep int) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM game_snapshots
		 WHERE game_id = $1 AND id NOT IN (
		   SELECT id FROM game_snapshots WHERE game_id = $1 ORDER BY tick DESC LIMIT $2
		 )`, gameID, keep,
	)
	if err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return nil
}
