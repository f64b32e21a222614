package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/freeeve/tilefront/api/pkg/conquest"
)

// Key patterns for live game data.
func intentsKey(gameID string) string { return "game:" + gameID + ":intents" }
func stateKey(gameID string) string   { return "game:" + gameID + ":state" }
func tickKey(gameID string) string    { return "game:" + gameID + ":tick" }

const activeGamesKey = "games:active"

// PushIntent appends a player command to the game's intent queue. The tick
// loop drains the queue at each tick boundary, so queue order is the order
// commands enter the simulation.
func (c *Client) PushIntent(ctx context.Context, gameID string, in conquest.Intent) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal intent: %w", err)
	}
	return c.rdb.RPush(ctx, intentsKey(gameID), data).Err()
}

// DrainIntents atomically takes all queued intents for a game, oldest
// first. Returns nil when the queue is empty.
func (c *Client) DrainIntents(ctx context.Context, gameID string) ([]conquest.Intent, error) {
	key := intentsKey(gameID)

	pipe := c.rdb.TxPipeline()
	lrange := pipe.LRange(ctx, key, 0, -1)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("drain intents: %w", err)
	}

	raw := lrange.Val()
	if len(raw) == 0 {
		return nil, nil
	}

	intents := make([]conquest.Intent, 0, len(raw))
	for _, item := range raw {
		var in conquest.Intent
		if err := json.Unmarshal([]byte(item), &in); err != nil {
			// A malformed entry is dropped rather than stalling the queue.
			continue
		}
		intents = append(intents, in)
	}
	return intents, nil
}

// SetLiveState publishes the latest full game view so reconnecting clients
// can resync without waiting for a database snapshot.
func (c *Client) SetLiveState(ctx context.Context, gameID string, tick int64, state json.RawMessage) error {
	pipe := c.rdb.TxPipeline()
	pipe.Set(ctx, stateKey(gameID), []byte(state), 0)
	pipe.Set(ctx, tickKey(gameID), tick, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("set live state: %w", err)
	}
	return nil
}

// GetLiveState retrieves the latest published game view, or nil if the
// game has no live state.
func (c *Client) GetLiveState(ctx context.Context, gameID string) (json.RawMessage, error) {
	data, err := c.rdb.Get(ctx, stateKey(gameID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get live state: %w", err)
	}
	return json.RawMessage(data), nil
}

// LiveTick returns the tick of the latest published state, or -1 if none.
func (c *Client) LiveTick(ctx context.Context, gameID string) (int64, error) {
	val, err := c.rdb.Get(ctx, tickKey(gameID)).Result()
	if err == redis.Nil {
		return -1, nil
	}
	if err != nil {
		return -1, fmt.Errorf("get live tick: %w", err)
	}
	tick, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return -1, fmt.Errorf("parse live tick: %w", err)
	}
	return tick, nil
}

// MarkActive records that this game has a running simulation. The set is
// consulted on startup to find games that need recovery.
func (c *Client) MarkActive(ctx context.Context, gameID string) error {
	return c.rdb.SAdd(ctx, activeGamesKey, gameID).Err()
}

// UnmarkActive removes a game from the active set.
func (c *Client) UnmarkActive(ctx context.Context, gameID string) error {
	return c.rdb.SRem(ctx, activeGamesKey, gameID).Err()
}

// ActiveGames returns the IDs of games marked as running.
func (c *Client) ActiveGames(ctx context.Context) ([]string, error) {
	return c.rdb.SMembers(ctx, activeGamesKey).Result()
}

// DeleteGameData removes all Redis data for a game (on game end).
func (c *Client) DeleteGameData(ctx context.Context, gameID string) error {
	pipe := c.rdb.TxPipeline()
	pipe.Del(ctx, intentsKey(gameID), stateKey(gameID), tickKey(gameID))
	pipe.SRem(ctx, activeGamesKey, gameID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete game data: %w", err)
	}
	return nil
}
