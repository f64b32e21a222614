package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/freeeve/tilefront/api/internal/bot"
	"github.com/freeeve/tilefront/api/internal/model"
	"github.com/freeeve/tilefront/api/internal/repository"
	"github.com/freeeve/tilefront/api/pkg/conquest"
)

// Event types pushed to clients while a game runs.
const (
	EventTickDiff       = "tick_diff"
	EventDisplayMessage = "display_message"
	EventIncomingUnit   = "incoming_unit"
	EventGameStarted    = "game_started"
	EventGameEnded      = "game_ended"
)

// snapshotsKept is how many checkpoints stay in postgres per game.
const snapshotsKept = 3

// dbOpTimeout bounds every database call made from a tick loop, so one
// slow query cannot stall the simulation for more than a beat.
const dbOpTimeout = 5 * time.Second

// RunnerManager owns all live simulations on this process. One Runner per
// active game, each on its own goroutine.
type RunnerManager struct {
	log         zerolog.Logger
	gameRepo    repository.GameRepository
	snapRepo    repository.SnapshotRepository
	eventRepo   repository.EventRepository
	cache       repository.GameCache
	broadcaster Broadcaster
	tuning      *conquest.Tuning

	snapshotInterval int64

	mu      sync.Mutex
	runners map[string]*Runner
}

// NewRunnerManager creates a RunnerManager.
func NewRunnerManager(
	gameRepo repository.GameRepository,
	snapRepo repository.SnapshotRepository,
	eventRepo repository.EventRepository,
	cache repository.GameCache,
	broadcaster Broadcaster,
	tuning *conquest.Tuning,
	snapshotInterval int64,
	log zerolog.Logger,
) *RunnerManager {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	if snapshotInterval <= 0 {
		snapshotInterval = 300
	}
	return &RunnerManager{
		log:              log,
		gameRepo:         gameRepo,
		snapRepo:         snapRepo,
		eventRepo:        eventRepo,
		cache:            cache,
		broadcaster:      broadcaster,
		tuning:           tuning,
		snapshotInterval: snapshotInterval,
		runners:          make(map[string]*Runner),
	}
}

// Launch starts the simulation for a freshly started game.
func (m *RunnerManager) Launch(ctx context.Context, game *model.Game) error {
	sim, err := m.buildGame(game, nil)
	if err != nil {
		return err
	}
	return m.start(ctx, game, sim)
}

// Recover restarts simulations for every game that was active when the
// process last stopped. Games resume from their latest snapshot; a game
// that never reached its first checkpoint restarts from tick zero.
func (m *RunnerManager) Recover(ctx context.Context) error {
	games, err := m.gameRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active games: %w", err)
	}

	for i := range games {
		game := &games[i]
		var snap *conquest.Snapshot
		stored, err := m.snapRepo.Latest(ctx, game.ID)
		if err != nil {
			m.log.Error().Err(err).Str("gameId", game.ID).Msg("Failed to load snapshot, restarting from tick 0")
		} else if stored != nil {
			var s conquest.Snapshot
			if err := json.Unmarshal(stored.State, &s); err != nil {
				m.log.Error().Err(err).Str("gameId", game.ID).Msg("Corrupt snapshot, restarting from tick 0")
			} else {
				snap = &s
			}
		}

		sim, err := m.buildGame(game, snap)
		if err != nil {
			m.log.Error().Err(err).Str("gameId", game.ID).Msg("Failed to rebuild game, skipping recovery")
			continue
		}
		if err := m.start(ctx, game, sim); err != nil {
			m.log.Error().Err(err).Str("gameId", game.ID).Msg("Failed to restart game")
			continue
		}
		m.log.Info().Str("gameId", game.ID).Int64("tick", sim.CurrentTick()).Msg("Recovered active game")
	}
	return nil
}

// buildGame reconstructs the simulation for a game row: terrain from the
// stored seed, players in player-number order, and optionally prior state
// from a snapshot.
func (m *RunnerManager) buildGame(game *model.Game, snap *conquest.Snapshot) (*conquest.Game, error) {
	terrain := conquest.GenerateMap(game.MapWidth, game.MapHeight, game.MapSeed)

	players := append([]model.GamePlayer(nil), game.Players...)
	sort.Slice(players, func(i, j int) bool { return players[i].PlayerNum < players[j].PlayerNum })

	if snap != nil {
		sim, err := conquest.RestoreGame(snap, terrain, m.tuning, nil, m.log.With().Str("gameId", game.ID).Logger())
		if err != nil {
			return nil, fmt.Errorf("restore game: %w", err)
		}
		return sim, nil
	}

	sim := conquest.NewGame(terrain, m.tuning, nil, m.log.With().Str("gameId", game.ID).Logger())
	for _, p := range players {
		added := sim.AddPlayer(p.UserID, conquest.Team(p.Team), p.IsBot)
		if int(added.ID()) != p.PlayerNum {
			return nil, fmt.Errorf("player numbers not sequential: user %s has %d, simulation assigned %d",
				p.UserID, p.PlayerNum, added.ID())
		}
	}
	return sim, nil
}

func (m *RunnerManager) start(ctx context.Context, game *model.Game, sim *conquest.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, running := m.runners[game.ID]; running {
		return fmt.Errorf("game %s already running", game.ID)
	}

	r := &Runner{
		log:   m.log.With().Str("gameId", game.ID).Logger(),
		id:    game.ID,
		g:     sim,
		mgr:   m,
		users: make(map[conquest.PlayerID]string),
		bots:  make(map[conquest.PlayerID]bot.Strategy),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	for _, p := range game.Players {
		id := conquest.PlayerID(p.PlayerNum)
		r.users[id] = p.UserID
		if p.IsBot {
			r.bots[id] = bot.StrategyForDifficulty(p.BotDifficulty)
			r.botOrder = append(r.botOrder, id)
		}
	}
	sort.Slice(r.botOrder, func(i, j int) bool { return r.botOrder[i] < r.botOrder[j] })
	// The runner is the simulation's event sink; wiring it after
	// construction avoids a circular setup.
	sim.SetSink(r)

	if err := m.cache.MarkActive(ctx, game.ID); err != nil {
		return fmt.Errorf("mark active: %w", err)
	}

	m.runners[game.ID] = r
	go r.run()

	m.broadcaster.BroadcastGameEvent(game.ID, EventGameStarted, map[string]any{
		"tick": sim.CurrentTick(),
	})
	return nil
}

// Stop halts one game's simulation and checkpoints its final state. The
// game row is not touched; callers decide whether it finished or was
// cancelled.
func (m *RunnerManager) Stop(ctx context.Context, gameID string) {
	m.mu.Lock()
	r := m.runners[gameID]
	delete(m.runners, gameID)
	m.mu.Unlock()
	if r == nil {
		return
	}
	close(r.stop)
	<-r.done
	r.persistSnapshot(ctx)
}

// Shutdown stops every runner, checkpointing each. Active-game markers
// stay in place so the next process recovers them.
func (m *RunnerManager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	runners := make([]*Runner, 0, len(m.runners))
	for _, r := range m.runners {
		runners = append(runners, r)
	}
	m.runners = make(map[string]*Runner)
	m.mu.Unlock()

	for _, r := range runners {
		close(r.stop)
		<-r.done
		r.persistSnapshot(ctx)
	}
}

// Running reports whether a game has a live simulation on this process.
func (m *RunnerManager) Running(gameID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.runners[gameID]
	return ok
}

func (m *RunnerManager) remove(gameID string) {
	m.mu.Lock()
	delete(m.runners, gameID)
	m.mu.Unlock()
}

// Runner drives one game's tick loop. Everything that touches the
// conquest.Game happens on the run goroutine; the outside world reaches
// the simulation only through the intent queue.
type Runner struct {
	log   zerolog.Logger
	id    string
	g     *conquest.Game
	mgr   *RunnerManager
	users map[conquest.PlayerID]string
	bots  map[conquest.PlayerID]bot.Strategy
	// botOrder is the bot player IDs sorted ascending.
	botOrder []conquest.PlayerID

	stop chan struct{}
	done chan struct{}
}

func (r *Runner) run() {
	defer close(r.done)

	interval := time.Second / time.Duration(r.g.Tuning().TickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			if r.step() {
				return
			}
		}
	}
}

// step advances the simulation one tick. Returns true when the game is
// over and the runner should exit.
func (r *Runner) step() bool {
	ctx, cancel := context.WithTimeout(context.Background(), dbOpTimeout)
	defer cancel()

	intents, err := r.mgr.cache.DrainIntents(ctx, r.id)
	if err != nil {
		// A flaky cache read drops this tick's player commands; clients
		// retry through the normal channel. The simulation keeps going.
		r.log.Error().Err(err).Msg("Failed to drain intents")
	}
	for _, in := range intents {
		r.g.ApplyIntent(in)
	}

	// Bots plan in player order so intent application stays deterministic
	// across restarts.
	for _, id := range r.botOrder {
		if p := r.g.Player(id); p == nil || !p.Alive() {
			continue
		}
		for _, in := range r.bots[id].Plan(r.g, id) {
			in.Tick = r.g.CurrentTick()
			r.g.ApplyIntent(in)
		}
	}

	diff := r.g.Tick()
	r.mgr.broadcaster.BroadcastGameEvent(r.id, EventTickDiff, diff)

	if r.g.CurrentTick()%r.mgr.snapshotInterval == 0 {
		r.persistSnapshot(ctx)
	}

	if r.g.Over() {
		r.finish(ctx)
		return true
	}
	return false
}

// finish records the outcome and tears down live state.
func (r *Runner) finish(ctx context.Context) {
	winner := r.users[r.g.Winner()]
	if err := r.mgr.gameRepo.SetFinished(ctx, r.id, winner); err != nil {
		r.log.Error().Err(err).Msg("Failed to mark game finished")
	}
	r.persistSnapshot(ctx)

	r.mgr.broadcaster.BroadcastGameEvent(r.id, EventGameEnded, map[string]any{
		"tick":       r.g.CurrentTick(),
		"winner":     r.g.Winner(),
		"winner_uid": winner,
	})

	if err := r.mgr.cache.DeleteGameData(ctx, r.id); err != nil {
		r.log.Error().Err(err).Msg("Failed to clear live game data")
	}
	r.mgr.remove(r.id)
	r.log.Info().Int64("tick", r.g.CurrentTick()).Uint16("winner", uint16(r.g.Winner())).Msg("Game finished")
}

// persistSnapshot checkpoints the simulation to postgres and publishes the
// full state for reconnecting clients.
func (r *Runner) persistSnapshot(ctx context.Context) {
	snap := r.g.Snapshot()
	data, err := json.Marshal(snap)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to marshal snapshot")
		return
	}
	if err := r.mgr.snapRepo.Save(ctx, r.id, snap.Tick, data); err != nil {
		r.log.Error().Err(err).Msg("Failed to save snapshot")
		return
	}
	if err := r.mgr.snapRepo.Prune(ctx, r.id, snapshotsKept); err != nil {
		r.log.Error().Err(err).Msg("Failed to prune snapshots")
	}
	if err := r.mgr.cache.SetLiveState(ctx, r.id, snap.Tick, data); err != nil {
		r.log.Error().Err(err).Msg("Failed to publish live state")
	}
}

// DisplayMessage implements conquest.EventSink: game events go to match
// history and out to subscribed clients.
func (r *Runner) DisplayMessage(key string, mt conquest.MessageType, player, target conquest.PlayerID, params map[string]int64) {
	var payload json.RawMessage
	if len(params) > 0 {
		payload, _ = json.Marshal(params)
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbOpTimeout)
	defer cancel()
	err := r.mgr.eventRepo.Append(ctx, &model.GameEvent{
		GameID:    r.id,
		Tick:      r.g.CurrentTick(),
		Key:       key,
		Severity:  string(mt),
		PlayerNum: int(player),
		TargetNum: int(target),
		Payload:   payload,
	})
	if err != nil {
		r.log.Error().Err(err).Str("key", key).Msg("Failed to record game event")
	}

	r.mgr.broadcaster.BroadcastGameEvent(r.id, EventDisplayMessage, map[string]any{
		"key":      key,
		"severity": mt,
		"player":   player,
		"target":   target,
		"params":   params,
	})
}

// DisplayIncomingUnit implements conquest.EventSink: transport warnings
// are transient and only broadcast, never persisted.
func (r *Runner) DisplayIncomingUnit(unit conquest.UnitType, from, to conquest.PlayerID, troops, etaTicks int64) {
	r.mgr.broadcaster.BroadcastGameEvent(r.id, EventIncomingUnit, map[string]any{
		"unit":   unit.String(),
		"from":   from,
		"to":     to,
		"troops": troops,
		"eta":    etaTicks,
	})
}
