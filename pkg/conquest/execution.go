package conquest

import "github.com/rs/zerolog"

// Execution is a stateful tick-driven behavior unit: an attack, a moving
// transport, a research timer, a construction. Lifecycle:
//
//	queued -> (Init, exactly once, on the tick it is admitted)
//	       -> active (Tick every subsequent tick)
//	       -> inactive (terminal; reaped, never reactivated)
//
// Init may immediately deactivate when a precondition fails; that is the
// universal "silently abort" path and surfaces no error. An Execution
// never outlives the Game it was initialized with, exclusively owns its
// transient progress state, and only shares Player/Unit/Map state.
type Execution interface {
	// Init prepares the execution on the tick it enters the active set.
	Init(g *Game, tick int64)
	// Tick advances the execution by one simulation step.
	Tick(tick int64)
	// Owner returns the player the execution is attributed to.
	Owner() *Player
	// Active reports whether the execution should keep ticking. Once
	// false, the state is terminal.
	Active() bool
	// Deactivate forces the terminal state. Used by the scheduler when an
	// execution misbehaves, and by cancellation paths.
	Deactivate()
	// ActiveDuringSpawn reports whether the execution runs while the game
	// is still in its spawn phase.
	ActiveDuringSpawn() bool
}

// execState is the shared base embedded by every execution variant.
type execState struct {
	owner  *Player
	active bool
}

func (s *execState) Owner() *Player          { return s.owner }
func (s *execState) Active() bool            { return s.active }
func (s *execState) Deactivate()             { s.active = false }
func (s *execState) ActiveDuringSpawn() bool { return false }

// Engine drives all time-dependent behavior with a single-threaded,
// cooperative, non-preemptive tick loop. Executions are admitted at tick
// boundaries in FIFO registration order, and that order is load-bearing:
// it decides tie-breaks when two attacks contest the same tile in the same
// tick.
type Engine struct {
	log     zerolog.Logger
	pending []Execution
	active  []Execution
}

// NewEngine creates an empty scheduler.
func NewEngine(log zerolog.Logger) *Engine {
	return &Engine{log: log}
}

// Add registers an execution to be initialized on the next tick boundary,
// never the current one, so a ticking execution can enqueue follow-ups
// without mid-tick reentrancy. Registration always succeeds.
func (e *Engine) Add(x Execution) {
	e.pending = append(e.pending, x)
}

// ActiveCount returns the number of executions in the active set.
func (e *Engine) ActiveCount() int { return len(e.active) }

// Executions returns the active set in registration order. Callers must
// not mutate the slice; it is exposed for cancellation lookups.
func (e *Engine) Executions() []Execution { return e.active }

// Tick advances the scheduler: admits and initializes newly queued
// executions in FIFO order, ticks every previously active execution in
// registration order (skipping those the spawn phase gates out), then
// reaps executions whose active flag has dropped. One misbehaving
// execution never stops the others: panics are logged and contained.
func (e *Engine) Tick(g *Game, tick int64) {
	ticking := len(e.active)

	admitted := e.pending
	e.pending = nil
	for _, x := range admitted {
		e.safeInit(x, g, tick)
		e.active = append(e.active, x)
	}

	spawnPhase := g.InSpawnPhase()
	for i := 0; i < ticking; i++ {
		x := e.active[i]
		if !x.Active() {
			continue
		}
		if spawnPhase && !x.ActiveDuringSpawn() {
			continue
		}
		e.safeTick(x, tick)
	}

	kept := e.active[:0]
	for _, x := range e.active {
		if x.Active() {
			kept = append(kept, x)
		}
	}
	for i := len(kept); i < len(e.active); i++ {
		e.active[i] = nil
	}
	e.active = kept
}

func (e *Engine) safeInit(x Execution, g *Game, tick int64) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Warn().Int64("tick", tick).Interface("panic", r).
				Str("execution", executionName(x)).Msg("execution panicked in init, deactivating")
			x.Deactivate()
		}
	}()
	x.Init(g, tick)
}

func (e *Engine) safeTick(x Execution, tick int64) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Warn().Int64("tick", tick).Interface("panic", r).
				Str("execution", executionName(x)).Msg("execution panicked in tick, deactivating")
			x.Deactivate()
		}
	}()
	x.Tick(tick)
}

func executionName(x Execution) string {
	switch x.(type) {
	case *AttackExecution:
		return "attack"
	case *TransportExecution:
		return "transport"
	case *ConstructionExecution:
		return "construction"
	case *ResearchExecution:
		return "research"
	case *SpawnExecution:
		return "spawn"
	case *AdminExecution:
		return "admin"
	default:
		return "unknown"
	}
}
