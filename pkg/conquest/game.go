package conquest

import (
	"github.com/rs/zerolog"
)

// Game owns all mutable simulation state for one match: tile ownership,
// players, the execution scheduler, and the tick counter. Each Game is
// fully isolated; nothing is shared across games. All mutation happens
// inside Tick on the caller's goroutine — the single-threaded tick loop is
// the concurrency discipline that replaces locks.
type Game struct {
	log    zerolog.Logger
	tuning *Tuning
	m      *GameMap
	sink   EventSink

	owners  []PlayerID
	players []*Player
	engine  *Engine

	tick   int64
	over   bool
	winner PlayerID

	diff TickDiff
}

// NewGame creates a game on the given map with everything unclaimed.
func NewGame(m *GameMap, tuning *Tuning, sink EventSink, log zerolog.Logger) *Game {
	if sink == nil {
		sink = NoopSink{}
	}
	return &Game{
		log:    log,
		tuning: tuning,
		m:      m,
		sink:   sink,
		owners: make([]PlayerID, m.NumTiles()),
		engine: NewEngine(log),
	}
}

// SetSink replaces the event sink. Useful when the sink needs a reference
// to the game's driver and cannot exist before the game does. A nil sink
// restores the no-op sink.
func (g *Game) SetSink(sink EventSink) {
	if sink == nil {
		sink = NoopSink{}
	}
	g.sink = sink
}

// Map returns the immutable terrain grid.
func (g *Game) Map() *GameMap { return g.m }

// Tuning returns the balance constants the game was created with.
func (g *Game) Tuning() *Tuning { return g.tuning }

// CurrentTick returns the last completed tick number.
func (g *Game) CurrentTick() int64 { return g.tick }

// Over reports whether the game has concluded.
func (g *Game) Over() bool { return g.over }

// Winner returns the winning player ID once the game is over, or
// TerraNulliusID while it is still running.
func (g *Game) Winner() PlayerID { return g.winner }

// InSpawnPhase reports whether the game is still in its spawn window.
func (g *Game) InSpawnPhase() bool {
	return g.tick < g.tuning.SpawnPhaseTicks
}

// AddPlayer registers a new player. Player IDs are assigned sequentially
// from 1; ID 0 stays reserved for TerraNullius.
func (g *Game) AddPlayer(name string, team Team, bot bool) *Player {
	p := &Player{
		game:     g,
		id:       PlayerID(len(g.players) + 1),
		name:     name,
		team:     team,
		bot:      bot,
		alive:    true,
		research: newResearchState(g.tuning.tree),
	}
	g.players = append(g.players, p)
	return p
}

// Player resolves an ID to a player, or nil for TerraNulliusID and unknown
// IDs.
func (g *Game) Player(id PlayerID) *Player {
	if id == TerraNulliusID || int(id) > len(g.players) {
		return nil
	}
	return g.players[id-1]
}

// Players returns all players in registration order.
func (g *Game) Players() []*Player { return g.players }

func (g *Game) mustPlayer(id PlayerID) *Player {
	return g.players[id-1]
}

// OwnerAt returns the owner of a tile: a player, or TerraNullius for
// unclaimed tiles.
func (g *Game) OwnerAt(t TileRef) Owner {
	id := g.owners[t]
	if id == TerraNulliusID {
		return terraNullius
	}
	return g.mustPlayer(id)
}

func (g *Game) ownerIDAt(t TileRef) PlayerID { return g.owners[t] }

// TilesOf returns the tile references currently owned by id. The set is
// derived from map ownership on demand, never stored redundantly.
func (g *Game) TilesOf(id PlayerID) []TileRef {
	var tiles []TileRef
	for i, o := range g.owners {
		if o == id {
			tiles = append(tiles, TileRef(i))
		}
	}
	return tiles
}

// conquer transfers ownership of a land tile to p, maintaining tile counts
// and the pending diff. A defender left with zero territory is eliminated.
func (g *Game) conquer(p *Player, t TileRef) {
	prev := g.owners[t]
	if prev == p.id {
		return
	}
	g.owners[t] = p.id
	p.tiles++
	g.diff.Tiles = append(g.diff.Tiles, TileChange{Tile: t, Owner: p.id})

	if prev != TerraNulliusID {
		d := g.mustPlayer(prev)
		d.tiles--
		if d.tiles <= 0 && d.alive {
			g.eliminate(d, p.id)
		}
	}
}

// eliminate removes a player from play: units are destroyed and any
// execution they own deactivates on its next tick.
func (g *Game) eliminate(p *Player, by PlayerID) {
	p.alive = false
	p.units = nil
	p.research.abandonCurrent()
	g.sink.DisplayMessage(KeyPlayerEliminated, MessageWarn, p.id, by, nil)
	g.log.Info().Uint16("player", uint16(p.id)).Uint16("by", uint16(by)).
		Int64("tick", g.tick).Msg("player eliminated")
}

// AddExecution registers an execution to start on the next tick boundary.
func (g *Game) AddExecution(x Execution) {
	g.engine.Add(x)
}

// CancelAttack cancels the owner's active attack against target, returning
// its remaining committed troops. No-op if no such attack is running.
func (g *Game) CancelAttack(owner *Player, target PlayerID) {
	for _, x := range g.engine.Executions() {
		a, ok := x.(*AttackExecution)
		if ok && a.Active() && a.Owner() == owner && a.target == target {
			a.Cancel()
			return
		}
	}
}

// Tick advances the simulation by one step and returns the diff of what
// changed. It never fails: individual executions absorb their own errors.
// Once the game is over, Tick is a no-op returning an empty diff.
func (g *Game) Tick() *TickDiff {
	if g.over {
		d := g.diff
		g.diff = TickDiff{}
		return &d
	}

	g.tick++
	g.diff.Tick = g.tick

	g.engine.Tick(g, g.tick)

	if g.tick%g.tuning.IncomeIntervalTicks == 0 {
		g.applyIncome()
	}
	g.checkGameOver()

	for _, p := range g.players {
		g.diff.Players = append(g.diff.Players, PlayerDelta{
			ID:     p.id,
			Gold:   p.gold,
			Troops: p.troops,
			Tiles:  p.tiles,
			Alive:  p.alive,
		})
	}
	g.diff.Over = g.over
	g.diff.Winner = g.winner

	d := g.diff
	g.diff = TickDiff{}
	return &d
}

// applyIncome credits periodic gold and troop production, scaled by each
// player's production bonuses and territory.
func (g *Game) applyIncome() {
	t := g.tuning
	for _, p := range g.players {
		if !p.alive || !p.spawned {
			continue
		}
		b := p.Bonuses()

		gold := t.IncomeBaseGold + t.GoldPerTile*int64(p.tiles)
		p.AddGold(int64(float64(gold) * b.GoldProduction))

		headroom := p.MaxTroops() - p.troops
		if headroom > 0 {
			growth := headroom / t.TroopGrowthDivisor
			if growth < 1 {
				growth = 1
			}
			p.AddTroops(int64(float64(growth) * b.TroopProduction))
		}
	}
}

// checkGameOver ends the game when a player owns the configured share of
// all land.
func (g *Game) checkGameOver() {
	threshold := int(g.tuning.WinLandShare * float64(g.m.LandTiles()))
	if threshold < 1 {
		// A truncated-to-zero threshold would hand the win to whoever
		// registered first, before anyone spawned.
		threshold = 1
	}
	for _, p := range g.players {
		if p.alive && p.tiles >= threshold {
			g.over = true
			g.winner = p.id
			g.sink.DisplayMessage(KeyGameWon, MessageSuccess, p.id, TerraNulliusID, map[string]int64{
				"tiles": int64(p.tiles),
			})
			g.log.Info().Uint16("winner", uint16(p.id)).Int64("tick", g.tick).Msg("game over")
			return
		}
	}
}
