// Package bot implements computer players for the conquest simulation.
// Strategies read public game state and emit the same intents a human
// client would send. They are fully deterministic: two runs of the same
// game with the same bots produce identical intent streams, which keeps
// headless verification runs reproducible.
package bot

import (
	"github.com/freeeve/tilefront/api/pkg/conquest"
)

// Strategy decides what a bot does each tick. Plan is called on the tick
// loop goroutine between intent drain and simulation step; it must not
// retain the game pointer.
type Strategy interface {
	Name() string
	Plan(g *conquest.Game, me conquest.PlayerID) []conquest.Intent
}

// StrategyForDifficulty returns the strategy for a bot difficulty level.
// Unknown levels fall back to easy.
func StrategyForDifficulty(difficulty string) Strategy {
	switch difficulty {
	case "medium":
		return &ExpansionStrategy{}
	default:
		return &GreedyStrategy{}
	}
}

// spawnTile picks a deterministic spawn site: land tiles scanned in
// ascending order, keeping a small buffer from already-claimed territory
// so bots do not stack on top of earlier spawners.
func spawnTile(g *conquest.Game, buffer float64) conquest.TileRef {
	m := g.Map()
	var claimed []conquest.TileRef
	for _, p := range g.Players() {
		if p.Spawned() {
			claimed = append(claimed, g.TilesOf(p.ID())...)
		}
	}

	var fallback conquest.TileRef = conquest.NoTile
	for t := conquest.TileRef(0); int(t) < m.NumTiles(); t++ {
		if !m.IsLand(t) || g.OwnerAt(t).IsPlayer() {
			continue
		}
		if fallback == conquest.NoTile {
			fallback = t
		}
		clear := true
		for _, c := range claimed {
			if m.Distance(t, c) < buffer {
				clear = false
				break
			}
		}
		if clear {
			return t
		}
	}
	return fallback
}

// frontierTargets returns the owners adjacent to a player's territory, in
// first-encountered order scanning the player's tiles. Terra nullius is
// included when unclaimed land borders the territory.
func frontierTargets(g *conquest.Game, me conquest.PlayerID) []conquest.PlayerID {
	m := g.Map()
	seen := make(map[conquest.PlayerID]bool)
	var targets []conquest.PlayerID
	var buf []conquest.TileRef

	for _, t := range g.TilesOf(me) {
		buf = m.AppendNeighbors(t, buf[:0])
		for _, n := range buf {
			if !m.IsLand(n) {
				continue
			}
			owner := g.OwnerAt(n)
			id := owner.ID()
			if id == me || seen[id] {
				continue
			}
			if owner.IsPlayer() {
				p := owner.(*conquest.Player)
				if !p.Alive() || p.SameTeamAs(g.Player(me)) {
					seen[id] = true
					continue
				}
			}
			seen[id] = true
			targets = append(targets, id)
		}
	}
	return targets
}

// weakestTarget picks the frontier opponent with the fewest tiles,
// preferring unclaimed land over any player. Returns TerraNulliusID when
// only unclaimed land borders, or false when the frontier is empty.
func weakestTarget(g *conquest.Game, me conquest.PlayerID) (conquest.PlayerID, bool) {
	targets := frontierTargets(g, me)
	if len(targets) == 0 {
		return conquest.TerraNulliusID, false
	}

	best := conquest.TerraNulliusID
	bestTiles := -1
	for _, id := range targets {
		if id == conquest.TerraNulliusID {
			return conquest.TerraNulliusID, true
		}
		tiles := g.Player(id).TileCount()
		if bestTiles == -1 || tiles < bestTiles {
			best = id
			bestTiles = tiles
		}
	}
	return best, true
}

// borderTileOf returns a tile of target adjacent to me's territory, so an
// attack intent resolves against the right owner.
func borderTileOf(g *conquest.Game, me, target conquest.PlayerID) conquest.TileRef {
	m := g.Map()
	var buf []conquest.TileRef
	for _, t := range g.TilesOf(me) {
		buf = m.AppendNeighbors(t, buf[:0])
		for _, n := range buf {
			if m.IsLand(n) && g.OwnerAt(n).ID() == target {
				return n
			}
		}
	}
	return conquest.NoTile
}
