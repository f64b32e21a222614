package bot

import (
	"github.com/freeeve/tilefront/api/pkg/conquest"
)

// GreedyStrategy is the easy difficulty: spawn, then repeatedly throw half
// the troop pool at whatever borders the territory, preferring unclaimed
// land.
type GreedyStrategy struct{}

func (GreedyStrategy) Name() string { return "easy" }

const (
	greedyAttackInterval = 40
	greedyMinTroops      = 200
	spawnBuffer          = 8.0
)

func (GreedyStrategy) Plan(g *conquest.Game, me conquest.PlayerID) []conquest.Intent {
	p := g.Player(me)
	tick := g.CurrentTick()

	if !p.Spawned() {
		// Retry on a short cadence; a spawn can fail if another player
		// claims the site first.
		if tick%5 != int64(me)%5 {
			return nil
		}
		t := spawnTile(g, spawnBuffer)
		if t == conquest.NoTile {
			return nil
		}
		return []conquest.Intent{{Player: me, Type: conquest.IntentSpawn, Tile: t}}
	}

	// Stagger bot attacks by player ID so they don't all fire on the same
	// tick of every interval.
	if tick%greedyAttackInterval != int64(me*7)%greedyAttackInterval {
		return nil
	}
	if p.Troops() < greedyMinTroops {
		return nil
	}

	target, ok := weakestTarget(g, me)
	if !ok {
		return nil
	}
	border := borderTileOf(g, me, target)
	if border == conquest.NoTile {
		return nil
	}
	return []conquest.Intent{{
		Player: me,
		Type:   conquest.IntentAttack,
		Tile:   border,
		Troops: p.Troops() / 2,
	}}
}
