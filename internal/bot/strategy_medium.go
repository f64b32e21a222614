package bot

import (
	"github.com/freeeve/tilefront/api/pkg/conquest"
)

// ExpansionStrategy is the medium difficulty. On top of the greedy attack
// loop it works through the research tree, builds cities to lift income,
// and commits a larger share of the troop pool once the early expansion
// phase is over.
type ExpansionStrategy struct{}

func (ExpansionStrategy) Name() string { return "medium" }

const (
	expansionAttackInterval = 30
	expansionMinTroops      = 150
	cityTileThreshold       = 30
	goldReserve             = 500
)

func (s ExpansionStrategy) Plan(g *conquest.Game, me conquest.PlayerID) []conquest.Intent {
	p := g.Player(me)
	tick := g.CurrentTick()

	if !p.Spawned() {
		if tick%5 != int64(me)%5 {
			return nil
		}
		t := spawnTile(g, spawnBuffer)
		if t == conquest.NoTile {
			return nil
		}
		return []conquest.Intent{{Player: me, Type: conquest.IntentSpawn, Tile: t}}
	}

	var intents []conquest.Intent

	if in, ok := s.planResearch(g, p); ok {
		intents = append(intents, in)
	}
	if in, ok := s.planCity(g, p); ok {
		intents = append(intents, in)
	}
	if in, ok := s.planAttack(g, p, tick); ok {
		intents = append(intents, in)
	}
	return intents
}

// planResearch starts the first affordable research in tree order whose
// prerequisites are met. Tree order is definition order, so every
// expansion bot climbs the tree the same way.
func (ExpansionStrategy) planResearch(g *conquest.Game, p *conquest.Player) (conquest.Intent, bool) {
	rs := p.Research()
	if rs.Current() != nil {
		return conquest.Intent{}, false
	}
	tree := g.Tuning().ResearchTree()
	for _, k := range tree.Keys() {
		if !rs.CanStart(k) {
			continue
		}
		if p.Gold() < tree.Get(k).CostGold+goldReserve {
			continue
		}
		return conquest.Intent{
			Player:   p.ID(),
			Type:     conquest.IntentStartResearch,
			Research: k,
		}, true
	}
	return conquest.Intent{}, false
}

// planCity builds a city on the first free owned tile once the territory
// is large enough to be worth boosting.
func (ExpansionStrategy) planCity(g *conquest.Game, p *conquest.Player) (conquest.Intent, bool) {
	if p.TileCount() < cityTileThreshold {
		return conquest.Intent{}, false
	}
	def := g.Tuning().UnitDefFor(conquest.UnitCity)
	if def.CostGold == 0 || p.Gold() < def.CostGold*2 {
		return conquest.Intent{}, false
	}
	// One city per expansion bot keeps it simple; the income boost
	// compounds with research either way.
	if len(p.Units(conquest.UnitCity)) > 0 {
		return conquest.Intent{}, false
	}

	occupied := make(map[conquest.TileRef]bool)
	for _, u := range p.AllUnits() {
		occupied[u.Tile()] = true
	}
	for _, t := range g.TilesOf(p.ID()) {
		if !occupied[t] {
			return conquest.Intent{
				Player: p.ID(),
				Type:   conquest.IntentBuildUnit,
				Unit:   conquest.UnitCity.String(),
				Tile:   t,
			}, true
		}
	}
	return conquest.Intent{}, false
}

func (ExpansionStrategy) planAttack(g *conquest.Game, p *conquest.Player, tick int64) (conquest.Intent, bool) {
	me := p.ID()
	if tick%expansionAttackInterval != int64(me*7)%expansionAttackInterval {
		return conquest.Intent{}, false
	}
	if p.Troops() < expansionMinTroops {
		return conquest.Intent{}, false
	}

	target, ok := weakestTarget(g, me)
	if !ok {
		return conquest.Intent{}, false
	}
	border := borderTileOf(g, me, target)
	if border == conquest.NoTile {
		return conquest.Intent{}, false
	}

	// Unclaimed land only costs terrain attrition, so commit less. Against
	// players, send two thirds to punch through defended tiles.
	commit := p.Troops() / 2
	if target != conquest.TerraNulliusID {
		commit = p.Troops() * 2 / 3
	}
	return conquest.Intent{
		Player: me,
		Type:   conquest.IntentAttack,
		Tile:   border,
		Troops: commit,
	}, true
}
