package conquest

import (
	"testing"

	"github.com/rs/zerolog"
)

// newTestTuning returns compact balance values so tests run in few ticks.
func newTestTuning(t *testing.T) *Tuning {
	t.Helper()
	tun := &Tuning{
		TickRate:            10,
		SpawnPhaseTicks:     0, // tests drive spawn explicitly
		SpawnRadius:         1,
		StartGold:           1000,
		StartTroops:         1000,
		IncomeIntervalTicks: 1000, // income tests shorten this explicitly
		IncomeBaseGold:      10,
		GoldPerTile:         1,
		TroopGrowthDivisor:  10,
		MaxTroopsBase:       100000,
		MaxTroopsPerTile:    10,
		AttackTilesPerTick:  4,
		DefenderLossRatio:   0.5,
		TransportStepTicks:  1,
		WinLandShare:        1, // tests never trip the win check by accident
		Terrain:             TerrainTuning{Plains: 10, Highland: 20, Mountain: 40},
		Units: map[string]UnitDef{
			"airport": {CostGold: 100, BuildTicks: 5},
			"port":    {CostGold: 100, BuildTicks: 5},
			"city":    {CostGold: 200, BuildTicks: 5},
		},
	}
	tree, err := NewResearchTree([]ResearchDef{
		{Key: "conscription", CostGold: 100, DurationTicks: 5,
			Bonus: BonusSet{TroopProduction: 1.2}.normalized()},
		{Key: "siegecraft", Requires: []ResearchType{"conscription"}, CostGold: 200, DurationTicks: 5,
			Bonus: BonusSet{Attack: 1.5}.normalized()},
		{Key: "fortification", Requires: []ResearchType{"conscription"}, CostGold: 200, DurationTicks: 5,
			Bonus: BonusSet{Defense: 2, DamageReduction: 3}.normalized()},
	})
	if err != nil {
		t.Fatalf("build test research tree: %v", err)
	}
	tun.tree = tree
	tun.Research = []ResearchDef{} // tree already built above
	return tun
}

// flatMap returns an all-plains map with a one-tile water border.
func flatMap(t *testing.T, width, height int) *GameMap {
	t.Helper()
	terrain := make([]Terrain, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x == 0 || y == 0 || x == width-1 || y == height-1 {
				terrain[y*width+x] = Water
			} else {
				terrain[y*width+x] = Plains
			}
		}
	}
	m, err := NewGameMap(width, height, terrain)
	if err != nil {
		t.Fatalf("build test map: %v", err)
	}
	return m
}

func newTestGame(t *testing.T, width, height int) *Game {
	t.Helper()
	return NewGame(flatMap(t, width, height), newTestTuning(t), NoopSink{}, zerolog.Nop())
}

// spawnAt force-spawns a player in a square around (x, y), bypassing the
// spawn execution so tests control territory layout exactly.
func spawnAt(t *testing.T, g *Game, p *Player, x, y, radius int) {
	t.Helper()
	p.spawned = true
	p.gold = g.tuning.StartGold
	p.troops = g.tuning.StartTroops
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			ref := g.m.Ref(x+dx, y+dy)
			if ref != NoTile && g.m.IsLand(ref) && g.ownerIDAt(ref) == TerraNulliusID {
				g.conquer(p, ref)
			}
		}
	}
	if p.tiles == 0 {
		t.Fatalf("spawnAt(%d,%d) claimed no tiles", x, y)
	}
}

// recordingSink captures display events for assertions.
type recordingSink struct {
	messages []recordedMessage
	incoming []recordedIncoming
}

type recordedMessage struct {
	key    string
	mt     MessageType
	player PlayerID
	target PlayerID
	params map[string]int64
}

type recordedIncoming struct {
	unit   UnitType
	from   PlayerID
	to     PlayerID
	troops int64
}

func (s *recordingSink) DisplayMessage(key string, mt MessageType, player, target PlayerID, params map[string]int64) {
	s.messages = append(s.messages, recordedMessage{key, mt, player, target, params})
}

func (s *recordingSink) DisplayIncomingUnit(unit UnitType, from, to PlayerID, troops, eta int64) {
	s.incoming = append(s.incoming, recordedIncoming{unit, from, to, troops})
}

func (s *recordingSink) has(key string) bool {
	for _, m := range s.messages {
		if m.key == key {
			return true
		}
	}
	return false
}
