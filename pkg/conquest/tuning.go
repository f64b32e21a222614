package conquest

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed tuning_default.yaml
var defaultTuningYAML []byte

// UnitDef is the build tuning for one unit type.
type UnitDef struct {
	CostGold   int64 `yaml:"cost_gold"`
	BuildTicks int64 `yaml:"build_ticks"`
}

// TerrainTuning is the base troop cost to conquer one tile of each land
// terrain, before attack/defense multipliers.
type TerrainTuning struct {
	Plains   int64 `yaml:"plains"`
	Highland int64 `yaml:"highland"`
	Mountain int64 `yaml:"mountain"`
}

// Tuning holds every game-balance constant the simulation reads. It is
// loaded once (embedded default, optionally overridden from a YAML file)
// and injected into games; nothing in the package reads ambient state.
type Tuning struct {
	TickRate        int64 `yaml:"tick_rate"`
	SpawnPhaseTicks int64 `yaml:"spawn_phase_ticks"`
	SpawnRadius     int   `yaml:"spawn_radius"`
	StartGold       int64 `yaml:"start_gold"`
	StartTroops     int64 `yaml:"start_troops"`

	IncomeIntervalTicks int64 `yaml:"income_interval_ticks"`
	IncomeBaseGold      int64 `yaml:"income_base_gold"`
	GoldPerTile         int64 `yaml:"gold_per_tile"`
	TroopGrowthDivisor  int64 `yaml:"troop_growth_divisor"`
	MaxTroopsBase       int64 `yaml:"max_troops_base"`
	MaxTroopsPerTile    int64 `yaml:"max_troops_per_tile"`

	AttackTilesPerTick int     `yaml:"attack_tiles_per_tick"`
	DefenderLossRatio  float64 `yaml:"defender_loss_ratio"`
	TransportStepTicks int64   `yaml:"transport_step_ticks"`
	WinLandShare       float64 `yaml:"win_land_share"`

	Terrain  TerrainTuning      `yaml:"terrain"`
	Units    map[string]UnitDef `yaml:"units"`
	Research []ResearchDef      `yaml:"research"`

	tree *ResearchTree
}

// ParseTuning decodes and validates a YAML tuning document.
func ParseTuning(data []byte) (*Tuning, error) {
	var t Tuning
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse tuning: %w", err)
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	tree, err := NewResearchTree(t.Research)
	if err != nil {
		return nil, fmt.Errorf("tuning research tree: %w", err)
	}
	t.tree = tree
	return &t, nil
}

// LoadTuningFile reads a tuning override from disk.
func LoadTuningFile(path string) (*Tuning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tuning file: %w", err)
	}
	return ParseTuning(data)
}

var (
	defaultTuningOnce sync.Once
	defaultTuning     *Tuning
)

// DefaultTuning returns the embedded default tuning. The embedded document
// is part of the build, so a parse failure is a programming error.
func DefaultTuning() *Tuning {
	defaultTuningOnce.Do(func() {
		t, err := ParseTuning(defaultTuningYAML)
		if err != nil {
			panic(fmt.Sprintf("embedded tuning invalid: %v", err))
		}
		defaultTuning = t
	})
	return defaultTuning
}

func (t *Tuning) validate() error {
	if t.TickRate <= 0 {
		return fmt.Errorf("tick_rate must be positive")
	}
	if t.SpawnPhaseTicks < 0 {
		return fmt.Errorf("spawn_phase_ticks must not be negative")
	}
	if t.IncomeIntervalTicks <= 0 {
		return fmt.Errorf("income_interval_ticks must be positive")
	}
	if t.TroopGrowthDivisor <= 0 {
		return fmt.Errorf("troop_growth_divisor must be positive")
	}
	if t.AttackTilesPerTick <= 0 {
		return fmt.Errorf("attack_tiles_per_tick must be positive")
	}
	if t.TransportStepTicks <= 0 {
		return fmt.Errorf("transport_step_ticks must be positive")
	}
	if t.WinLandShare <= 0 || t.WinLandShare > 1 {
		return fmt.Errorf("win_land_share must be in (0, 1]")
	}
	if t.Terrain.Plains <= 0 || t.Terrain.Highland <= 0 || t.Terrain.Mountain <= 0 {
		return fmt.Errorf("terrain costs must be positive")
	}
	return nil
}

// ResearchTree returns the validated tree built from the Research section.
func (t *Tuning) ResearchTree() *ResearchTree { return t.tree }

// UnitDefFor returns the build tuning for a unit type, keyed by its wire
// name. Missing entries return a zero definition.
func (t *Tuning) UnitDefFor(typ UnitType) UnitDef {
	return t.Units[typ.String()]
}

// TerrainCost returns the base conquest cost for a land terrain.
func (t *Tuning) TerrainCost(tr Terrain) int64 {
	switch tr {
	case Plains:
		return t.Terrain.Plains
	case Highland:
		return t.Terrain.Highland
	case Mountain:
		return t.Terrain.Mountain
	default:
		return 0
	}
}
