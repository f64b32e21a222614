package conquest

// BonusSet holds the effective multipliers and flat modifiers applied to a
// player's combat and economy. Multipliers default to neutral 1.0 and
// combine by multiplication; DamageReduction is a flat additive modifier
// defaulting to 0.
type BonusSet struct {
	Attack          float64 `yaml:"attack"`
	Defense         float64 `yaml:"defense"`
	TroopProduction float64 `yaml:"troop_production"`
	GoldProduction  float64 `yaml:"gold_production"`
	BuildSpeed      float64 `yaml:"build_speed"`
	DamageReduction float64 `yaml:"damage_reduction"`
}

// NeutralBonuses returns the identity bonus set.
func NeutralBonuses() BonusSet {
	return BonusSet{
		Attack:          1,
		Defense:         1,
		TroopProduction: 1,
		GoldProduction:  1,
		BuildSpeed:      1,
	}
}

// normalized replaces zero multipliers with the neutral 1.0. YAML bonus
// blocks only list the fields they change, so the zero value of an omitted
// multiplier must read as "no effect".
func (b BonusSet) normalized() BonusSet {
	if b.Attack == 0 {
		b.Attack = 1
	}
	if b.Defense == 0 {
		b.Defense = 1
	}
	if b.TroopProduction == 0 {
		b.TroopProduction = 1
	}
	if b.GoldProduction == 0 {
		b.GoldProduction = 1
	}
	if b.BuildSpeed == 0 {
		b.BuildSpeed = 1
	}
	return b
}

// Combine merges two bonus sets: multipliers multiply, flat modifiers add.
// Pure and commutative, so aggregation order does not matter.
func (b BonusSet) Combine(o BonusSet) BonusSet {
	return BonusSet{
		Attack:          b.Attack * o.Attack,
		Defense:         b.Defense * o.Defense,
		TroopProduction: b.TroopProduction * o.TroopProduction,
		GoldProduction:  b.GoldProduction * o.GoldProduction,
		BuildSpeed:      b.BuildSpeed * o.BuildSpeed,
		DamageReduction: b.DamageReduction + o.DamageReduction,
	}
}
