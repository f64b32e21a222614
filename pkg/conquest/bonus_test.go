package conquest

import "testing"

func TestBonusCombineMultiplies(t *testing.T) {
	a := BonusSet{Attack: 1.5, Defense: 2, TroopProduction: 1, GoldProduction: 1, BuildSpeed: 1, DamageReduction: 3}
	b := BonusSet{Attack: 2, Defense: 1, TroopProduction: 1.2, GoldProduction: 1, BuildSpeed: 1, DamageReduction: 2}
	c := a.Combine(b)

	if c.Attack != 3.0 {
		t.Errorf("Attack = %v, want 3.0", c.Attack)
	}
	if c.Defense != 2.0 {
		t.Errorf("Defense = %v, want 2.0", c.Defense)
	}
	if c.TroopProduction != 1.2 {
		t.Errorf("TroopProduction = %v, want 1.2", c.TroopProduction)
	}
	if c.DamageReduction != 5.0 {
		t.Errorf("DamageReduction = %v, want 5.0 (additive)", c.DamageReduction)
	}
}

func TestBonusNormalizedFillsZeroMultipliers(t *testing.T) {
	b := BonusSet{Attack: 1.5}.normalized()
	if b.Defense != 1 || b.TroopProduction != 1 || b.GoldProduction != 1 || b.BuildSpeed != 1 {
		t.Errorf("zero multipliers not normalized to 1: %+v", b)
	}
	if b.Attack != 1.5 {
		t.Errorf("non-zero multiplier changed: %v", b.Attack)
	}
	if b.DamageReduction != 0 {
		t.Errorf("DamageReduction is additive and must stay 0, got %v", b.DamageReduction)
	}
}

func TestCombinedBonusesAcrossTree(t *testing.T) {
	g := newTestGame(t, 10, 10)
	p := g.AddPlayer("p", NoTeam, false)

	if b := p.Bonuses(); b != NeutralBonuses() {
		t.Errorf("fresh player bonuses = %+v, want neutral", b)
	}

	p.GrantAllResearch(0)
	b := p.Bonuses()
	if b.Attack != 1.5 {
		t.Errorf("Attack = %v, want 1.5 from siegecraft", b.Attack)
	}
	if b.Defense != 2 {
		t.Errorf("Defense = %v, want 2 from fortification", b.Defense)
	}
	if b.TroopProduction != 1.2 {
		t.Errorf("TroopProduction = %v, want 1.2 from conscription", b.TroopProduction)
	}
	if b.DamageReduction != 3 {
		t.Errorf("DamageReduction = %v, want 3", b.DamageReduction)
	}
}

func TestCityBoostsProduction(t *testing.T) {
	g := newTestGame(t, 10, 10)
	p := g.AddPlayer("p", NoTeam, false)

	u := p.addUnit(UnitCity, g.m.Ref(5, 5), true)
	if b := p.Bonuses(); b.GoldProduction != 1 {
		t.Errorf("unfinished city already granting bonuses: %v", b.GoldProduction)
	}

	u.constructing = false
	b := p.Bonuses()
	if b.GoldProduction != 1.1 || b.TroopProduction != 1.1 {
		t.Errorf("finished city bonuses = %v gold, %v troops, want 1.1 each",
			b.GoldProduction, b.TroopProduction)
	}
	if b.Attack != 1 {
		t.Errorf("city changed combat multipliers: %v", b.Attack)
	}
}
