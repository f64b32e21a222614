package conquest

import "testing"

func TestConstructionCompletes(t *testing.T) {
	g := newTestGame(t, 20, 20)
	sink := &recordingSink{}
	g.sink = sink
	p := g.AddPlayer("p", NoTeam, false)
	spawnAt(t, g, p, 5, 5, 1)

	site := g.m.Ref(5, 5)
	g.AddExecution(NewConstructionExecution(p, UnitAirport, site))
	g.Tick() // init: gold charged, shell placed

	if p.Gold() != 900 {
		t.Fatalf("gold after start = %d, want 900", p.Gold())
	}
	units := p.Units(UnitAirport)
	if len(units) != 1 || !units[0].UnderConstruction() {
		t.Fatal("construction shell not placed")
	}

	for i := 0; i < 6; i++ {
		g.Tick()
	}
	if units[0].UnderConstruction() {
		t.Error("airport still under construction after its build time")
	}
	if !sink.has(KeyBuildComplete) {
		t.Error("completion message not emitted")
	}
}

func TestConstructionInsufficientFunds(t *testing.T) {
	g := newTestGame(t, 20, 20)
	sink := &recordingSink{}
	g.sink = sink
	p := g.AddPlayer("p", NoTeam, false)
	spawnAt(t, g, p, 5, 5, 1)
	p.gold = 10

	g.AddExecution(NewConstructionExecution(p, UnitAirport, g.m.Ref(5, 5)))
	g.Tick()

	if len(p.AllUnits()) != 0 {
		t.Error("unit placed without payment")
	}
	if p.Gold() != 10 {
		t.Errorf("gold = %d, want 10", p.Gold())
	}
	if !sink.has(KeyBuildNoFunds) {
		t.Error("no-funds message not emitted")
	}
}

func TestConstructionRejectsBadSites(t *testing.T) {
	g := newTestGame(t, 20, 20)
	sink := &recordingSink{}
	g.sink = sink
	p := g.AddPlayer("p", NoTeam, false)
	spawnAt(t, g, p, 5, 5, 1)

	cases := []struct {
		name string
		tile TileRef
	}{
		{"unowned land", g.m.Ref(12, 12)},
		{"water", g.m.Ref(0, 0)},
	}
	for _, tc := range cases {
		x := NewConstructionExecution(p, UnitPort, tc.tile)
		g.AddExecution(x)
		g.Tick()
		if x.Active() {
			t.Errorf("%s: construction admitted", tc.name)
		}
	}
	if p.Gold() != 1000 {
		t.Errorf("gold spent on rejected sites: %d", p.Gold())
	}
	if !sink.has(KeyBuildBadSite) {
		t.Error("bad-site message not emitted")
	}

	// One structure per tile: a second build on an occupied site fails.
	p.addUnit(UnitAirport, g.m.Ref(5, 5), false)
	x := NewConstructionExecution(p, UnitPort, g.m.Ref(5, 5))
	g.AddExecution(x)
	g.Tick()
	if x.Active() {
		t.Error("second structure admitted on an occupied tile")
	}
}

func TestConstructionLostSiteNoRefund(t *testing.T) {
	g := newTestGame(t, 20, 20)
	sink := &recordingSink{}
	g.sink = sink
	p := g.AddPlayer("p", NoTeam, false)
	e := g.AddPlayer("e", NoTeam, false)
	spawnAt(t, g, p, 5, 5, 1)
	spawnAt(t, g, e, 10, 10, 1)

	site := g.m.Ref(5, 5)
	g.AddExecution(NewConstructionExecution(p, UnitCity, site))
	g.Tick()
	if p.Gold() != 800 {
		t.Fatalf("gold after start = %d, want 800", p.Gold())
	}

	g.conquer(e, site)
	g.Tick()

	if len(p.Units(UnitCity)) != 0 {
		t.Error("structure survived losing its site")
	}
	if p.Gold() != 800 {
		t.Errorf("gold = %d, want 800 (no refund for a lost site)", p.Gold())
	}
	if !sink.has(KeyBuildLost) {
		t.Error("site-lost message not emitted")
	}
}
