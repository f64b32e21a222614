package conquest

import (
	"testing"
)

// probeExecution records scheduler callbacks for lifecycle assertions.
type probeExecution struct {
	execState
	spawnOK   bool
	initTick  int64
	tickCalls []int64
	deadline  int64 // deactivate once tick reaches this (0 = never)
	panicOn   int64 // panic when ticked at this tick (0 = never)
}

func newProbe(owner *Player) *probeExecution {
	return &probeExecution{execState: execState{owner: owner, active: true}}
}

func (p *probeExecution) Init(g *Game, tick int64) { p.initTick = tick }

func (p *probeExecution) Tick(tick int64) {
	if p.panicOn != 0 && tick == p.panicOn {
		panic("probe exploded")
	}
	p.tickCalls = append(p.tickCalls, tick)
	if p.deadline != 0 && tick >= p.deadline {
		p.active = false
	}
}

func (p *probeExecution) ActiveDuringSpawn() bool { return p.spawnOK }

func TestEngineInitOnRegistrationTickOnly(t *testing.T) {
	g := newTestGame(t, 10, 10)
	p := g.AddPlayer("a", NoTeam, false)
	x := newProbe(p)

	g.AddExecution(x)
	g.Tick() // tick 1: admit + init, no Tick call yet
	if x.initTick != 1 {
		t.Errorf("init tick = %d, want 1", x.initTick)
	}
	if len(x.tickCalls) != 0 {
		t.Errorf("execution ticked on its registration tick: %v", x.tickCalls)
	}

	g.Tick() // tick 2: first Tick call
	if len(x.tickCalls) != 1 || x.tickCalls[0] != 2 {
		t.Errorf("tick calls = %v, want [2]", x.tickCalls)
	}
}

func TestEngineReapsInactive(t *testing.T) {
	g := newTestGame(t, 10, 10)
	p := g.AddPlayer("a", NoTeam, false)
	x := newProbe(p)
	x.deadline = 3

	g.AddExecution(x)
	for i := 0; i < 5; i++ {
		g.Tick()
	}
	if g.engine.ActiveCount() != 0 {
		t.Errorf("engine still holds %d executions", g.engine.ActiveCount())
	}
	// Ticks stop at the deadline: tick 2 and 3 only.
	if len(x.tickCalls) != 2 {
		t.Errorf("tick calls after deactivation = %v", x.tickCalls)
	}
}

func TestEngineTerminalStateIsIdempotent(t *testing.T) {
	g := newTestGame(t, 10, 10)
	p := g.AddPlayer("a", NoTeam, false)
	x := newProbe(p)

	g.AddExecution(x)
	g.Tick()
	x.Deactivate()
	calls := len(x.tickCalls)

	for i := 0; i < 3; i++ {
		g.Tick()
	}
	if len(x.tickCalls) != calls {
		t.Errorf("inactive execution was ticked again: %v", x.tickCalls)
	}
}

func TestEnginePanicContainment(t *testing.T) {
	g := newTestGame(t, 10, 10)
	p := g.AddPlayer("a", NoTeam, false)

	bad := newProbe(p)
	bad.panicOn = 2
	good := newProbe(p)

	g.AddExecution(bad)
	g.AddExecution(good)
	g.Tick()
	g.Tick() // bad panics here; good must still run

	if bad.Active() {
		t.Error("panicking execution still active")
	}
	if len(good.tickCalls) != 1 {
		t.Errorf("sibling execution missed its tick: %v", good.tickCalls)
	}

	g.Tick()
	if len(good.tickCalls) != 2 {
		t.Error("engine stopped ticking after a contained panic")
	}
}

func TestEngineFIFORegistrationOrder(t *testing.T) {
	g := newTestGame(t, 10, 10)
	p := g.AddPlayer("a", NoTeam, false)

	var order []int
	mk := func(n int) *orderedProbe {
		return &orderedProbe{
			execState: execState{owner: p, active: true},
			n:         n,
			order:     &order,
		}
	}
	g.AddExecution(mk(1))
	g.AddExecution(mk(2))
	g.AddExecution(mk(3))
	g.Tick()
	g.Tick()

	want := []int{1, 2, 3}
	if len(order) != 3 {
		t.Fatalf("got %d ticks, want 3", len(order))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("tick order = %v, want %v", order, want)
		}
	}
}

type orderedProbe struct {
	execState
	n     int
	order *[]int
}

func (o *orderedProbe) Init(g *Game, tick int64) {}
func (o *orderedProbe) Tick(tick int64) {
	*o.order = append(*o.order, o.n)
	o.active = false
}

func TestEngineSpawnPhaseGating(t *testing.T) {
	g := newTestGame(t, 10, 10)
	g.tuning.SpawnPhaseTicks = 5
	p := g.AddPlayer("a", NoTeam, false)

	gated := newProbe(p)
	allowed := newProbe(p)
	allowed.spawnOK = true

	g.AddExecution(gated)
	g.AddExecution(allowed)
	g.Tick() // tick 1: init both
	g.Tick() // tick 2: spawn phase, only allowed runs
	g.Tick() // tick 3

	if len(gated.tickCalls) != 0 {
		t.Errorf("gated execution ran during spawn phase: %v", gated.tickCalls)
	}
	if len(allowed.tickCalls) != 2 {
		t.Errorf("spawn-capable execution calls = %v, want 2 calls", allowed.tickCalls)
	}

	// Past the spawn window both run.
	g.Tick() // tick 4
	g.Tick() // tick 5: spawn phase over (tick >= SpawnPhaseTicks)
	if len(gated.tickCalls) == 0 {
		t.Error("gated execution never ran after spawn phase")
	}
}
