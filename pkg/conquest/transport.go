package conquest

// TransportExecution carries troops from the nearest valid source
// structure to a destination tile along a fixed straight-line path,
// advancing one path step every few ticks. It resolves no combat itself:
// on arrival it either hands its cargo to a fresh AttackExecution (enemy
// destination) or returns the troops (friendly or unclaimed destination).
//
// Committed troops are deducted up front, reserving them against
// double-commitment. If the destination turns out to be water or the path
// invalidates mid-flight, the unit is deleted and the troops are lost —
// an explicit risk rule, not an error.
type TransportExecution struct {
	execState
	g      *Game
	kind   UnitType // UnitTransportPlane or UnitTransportShip
	dst    TileRef
	troops int64
	unit   *Unit

	path       []TileRef
	idx        int
	nextStepAt int64
}

// NewTransportPlaneExecution creates an airlift from the owner's nearest
// finished airport to dst. Planes fly over any terrain.
func NewTransportPlaneExecution(owner *Player, dst TileRef, troops int64) *TransportExecution {
	return &TransportExecution{
		execState: execState{owner: owner, active: true},
		kind:      UnitTransportPlane,
		dst:       dst,
		troops:    troops,
	}
}

// NewTransportShipExecution creates a sea transport from the owner's
// nearest finished port to dst. Ships need an all-water straight line.
func NewTransportShipExecution(owner *Player, dst TileRef, troops int64) *TransportExecution {
	return &TransportExecution{
		execState: execState{owner: owner, active: true},
		kind:      UnitTransportShip,
		dst:       dst,
		troops:    troops,
	}
}

// Destination returns the transport's target tile.
func (t *TransportExecution) Destination() TileRef { return t.dst }

// Init picks the source, reserves troops, and lays out the path. Missing
// source capability or an unreachable destination aborts with a display
// message and, where troops were not yet reserved, no effect.
func (t *TransportExecution) Init(g *Game, tick int64) {
	t.g = g

	if !t.owner.Alive() || !t.owner.Spawned() {
		t.active = false
		return
	}
	if !g.m.Valid(t.dst) {
		g.log.Warn().Int32("tile", int32(t.dst)).Uint16("player", uint16(t.owner.id)).
			Msg("transport init with invalid destination")
		t.active = false
		return
	}

	src := t.nearestSource()
	if src == nil {
		t.active = false
		g.sink.DisplayMessage(KeyNoTransportSource, MessageWarn, t.owner.id, TerraNulliusID, nil)
		return
	}

	t.troops = t.owner.RemoveTroops(t.troops)
	if t.troops <= 0 {
		t.active = false
		return
	}

	t.path = g.m.Line(src.Tile(), t.dst)
	if t.kind == UnitTransportShip && !t.pathNavigable() {
		// No water lane: refund, this is a rejected order not a loss.
		t.owner.returnTroops(t.troops)
		t.troops = 0
		t.active = false
		g.sink.DisplayMessage(KeyTransportBlocked, MessageWarn, t.owner.id, TerraNulliusID, nil)
		return
	}

	t.unit = t.owner.addUnit(t.kind, src.Tile(), false)
	t.unit.troops = t.troops
	t.nextStepAt = tick + g.tuning.TransportStepTicks

	eta := int64(len(t.path)-1) * g.tuning.TransportStepTicks
	g.sink.DisplayIncomingUnit(t.kind, t.owner.id, g.ownerIDAt(t.dst), t.troops, eta)
}

// sourceType maps the transport kind to the structure that launches it.
func (t *TransportExecution) sourceType() UnitType {
	if t.kind == UnitTransportShip {
		return UnitPort
	}
	return UnitAirport
}

// nearestSource returns the owner's closest finished source structure by
// straight-line distance, or nil. Ties fall to the earliest-built unit.
func (t *TransportExecution) nearestSource() *Unit {
	var best *Unit
	var bestDist float64
	for _, u := range t.owner.Units(t.sourceType()) {
		if u.UnderConstruction() {
			continue
		}
		d := t.g.m.Distance(u.Tile(), t.dst)
		if best == nil || d < bestDist {
			best = u
			bestDist = d
		}
	}
	return best
}

// pathNavigable checks that every step between the endpoints is water.
func (t *TransportExecution) pathNavigable() bool {
	for i := 1; i < len(t.path)-1; i++ {
		if t.g.m.IsLand(t.path[i]) {
			return false
		}
	}
	return true
}

// Tick advances the unit one path step every TransportStepTicks ticks.
func (t *TransportExecution) Tick(tick int64) {
	g := t.g

	if !t.owner.Alive() {
		t.loseCargo()
		return
	}
	if tick < t.nextStepAt {
		return
	}
	t.nextStepAt = tick + g.tuning.TransportStepTicks

	t.idx++
	if t.idx >= len(t.path)-1 {
		t.arrive()
		return
	}

	step := t.path[t.idx]
	if !g.m.Valid(step) {
		g.log.Warn().Int32("tile", int32(step)).Uint16("player", uint16(t.owner.id)).
			Msg("transport path invalidated mid-flight")
		t.loseCargo()
		return
	}
	t.unit.tile = step
}

// arrive lands the transport: water destroys the unit and its cargo,
// enemy land seeds an attack with the carried troops, and friendly or
// unclaimed land returns the troops to the owner's pool.
func (t *TransportExecution) arrive() {
	g := t.g

	if !g.m.IsLand(t.dst) {
		t.loseCargo()
		return
	}

	dstOwner := g.OwnerAt(t.dst)
	if dstOwner.IsPlayer() && !t.owner.SameTeamAs(dstOwner) {
		g.AddExecution(newSeededAttack(t.owner, dstOwner.ID(), t.troops, t.dst))
	} else {
		t.owner.returnTroops(t.troops)
		g.sink.DisplayMessage(KeyTransportReturned, MessageInfo, t.owner.id, dstOwner.ID(), map[string]int64{
			"troops": t.troops,
		})
	}
	t.troops = 0
	t.unit.Delete()
	t.unit = nil
	t.active = false
}

// loseCargo destroys the unit and forfeits the committed troops.
func (t *TransportExecution) loseCargo() {
	if t.unit != nil {
		t.unit.Delete()
		t.unit = nil
	}
	if t.troops > 0 {
		t.g.sink.DisplayMessage(KeyTransportLost, MessageWarn, t.owner.id, TerraNulliusID, map[string]int64{
			"troops": t.troops,
		})
	}
	t.troops = 0
	t.active = false
}
