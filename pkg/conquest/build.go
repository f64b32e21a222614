package conquest

// ConstructionExecution builds a structure unit on an owned land tile over
// a number of ticks scaled by the owner's build-speed bonus. Gold is
// deducted when construction starts; a site lost to an enemy mid-build
// destroys the structure with no refund.
type ConstructionExecution struct {
	execState
	g           *Game
	typ         UnitType
	tile        TileRef
	unit        *Unit
	completesAt int64
}

// NewConstructionExecution queues construction of a structure at tile.
func NewConstructionExecution(owner *Player, typ UnitType, tile TileRef) *ConstructionExecution {
	return &ConstructionExecution{
		execState: execState{owner: owner, active: true},
		typ:       typ,
		tile:      tile,
	}
}

// Init validates the site, charges the cost, and places the unit shell.
func (c *ConstructionExecution) Init(g *Game, tick int64) {
	c.g = g

	if !c.owner.Alive() || !c.owner.Spawned() || !c.typ.IsStructure() {
		c.active = false
		return
	}
	if !g.m.Valid(c.tile) {
		g.log.Warn().Int32("tile", int32(c.tile)).Uint16("player", uint16(c.owner.id)).
			Msg("construction init with invalid tile reference")
		c.active = false
		return
	}
	if !g.m.IsLand(c.tile) || g.ownerIDAt(c.tile) != c.owner.id || c.structureAt(c.tile) != nil {
		c.active = false
		g.sink.DisplayMessage(KeyBuildBadSite, MessageWarn, c.owner.id, TerraNulliusID, nil)
		return
	}

	def := g.tuning.UnitDefFor(c.typ)
	if def.BuildTicks <= 0 {
		c.active = false
		return
	}
	if !c.owner.SpendGold(def.CostGold) {
		c.active = false
		g.sink.DisplayMessage(KeyBuildNoFunds, MessageWarn, c.owner.id, TerraNulliusID, map[string]int64{
			"cost": def.CostGold,
		})
		return
	}

	dur := int64(float64(def.BuildTicks) / c.owner.Bonuses().BuildSpeed)
	if dur < 1 {
		dur = 1
	}
	c.unit = c.owner.addUnit(c.typ, c.tile, true)
	c.completesAt = tick + dur
}

// structureAt returns the owner's structure on t, if any. One structure
// per tile.
func (c *ConstructionExecution) structureAt(t TileRef) *Unit {
	for _, u := range c.owner.AllUnits() {
		if u.Tile() == t && u.Type().IsStructure() {
			return u
		}
	}
	return nil
}

// Tick waits out the build time, aborting if the site changes hands.
func (c *ConstructionExecution) Tick(tick int64) {
	g := c.g

	if !c.owner.Alive() {
		c.active = false
		return
	}
	if g.ownerIDAt(c.tile) != c.owner.id {
		c.unit.Delete()
		c.unit = nil
		c.active = false
		g.sink.DisplayMessage(KeyBuildLost, MessageWarn, c.owner.id, g.ownerIDAt(c.tile), nil)
		return
	}
	if tick >= c.completesAt {
		c.unit.constructing = false
		c.active = false
		g.sink.DisplayMessage(KeyBuildComplete, MessageSuccess, c.owner.id, TerraNulliusID, map[string]int64{
			"tile": int64(c.tile),
		})
	}
}
