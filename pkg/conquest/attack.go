package conquest

import "math"

// AttackExecution resolves one territorial attack: it expands the
// attacker's territory tile-by-tile from the shared frontier into the
// target's land, consuming committed troops per tile until the troops are
// exhausted, the contested region is fully absorbed, or the attacker
// cancels.
//
// Resolution is deterministic: the frontier is a FIFO queue seeded in
// ascending tile order, per-tile costs are pure functions of terrain and
// bonuses, and ties between concurrent attacks on the same tile fall to
// whichever attack was registered first (the scheduler ticks executions in
// registration order, and ownership is checked again when a frontier tile
// is popped).
type AttackExecution struct {
	execState
	g         *Game
	target    PlayerID // TerraNulliusID when attacking unclaimed land
	troops    int64    // remaining committed troops
	src       TileRef  // optional seed tile; NoTile attacks the whole shared border
	committed bool     // troops were already deducted by the creator

	frontier []TileRef
	seen     map[TileRef]bool
	nbuf     []TileRef
}

// NewAttackExecution creates an attack that will commit up to troops from
// the owner's pool when initialized. A commitment exceeding the pool is
// truncated, not rejected.
func NewAttackExecution(owner *Player, target PlayerID, troops int64, src TileRef) *AttackExecution {
	return &AttackExecution{
		execState: execState{owner: owner, active: true},
		target:    target,
		troops:    troops,
		src:       src,
	}
}

// newSeededAttack creates an attack whose troops were already deducted
// from the owner (a landed transport hands its cargo straight over).
func newSeededAttack(owner *Player, target PlayerID, troops int64, src TileRef) *AttackExecution {
	a := NewAttackExecution(owner, target, troops, src)
	a.committed = true
	return a
}

// Target returns the owner under attack.
func (a *AttackExecution) Target() PlayerID { return a.target }

// RemainingTroops returns the committed troops not yet spent.
func (a *AttackExecution) RemainingTroops() int64 { return a.troops }

// Init validates preconditions and commits troops. Any failed precondition
// deactivates the attack silently (at most a display message); nothing
// propagates to the scheduler.
func (a *AttackExecution) Init(g *Game, tick int64) {
	a.g = g

	if !a.owner.Alive() || !a.owner.Spawned() {
		a.active = false
		return
	}
	if a.src != NoTile && !g.m.Valid(a.src) {
		g.log.Warn().Int32("tile", int32(a.src)).Uint16("player", uint16(a.owner.id)).
			Msg("attack init with invalid tile reference")
		a.active = false
		return
	}
	if a.target == a.owner.id {
		a.active = false
		return
	}
	if tp := g.Player(a.target); a.target != TerraNulliusID {
		if tp == nil || !tp.Alive() {
			a.active = false
			return
		}
		// Same-team attacks are rejected with no effect.
		if a.owner.SameTeamAs(tp) {
			a.active = false
			return
		}
	}

	if !a.committed {
		a.troops = a.owner.RemoveTroops(a.troops)
		a.committed = true
	}
	if a.troops <= 0 {
		a.active = false
		return
	}

	a.buildFrontier()
	if len(a.frontier) == 0 {
		// No shared border with the target: refund and abort.
		a.owner.returnTroops(a.troops)
		a.troops = 0
		a.active = false
		g.sink.DisplayMessage(KeyAttackNoFrontier, MessageWarn, a.owner.id, a.target, nil)
		return
	}

	g.sink.DisplayMessage(KeyAttackStarted, MessageInfo, a.owner.id, a.target, map[string]int64{
		"troops": a.troops,
	})
}

// buildFrontier seeds the conquest queue with every target-owned land tile
// adjacent to the attacker's territory, in ascending tile order. A landed
// transport additionally seeds its landing tile so an attack can start
// from a beachhead with no prior adjacency.
func (a *AttackExecution) buildFrontier() {
	g := a.g
	a.seen = make(map[TileRef]bool)

	if a.src != NoTile && a.committed && g.ownerIDAt(a.src) == a.target && g.m.IsLand(a.src) {
		a.push(a.src)
	}
	for i := range g.owners {
		t := TileRef(i)
		if g.owners[t] != a.target || !g.m.IsLand(t) {
			continue
		}
		if a.seen[t] || !a.bordersOwner(t) {
			continue
		}
		a.push(t)
	}
}

func (a *AttackExecution) push(t TileRef) {
	a.seen[t] = true
	a.frontier = append(a.frontier, t)
}

// bordersOwner reports whether t touches the attacker's territory.
func (a *AttackExecution) bordersOwner(t TileRef) bool {
	a.nbuf = a.g.m.AppendNeighbors(t, a.nbuf[:0])
	for _, n := range a.nbuf {
		if a.g.ownerIDAt(n) == a.owner.id {
			return true
		}
	}
	return false
}

// Tick advances the conquest frontier by up to the configured number of
// tiles, spending troops per tile and transferring ownership.
func (a *AttackExecution) Tick(tick int64) {
	g := a.g

	if !a.owner.Alive() {
		// Eliminated attackers forfeit committed troops.
		a.troops = 0
		a.active = false
		return
	}
	if tp := g.Player(a.target); a.target != TerraNulliusID && (tp == nil || !tp.Alive()) {
		a.conclude(KeyAttackConcluded)
		return
	}

	budget := g.tuning.AttackTilesPerTick
	for budget > 0 {
		if len(a.frontier) == 0 {
			a.conclude(KeyAttackConcluded)
			return
		}
		t := a.frontier[0]
		a.frontier = a.frontier[1:]

		// The tile may have been taken since it was queued — by this
		// attacker's own expansion or by an earlier-registered attack
		// (which wins the tie by running first). Skip stale entries.
		if g.ownerIDAt(t) != a.target {
			continue
		}
		if !a.bordersOwner(t) {
			// Frontier integrity broke (a competing attack cut the
			// connection); requeue is pointless, drop the tile.
			continue
		}

		cost := a.tileCost(t)
		if a.troops < cost {
			a.conclude(KeyAttackExhausted)
			return
		}
		a.troops -= cost

		if tp := g.Player(a.target); tp != nil {
			tp.RemoveTroops(a.defenderLoss(tp, cost))
		}
		g.conquer(a.owner, t)
		budget--

		a.nbuf = g.m.AppendNeighbors(t, a.nbuf[:0])
		for _, n := range a.nbuf {
			if !a.seen[n] && g.ownerIDAt(n) == a.target && g.m.IsLand(n) {
				a.push(n)
			}
		}
	}
}

// tileCost computes the troops needed to take one tile: a deterministic
// function of terrain and the defender's defense bonus, divided by the
// attacker's attack multiplier. Unclaimed land has no defender bonus.
func (a *AttackExecution) tileCost(t TileRef) int64 {
	g := a.g
	base := float64(g.tuning.TerrainCost(g.m.Terrain(t)))

	defense := 1.0
	if tp := g.Player(a.target); tp != nil {
		defense = tp.Bonuses().Defense
	}
	attack := a.owner.Bonuses().Attack

	cost := int64(math.Ceil(base * defense / attack))
	if cost < 1 {
		cost = 1
	}
	return cost
}

// defenderLoss computes the defender's troop attrition for a conquered
// tile: a fixed share of the attacker's cost, reduced by the defender's
// flat damage reduction.
func (a *AttackExecution) defenderLoss(tp *Player, cost int64) int64 {
	loss := int64(float64(cost)*a.g.tuning.DefenderLossRatio) - int64(tp.Bonuses().DamageReduction)
	if loss < 0 {
		return 0
	}
	return loss
}

// conclude terminates the attack, returning unspent committed troops to
// the attacker's pool.
func (a *AttackExecution) conclude(key string) {
	if a.troops > 0 {
		a.owner.returnTroops(a.troops)
		a.troops = 0
	}
	a.active = false
	a.g.sink.DisplayMessage(key, MessageInfo, a.owner.id, a.target, nil)
}

// Cancel aborts the attack at the attacker's request, refunding whatever
// committed troops remain.
func (a *AttackExecution) Cancel() {
	if !a.active {
		return
	}
	if a.troops > 0 {
		a.owner.returnTroops(a.troops)
		a.troops = 0
	}
	a.active = false
	if a.g != nil {
		a.g.sink.DisplayMessage(KeyAttackCancelled, MessageInfo, a.owner.id, a.target, nil)
	}
}
