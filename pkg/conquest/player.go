package conquest

// Team groups allied players. Team 0 means no alliance.
type Team uint8

// NoTeam is the sentinel for unaffiliated players.
const NoTeam Team = 0

// Player is a mutable owned record for one participant: gold, troops,
// territory, units, and research progression. Players are created by
// Game.AddPlayer and mutated only through the operations below, which are
// invoked by Executions inside the tick loop — never concurrently.
type Player struct {
	game     *Game
	id       PlayerID
	name     string
	team     Team
	bot      bool
	alive    bool
	spawned  bool
	gold     int64
	troops   int64
	tiles    int
	units    []*Unit
	research *ResearchState
}

// ID returns the player's in-game owner ID.
func (p *Player) ID() PlayerID { return p.id }

// IsPlayer reports true; Player satisfies Owner alongside TerraNullius.
func (p *Player) IsPlayer() bool { return true }

// DisplayName returns the player's name.
func (p *Player) DisplayName() string { return p.name }

// Team returns the player's team affiliation.
func (p *Player) Team() Team { return p.team }

// IsBot reports whether this player is machine-controlled.
func (p *Player) IsBot() bool { return p.bot }

// Alive reports whether the player is still in the game.
func (p *Player) Alive() bool { return p.alive }

// Spawned reports whether the player has claimed a starting position.
func (p *Player) Spawned() bool { return p.spawned }

// Gold returns the player's gold balance.
func (p *Player) Gold() int64 { return p.gold }

// Troops returns the player's available troop pool. Troops committed to an
// attack or transport are not included until returned.
func (p *Player) Troops() int64 { return p.troops }

// TileCount returns the number of tiles the player currently owns. The
// tile set itself is derived from map ownership, see Game.TilesOf.
func (p *Player) TileCount() int { return p.tiles }

// Research returns the player's research state.
func (p *Player) Research() *ResearchState { return p.research }

// SameTeamAs reports whether o is this player or an ally. TerraNullius is
// never on anyone's team.
func (p *Player) SameTeamAs(o Owner) bool {
	if !o.IsPlayer() {
		return false
	}
	if o.ID() == p.id {
		return true
	}
	return p.team != NoTeam && p.game.mustPlayer(o.ID()).team == p.team
}

// MaxTroops returns the troop pool ceiling, which grows with territory.
func (p *Player) MaxTroops() int64 {
	t := p.game.tuning
	return t.MaxTroopsBase + t.MaxTroopsPerTile*int64(p.tiles)
}

// AddGold credits gold.
func (p *Player) AddGold(n int64) {
	if n > 0 {
		p.gold += n
	}
}

// SpendGold debits gold if the balance covers it, reporting success.
func (p *Player) SpendGold(n int64) bool {
	if n < 0 || p.gold < n {
		return false
	}
	p.gold -= n
	return true
}

// AddTroops credits troops, saturating at MaxTroops. Troops returned from
// a concluded attack always fit back: the cap only limits growth above it.
func (p *Player) AddTroops(n int64) {
	if n <= 0 {
		return
	}
	p.troops += n
	if max := p.MaxTroops(); p.troops > max && p.troops-n < max {
		p.troops = max
	}
}

// returnTroops credits troops without applying the growth cap. Committed
// troops flowing back from an execution are not new production.
func (p *Player) returnTroops(n int64) {
	if n > 0 {
		p.troops += n
	}
}

// RemoveTroops debits up to n troops and returns how many were actually
// taken: min(n, pool). A request exceeding the pool is truncated, not
// rejected.
func (p *Player) RemoveTroops(n int64) int64 {
	if n <= 0 {
		return 0
	}
	if n > p.troops {
		n = p.troops
	}
	p.troops -= n
	return n
}

// StartResearch begins a research if nothing is in progress, all
// prerequisites are completed, and the player can afford it. Gold is
// deducted atomically on start, never on completion. Returns false with no
// effect otherwise.
func (p *Player) StartResearch(k ResearchType, tick int64) bool {
	if !p.alive || !p.research.CanStart(k) {
		return false
	}
	def := p.research.tree.Get(k)
	if !p.SpendGold(def.CostGold) {
		return false
	}
	p.research.start(k, tick)
	return true
}

// HasResearch reports whether the player completed the given research.
func (p *Player) HasResearch(k ResearchType) bool {
	return p.research.Completed(k)
}

// Bonuses aggregates the player's effective multipliers from completed
// research and active structures. Pure with respect to game state.
func (p *Player) Bonuses() BonusSet {
	b := p.research.CombinedBonuses()
	for _, u := range p.units {
		if u.typ == UnitCity && !u.constructing {
			b = b.Combine(BonusSet{
				Attack: 1, Defense: 1, BuildSpeed: 1,
				TroopProduction: 1.1, GoldProduction: 1.1,
			})
		}
	}
	return b
}

// Units returns the player's units of the given type.
func (p *Player) Units(typ UnitType) []*Unit {
	var out []*Unit
	for _, u := range p.units {
		if u.typ == typ {
			out = append(out, u)
		}
	}
	return out
}

// AllUnits returns every unit the player owns, in creation order.
func (p *Player) AllUnits() []*Unit { return p.units }

// addUnit creates a unit record. Gold gating happens in the construction
// execution; this only attaches the record.
func (p *Player) addUnit(typ UnitType, tile TileRef, constructing bool) *Unit {
	u := &Unit{typ: typ, owner: p, tile: tile, constructing: constructing}
	p.units = append(p.units, u)
	return u
}

func (p *Player) removeUnit(u *Unit) {
	for i, v := range p.units {
		if v == u {
			p.units = append(p.units[:i], p.units[i+1:]...)
			return
		}
	}
}

// SetGold is the privileged mutation API for admin tooling.
func (p *Player) SetGold(n int64) {
	if n >= 0 {
		p.gold = n
	}
}

// SetTroops is the privileged mutation API for admin tooling.
func (p *Player) SetTroops(n int64) {
	if n >= 0 {
		p.troops = n
	}
}

// GrantAllResearch completes the entire tree at once. Privileged.
func (p *Player) GrantAllResearch(tick int64) {
	p.research.grantAll(tick)
}
