package conquest

// PlayerID is a small numeric identifier for a territory owner within one
// game. ID 0 is reserved for TerraNullius.
type PlayerID uint16

// TerraNulliusID is the owner ID of unclaimed territory.
const TerraNulliusID PlayerID = 0

// Owner is anything that can hold territory and be targeted by an attack:
// a Player, or the TerraNullius sentinel for unclaimed land. TerraNullius
// carries no mutable state and cannot hold gold or troops.
type Owner interface {
	ID() PlayerID
	IsPlayer() bool
	DisplayName() string
}

// TerraNullius is the sentinel owner of unclaimed tiles.
type TerraNullius struct{}

func (TerraNullius) ID() PlayerID        { return TerraNulliusID }
func (TerraNullius) IsPlayer() bool      { return false }
func (TerraNullius) DisplayName() string { return "Terra Nullius" }

var terraNullius Owner = TerraNullius{}
