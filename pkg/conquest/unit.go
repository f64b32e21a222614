package conquest

import "fmt"

// UnitType tags the fixed set of unit variants.
type UnitType uint8

const (
	UnitAirport UnitType = iota
	UnitPort
	UnitCity
	UnitTransportPlane
	UnitTransportShip
)

func (t UnitType) String() string {
	switch t {
	case UnitAirport:
		return "airport"
	case UnitPort:
		return "port"
	case UnitCity:
		return "city"
	case UnitTransportPlane:
		return "transport_plane"
	case UnitTransportShip:
		return "transport_ship"
	default:
		return fmt.Sprintf("unit(%d)", uint8(t))
	}
}

// UnitTypeFromString parses the wire name of a unit type.
func UnitTypeFromString(s string) (UnitType, bool) {
	switch s {
	case "airport":
		return UnitAirport, true
	case "port":
		return UnitPort, true
	case "city":
		return UnitCity, true
	case "transport_plane":
		return UnitTransportPlane, true
	case "transport_ship":
		return UnitTransportShip, true
	default:
		return 0, false
	}
}

// IsStructure reports whether the type is a fixed building (built in place
// over time) as opposed to a moving transport.
func (t UnitType) IsStructure() bool {
	switch t {
	case UnitAirport, UnitPort, UnitCity:
		return true
	default:
		return false
	}
}

// Unit is a construct owned by a player: a structure on a tile or a
// transport in motion. The owner reference is non-owning; units are
// created through Player build operations and destroyed via Delete or when
// the execution carrying them completes.
type Unit struct {
	typ          UnitType
	owner        *Player
	tile         TileRef
	constructing bool
	troops       int64 // troops in transit, transports only
}

// Type returns the unit's variant tag.
func (u *Unit) Type() UnitType { return u.typ }

// Player returns the owning player.
func (u *Unit) Player() *Player { return u.owner }

// Tile returns the unit's current tile.
func (u *Unit) Tile() TileRef { return u.tile }

// UnderConstruction reports whether the structure is still being built.
// A structure under construction cannot serve as a transport source.
func (u *Unit) UnderConstruction() bool { return u.constructing }

// Troops returns the troop count carried by a transport.
func (u *Unit) Troops() int64 { return u.troops }

// Delete removes the unit from its owner.
func (u *Unit) Delete() {
	u.owner.removeUnit(u)
}
