// Package conquest implements the authoritative simulation core for a
// real-time territory-conquest game: an immutable tile map, player and
// unit entities, a prerequisite-gated research tree, and a deterministic
// tick-driven execution engine that resolves attacks, transports, and
// construction. The package is transport-agnostic: it consumes validated
// intents tagged with a tick number and emits state diffs and display
// events through an EventSink.
package conquest

import (
	"fmt"
	"math"
)

// TileRef is an opaque reference to a tile on the map grid. It encodes the
// tile's (x, y) position as a row-major index and is never mutated after
// creation; the map it refers to is immutable post-load.
type TileRef int32

// NoTile is the sentinel for "no tile" (unresolvable reference).
const NoTile TileRef = -1

// Terrain classifies a tile. Water is impassable for ground expansion;
// the three land types differ in how costly they are to conquer.
type Terrain uint8

const (
	Water Terrain = iota
	Plains
	Highland
	Mountain
)

// IsLand reports whether the terrain can be owned and fought over.
func (t Terrain) IsLand() bool { return t != Water }

func (t Terrain) String() string {
	switch t {
	case Water:
		return "water"
	case Plains:
		return "plains"
	case Highland:
		return "highland"
	case Mountain:
		return "mountain"
	default:
		return fmt.Sprintf("terrain(%d)", uint8(t))
	}
}

// GameMap is an immutable grid of terrain. All queries are pure; ownership
// lives on the Game, not the map, so one loaded map can back many games.
type GameMap struct {
	width   int
	height  int
	terrain []Terrain
	land    int // cached count of land tiles
}

// NewGameMap builds a map from a row-major terrain grid.
func NewGameMap(width, height int, terrain []Terrain) (*GameMap, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("map dimensions %dx%d out of range", width, height)
	}
	if len(terrain) != width*height {
		return nil, fmt.Errorf("terrain grid has %d tiles, want %d", len(terrain), width*height)
	}
	m := &GameMap{width: width, height: height, terrain: terrain}
	for _, t := range terrain {
		if t.IsLand() {
			m.land++
		}
	}
	return m, nil
}

// Width returns the map width in tiles.
func (m *GameMap) Width() int { return m.width }

// Height returns the map height in tiles.
func (m *GameMap) Height() int { return m.height }

// NumTiles returns the total tile count.
func (m *GameMap) NumTiles() int { return m.width * m.height }

// LandTiles returns the number of land tiles on the map.
func (m *GameMap) LandTiles() int { return m.land }

// Ref converts coordinates to a tile reference, or NoTile if out of bounds.
func (m *GameMap) Ref(x, y int) TileRef {
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		return NoTile
	}
	return TileRef(y*m.width + x)
}

// XY converts a tile reference back to coordinates.
func (m *GameMap) XY(t TileRef) (int, int) {
	return int(t) % m.width, int(t) / m.width
}

// Valid reports whether t resolves to in-bounds coordinates.
func (m *GameMap) Valid(t TileRef) bool {
	return t >= 0 && int(t) < len(m.terrain)
}

// Terrain returns the terrain at t. Callers must pass a valid reference.
func (m *GameMap) Terrain(t TileRef) Terrain { return m.terrain[t] }

// IsLand reports whether t is a valid land tile.
func (m *GameMap) IsLand(t TileRef) bool {
	return m.Valid(t) && m.terrain[t].IsLand()
}

// AppendNeighbors appends the 4-adjacent in-bounds neighbors of t to buf
// in a fixed order (up, left, right, down). The fixed order keeps frontier
// expansion deterministic.
func (m *GameMap) AppendNeighbors(t TileRef, buf []TileRef) []TileRef {
	x, y := m.XY(t)
	if n := m.Ref(x, y-1); n != NoTile {
		buf = append(buf, n)
	}
	if n := m.Ref(x-1, y); n != NoTile {
		buf = append(buf, n)
	}
	if n := m.Ref(x+1, y); n != NoTile {
		buf = append(buf, n)
	}
	if n := m.Ref(x, y+1); n != NoTile {
		buf = append(buf, n)
	}
	return buf
}

// Distance returns the straight-line distance between two tiles.
func (m *GameMap) Distance(a, b TileRef) float64 {
	ax, ay := m.XY(a)
	bx, by := m.XY(b)
	dx := float64(ax - bx)
	dy := float64(ay - by)
	return math.Sqrt(dx*dx + dy*dy)
}

// Line returns the discretized straight-line path from a to b, inclusive
// of both endpoints, using integer line stepping. The path is the fixed
// route a transport follows; it is deterministic for a given (a, b).
func (m *GameMap) Line(a, b TileRef) []TileRef {
	x0, y0 := m.XY(a)
	x1, y1 := m.XY(b)

	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	path := make([]TileRef, 0, dx-dy+1)
	for {
		path = append(path, m.Ref(x0, y0))
		if x0 == x1 && y0 == y1 {
			return path
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
