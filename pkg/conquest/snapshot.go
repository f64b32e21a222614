package conquest

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"

	"github.com/rs/zerolog"
)

// TileChange records one ownership transfer for the per-tick diff.
type TileChange struct {
	Tile  TileRef  `json:"t"`
	Owner PlayerID `json:"o"`
}

// PlayerDelta is a player's public stats after a tick.
type PlayerDelta struct {
	ID     PlayerID `json:"id"`
	Gold   int64    `json:"gold"`
	Troops int64    `json:"troops"`
	Tiles  int      `json:"tiles"`
	Alive  bool     `json:"alive"`
}

// TickDiff is everything that changed during one tick, in the order it
// changed. The transport layer serializes it verbatim for clients.
type TickDiff struct {
	Tick    int64         `json:"tick"`
	Tiles   []TileChange  `json:"tiles,omitempty"`
	Players []PlayerDelta `json:"players,omitempty"`
	Over    bool          `json:"over,omitempty"`
	Winner  PlayerID      `json:"winner,omitempty"`
}

// PlayerSnapshot captures one player's full restorable state.
type PlayerSnapshot struct {
	ID         PlayerID          `json:"id"`
	Name       string            `json:"name"`
	Team       Team              `json:"team"`
	Bot        bool              `json:"bot"`
	Alive      bool              `json:"alive"`
	Spawned    bool              `json:"spawned"`
	Gold       int64             `json:"gold"`
	Troops     int64             `json:"troops"`
	Research   []ResearchType    `json:"research,omitempty"`
	Current    *ResearchProgress `json:"current_research,omitempty"`
	Structures []UnitSnapshot    `json:"structures,omitempty"`
}

// UnitSnapshot captures a structure for persistence. Transports in motion
// are owned by their executions and are not persisted; their troops are
// an accepted loss on recovery.
type UnitSnapshot struct {
	Type         string  `json:"type"`
	Tile         TileRef `json:"tile"`
	Constructing bool    `json:"constructing"`
}

// Snapshot is a full restorable game state at a tick boundary. In-flight
// executions are deliberately not captured: a recovered game resumes from
// quiescent state, which is the documented recovery semantics.
type Snapshot struct {
	Tick    int64            `json:"tick"`
	Width   int              `json:"width"`
	Height  int              `json:"height"`
	Owners  []PlayerID       `json:"owners"`
	Players []PlayerSnapshot `json:"players"`
	Over    bool             `json:"over"`
	Winner  PlayerID         `json:"winner"`
}

// Snapshot captures the game's current state.
func (g *Game) Snapshot() *Snapshot {
	s := &Snapshot{
		Tick:   g.tick,
		Width:  g.m.Width(),
		Height: g.m.Height(),
		Owners: append([]PlayerID(nil), g.owners...),
		Over:   g.over,
		Winner: g.winner,
	}
	for _, p := range g.players {
		ps := PlayerSnapshot{
			ID:       p.id,
			Name:     p.name,
			Team:     p.team,
			Bot:      p.bot,
			Alive:    p.alive,
			Spawned:  p.spawned,
			Gold:     p.gold,
			Troops:   p.troops,
			Research: p.research.CompletedKeys(),
			Current:  p.research.Current(),
		}
		for _, u := range p.units {
			if u.Type().IsStructure() {
				ps.Structures = append(ps.Structures, UnitSnapshot{
					Type:         u.Type().String(),
					Tile:         u.Tile(),
					Constructing: u.UnderConstruction(),
				})
			}
		}
		s.Players = append(s.Players, ps)
	}
	return s
}

// RestoreGame rebuilds a game from a snapshot onto the given map. The map
// must match the snapshot's dimensions. In-progress research resumes; any
// construction that was mid-build resumes as finished to avoid orphaned
// shells (the execution driving it is gone).
func RestoreGame(s *Snapshot, m *GameMap, tuning *Tuning, sink EventSink, log zerolog.Logger) (*Game, error) {
	if m.Width() != s.Width || m.Height() != s.Height {
		return nil, fmt.Errorf("snapshot is %dx%d, map is %dx%d", s.Width, s.Height, m.Width(), m.Height())
	}
	if len(s.Owners) != m.NumTiles() {
		return nil, fmt.Errorf("snapshot owner grid has %d tiles, want %d", len(s.Owners), m.NumTiles())
	}

	g := NewGame(m, tuning, sink, log)
	g.tick = s.Tick
	g.over = s.Over
	g.winner = s.Winner

	for _, ps := range s.Players {
		p := g.AddPlayer(ps.Name, ps.Team, ps.Bot)
		if p.id != ps.ID {
			return nil, fmt.Errorf("snapshot player IDs not sequential: got %d, want %d", ps.ID, p.id)
		}
		p.alive = ps.Alive
		p.spawned = ps.Spawned
		p.gold = ps.Gold
		p.troops = ps.Troops
		for _, k := range ps.Research {
			if g.tuning.tree.Get(k) == nil {
				return nil, fmt.Errorf("snapshot references unknown research %q", k)
			}
			p.research.completed[k] = researchRecord{}
		}
		if ps.Current != nil {
			cur := *ps.Current
			p.research.current = &cur
			g.AddExecution(&ResearchExecution{
				execState: execState{owner: p, active: true},
				typ:       cur.Type,
				resumed:   true,
			})
		}
		for _, us := range ps.Structures {
			typ, ok := UnitTypeFromString(us.Type)
			if !ok {
				return nil, fmt.Errorf("snapshot references unknown unit type %q", us.Type)
			}
			p.addUnit(typ, us.Tile, false)
		}
	}

	copy(g.owners, s.Owners)
	for _, o := range g.owners {
		if o != TerraNulliusID {
			if int(o) > len(g.players) {
				return nil, fmt.Errorf("snapshot owner %d has no player", o)
			}
			g.mustPlayer(o).tiles++
		}
	}
	return g, nil
}

// Hash returns a digest of the observable game state (ownership grid and
// player stats). Two runs fed the same intent stream must produce equal
// hashes — the headless simulator uses this to verify determinism.
func (g *Game) Hash() uint64 {
	h := fnv.New64a()
	var buf [8]byte

	binary.LittleEndian.PutUint64(buf[:], uint64(g.tick))
	h.Write(buf[:])
	for _, o := range g.owners {
		binary.LittleEndian.PutUint16(buf[:2], uint16(o))
		h.Write(buf[:2])
	}
	for _, p := range g.players {
		binary.LittleEndian.PutUint64(buf[:], uint64(p.gold))
		h.Write(buf[:])
		binary.LittleEndian.PutUint64(buf[:], uint64(p.troops))
		h.Write(buf[:])
		binary.LittleEndian.PutUint64(buf[:], uint64(p.tiles))
		h.Write(buf[:])
		if p.alive {
			h.Write([]byte{1})
		} else {
			h.Write([]byte{0})
		}
		for _, k := range p.research.CompletedKeys() {
			h.Write([]byte(k))
		}
	}
	return h.Sum64()
}
