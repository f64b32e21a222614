package conquest

// SpawnExecution claims a player's starting position during the spawn
// phase: a patch of unclaimed land around the chosen tile, plus starting
// gold and troops. Spawning is instantaneous — all work happens in Init.
type SpawnExecution struct {
	execState
	tile TileRef
}

// NewSpawnExecution queues a spawn at the given tile.
func NewSpawnExecution(owner *Player, tile TileRef) *SpawnExecution {
	return &SpawnExecution{
		execState: execState{owner: owner, active: true},
		tile:      tile,
	}
}

// ActiveDuringSpawn allows spawning while the game is in its spawn window.
func (s *SpawnExecution) ActiveDuringSpawn() bool { return true }

// Init claims the spawn area or aborts silently when the site is invalid,
// already claimed, or the player has spawned before.
func (s *SpawnExecution) Init(g *Game, tick int64) {
	defer func() { s.active = false }() // spawn never survives its init tick

	if !s.owner.Alive() || s.owner.Spawned() {
		return
	}
	if !g.m.Valid(s.tile) {
		g.log.Warn().Int32("tile", int32(s.tile)).Uint16("player", uint16(s.owner.id)).
			Msg("spawn init with invalid tile reference")
		return
	}
	if !g.m.IsLand(s.tile) || g.ownerIDAt(s.tile) != TerraNulliusID {
		g.sink.DisplayMessage(KeySpawnFailed, MessageWarn, s.owner.id, TerraNulliusID, nil)
		return
	}

	s.owner.spawned = true
	s.owner.gold = g.tuning.StartGold
	s.owner.troops = g.tuning.StartTroops

	sx, sy := g.m.XY(s.tile)
	r := g.tuning.SpawnRadius
	for y := sy - r; y <= sy+r; y++ {
		for x := sx - r; x <= sx+r; x++ {
			t := g.m.Ref(x, y)
			if t == NoTile || !g.m.IsLand(t) || g.ownerIDAt(t) != TerraNulliusID {
				continue
			}
			g.conquer(s.owner, t)
		}
	}
}

// Tick never runs: the execution deactivates during Init.
func (s *SpawnExecution) Tick(tick int64) {}
