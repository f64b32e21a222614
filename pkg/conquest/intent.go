package conquest

// IntentType names the player commands the simulation accepts.
type IntentType string

const (
	IntentSpawn         IntentType = "spawn"
	IntentAttack        IntentType = "attack"
	IntentCancelAttack  IntentType = "cancel_attack"
	IntentBuildUnit     IntentType = "build_unit"
	IntentTransport     IntentType = "transport"
	IntentStartResearch IntentType = "start_research"
)

// Intent is a validated player command. Tick is stamped by the server
// when the command is accepted; client-supplied values are overwritten.
// Intents are queued by the transport layer and applied only at tick
// boundaries, never mid-tick, preserving deterministic ordering.
type Intent struct {
	Tick     int64        `json:"tick"`
	Player   PlayerID     `json:"player"`
	Type     IntentType   `json:"type"`
	Tile     TileRef      `json:"tile,omitempty"`
	Target   PlayerID     `json:"target,omitempty"`
	Troops   int64        `json:"troops,omitempty"`
	Unit     string       `json:"unit,omitempty"`
	Research ResearchType `json:"research,omitempty"`
}

// ApplyIntent translates an intent into an execution (or an immediate
// validated mutation) registered for the next tick. Unknown players,
// dead players, and malformed intents are dropped with a debug log —
// intent application never fails loudly.
func (g *Game) ApplyIntent(in Intent) {
	p := g.Player(in.Player)
	if p == nil || !p.Alive() {
		g.log.Debug().Uint16("player", uint16(in.Player)).Str("type", string(in.Type)).
			Int64("tick", in.Tick).Msg("intent for unknown or dead player dropped")
		return
	}

	switch in.Type {
	case IntentSpawn:
		g.AddExecution(NewSpawnExecution(p, in.Tile))
	case IntentAttack:
		if !g.m.Valid(in.Tile) {
			return
		}
		g.AddExecution(NewAttackExecution(p, g.ownerIDAt(in.Tile), in.Troops, in.Tile))
	case IntentCancelAttack:
		g.CancelAttack(p, in.Target)
	case IntentBuildUnit:
		typ, ok := UnitTypeFromString(in.Unit)
		if !ok || !typ.IsStructure() {
			return
		}
		g.AddExecution(NewConstructionExecution(p, typ, in.Tile))
	case IntentTransport:
		switch in.Unit {
		case UnitTransportShip.String():
			g.AddExecution(NewTransportShipExecution(p, in.Tile, in.Troops))
		default:
			g.AddExecution(NewTransportPlaneExecution(p, in.Tile, in.Troops))
		}
	case IntentStartResearch:
		g.AddExecution(NewResearchExecution(p, in.Research))
	default:
		g.log.Debug().Str("type", string(in.Type)).Msg("unknown intent type dropped")
	}
}
