package conquest

// MessageType categorizes a display message for the rendering layer.
type MessageType string

const (
	MessageInfo    MessageType = "info"
	MessageSuccess MessageType = "success"
	MessageWarn    MessageType = "warn"
	MessageError   MessageType = "error"
)

// Display message keys emitted by the core. The core never formats
// user-facing strings; the rendering layer translates keys and params.
const (
	KeyAttackStarted      = "attack.started"
	KeyAttackConcluded    = "attack.concluded"
	KeyAttackExhausted    = "attack.exhausted"
	KeyAttackCancelled    = "attack.cancelled"
	KeyAttackNoFrontier   = "attack.no_frontier"
	KeySpawnFailed        = "spawn.failed"
	KeyNoTransportSource  = "transport.no_source"
	KeyTransportBlocked   = "transport.blocked"
	KeyTransportLost      = "transport.lost"
	KeyTransportReturned  = "transport.returned"
	KeyBuildNoFunds       = "build.insufficient_gold"
	KeyBuildBadSite       = "build.invalid_site"
	KeyBuildLost          = "build.site_lost"
	KeyBuildComplete      = "build.complete"
	KeyResearchComplete   = "research.complete"
	KeyPlayerEliminated   = "player.eliminated"
	KeyGameWon            = "game.won"
)

// EventSink receives structured display events from the simulation. The
// sink belongs to the transport layer; the core only hands it symbolic
// keys and typed parameters.
type EventSink interface {
	// DisplayMessage reports a game event attributed to player, optionally
	// involving target (TerraNulliusID when absent).
	DisplayMessage(key string, mt MessageType, player, target PlayerID, params map[string]int64)

	// DisplayIncomingUnit warns the destination owner that a transport is
	// inbound.
	DisplayIncomingUnit(unit UnitType, from, to PlayerID, troops, etaTicks int64)
}

// NoopSink discards all events. Useful for headless simulation and tests.
type NoopSink struct{}

func (NoopSink) DisplayMessage(string, MessageType, PlayerID, PlayerID, map[string]int64) {}
func (NoopSink) DisplayIncomingUnit(UnitType, PlayerID, PlayerID, int64, int64)           {}
