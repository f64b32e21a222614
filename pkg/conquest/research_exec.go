package conquest

// ResearchExecution drives one research from start to completion. Starting
// deducts the gold cost immediately; a player eliminated before the
// completion tick loses the research and the gold — a deliberate loss
// rule, not an error.
type ResearchExecution struct {
	execState
	g       *Game
	typ     ResearchType
	resumed bool // restored from a snapshot; progress already exists
}

// NewResearchExecution queues the start of a research.
func NewResearchExecution(owner *Player, typ ResearchType) *ResearchExecution {
	return &ResearchExecution{
		execState: execState{owner: owner, active: true},
		typ:       typ,
	}
}

// Init attempts to start the research; every failed gate (unknown key,
// prerequisites, another research running, insufficient gold) deactivates
// silently.
func (r *ResearchExecution) Init(g *Game, tick int64) {
	r.g = g
	if !r.owner.Alive() {
		r.active = false
		return
	}
	if r.resumed {
		cur := r.owner.Research().Current()
		if cur == nil || cur.Type != r.typ {
			r.active = false
		}
		return
	}
	if !r.owner.StartResearch(r.typ, tick) {
		r.active = false
	}
}

// Tick completes the research once the stored completion tick is reached.
func (r *ResearchExecution) Tick(tick int64) {
	if !r.owner.Alive() {
		// Gold already spent is not refunded.
		r.owner.Research().abandonCurrent()
		r.active = false
		return
	}

	cur := r.owner.Research().Current()
	if cur == nil || cur.Type != r.typ {
		// Progress was cleared elsewhere (admin grant); nothing to drive.
		r.active = false
		return
	}
	if tick >= cur.CompletesAt {
		r.owner.Research().finishCurrent(tick)
		r.active = false
		r.g.sink.DisplayMessage(KeyResearchComplete, MessageSuccess, r.owner.ID(), TerraNulliusID, nil)
	}
}
