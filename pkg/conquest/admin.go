package conquest

// AdminOp selects a privileged mutation.
type AdminOp uint8

const (
	AdminSetGold AdminOp = iota
	AdminSetTroops
	AdminGrantAllResearch
)

// AdminExecution applies a privileged mutation through the same tick
// boundary as every other state change, so admin tooling never reaches
// into entity internals from outside the loop. The operation is
// instantaneous: applied in Init, then terminal.
type AdminExecution struct {
	execState
	op     AdminOp
	amount int64
}

// NewAdminExecution queues a privileged mutation against target.
func NewAdminExecution(target *Player, op AdminOp, amount int64) *AdminExecution {
	return &AdminExecution{
		execState: execState{owner: target, active: true},
		op:        op,
		amount:    amount,
	}
}

// ActiveDuringSpawn lets admin fixes run even before the game proper.
func (a *AdminExecution) ActiveDuringSpawn() bool { return true }

// Init applies the operation and deactivates.
func (a *AdminExecution) Init(g *Game, tick int64) {
	defer func() { a.active = false }()

	if !a.owner.Alive() {
		return
	}
	switch a.op {
	case AdminSetGold:
		a.owner.SetGold(a.amount)
	case AdminSetTroops:
		a.owner.SetTroops(a.amount)
	case AdminGrantAllResearch:
		a.owner.GrantAllResearch(tick)
	}
}

// Tick never runs: the execution deactivates during Init.
func (a *AdminExecution) Tick(tick int64) {}
