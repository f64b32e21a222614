package conquest

import "fmt"

// ResearchType identifies a research entry in the tree.
type ResearchType string

// ResearchDef describes one entry in the research tree: its prerequisites,
// its gold cost (deducted at start, not at completion), how many ticks it
// takes, and the bonuses it grants once completed.
type ResearchDef struct {
	Key           ResearchType   `yaml:"key"`
	Name          string         `yaml:"name"`
	Requires      []ResearchType `yaml:"requires"`
	CostGold      int64          `yaml:"cost_gold"`
	DurationTicks int64          `yaml:"duration_ticks"`
	Bonus         BonusSet       `yaml:"bonus"`
}

// ResearchTree is the validated prerequisite DAG shared by all players in
// a game. It is immutable after construction.
type ResearchTree struct {
	defs  map[ResearchType]*ResearchDef
	order []ResearchType // definition order, used for deterministic iteration
}

// NewResearchTree validates definitions and builds a tree. Every
// prerequisite must name a defined entry, keys must be unique, and
// durations must be positive.
func NewResearchTree(defs []ResearchDef) (*ResearchTree, error) {
	t := &ResearchTree{defs: make(map[ResearchType]*ResearchDef, len(defs))}
	for i := range defs {
		d := defs[i]
		if d.Key == "" {
			return nil, fmt.Errorf("research entry %d has no key", i)
		}
		if _, dup := t.defs[d.Key]; dup {
			return nil, fmt.Errorf("duplicate research key %q", d.Key)
		}
		if d.DurationTicks <= 0 {
			return nil, fmt.Errorf("research %q: duration must be positive", d.Key)
		}
		if d.CostGold < 0 {
			return nil, fmt.Errorf("research %q: negative cost", d.Key)
		}
		d.Bonus = d.Bonus.normalized()
		t.defs[d.Key] = &d
		t.order = append(t.order, d.Key)
	}
	for _, k := range t.order {
		for _, req := range t.defs[k].Requires {
			if _, ok := t.defs[req]; !ok {
				return nil, fmt.Errorf("research %q requires unknown %q", k, req)
			}
		}
	}
	return t, nil
}

// Get returns the definition for a key, or nil if unknown.
func (t *ResearchTree) Get(k ResearchType) *ResearchDef { return t.defs[k] }

// Keys returns all research keys in definition order.
func (t *ResearchTree) Keys() []ResearchType { return t.order }

// researchRecord captures when a research ran.
type researchRecord struct {
	startedAt   int64
	completedAt int64
}

// ResearchProgress describes an in-flight research.
type ResearchProgress struct {
	Type        ResearchType
	StartedAt   int64
	CompletesAt int64
}

// ResearchState tracks one player's progression through the tree.
// At most one research is in progress at a time; a completed research can
// never be restarted.
type ResearchState struct {
	tree      *ResearchTree
	completed map[ResearchType]researchRecord
	current   *ResearchProgress
}

func newResearchState(tree *ResearchTree) *ResearchState {
	return &ResearchState{
		tree:      tree,
		completed: make(map[ResearchType]researchRecord),
	}
}

// Completed reports whether the given research has finished.
func (s *ResearchState) Completed(k ResearchType) bool {
	_, ok := s.completed[k]
	return ok
}

// Current returns the in-progress research, or nil.
func (s *ResearchState) Current() *ResearchProgress { return s.current }

// CanStart checks the non-monetary preconditions: the entry exists, is not
// completed, nothing else is in progress, and all prerequisites are done.
func (s *ResearchState) CanStart(k ResearchType) bool {
	def := s.tree.Get(k)
	if def == nil || s.current != nil || s.Completed(k) {
		return false
	}
	for _, req := range def.Requires {
		if !s.Completed(req) {
			return false
		}
	}
	return true
}

// start records an in-progress research. Gold gating happens on the Player.
func (s *ResearchState) start(k ResearchType, tick int64) {
	def := s.tree.Get(k)
	s.current = &ResearchProgress{
		Type:        k,
		StartedAt:   tick,
		CompletesAt: tick + def.DurationTicks,
	}
}

// finishCurrent marks the in-progress research completed at tick.
func (s *ResearchState) finishCurrent(tick int64) ResearchType {
	k := s.current.Type
	s.completed[k] = researchRecord{startedAt: s.current.StartedAt, completedAt: tick}
	s.current = nil
	return k
}

// abandonCurrent drops the in-progress research without refund.
func (s *ResearchState) abandonCurrent() {
	s.current = nil
}

// grantAll marks every research completed at tick. Privileged admin path.
func (s *ResearchState) grantAll(tick int64) {
	for _, k := range s.tree.Keys() {
		if !s.Completed(k) {
			s.completed[k] = researchRecord{startedAt: tick, completedAt: tick}
		}
	}
	s.current = nil
}

// CombinedBonuses aggregates the bonuses of every completed research.
// Pure: deterministic given the completed set, no side effects. Called
// every tick by the combat resolver.
func (s *ResearchState) CombinedBonuses() BonusSet {
	b := NeutralBonuses()
	for _, k := range s.tree.Keys() {
		if s.Completed(k) {
			b = b.Combine(s.tree.Get(k).Bonus)
		}
	}
	return b
}

// CompletedKeys returns completed research keys in definition order.
func (s *ResearchState) CompletedKeys() []ResearchType {
	var keys []ResearchType
	for _, k := range s.tree.Keys() {
		if s.Completed(k) {
			keys = append(keys, k)
		}
	}
	return keys
}
