package search

import (
	"math/rand"

	"figurer/spatialindex"
)

// Tunables holds the engine's gate constants. Zero-value fields fall back to
// the defaults in DefaultTunables — callers normally never need to touch
// this at all; it exists for figconfig-driven experimentation, not because
// the defaults are suspect.
type Tunables struct {
	MinFanout           int
	AimDistanceRatio    float64
	AimCompetitiveRatio float64
	ReuseDensityRatio   float64
	SparsityEWMARate    float64
}

// DefaultTunables returns the engine's literal default gate constants.
func DefaultTunables() Tunables {
	return Tunables{
		MinFanout:           3,
		AimDistanceRatio:    0.04,
		AimCompetitiveRatio: 0.2,
		ReuseDensityRatio:   0.1,
		SparsityEWMARate:    0.05,
	}
}

// Option configures optional Tree construction parameters.
type Option func(*Tree)

// WithTunables overrides the engine's gate constants. Any zero-valued field
// in tu falls back to DefaultTunables' value for that field.
func WithTunables(tu Tunables) Option {
	return func(t *Tree) {
		d := DefaultTunables()
		if tu.MinFanout != 0 {
			d.MinFanout = tu.MinFanout
		}
		if tu.AimDistanceRatio != 0 {
			d.AimDistanceRatio = tu.AimDistanceRatio
		}
		if tu.AimCompetitiveRatio != 0 {
			d.AimCompetitiveRatio = tu.AimCompetitiveRatio
		}
		if tu.ReuseDensityRatio != 0 {
			d.ReuseDensityRatio = tu.ReuseDensityRatio
		}
		if tu.SparsityEWMARate != 0 {
			d.SparsityEWMARate = tu.SparsityEWMARate
		}
		t.tunables = d
	}
}

// Tree is the bipartite search graph plus the algorithms that grow and read
// it. It is owned by exactly one goroutine at a time (spec §5): there are no
// internal locks.
type Tree struct {
	depth    int
	tunables Tunables

	valueFn          ValueFunc
	policyFn         PolicyFunc
	predictFn        PredictFunc
	predictInverseFn PredictInverseFunc // nil disables the aim heuristic

	rng *rand.Rand

	stateNodes        map[int]*StateNode
	distributionNodes map[int]*DistributionNode
	stateToNodeID     *spatialindex.SpatialIndex

	initialStateNodeID     int
	maxStateNodeID         int
	maxDistributionNodeID  int

	// Calibration statistics, accumulated across the tree's lifetime.
	rootSpread      float64
	rootSpreadSet   bool
	maxValueSoFar   float64
	minValueSoFar   float64
	valueRangeSet   bool
	avgDistSparsity float64
	avgDistSparsitySet bool
}

// New builds a Tree rooted at initialState. rng must be non-nil and is
// consumed by every Sample call made during growth — own it externally for
// deterministic, reproducible runs.
func New(
	rng *rand.Rand,
	depth int,
	initialState []float64,
	valueFn ValueFunc,
	policyFn PolicyFunc,
	predictFn PredictFunc,
	predictInverseFn PredictInverseFunc,
	opts ...Option,
) (*Tree, error) {
	t := &Tree{
		depth:             depth,
		tunables:          DefaultTunables(),
		valueFn:           valueFn,
		policyFn:          policyFn,
		predictFn:         predictFn,
		predictInverseFn:  predictInverseFn,
		rng:               rng,
		stateNodes:        make(map[int]*StateNode),
		distributionNodes: make(map[int]*DistributionNode),
		stateToNodeID:     spatialindex.New(),
	}
	for _, opt := range opts {
		opt(t)
	}

	actuationDist, err := policyFn(initialState)
	if err != nil {
		return nil, err
	}
	directValue := valueFn(initialState)

	root := &StateNode{
		ID:                         0,
		State:                      initialState,
		NextActuationDistribution:  actuationDist,
		DirectValue:                directValue,
		Value:                      directValue,
		NextDistributionNodes:      make(map[int]StateDistributionEdge),
		ActuationsSoFar:            spatialindex.New(),
	}
	t.stateNodes[0] = root
	t.initialStateNodeID = 0
	t.maxStateNodeID = 0

	if err := t.stateToNodeID.Add(0, initialState); err != nil {
		return nil, err
	}
	t.maxValueSoFar = directValue
	t.minValueSoFar = directValue
	t.valueRangeSet = true

	return t, nil
}

// StateNode returns the state node with the given id, if any.
func (t *Tree) StateNode(id int) (*StateNode, bool) {
	sn, ok := t.stateNodes[id]
	return sn, ok
}

// DistributionNode returns the distribution node with the given id, if any.
func (t *Tree) DistributionNode(id int) (*DistributionNode, bool) {
	dn, ok := t.distributionNodes[id]
	return dn, ok
}

// RootID returns the id of the initial state node.
func (t *Tree) RootID() int {
	return t.initialStateNodeID
}

func (t *Tree) nextStateNodeID() int {
	t.maxStateNodeID++
	return t.maxStateNodeID
}

func (t *Tree) nextDistributionNodeID() int {
	t.maxDistributionNodeID++
	return t.maxDistributionNodeID
}

func (t *Tree) recordValue(v float64) {
	if v > t.maxValueSoFar || !t.valueRangeSet {
		t.maxValueSoFar = v
	}
	if v < t.minValueSoFar || !t.valueRangeSet {
		t.minValueSoFar = v
	}
	t.valueRangeSet = true
}

// isGrandchild reports whether nid is a state-child of any distribution-node
// child of sid — i.e. already reachable two hops down from sid.
func (t *Tree) isGrandchild(sid, nid int) bool {
	sn := t.stateNodes[sid]
	for did := range sn.NextDistributionNodes {
		dn := t.distributionNodes[did]
		if _, ok := dn.NextStateNodes[nid]; ok {
			return true
		}
	}
	return false
}
