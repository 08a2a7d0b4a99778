// Package search implements the anytime planning engine: an incrementally
// grown, bipartite tree of alternating state nodes and distribution nodes,
// the explore-vs-refine selection rule that drives its growth, and the
// greedy-then-random rollout that reads a plan back out of it.
//
// The tree is an arena of two id-keyed tables (StateNode, DistributionNode)
// rather than a pointer graph: ids are monotonically increasing integers,
// never reused, which sidesteps lifetime/cycle concerns entirely and lets
// edges be plain integer handles.
package search

import (
	"figurer/distribution"
	"figurer/spatialindex"
)

// ValueFunc evaluates the long-run desirability of a state, independent of
// any particular actuation.
type ValueFunc func(state []float64) float64

// PolicyFunc proposes a distribution over actuations to try from a state.
type PolicyFunc func(state []float64) (*distribution.Distribution, error)

// PredictFunc is the world model: the distribution over next states that
// results from applying an actuation at a state.
type PredictFunc func(state, actuation []float64) (*distribution.Distribution, error)

// PredictInverseFunc proposes the actuation from stateFrom that would come
// closest to reaching stateTo. Optional; enables the aim heuristic.
type PredictInverseFunc func(stateFrom, stateTo []float64) ([]float64, error)

// StateDistributionEdge is the witness datum on a state-node's outgoing edge:
// the actuation that was sampled to produce the child distribution node.
type StateDistributionEdge struct {
	Actuation []float64
}

// DistributionStateEdge is the witness datum on a distribution-node's
// outgoing edge: the parent distribution's density at the child's state.
type DistributionStateEdge struct {
	Density float64
}

// StateNode is a node representing a concrete state the tree has visited.
type StateNode struct {
	ID    int
	State []float64

	// NextActuationDistribution is produced once, at creation, by the policy callback.
	NextActuationDistribution *distribution.Distribution

	// DirectValue is value_fn(State); fixed forever at creation.
	DirectValue float64
	// Value is the current long-run value estimate, folding in DirectValue
	// and the best child's contribution.
	Value float64

	ChildError    float64
	SparsityError float64
	TotalError    float64

	// Depth is the length of the longest path of expanded descendants rooted here.
	Depth int

	// NextDistributionNodes maps child distribution-node id to the edge that created it.
	NextDistributionNodes map[int]StateDistributionEdge

	// ActuationsSoFar indexes the actuations chosen from this state, for the
	// aim heuristic's novelty criterion.
	ActuationsSoFar *spatialindex.SpatialIndex
}

// DistributionNode is a node representing a distribution over next states
// reached by applying one particular actuation.
type DistributionNode struct {
	ID int

	// NextStateDistribution is produced by the predict callback at creation.
	NextStateDistribution *distribution.Distribution

	Value         float64
	ChildError    float64
	SparsityError float64
	TotalError    float64
	Depth         int

	// NextStateNodes maps child state-node id to the edge that created or relinked it.
	NextStateNodes map[int]DistributionStateEdge
}

// Plan is an alternating sequence of states and the actuations between them.
// len(States) == len(Actuations)+1.
type Plan struct {
	States     [][]float64
	Actuations [][]float64
}
