package search

// Snapshot is a read-only projection of a Tree's current size, shape, and
// calibration state — new surface added for the liveview and bench packages
// (SPEC_FULL §8); the engine itself never reads a Snapshot back.
type Snapshot struct {
	StateNodeCount        int
	DistributionNodeCount int
	StateNodesByDepth     map[int]int
	RootSpread            float64
	MaxValueSoFar         float64
	MinValueSoFar         float64
	AvgDistSparsity       float64
	RootValue             float64
	RootTotalError        float64
}

// Snapshot captures the tree's current telemetry.
func (t *Tree) Snapshot() Snapshot {
	byDepth := make(map[int]int)
	for _, sn := range t.stateNodes {
		byDepth[sn.Depth]++
	}

	root := t.stateNodes[t.initialStateNodeID]

	return Snapshot{
		StateNodeCount:        len(t.stateNodes),
		DistributionNodeCount: len(t.distributionNodes),
		StateNodesByDepth:     byDepth,
		RootSpread:            t.rootSpread,
		MaxValueSoFar:         t.maxValueSoFar,
		MinValueSoFar:         t.minValueSoFar,
		AvgDistSparsity:       t.avgDistSparsity,
		RootValue:             root.Value,
		RootTotalError:        root.TotalError,
	}
}
