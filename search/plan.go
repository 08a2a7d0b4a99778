package search

import "sort"

// SamplePlan realizes a plan of at most horizon steps from the root: greedy
// in actuation (highest-value child distribution node), stochastic in state
// transition (uniformly random child state, reflecting uncontrolled world
// randomness rather than an expectation). It stops early, without error, if
// the tree is too shallow along the chosen path.
func (t *Tree) SamplePlan(horizon int) *Plan {
	cur := t.initialStateNodeID
	plan := &Plan{States: [][]float64{t.stateNodes[cur].State}}

	for step := 0; step < horizon; step++ {
		sn := t.stateNodes[cur]
		if len(sn.NextDistributionNodes) == 0 {
			break
		}

		did := t.greedyDistributionChild(sn)
		edge := sn.NextDistributionNodes[did]
		plan.Actuations = append(plan.Actuations, edge.Actuation)

		dn := t.distributionNodes[did]
		if len(dn.NextStateNodes) == 0 {
			break
		}
		cur = t.randomStateChild(dn)
		plan.States = append(plan.States, t.stateNodes[cur].State)
	}

	return plan
}

// greedyDistributionChild returns the distribution-node child with the
// greatest value, ties broken by insertion order (lowest id wins).
func (t *Tree) greedyDistributionChild(sn *StateNode) int {
	ids := sortedKeysOfDistEdges(sn.NextDistributionNodes)
	best := ids[0]
	bestVal := t.distributionNodes[best].Value
	for _, did := range ids[1:] {
		if v := t.distributionNodes[did].Value; v > bestVal {
			best = did
			bestVal = v
		}
	}
	return best
}

// randomStateChild samples uniformly among dn's state-node children.
func (t *Tree) randomStateChild(dn *DistributionNode) int {
	ids := sortedKeysOfStateEdges(dn.NextStateNodes)
	return ids[t.rng.Intn(len(ids))]
}

func sortedKeysOfDistEdges(m map[int]StateDistributionEdge) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func sortedKeysOfStateEdges(m map[int]DistributionStateEdge) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
