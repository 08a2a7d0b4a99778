package search

import "math"

// defaultSparsityFloor is the fallback sparsity estimate used before the
// tree has accumulated enough calibration data to do better.
const defaultSparsityFloor = 1000.0

// defaultSparsityForStateNode implements spec §4.3's
// default_sparsity_error_for_state_node: root_spread if set, else the
// observed value range if it exceeds 1, else the floor.
func (t *Tree) defaultSparsityForStateNode() float64 {
	if t.rootSpreadSet {
		return t.rootSpread
	}
	if t.valueRangeSet && (t.maxValueSoFar-t.minValueSoFar) > 1 {
		return t.maxValueSoFar - t.minValueSoFar
	}
	return defaultSparsityFloor
}

// defaultSparsityForDistributionNode implements spec §4.4's
// default_sparsity_error_for_distribution_node: avg_dist_sparsity if set,
// else root_spread, else the observed value range, else the floor.
func (t *Tree) defaultSparsityForDistributionNode() float64 {
	if t.avgDistSparsitySet {
		return t.avgDistSparsity
	}
	if t.rootSpreadSet {
		return t.rootSpread
	}
	if t.valueRangeSet {
		return t.maxValueSoFar - t.minValueSoFar
	}
	return defaultSparsityFloor
}

// refreshStateNode recomputes sid's value and error aggregates from its
// current distribution-node children, per spec §4.3.
func (t *Tree) refreshStateNode(sid int) {
	sn := t.stateNodes[sid]

	if len(sn.NextDistributionNodes) == 0 {
		sn.Value = sn.DirectValue
		sn.ChildError = 0
		sn.SparsityError = 0
		sn.TotalError = 0
		sn.Depth = 0
		return
	}

	children := make([]*DistributionNode, 0, len(sn.NextDistributionNodes))
	for _, did := range sortedKeysOfDistEdges(sn.NextDistributionNodes) {
		children = append(children, t.distributionNodes[did])
	}

	maxV := children[0].Value
	minV := children[0].Value
	maxVDepth := children[0].Depth
	maxVMinusErr := children[0].Value - children[0].TotalError
	for _, c := range children[1:] {
		if c.Value > maxV {
			maxV = c.Value
			maxVDepth = c.Depth
		}
		if c.Value < minV {
			minV = c.Value
		}
		if c.Value-c.TotalError > maxVMinusErr {
			maxVMinusErr = c.Value - c.TotalError
		}
	}

	max1, max2 := topTwoByUpperBound(children)

	thisDepth := maxVDepth + 1

	var sparsityError float64
	if len(children) < 2 {
		sparsityError = t.defaultSparsityForStateNode() * float64(thisDepth) / float64(t.depth)
	} else {
		sparsityError = math.Max(0.01, maxV-minV) / float64(len(children))
	}

	childLo := maxVMinusErr
	childHiFloor := math.Max(childLo, max2)
	childHi := childHiFloor + 0.1*(max1-childHiFloor)

	finalLo := (sn.DirectValue + float64(thisDepth)*childLo) / float64(thisDepth+1)
	finalHi := (sn.DirectValue + float64(thisDepth)*childHi) / float64(thisDepth+1)

	sn.Value = (finalLo + finalHi) / 2
	sn.ChildError = sn.Value - finalLo
	sn.SparsityError = sparsityError
	sn.TotalError = math.Sqrt(sn.ChildError*sn.ChildError + sn.SparsityError*sn.SparsityError)
	sn.Depth = thisDepth

	if sid == t.initialStateNodeID && len(children) > 2 {
		t.rootSpread = maxV - minV
		t.rootSpreadSet = true
	}
}

// topTwoByUpperBound returns the largest and second-largest value+total_error
// among children; if there is only one child, both are its own bound.
func topTwoByUpperBound(children []*DistributionNode) (max1, max2 float64) {
	max1 = math.Inf(-1)
	max2 = math.Inf(-1)
	for _, c := range children {
		score := c.Value + c.TotalError
		if score > max1 {
			max2 = max1
			max1 = score
		} else if score > max2 {
			max2 = score
		}
	}
	if len(children) == 1 {
		max2 = max1
	}
	return
}

// refreshDistributionNode recomputes did's value and error aggregates from
// its current state-node children, per spec §4.4. Child values are averaged
// uniformly, a known approximation: the densities recorded on the edges are
// not used as weights.
func (t *Tree) refreshDistributionNode(did int) {
	dn := t.distributionNodes[did]

	if len(dn.NextStateNodes) == 0 {
		dn.Value = 0
		dn.SparsityError = t.defaultSparsityForDistributionNode()
		dn.TotalError = dn.SparsityError
		dn.ChildError = 0
		return
	}

	children := make([]*StateNode, 0, len(dn.NextStateNodes))
	for _, sid := range sortedKeysOfStateEdges(dn.NextStateNodes) {
		children = append(children, t.stateNodes[sid])
	}
	n := float64(len(children))

	var valueSum, errSqSum float64
	maxChildValue := children[0].Value
	minChildValue := children[0].Value
	maxDepth := children[0].Depth
	for _, c := range children {
		valueSum += c.Value
		errSqSum += c.TotalError * c.TotalError
		if c.Value > maxChildValue {
			maxChildValue = c.Value
		}
		if c.Value < minChildValue {
			minChildValue = c.Value
		}
		if c.Depth > maxDepth {
			maxDepth = c.Depth
		}
	}

	dn.Value = valueSum / n
	dn.ChildError = math.Sqrt(errSqSum) / n

	if len(children) < 2 {
		dn.SparsityError = t.defaultSparsityForDistributionNode()
	} else {
		dn.SparsityError = (maxChildValue - minChildValue + dn.ChildError) / n
	}
	dn.TotalError = math.Sqrt(dn.ChildError*dn.ChildError + dn.SparsityError*dn.SparsityError)
	dn.Depth = maxDepth

	if len(children) > 1 {
		newEstimate := math.Max(0.01, (dn.TotalError-dn.ChildError)*n)
		if !t.avgDistSparsitySet {
			t.avgDistSparsity = newEstimate
			t.avgDistSparsitySet = true
		} else {
			t.avgDistSparsity = (1-t.tunables.SparsityEWMARate)*t.avgDistSparsity + t.tunables.SparsityEWMARate*newEstimate
		}
	}
}
