package search

import (
	"figurer/distribution"
	"figurer/spatialindex"
)

// createOrExploreFromStateNode either grows sid with a new distribution-node
// child or hands back an existing one to refine, per spec §4.3.
func (t *Tree) createOrExploreFromStateNode(sid int) (int, error) {
	sn := t.stateNodes[sid]

	if len(sn.NextDistributionNodes) < t.tunables.MinFanout {
		return t.createFromStateNode(sid)
	}
	if sn.SparsityError > sn.ChildError {
		return t.createFromStateNode(sid)
	}
	return t.bestDistributionChild(sn), nil
}

// bestDistributionChild returns the child distribution-node id maximizing
// value+total_error (a UCB-like upper bound), breaking ties by the lowest id.
func (t *Tree) bestDistributionChild(sn *StateNode) int {
	best := -1
	var bestScore float64
	for did := range sn.NextDistributionNodes {
		dn := t.distributionNodes[did]
		score := dn.Value + dn.TotalError
		if best == -1 || score > bestScore || (score == bestScore && did < best) {
			best = did
			bestScore = score
		}
	}
	return best
}

// createFromStateNode samples a new actuation (possibly replaced by the aim
// heuristic's candidate) and creates the distribution node it predicts.
func (t *Tree) createFromStateNode(sid int) (int, error) {
	sn := t.stateNodes[sid]

	actuation, err := sn.NextActuationDistribution.Sample(t.rng)
	if err != nil {
		return 0, err
	}
	nextDist, err := t.predictFn(sn.State, actuation)
	if err != nil {
		return 0, err
	}

	if t.predictInverseFn != nil {
		actuation, nextDist, err = t.tryAim(sid, actuation, nextDist)
		if err != nil {
			return 0, err
		}
	}

	did := t.nextDistributionNodeID()
	t.distributionNodes[did] = &DistributionNode{
		ID:                    did,
		NextStateDistribution: nextDist,
		Value:                 sn.Value,
		Depth:                 0,
		NextStateNodes:        make(map[int]DistributionStateEdge),
	}
	sn.NextDistributionNodes[did] = StateDistributionEdge{Actuation: actuation}
	_ = sn.ActuationsSoFar.Add(sn.ActuationsSoFar.Len(), actuation)

	return did, nil
}

// tryAim implements the aim optimization of spec §4.3 step 3: it biases
// expansion toward already-visited regions of state space by asking
// predict-inverse for the actuation that would land near an existing state,
// accepting the substitution only when it is both closer to the existing
// state and competitive with the original candidate.
func (t *Tree) tryAim(
	sid int,
	actuation []float64,
	nextDist *distribution.Distribution,
) ([]float64, *distribution.Distribution, error) {
	sn := t.stateNodes[sid]

	x, err := nextDist.Sample(t.rng)
	if err != nil {
		return actuation, nextDist, err
	}
	nid, near, err := t.stateToNodeID.Closest(x)
	if err != nil {
		// Empty index is unreachable once the root exists, but fail soft.
		return actuation, nextDist, nil
	}
	if t.isGrandchild(sid, nid) {
		return actuation, nextDist, nil
	}

	aimAct, err := t.predictInverseFn(sn.State, near)
	if err != nil {
		return actuation, nextDist, err
	}
	aimDist, err := t.predictFn(sn.State, aimAct)
	if err != nil {
		return actuation, nextDist, err
	}
	aimX, err := aimDist.Sample(t.rng)
	if err != nil {
		return actuation, nextDist, err
	}

	d0Sq := squaredDistance(x, near)
	daSq := squaredDistance(aimX, near)
	if daSq >= t.tunables.AimDistanceRatio*d0Sq {
		return actuation, nextDist, nil
	}

	aimPolicyDensity := sn.NextActuationDistribution.Density(aimAct)
	nextPolicyDensity := sn.NextActuationDistribution.Density(actuation)
	noveltyAim := t.novelty(sn, aimAct)
	noveltyNext := t.novelty(sn, actuation)

	if aimPolicyDensity*noveltyAim > t.tunables.AimCompetitiveRatio*nextPolicyDensity*noveltyNext {
		return aimAct, aimDist, nil
	}
	return actuation, nextDist, nil
}

// novelty is the Euclidean distance from a to the nearest actuation already
// tried from sn, or 1.0 if none have been tried yet.
func (t *Tree) novelty(sn *StateNode, a []float64) float64 {
	if sn.ActuationsSoFar.Len() == 0 {
		return 1.0
	}
	d, err := sn.ActuationsSoFar.ClosestDistance(a)
	if err != nil {
		return 1.0
	}
	return d
}

// createOrExploreFromDistributionNode either grows did with a new state-node
// child (or reuse edge) or hands back an existing child to refine, per spec §4.4.
func (t *Tree) createOrExploreFromDistributionNode(did int) (int, error) {
	dn := t.distributionNodes[did]

	if len(dn.NextStateNodes) == 0 {
		return t.createFromDistributionNode(did)
	}

	sparsity := dn.SparsityError
	if len(dn.NextStateNodes) < 2 {
		sparsity = t.defaultSparsityForDistributionNode()
	}
	if sparsity > dn.ChildError {
		return t.createFromDistributionNode(did)
	}
	return t.bestStateChild(dn), nil
}

func (t *Tree) bestStateChild(dn *DistributionNode) int {
	best := -1
	var bestScore float64
	for sid := range dn.NextStateNodes {
		sn := t.stateNodes[sid]
		score := sn.Value + sn.TotalError
		if best == -1 || score > bestScore || (score == bestScore && sid < best) {
			best = sid
			bestScore = score
		}
	}
	return best
}

// createFromDistributionNode samples a next state; if an existing nearby
// state is both not already a child and still carries nontrivial density
// under this distribution, it reuses that state instead of creating a new
// one, sharing structure across subtrees that converge on the same region.
func (t *Tree) createFromDistributionNode(did int) (int, error) {
	dn := t.distributionNodes[did]

	x, err := dn.NextStateDistribution.Sample(t.rng)
	if err != nil {
		return 0, err
	}
	sampledDensity := dn.NextStateDistribution.Density(x)

	nid, near, err := t.stateToNodeID.Closest(x)
	if err != nil {
		return 0, err
	}

	if _, isChild := dn.NextStateNodes[nid]; !isChild {
		nearDensity := dn.NextStateDistribution.Density(near)
		if nearDensity > t.tunables.ReuseDensityRatio*sampledDensity {
			dn.NextStateNodes[nid] = DistributionStateEdge{Density: nearDensity}
			return nid, nil
		}
	}

	sid := t.nextStateNodeID()
	directValue := t.valueFn(x)
	actuationDist, err := t.policyFn(x)
	if err != nil {
		return 0, err
	}

	t.stateNodes[sid] = &StateNode{
		ID:                        sid,
		State:                     x,
		NextActuationDistribution: actuationDist,
		DirectValue:               directValue,
		Value:                     directValue,
		NextDistributionNodes:     make(map[int]StateDistributionEdge),
		ActuationsSoFar:           spatialindex.New(),
	}
	if err := t.stateToNodeID.Add(sid, x); err != nil {
		return 0, err
	}
	t.recordValue(directValue)

	dn.NextStateNodes[sid] = DistributionStateEdge{Density: sampledDensity}
	return sid, nil
}

func squaredDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}
