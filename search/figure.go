package search

// FigureOnce performs one expand-then-backup iteration: it descends from the
// root for t.depth plies, creating or refining a node at each level, then
// backs up value and error estimates along the visited path.
func (t *Tree) FigureOnce() error {
	cur := t.initialStateNodeID
	visitedState := []int{cur}
	visitedDist := make([]int, 0, t.depth)

	for ply := 0; ply < t.depth; ply++ {
		did, err := t.createOrExploreFromStateNode(cur)
		if err != nil {
			return err
		}
		sid, err := t.createOrExploreFromDistributionNode(did)
		if err != nil {
			return err
		}
		visitedDist = append(visitedDist, did)
		visitedState = append(visitedState, sid)
		cur = sid
	}

	// Back up from the deepest visited ply to the root, inclusive: the root
	// is visitedState[0], refreshed as the parent of visitedDist[0].
	for i := len(visitedDist) - 1; i >= 0; i-- {
		t.refreshDistributionNode(visitedDist[i])
		t.refreshStateNode(visitedState[i])
	}

	return nil
}
