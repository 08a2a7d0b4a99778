package search

import (
	"math"
	"math/rand"
	"testing"

	"figurer/distribution"
	"figurer/examples/robot2d"

	. "github.com/smartystreets/goconvey/convey"
)

func newRobot2DTree(t *testing.T, depth int, seed int64) *Tree {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	tree, err := New(rng, depth, append([]float64{}, robot2d.Origin...),
		robot2d.ValueFn, robot2d.PolicyFn, robot2d.PredictFn, robot2d.PredictInverseFn)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return tree
}

// S1: robot 2D, straight line.
func TestRobot2DStraightLine(t *testing.T) {
	Convey("Given a robot2d tree of depth 5", t, func() {
		tree := newRobot2DTree(t, 5, 1)

		Convey("after 100 iterations, a full-horizon plan reaches near the goal", func() {
			for i := 0; i < 100; i++ {
				So(tree.FigureOnce(), ShouldBeNil)
			}

			plan := tree.SamplePlan(5)
			So(len(plan.Actuations), ShouldEqual, 5)
			So(len(plan.States), ShouldEqual, 6)

			last := plan.States[len(plan.States)-1]
			So(math.Max(math.Abs(last[0]-robot2d.Goal[0]), math.Abs(last[1]-robot2d.Goal[1])), ShouldBeLessThanOrEqualTo, 1.0)
		})
	})
}

// S2: degenerate fanout.
func TestDegenerateFanout(t *testing.T) {
	Convey("Given a depth-1 tree with constant value and a single-point predict distribution", t, func() {
		rng := rand.New(rand.NewSource(2))
		constVal := func(state []float64) float64 { return 7 }
		policy := func(state []float64) (*distribution.Distribution, error) {
			return distribution.Uniform([]float64{0, 1})
		}
		predict := func(state, actuation []float64) (*distribution.Distribution, error) {
			d := distribution.New().SetDimension(1)
			d.SetSampleFn(func(seed []float64) []float64 { return []float64{0} })
			d.SetDensityFn(func(point []float64) float64 { return 1 })
			return d, nil
		}

		tree, err := New(rng, 1, []float64{0}, constVal, policy, predict, nil)
		So(err, ShouldBeNil)

		Convey("after 1 iteration, root has one distribution child with value 7", func() {
			So(tree.FigureOnce(), ShouldBeNil)

			root := tree.stateNodes[tree.initialStateNodeID]
			So(len(root.NextDistributionNodes), ShouldEqual, 1)

			var did int
			for id := range root.NextDistributionNodes {
				did = id
			}
			So(tree.distributionNodes[did].Value, ShouldEqual, 7)

			Convey("total_error is 0 once backed up twice", func() {
				So(tree.FigureOnce(), ShouldBeNil)
				So(tree.distributionNodes[did].TotalError, ShouldEqual, 0)
			})
		})
	})
}

// S5: aim reuse.
func TestAimReuse(t *testing.T) {
	Convey("Given a tree where predict is a unit-wide box and predict-inverse returns the exact state difference", t, func() {
		rng := rand.New(rand.NewSource(5))
		valueFn := func(state []float64) float64 { return -state[0] }
		policy := func(state []float64) (*distribution.Distribution, error) {
			return distribution.Uniform([]float64{0, 1})
		}

		// predict: a unit-wide box around state+actuation. The aim candidate
		// (built from predict-inverse) is a box of the same width centred on
		// the existing state itself.
		predict := func(state, actuation []float64) (*distribution.Distribution, error) {
			center := state[0] + actuation[0]
			return distribution.Uniform([]float64{center - 0.5, center + 0.5})
		}
		predictInverse := func(state1, state2 []float64) ([]float64, error) {
			return []float64{state2[0] - state1[0]}, nil
		}

		tree, err := New(rng, 2, []float64{0}, valueFn, policy, predict, predictInverse)
		So(err, ShouldBeNil)

		// Force an existing leaf at a known location by running once without aim.
		tree.predictInverseFn = nil
		So(tree.FigureOnce(), ShouldBeNil)
		tree.predictInverseFn = predictInverse

		Convey("aim-enabled iterations never shrink the state-node table and keep ids dense", func() {
			before := len(tree.stateNodes)
			for i := 0; i < 10; i++ {
				So(tree.FigureOnce(), ShouldBeNil)
			}
			after := len(tree.stateNodes)
			// Reuse is opportunistic (gated by the competitiveness criterion),
			// so we only assert the invariant it protects: no state id ever
			// appears twice, and ids keep advancing monotonically.
			So(after, ShouldBeGreaterThanOrEqualTo, before)
			So(tree.maxStateNodeID, ShouldEqual, after-1)
		})
	})
}

// Invariant properties from spec §8.
func TestInvariants(t *testing.T) {
	Convey("Given a robot2d tree grown for 50 iterations", t, func() {
		tree := newRobot2DTree(t, 4, 7)
		for i := 0; i < 50; i++ {
			So(tree.FigureOnce(), ShouldBeNil)
		}

		Convey("every edge resolves in its table, and levels alternate", func() {
			for _, sn := range tree.stateNodes {
				for did := range sn.NextDistributionNodes {
					_, ok := tree.distributionNodes[did]
					So(ok, ShouldBeTrue)
				}
			}
			for _, dn := range tree.distributionNodes {
				for sid := range dn.NextStateNodes {
					_, ok := tree.stateNodes[sid]
					So(ok, ShouldBeTrue)
				}
			}
		})

		Convey("direct_value equals value_fn(state) for every node", func() {
			for _, sn := range tree.stateNodes {
				So(sn.DirectValue, ShouldEqual, robot2d.ValueFn(sn.State))
			}
		})

		Convey("errors are non-negative and total_error is consistent", func() {
			const eps = 1e-9
			for _, sn := range tree.stateNodes {
				So(sn.TotalError, ShouldBeGreaterThanOrEqualTo, 0)
				So(sn.SparsityError, ShouldBeGreaterThanOrEqualTo, 0)
				So(sn.TotalError*sn.TotalError+eps, ShouldBeGreaterThanOrEqualTo,
					sn.ChildError*sn.ChildError+sn.SparsityError*sn.SparsityError-eps)
			}
		})

		Convey("root_spread only updates once root has >= 3 distribution children", func() {
			root := tree.stateNodes[tree.initialStateNodeID]
			if len(root.NextDistributionNodes) <= 2 {
				So(tree.rootSpreadSet, ShouldBeFalse)
			}
		})
	})
}

// Determinism: seeded RNG and deterministic callbacks yield identical trees.
func TestDeterminism(t *testing.T) {
	Convey("Given two trees built from the same seed", t, func() {
		a := newRobot2DTree(t, 4, 99)
		b := newRobot2DTree(t, 4, 99)

		for i := 0; i < 30; i++ {
			So(a.FigureOnce(), ShouldBeNil)
			So(b.FigureOnce(), ShouldBeNil)
		}

		Convey("they produce identical plans", func() {
			planA := a.SamplePlan(4)
			planB := b.SamplePlan(4)
			So(planA.States, ShouldResemble, planB.States)
			So(planA.Actuations, ShouldResemble, planB.Actuations)
		})

		Convey("and identical tree sizes", func() {
			So(len(a.stateNodes), ShouldEqual, len(b.stateNodes))
			So(len(a.distributionNodes), ShouldEqual, len(b.distributionNodes))
		})
	})
}

func TestPlanShapeNeverExceedsHorizon(t *testing.T) {
	Convey("Given a freshly-created tree with no expansion", t, func() {
		tree := newRobot2DTree(t, 5, 3)

		Convey("sample_plan returns only the initial state", func() {
			plan := tree.SamplePlan(5)
			So(len(plan.States), ShouldEqual, 1)
			So(len(plan.Actuations), ShouldEqual, 0)
			So(plan.States[0], ShouldResemble, robot2d.Origin)
		})
	})
}
