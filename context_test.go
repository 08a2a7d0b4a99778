package figurer_test

import (
	"errors"
	"math"
	"testing"

	"figurer"
	"figurer/distribution"
	"figurer/examples/robot2d"

	. "github.com/smartystreets/goconvey/convey"
)

// S6: config error.
func TestConfigMissing(t *testing.T) {
	Convey("Given a Context with no value_fn", t, func() {
		ctx := figurer.New().
			SetDepth(1).
			SetInitialState([]float64{0}).
			SetPolicyFn(func(state []float64) (*distribution.Distribution, error) {
				return distribution.Uniform([]float64{0, 1})
			}).
			SetPredictFn(func(state, actuation []float64) (*distribution.Distribution, error) {
				return distribution.Uniform([]float64{0, 1})
			})

		Convey("figure_iterations(1) fails with ConfigMissing", func() {
			err := ctx.FigureIterations(1)
			So(err, ShouldNotBeNil)
			So(errors.Is(err, figurer.ErrConfigMissing), ShouldBeTrue)
		})
	})
}

func TestConfigInconsistentStateSize(t *testing.T) {
	Convey("Given a Context configured with state_size=3 but a 2-vector initial state", t, func() {
		ctx := figurer.New().
			SetStateSize(3).
			SetDepth(1).
			SetInitialState([]float64{0, 0}).
			SetValueFn(func(state []float64) float64 { return 0 }).
			SetPolicyFn(func(state []float64) (*distribution.Distribution, error) {
				return distribution.Uniform([]float64{0, 1})
			}).
			SetPredictFn(func(state, actuation []float64) (*distribution.Distribution, error) {
				return distribution.Uniform([]float64{0, 1})
			})

		Convey("figure_iterations(1) fails with ConfigInconsistent", func() {
			err := ctx.FigureIterations(1)
			So(err, ShouldNotBeNil)
			So(errors.Is(err, figurer.ErrConfigInconsistent), ShouldBeTrue)
		})
	})
}

// S1 through the Context facade.
func TestContextRobot2D(t *testing.T) {
	Convey("Given a Context configured for the robot2d scenario", t, func() {
		ctx := figurer.New().
			SetSeed(1).
			SetDepth(5).
			SetInitialState(append([]float64{}, robot2d.Origin...)).
			SetValueFn(robot2d.ValueFn).
			SetPolicyFn(robot2d.PolicyFn).
			SetPredictFn(robot2d.PredictFn).
			SetPredictInverseFn(robot2d.PredictInverseFn)

		Convey("after 100 iterations, sample_plan reaches near the goal", func() {
			So(ctx.FigureIterations(100), ShouldBeNil)

			plan, err := ctx.SamplePlan()
			So(err, ShouldBeNil)
			So(len(plan.Actuations), ShouldEqual, 5)
			So(len(plan.States), ShouldEqual, 6)

			last := plan.States[len(plan.States)-1]
			So(math.Max(math.Abs(last[0]-robot2d.Goal[0]), math.Abs(last[1]-robot2d.Goal[1])), ShouldBeLessThanOrEqualTo, 1.0)
		})

		Convey("figure_iterations(0) after figure_iterations(n) is a no-op", func() {
			So(ctx.FigureIterations(10), ShouldBeNil)
			before, err := ctx.Snapshot()
			So(err, ShouldBeNil)

			So(ctx.FigureIterations(0), ShouldBeNil)
			after, err := ctx.Snapshot()
			So(err, ShouldBeNil)

			So(after, ShouldResemble, before)
		})
	})
}

// S2 through the Context facade.
func TestContextDegenerateFanout(t *testing.T) {
	Convey("Given a depth-1 Context with a constant value_fn", t, func() {
		ctx := figurer.New().
			SetSeed(2).
			SetDepth(1).
			SetInitialState([]float64{0}).
			SetValueFn(func(state []float64) float64 { return 7 }).
			SetPolicyFn(func(state []float64) (*distribution.Distribution, error) {
				return distribution.Uniform([]float64{0, 1})
			}).
			SetPredictFn(func(state, actuation []float64) (*distribution.Distribution, error) {
				d := distribution.New().SetDimension(1)
				d.SetSampleFn(func(seed []float64) []float64 { return []float64{0} })
				d.SetDensityFn(func(point []float64) float64 { return 1 })
				return d, nil
			})

		Convey("after 2 iterations, a sampled plan has exactly one actuation", func() {
			So(ctx.FigureIterations(2), ShouldBeNil)
			plan, err := ctx.SamplePlan()
			So(err, ShouldBeNil)
			So(len(plan.Actuations), ShouldEqual, 1)
		})
	})
}
