// Package figurer is the library's public surface: a Context that the host
// configures with callbacks and dimensions, then drives with FigureSeconds or
// FigureIterations, then reads back with SamplePlan. It owns the current
// *Tree and revalidates configuration lazily, building the tree on the first
// call that needs it and rebuilding it whenever the initial state changes.
package figurer

import (
	"fmt"
	"math/rand"
	"reflect"
	"time"

	"figurer/distribution"
	"figurer/search"
)

// Context holds the caller-supplied configuration and the search tree built
// from it. Obtain one with New: in the zero value state_size and
// actuation_size are 0 rather than -1, so validation is not skipped.
type Context struct {
	stateSize     int
	actuationSize int
	depth         int
	initialState  []float64

	valueFn          search.ValueFunc
	policyFn         search.PolicyFunc
	predictFn        search.PredictFunc
	predictInverseFn search.PredictInverseFunc

	seed    int64
	seedSet bool

	tunables    search.Tunables
	tunablesSet bool

	tree            *search.Tree
	recordedInitial []float64
}

// New returns an unconfigured Context. state_size and actuation_size default
// to -1, which skips dimension validation entirely.
func New() *Context {
	return &Context{stateSize: -1, actuationSize: -1}
}

// SetStateSize configures the expected length of the initial state, checked
// before the tree is built; -1 skips the check. States produced by predict_fn
// are not checked against it.
func (c *Context) SetStateSize(n int) *Context {
	c.stateSize = n
	return c
}

// SetActuationSize configures the expected length of every actuation vector;
// -1 skips validation entirely.
func (c *Context) SetActuationSize(n int) *Context {
	c.actuationSize = n
	return c
}

// SetDepth configures the planning horizon used by figure_* and the default
// horizon for SamplePlan.
func (c *Context) SetDepth(depth int) *Context {
	c.depth = depth
	return c
}

// SetInitialState configures the state the tree is rooted at. Calling this
// again with a different vector after the tree has already been built causes
// the next figure_* call to rebuild the tree from scratch.
func (c *Context) SetInitialState(state []float64) *Context {
	c.initialState = state
	return c
}

// SetValueFn configures the long-run desirability function.
func (c *Context) SetValueFn(fn search.ValueFunc) *Context {
	c.valueFn = fn
	return c
}

// SetPolicyFn configures the actuation-proposal function.
func (c *Context) SetPolicyFn(fn search.PolicyFunc) *Context {
	c.policyFn = fn
	return c
}

// SetPredictFn configures the world model.
func (c *Context) SetPredictFn(fn search.PredictFunc) *Context {
	c.predictFn = fn
	return c
}

// SetPredictInverseFn configures the optional aim heuristic's inverse model.
// Leaving this unset simply disables the heuristic; it is never required.
func (c *Context) SetPredictInverseFn(fn search.PredictInverseFunc) *Context {
	c.predictInverseFn = fn
	return c
}

// SetSeed fixes the RNG seed consumed by tree growth, for reproducible runs.
// Without a call to SetSeed, the Context seeds itself from wall-clock time
// each time it builds the tree.
func (c *Context) SetSeed(seed int64) *Context {
	c.seed = seed
	c.seedSet = true
	return c
}

// SetTunables overrides the engine's gate constants (minimum fanout, aim
// thresholds, reuse threshold) for this Context's tree, typically sourced
// from figconfig.Load. Leaving this unset uses search.DefaultTunables.
func (c *Context) SetTunables(tu search.Tunables) *Context {
	c.tunables = tu
	c.tunablesSet = true
	return c
}

// ensureConsistentState validates configuration and lazily (re)builds the
// tree; figure_seconds and figure_iterations both call this first.
func (c *Context) ensureConsistentState() error {
	if c.valueFn == nil {
		return fmt.Errorf("%w: value_fn not set", ErrConfigMissing)
	}
	if c.policyFn == nil {
		return fmt.Errorf("%w: policy_fn not set", ErrConfigMissing)
	}
	if c.predictFn == nil {
		return fmt.Errorf("%w: predict_fn not set", ErrConfigMissing)
	}
	if len(c.initialState) == 0 {
		return fmt.Errorf("%w: initial_state not set", ErrConfigMissing)
	}
	if c.depth < 1 {
		return fmt.Errorf("%w: depth not set", ErrConfigMissing)
	}
	if c.stateSize >= 0 && len(c.initialState) != c.stateSize {
		return fmt.Errorf("%w: initial_state has %d dimensions, state_size=%d",
			ErrConfigInconsistent, len(c.initialState), c.stateSize)
	}

	if c.tree != nil && reflect.DeepEqual(c.recordedInitial, c.initialState) {
		return nil
	}

	if !c.seedSet {
		c.seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(c.seed))

	var opts []search.Option
	if c.tunablesSet {
		opts = append(opts, search.WithTunables(c.tunables))
	}
	tree, err := search.New(rng, c.depth, c.initialState,
		c.valueFn, c.validatingPolicyFn(), c.validatingPredictFn(), c.validatingPredictInverseFn(), opts...)
	if err != nil {
		return err
	}

	c.tree = tree
	c.recordedInitial = append([]float64{}, c.initialState...)
	return nil
}

func (c *Context) validatingPolicyFn() search.PolicyFunc {
	return func(state []float64) (*distribution.Distribution, error) {
		return c.policyFn(state)
	}
}

func (c *Context) validatingPredictFn() search.PredictFunc {
	return func(state, actuation []float64) (*distribution.Distribution, error) {
		if c.actuationSize >= 0 && len(actuation) != c.actuationSize {
			return nil, fmt.Errorf("%w: actuation has %d dimensions, actuation_size=%d",
				ErrConfigInconsistent, len(actuation), c.actuationSize)
		}
		return c.predictFn(state, actuation)
	}
}

func (c *Context) validatingPredictInverseFn() search.PredictInverseFunc {
	if c.predictInverseFn == nil {
		return nil
	}
	return func(stateFrom, stateTo []float64) ([]float64, error) {
		actuation, err := c.predictInverseFn(stateFrom, stateTo)
		if err != nil {
			return nil, err
		}
		if c.actuationSize >= 0 && len(actuation) != c.actuationSize {
			return nil, fmt.Errorf("%w: predict_inverse_fn produced %d dimensions, actuation_size=%d",
				ErrConfigInconsistent, len(actuation), c.actuationSize)
		}
		return actuation, nil
	}
}

// FigureIterations runs exactly n search iterations.
func (c *Context) FigureIterations(n int) error {
	if err := c.ensureConsistentState(); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := c.tree.FigureOnce(); err != nil {
			return fmt.Errorf("figurer: figure_iterations: %w", err)
		}
	}
	return nil
}

// FigureSeconds runs iterations until the elapsed wall time exceeds s.
func (c *Context) FigureSeconds(s float64) error {
	if err := c.ensureConsistentState(); err != nil {
		return err
	}
	deadline := time.Now().Add(time.Duration(s * float64(time.Second)))
	for time.Now().Before(deadline) {
		if err := c.tree.FigureOnce(); err != nil {
			return fmt.Errorf("figurer: figure_seconds: %w", err)
		}
	}
	return nil
}

// SamplePlan reads a plan back out of the tree using the configured depth as
// the horizon.
func (c *Context) SamplePlan() (*search.Plan, error) {
	return c.SamplePlanHorizon(c.depth)
}

// SamplePlanHorizon reads a plan back out of the tree using an explicit
// horizon, which may differ from the configured depth.
func (c *Context) SamplePlanHorizon(horizon int) (*search.Plan, error) {
	if err := c.ensureConsistentState(); err != nil {
		return nil, err
	}
	return c.tree.SamplePlan(horizon), nil
}

// Snapshot exposes the underlying tree's telemetry, for hosts like liveview
// and bench that want to observe growth without reaching into search
// internals.
func (c *Context) Snapshot() (search.Snapshot, error) {
	if err := c.ensureConsistentState(); err != nil {
		return search.Snapshot{}, err
	}
	return c.tree.Snapshot(), nil
}
