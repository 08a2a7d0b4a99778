// Package bench drives many independent anytime searches concurrently and
// aggregates their outcomes. A fixed pool of workers each grows its own
// figurer.Context — there is no shared search-tree state to coordinate, only
// the aggregate statistics at the end, so the coordination problem shrinks to
// a fan-in of progress snapshots plus a handful of atomic accumulators.
package bench

import (
	"context"
	"sync"

	"figurer"
	"figurer/internal/atomicfloat"
	"figurer/search"

	channerics "github.com/niceyeti/channerics/channels"
	"golang.org/x/sync/errgroup"
)

// ScenarioFunc builds a freshly configured Context for one worker, seeded
// distinctly from the others so their trees diverge.
type ScenarioFunc func(seed int64) *figurer.Context

// Config describes one benchmark run.
type Config struct {
	Workers    int
	Iterations int
	Seed       int64
	NewContext ScenarioFunc

	// SnapshotEvery, if > 0, emits a search.Snapshot onto Updates every that
	// many iterations per worker. Zero disables snapshot emission.
	SnapshotEvery int
	// Updates receives every emitted snapshot, fanned in from all workers.
	// May be nil, in which case snapshots are computed but discarded.
	Updates chan<- search.Snapshot
}

// Summary is the aggregate outcome of a Run across all workers.
type Summary struct {
	Runs           int
	MeanFinalValue float64
	MeanTotalError float64
	BestValue      float64
	BestPlan       *search.Plan
}

// Run spawns cfg.Workers goroutines, each driving its own Context for
// cfg.Iterations steps, and returns aggregate statistics once all have
// finished. If ctx is cancelled or a worker fails, the remaining workers stop
// before their next iteration and Run returns that error instead, mirroring
// errgroup's usual all-or-nothing semantics.
func Run(ctx context.Context, cfg Config) (*Summary, error) {
	sumValue := atomicfloat.New(0)
	sumError := atomicfloat.New(0)
	runCount := atomicfloat.New(0)

	var bestMu sync.Mutex
	bestValue := 0.0
	bestSet := false
	var bestPlan *search.Plan

	g, gctx := errgroup.WithContext(ctx)

	snapshotChans := make([]<-chan search.Snapshot, cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		workerIdx := i
		snapshotCh := make(chan search.Snapshot)
		snapshotChans[workerIdx] = snapshotCh

		g.Go(func() error {
			defer close(snapshotCh)

			fctx := cfg.NewContext(cfg.Seed + int64(workerIdx))
			for iter := 0; iter < cfg.Iterations; iter++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := fctx.FigureIterations(1); err != nil {
					return err
				}
				if cfg.SnapshotEvery > 0 && iter%cfg.SnapshotEvery == 0 {
					snap, err := fctx.Snapshot()
					if err != nil {
						return err
					}
					select {
					case snapshotCh <- snap:
					case <-gctx.Done():
						return gctx.Err()
					}
				}
			}

			plan, err := fctx.SamplePlan()
			if err != nil {
				return err
			}
			snap, err := fctx.Snapshot()
			if err != nil {
				return err
			}

			for _, ok := sumValue.Add(snap.RootValue); !ok; _, ok = sumValue.Add(snap.RootValue) {
			}
			for _, ok := sumError.Add(snap.RootTotalError); !ok; _, ok = sumError.Add(snap.RootTotalError) {
			}
			for _, ok := runCount.Add(1); !ok; _, ok = runCount.Add(1) {
			}

			bestMu.Lock()
			if !bestSet || snap.RootValue > bestValue {
				bestSet = true
				bestValue = snap.RootValue
				bestPlan = plan
			}
			bestMu.Unlock()
			return nil
		})
	}

	// Fan the workers' progress snapshots into one stream. There's no shared
	// state to update here, so the consumer just forwards to whatever is
	// listening for live telemetry.
	merged := channerics.Merge(gctx.Done(), snapshotChans...)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for snap := range merged {
			if cfg.Updates == nil {
				continue
			}
			select {
			case cfg.Updates <- snap:
			case <-gctx.Done():
			}
		}
	}()

	if err := g.Wait(); err != nil {
		return nil, err
	}
	<-drained

	summary := &Summary{
		Runs:      int(runCount.Read()),
		BestValue: bestValue,
		BestPlan:  bestPlan,
	}
	if summary.Runs > 0 {
		summary.MeanFinalValue = sumValue.Read() / float64(summary.Runs)
		summary.MeanTotalError = sumError.Read() / float64(summary.Runs)
	}
	return summary, nil
}
