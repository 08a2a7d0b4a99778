package main

import (
	"context"
	"os"
	"time"

	"figurer"
	"figurer/bench"
	"figurer/examples/robot2d"
	"figurer/figconfig"
	"figurer/liveview"
	"figurer/search"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	workers    int
	iterations int
	depth      int
	seed       int64
	configFile string
	liveAddr   string
	logFormat  string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the robot2d demo scenario across a pool of independent searches",
	RunE:  runFigurebench,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVar(&workers, "workers", 0, "concurrent searches to run (0 = use config/default)")
	runCmd.Flags().IntVar(&iterations, "iterations", 0, "figure_iterations per worker (0 = use config/default)")
	runCmd.Flags().IntVar(&depth, "depth", 0, "planning horizon (0 = use config/default)")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "base RNG seed; each worker offsets from it (0 = use config/default)")
	runCmd.Flags().StringVar(&configFile, "config", "", "optional YAML file of tuning-constant and harness overrides")
	runCmd.Flags().StringVar(&liveAddr, "live-addr", "", "if set, serve live telemetry at this address (e.g. :8080)")
	runCmd.Flags().StringVar(&logFormat, "log-format", "console", "log format: 'json' or 'console'")
}

func runFigurebench(cmd *cobra.Command, args []string) error {
	if logFormat == "json" {
		log.Logger = log.Output(os.Stderr)
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}

	tuning := figconfig.Defaults()
	if configFile != "" {
		loaded, err := figconfig.Load(configFile)
		if err != nil {
			return err
		}
		tuning = loaded
	}
	if workers > 0 {
		tuning.Workers = workers
	}
	if iterations > 0 {
		tuning.Iterations = iterations
	}
	if depth > 0 {
		tuning.Depth = depth
	}
	if seed != 0 {
		tuning.Seed = seed
	}

	log.Info().
		Int("workers", tuning.Workers).
		Int("iterations", tuning.Iterations).
		Int("depth", tuning.Depth).
		Int64("seed", tuning.Seed).
		Msg("starting figurebench run")

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var updates chan search.Snapshot
	if liveAddr != "" {
		updates = make(chan search.Snapshot)
		srv := liveview.NewServer(liveAddr, updates)
		go func() {
			if err := srv.Serve(ctx); err != nil {
				log.Error().Err(err).Msg("liveview server stopped")
			}
		}()
		log.Info().Str("addr", liveAddr).Msg("serving live telemetry")
	}

	depthForScenario := tuning.Depth
	tunables := tuning.Tunables()

	benchCfg := bench.Config{
		Workers:       tuning.Workers,
		Iterations:    tuning.Iterations,
		Seed:          tuning.Seed,
		SnapshotEvery: 10,
		Updates:       updates,
		NewContext: func(workerSeed int64) *figurer.Context {
			return figurer.New().
				SetSeed(workerSeed).
				SetDepth(depthForScenario).
				SetInitialState(append([]float64{}, robot2d.Origin...)).
				SetValueFn(robot2d.ValueFn).
				SetPolicyFn(robot2d.PolicyFn).
				SetPredictFn(robot2d.PredictFn).
				SetPredictInverseFn(robot2d.PredictInverseFn).
				SetTunables(tunables)
		},
	}

	summary, err := bench.Run(ctx, benchCfg)
	if updates != nil {
		close(updates)
	}
	if err != nil {
		return err
	}

	log.Info().
		Int("runs", summary.Runs).
		Float64("mean_final_value", summary.MeanFinalValue).
		Float64("mean_total_error", summary.MeanTotalError).
		Float64("best_value", summary.BestValue).
		Msg("figurebench run complete")

	if liveAddr != "" {
		// Give the last snapshot a moment to reach any connected client before exiting.
		time.Sleep(200 * time.Millisecond)
	}
	return nil
}
