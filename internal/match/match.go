/*

This file contains the match runner: a candidate strategy played against the normalizer over many
independent market replicas, run on a bounded worker pool and summarized into one scored result.

*/

package match

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/elys-network/feelab/internal/analyzer"
	"github.com/elys-network/feelab/internal/controller"
	"github.com/elys-network/feelab/internal/logger"
	"github.com/elys-network/feelab/internal/simulations"
	"github.com/elys-network/feelab/internal/types"
)

// ErrRunAbandoned is returned when a run hits its timeout or is cancelled. An abandoned run has no summary.
var ErrRunAbandoned = errors.New("match run abandoned")

// StrategyFactory builds a fresh candidate strategy for one replica.
type StrategyFactory func() (simulations.FeeStrategy, error)

// ControllerFactory builds a FeeController per replica from params.
func ControllerFactory(params types.ControllerParameters) StrategyFactory {
	return func() (simulations.FeeStrategy, error) {
		c, err := controller.NewFeeController(params)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

// Reporter receives run outcomes, typically for metrics.
type Reporter interface {
	RunCompleted(result types.MatchResult, elapsed time.Duration)
	RunFailed(strategy string, abandoned bool)
}

// Sink persists a completed run.
type Sink func(ctx context.Context, result types.MatchResult) error

// Runner plays matches.
type Runner struct {
	logger zerolog.Logger

	factory      StrategyFactory
	strategyName string
	parameters   types.ControllerParameters
	simulation   types.SimulationParameters
	variance     types.VarianceParameters
	simulations  int
	workers      int
	seed         uint64
	timeout      time.Duration

	reporter Reporter
	sink     Sink

	runCount int
}

// Config holds the configuration for creating a new Runner
type Config struct {
	Factory      StrategyFactory
	StrategyName string
	Parameters   types.ControllerParameters // Recorded with the result.
	Simulation   types.SimulationParameters
	Variance     types.VarianceParameters
	Simulations  int
	Workers      int           // 0 uses GOMAXPROCS.
	Seed         uint64        // Replica i uses ReplicaSeed(Seed, i).
	Timeout      time.Duration // 0 disables the wall-clock limit.
	Reporter     Reporter      // Optional.
	Sink         Sink          // Optional, used by RunLoop.
}

// NewRunner creates a new Runner with dependency injection
func NewRunner(cfg Config) (*Runner, error) {
	if err := validateRunnerConfig(cfg); err != nil {
		return nil, fmt.Errorf("match runner configuration validation failed: %w", err)
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	r := &Runner{
		logger:       logger.GetForComponent("match_runner"),
		factory:      cfg.Factory,
		strategyName: cfg.StrategyName,
		parameters:   cfg.Parameters,
		simulation:   cfg.Simulation,
		variance:     cfg.Variance,
		simulations:  cfg.Simulations,
		workers:      workers,
		seed:         cfg.Seed,
		timeout:      cfg.Timeout,
		reporter:     cfg.Reporter,
		sink:         cfg.Sink,
	}

	r.logger.Info().
		Str("strategy", r.strategyName).
		Int("simulations", r.simulations).
		Int("workers", r.workers).
		Uint64("seed", r.seed).
		Msg("Match runner created")

	return r, nil
}

func validateRunnerConfig(cfg Config) error {
	if cfg.Factory == nil {
		return fmt.Errorf("strategy factory cannot be nil")
	}
	if cfg.StrategyName == "" {
		return fmt.Errorf("strategy name cannot be empty")
	}
	if cfg.Simulations <= 0 {
		return fmt.Errorf("simulation count must be positive")
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("worker count cannot be negative")
	}
	if cfg.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}
	if err := simulations.ValidateSimulationParameters(cfg.Simulation); err != nil {
		return err
	}
	return validateVariance(cfg.Variance)
}

func validateVariance(v types.VarianceParameters) error {
	if v.VarySigma && (v.SigmaMin < 0 || v.SigmaMax < v.SigmaMin) {
		return fmt.Errorf("sigma range [%f, %f] is invalid", v.SigmaMin, v.SigmaMax)
	}
	if v.VaryRetailRate && (v.RetailRateMin < 0 || v.RetailRateMax < v.RetailRateMin) {
		return fmt.Errorf("retail rate range [%f, %f] is invalid", v.RetailRateMin, v.RetailRateMax)
	}
	if v.VaryRetailSize && (v.RetailSizeMin < 0 || v.RetailSizeMax < v.RetailSizeMin) {
		return fmt.Errorf("retail size range [%f, %f] is invalid", v.RetailSizeMin, v.RetailSizeMax)
	}
	return nil
}

// ReplicaSeed derives the seed of replica index from the run seed (splitmix64 finalizer).
func ReplicaSeed(base uint64, index int) uint64 {
	z := base + uint64(index+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// RunLoop plays a match every interval until ctx is cancelled, handing each completed run to the sink.
func (r *Runner) RunLoop(ctx context.Context, interval time.Duration) {
	r.logger.Info().
		Dur("interval", interval).
		Msg("Starting match loop")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		r.runAndStore(ctx)

		select {
		case <-ctx.Done():
			r.logger.Info().Msg("Match loop stopped due to context cancellation")
			return
		case <-ticker.C:
		}
	}
}

func (r *Runner) runAndStore(ctx context.Context) {
	result, err := r.Run(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("Match run failed")
		return
	}
	if r.sink == nil {
		return
	}
	if err := r.sink(ctx, result); err != nil {
		r.logger.Error().Err(err).Str("run_id", result.RunID).Msg("Failed to store match run")
	}
}

// Run plays one match. Each call uses a new seed offset so repeated runs in a loop differ; the first
// call uses the configured seed exactly. Run is not safe for concurrent use.
func (r *Runner) Run(ctx context.Context) (types.MatchResult, error) {
	startedAt := time.Now()
	seed := r.seed + uint64(r.runCount)
	r.runCount++

	runID := uuid.New().String()
	runLogger := r.logger.With().Str("run_id", runID).Logger()
	runLogger.Info().
		Str("strategy", r.strategyName).
		Uint64("seed", seed).
		Msg("--- Starting match run ---")

	runCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	results, err := r.playReplicas(runCtx, seed, runLogger)
	if err != nil {
		abandoned := runCtx.Err() != nil
		if r.reporter != nil {
			r.reporter.RunFailed(r.strategyName, abandoned)
		}
		if abandoned {
			runLogger.Warn().Err(err).Dur("elapsed", time.Since(startedAt)).Msg("Match run abandoned")
			return types.MatchResult{}, fmt.Errorf("%w: %w", ErrRunAbandoned, runCtx.Err())
		}
		runLogger.Error().Err(err).Msg("Match run failed")
		return types.MatchResult{}, err
	}

	summary, err := analyzer.Summarize(results)
	if err != nil {
		if r.reporter != nil {
			r.reporter.RunFailed(r.strategyName, false)
		}
		return types.MatchResult{}, fmt.Errorf("summarize run %s: %w", runID, err)
	}

	result := types.MatchResult{
		RunID:        runID,
		StrategyName: r.strategyName,
		Parameters:   r.parameters,
		Seed:         seed,
		StartedAt:    startedAt.UTC(),
		FinishedAt:   time.Now().UTC(),
		Simulations:  results,
		Summary:      summary,
	}

	elapsed := time.Since(startedAt)
	if r.reporter != nil {
		r.reporter.RunCompleted(result, elapsed)
	}

	runLogger.Info().
		Int("wins", summary.Wins).
		Int("draws", summary.Draws).
		Int("losses", summary.Losses).
		Float64("meanEdge", summary.MeanEdge).
		Float64("meanNormalizerEdge", summary.MeanNormalizerEdge).
		Float64("retailShare", summary.RetailShare).
		Dur("elapsed", elapsed).
		Msg("--- Match run complete ---")

	return result, nil
}

// playReplicas runs every replica on the worker pool. The first error cancels the rest.
func (r *Runner) playReplicas(ctx context.Context, seed uint64, runLogger zerolog.Logger) ([]types.SimulationResult, error) {
	results := make([]types.SimulationResult, r.simulations)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i := 0; i < r.simulations; i++ {
		index := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := r.playReplica(gctx, index, ReplicaSeed(seed, index))
			if err != nil {
				return err
			}
			results[index] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	runLogger.Debug().Int("replicas", len(results)).Msg("All replicas finished")
	return results, nil
}

func (r *Runner) playReplica(ctx context.Context, index int, seed uint64) (types.SimulationResult, error) {
	strategy, err := r.factory()
	if err != nil {
		return types.SimulationResult{}, fmt.Errorf("build strategy for simulation %d: %w", index, err)
	}

	params := simulations.ApplyVariance(r.simulation, r.variance, simulations.VarianceRNG(seed))
	sim, err := simulations.NewSimulation(index, seed, params, strategy)
	if err != nil {
		return types.SimulationResult{}, err
	}
	return sim.Run(ctx)
}
