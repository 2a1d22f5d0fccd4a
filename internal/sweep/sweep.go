/*

This file contains the parameter sweep: candidate controller parameter sets are generated from a grid,
each is played in a full match with a shared seed, and the results are ranked by mean edge.

*/

package sweep

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/elys-network/feelab/internal/analyzer"
	"github.com/elys-network/feelab/internal/controller"
	"github.com/elys-network/feelab/internal/logger"
	"github.com/elys-network/feelab/internal/match"
	"github.com/elys-network/feelab/internal/types"
)

var ErrEmptyGrid = errors.New("sweep grid produced no valid candidates")

// Candidate is one parameter set to evaluate.
type Candidate struct {
	Label      string
	Parameters types.ControllerParameters
}

// Sweeper runs candidates through the match runner.
type Sweeper struct {
	logger zerolog.Logger
	base   types.ControllerParameters
	grid   types.SweepGrid
	match  match.Config
}

// NewSweeper validates the base parameters. The match config is a template: factory, name and
// parameters are replaced per candidate, and its seed is shared by every candidate.
func NewSweeper(base types.ControllerParameters, grid types.SweepGrid, matchCfg match.Config) (*Sweeper, error) {
	if err := controller.Validate(base); err != nil {
		return nil, fmt.Errorf("sweep base parameters: %w", err)
	}
	if grid.Top < 0 {
		return nil, fmt.Errorf("sweep top must not be negative")
	}
	return &Sweeper{
		logger: logger.GetForComponent("sweep"),
		base:   base,
		grid:   grid,
		match:  matchCfg,
	}, nil
}

// Run evaluates the grid and returns the ranked candidates.
func (s *Sweeper) Run(ctx context.Context) ([]types.SweepCandidate, error) {
	if !s.grid.Phased {
		scored, err := s.evaluate(ctx, "grid", Cartesian(s.base, s.grid))
		if err != nil {
			return nil, err
		}
		return analyzer.RankCandidates(scored, s.grid.Top)
	}

	// Phase 1: spike coefficients at the base decay and fee
	phase1 := Cartesian(s.base, types.SweepGrid{SpikeLinear: s.grid.SpikeLinear, SpikeQuadratic: s.grid.SpikeQuadratic})
	scored, err := s.evaluate(ctx, "spike", phase1)
	if err != nil {
		return nil, err
	}
	best, err := bestOf(scored)
	if err != nil {
		return nil, err
	}

	// Phase 2: decay ratio around the best spike
	phase2 := Cartesian(best, types.SweepGrid{DecayRatios: s.grid.DecayRatios})
	scored2, err := s.evaluate(ctx, "decay", phase2)
	if err != nil {
		return nil, err
	}
	if best, err = bestOf(scored2); err != nil {
		return nil, err
	}

	// Phase 3: base fee
	phase3 := Cartesian(best, types.SweepGrid{BaseFeesBps: s.grid.BaseFeesBps})
	scored3, err := s.evaluate(ctx, "base", phase3)
	if err != nil {
		return nil, err
	}

	all := append(append(scored, scored2...), scored3...)
	return analyzer.RankCandidates(dedupe(all), s.grid.Top)
}

func (s *Sweeper) evaluate(ctx context.Context, phase string, candidates []Candidate) ([]types.SweepCandidate, error) {
	if len(candidates) == 0 {
		return nil, ErrEmptyGrid
	}
	phaseLogger := s.logger.With().Str("phase", phase).Logger()
	phaseLogger.Info().Int("candidates", len(candidates)).Msg("Evaluating sweep phase")

	scored := make([]types.SweepCandidate, 0, len(candidates))
	for _, c := range candidates {
		cfg := s.match
		cfg.Factory = match.ControllerFactory(c.Parameters)
		cfg.StrategyName = c.Label
		cfg.Parameters = c.Parameters
		cfg.Sink = nil

		runner, err := match.NewRunner(cfg)
		if err != nil {
			return nil, err
		}
		result, err := runner.Run(ctx)
		if err != nil {
			return nil, fmt.Errorf("candidate %s: %w", c.Label, err)
		}

		phaseLogger.Info().
			Str("candidate", c.Label).
			Float64("meanEdge", result.Summary.MeanEdge).
			Float64("winRate", result.Summary.WinRate).
			Msg("Candidate scored")

		scored = append(scored, types.SweepCandidate{
			Label:      c.Label,
			Parameters: c.Parameters,
			Summary:    result.Summary,
		})
	}
	return scored, nil
}

// Cartesian expands the grid over base. Empty axes keep the base value and invalid combinations are skipped.
func Cartesian(base types.ControllerParameters, grid types.SweepGrid) []Candidate {
	fees := grid.BaseFeesBps
	if len(fees) == 0 {
		fees = []uint64{base.BaseFeeBps}
	}
	linear := orBase(grid.SpikeLinear, base.SpikeLinear)
	quadratic := orBase(grid.SpikeQuadratic, base.SpikeQuadratic)
	decays := orBase(grid.DecayRatios, base.DecayRatio)

	var out []Candidate
	for _, fee := range fees {
		for _, lin := range linear {
			for _, quad := range quadratic {
				for _, decay := range decays {
					p := base
					p.BaseFeeBps = fee
					p.SpikeLinear = lin
					p.SpikeQuadratic = quad
					p.DecayRatio = decay
					if controller.Validate(p) != nil {
						continue
					}
					out = append(out, Candidate{Label: Label(p), Parameters: p})
				}
			}
		}
	}
	return out
}

// Label names a parameter set by the swept fields.
func Label(p types.ControllerParameters) string {
	return fmt.Sprintf("b%d_l%s_q%s_d%s", p.BaseFeeBps, p.SpikeLinear, p.SpikeQuadratic, p.DecayRatio)
}

func orBase(values []types.Rational, base types.Rational) []types.Rational {
	if len(values) == 0 {
		return []types.Rational{base}
	}
	return values
}

func bestOf(scored []types.SweepCandidate) (types.ControllerParameters, error) {
	ranked, err := analyzer.RankCandidates(scored, 1)
	if err != nil {
		return types.ControllerParameters{}, err
	}
	return ranked[0].Parameters, nil
}

// dedupe keeps the first result per label; later phases re-evaluate the previous best.
func dedupe(scored []types.SweepCandidate) []types.SweepCandidate {
	seen := make(map[string]bool, len(scored))
	out := make([]types.SweepCandidate, 0, len(scored))
	for _, c := range scored {
		if seen[c.Label] {
			continue
		}
		seen[c.Label] = true
		out = append(out, c)
	}
	return out
}
