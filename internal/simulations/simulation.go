/*

This file contains one replica of the market simulation: a candidate pool and a constant-fee
normalizer pool trading against the same price path and the same retail order flow.

*/

package simulations

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/rs/zerolog"

	"github.com/elys-network/feelab/internal/analyzer"
	"github.com/elys-network/feelab/internal/logger"
	"github.com/elys-network/feelab/internal/types"
)

var ErrInvalidSimulationParameters = errors.New("invalid simulation parameters")

// ctxCheckInterval is how many steps run between context checks.
const ctxCheckInterval = 256

// Separate PCG streams keep the price path independent of the retail draws.
const (
	streamPrice uint64 = iota + 1
	streamRetail
	streamVariance
)

// Simulation runs one replica.
type Simulation struct {
	params    types.SimulationParameters
	seed      uint64
	index     int
	candidate *Pool
	reference *Pool

	prices *PriceProcess
	retail *RetailFlow
	arb    Arbitrageur
	router Router

	log zerolog.Logger
}

// NewSimulation builds a replica. The candidate strategy must be fresh: it is initialized here and owned
// by this replica for its lifetime.
func NewSimulation(index int, seed uint64, params types.SimulationParameters, candidate FeeStrategy) (*Simulation, error) {
	if err := ValidateSimulationParameters(params); err != nil {
		return nil, err
	}
	if candidate == nil {
		return nil, fmt.Errorf("%w: candidate strategy is nil", ErrInvalidSimulationParameters)
	}

	candidatePool, err := NewPool("candidate", candidate, params.InitialX, params.InitialY)
	if err != nil {
		return nil, err
	}
	referencePool, err := NewPool("normalizer", NewFixedFeeStrategy(params.NormalizerFeeBps), params.InitialX, params.InitialY)
	if err != nil {
		return nil, err
	}

	return &Simulation{
		params:    params,
		seed:      seed,
		index:     index,
		candidate: candidatePool,
		reference: referencePool,
		prices:    NewPriceProcess(params.InitialPrice, params.GbmMu, params.GbmSigma, params.GbmDt, rand.New(rand.NewPCG(seed, streamPrice))),
		retail: NewRetailFlow(params.RetailArrivalRate, params.RetailMeanSize, params.RetailSizeSigma, params.RetailBuyProb,
			rand.New(rand.NewPCG(seed, streamRetail))),
		log: logger.GetForComponent("market_simulator").With().Int("simulation", index).Uint64("seed", seed).Logger(),
	}, nil
}

// VarianceRNG returns the stream used to draw per-replica market parameters for seed.
func VarianceRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, streamVariance))
}

// Run simulates every step and scores the candidate against the normalizer. Any strategy error
// aborts the replica.
func (s *Simulation) Run(ctx context.Context) (types.SimulationResult, error) {
	path := make([]float64, 0, s.params.Steps+1)
	path = append(path, s.prices.Price())

	for step := 0; step < s.params.Steps; step++ {
		if step%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return types.SimulationResult{}, err
			}
		}
		if err := s.step(uint64(step)); err != nil {
			s.log.Debug().Err(err).Int("step", step).Msg("Replica aborted")
			return types.SimulationResult{}, fmt.Errorf("simulation %d step %d: %w", s.index, step, err)
		}
		path = append(path, s.prices.Price())
	}

	realized, err := analyzer.CalculateVolatility(path, 1)
	if err != nil {
		realized = 0
	}

	result := types.SimulationResult{
		Index:              s.index,
		Seed:               s.seed,
		Sigma:              s.params.GbmSigma,
		RetailRate:         s.params.RetailArrivalRate,
		RetailMeanSize:     s.params.RetailMeanSize,
		Candidate:          s.candidate.Metrics(),
		Normalizer:         s.reference.Metrics(),
		FinalPrice:         s.prices.Price(),
		RealizedVolatility: realized,
	}
	result.Outcome = Score(result.Candidate.Edge, result.Normalizer.Edge)

	s.log.Debug().
		Float64("candidateEdge", result.Candidate.Edge).
		Float64("normalizerEdge", result.Normalizer.Edge).
		Str("outcome", string(result.Outcome)).
		Msg("Replica finished")
	return result, nil
}

func (s *Simulation) step(timestamp uint64) error {
	price := s.prices.Step()

	for _, pool := range []*Pool{s.candidate, s.reference} {
		if _, err := s.arb.Trade(pool, price, timestamp); err != nil {
			return err
		}
	}

	for _, order := range s.retail.Orders() {
		if err := s.router.Route(order, s.candidate, s.reference, price, timestamp); err != nil {
			return err
		}
	}

	s.candidate.sampleFees()
	s.reference.sampleFees()
	return nil
}

// Score compares two edges.
func Score(candidate, normalizer float64) types.Outcome {
	switch {
	case candidate > normalizer:
		return types.OutcomeWin
	case candidate == normalizer:
		return types.OutcomeDraw
	default:
		return types.OutcomeLoss
	}
}

// ValidateSimulationParameters rejects a market the simulator cannot run.
func ValidateSimulationParameters(p types.SimulationParameters) error {
	switch {
	case p.Steps <= 0:
		return fmt.Errorf("%w: steps must be positive", ErrInvalidSimulationParameters)
	case p.InitialPrice <= 0:
		return fmt.Errorf("%w: initial price must be positive", ErrInvalidSimulationParameters)
	case p.InitialX <= 0 || p.InitialY <= 0:
		return fmt.Errorf("%w: initial reserves must be positive", ErrInvalidSimulationParameters)
	case p.GbmSigma < 0 || p.GbmDt <= 0:
		return fmt.Errorf("%w: gbm sigma must be non-negative and dt positive", ErrInvalidSimulationParameters)
	case p.RetailArrivalRate < 0 || p.RetailMeanSize < 0 || p.RetailSizeSigma < 0:
		return fmt.Errorf("%w: retail rate, size and size sigma must be non-negative", ErrInvalidSimulationParameters)
	case p.RetailBuyProb < 0 || p.RetailBuyProb > 1:
		return fmt.Errorf("%w: retail buy probability must be in [0, 1]", ErrInvalidSimulationParameters)
	case p.NormalizerFeeBps >= 10_000:
		return fmt.Errorf("%w: normalizer fee must be below 10000 bps", ErrInvalidSimulationParameters)
	}
	return nil
}
