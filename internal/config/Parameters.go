/*

This file contains the default parameters for feelab.

The controller defaults are the contrarian baseline that the parameter grid converged on against a
30 bps constant-fee normalizer under the default market below. The simulation defaults describe that
market. Each value is annotated with why it was chosen.

*/

package config

import (
	"github.com/elys-network/feelab/internal/types"
)

// DefaultConfigName is the name parameter sets are stored under when none is configured.
const DefaultConfigName = "default_fee_controller"

// DefaultControllerParameters is the baseline controller. It is used when no active parameter set is
// found in the database and no configuration file overrides it.
var DefaultControllerParameters = types.ControllerParameters{
	// --- Fee Levels ---
	BaseFeeBps: 24, // Resting fee on both sides.
	// Rationale: Just under the normalizer's 30 bps so the router sends the controller most of the
	// retail flow while the pool is calm. Below ~20 bps the extra volume no longer pays for the fee cut.

	MinFeeBps: 1, // Hard floor.
	// Rationale: Only reached by variants whose floors sit below the base (two level, volatility EMA).

	MaxFeeBps: 1000, // Hard ceiling of 10%.
	// Rationale: The quadratic spike for a whale-sized trade can exceed any sensible fee. The ceiling keeps
	// the quote finite without affecting arbitrage-sized trades, whose spike stays far below it.

	// --- Spike ---
	SpikeLinear: types.NewRational(5, 4), // Fee added per unit of trade ratio.
	// Rationale: A 1% trade adds 125 bps. Linear alone under-prices large trades, so it is kept modest.

	SpikeQuadratic: types.NewRational(15, 1), // Fee added per unit of squared trade ratio.
	// Rationale: The convex term is the arbitrage deterrent: negligible for retail-sized trades and
	// dominant for the large corrective trades that follow a price move.

	// --- Decay ---
	DecayRatio: types.NewRational(8, 9), // Multiplier per decay tick.
	// Rationale: Halves the excess over the base roughly every 6 trades. Faster decay reopens the
	// opposite side to the next arbitrage, slower decay keeps retail away too long.

	DecayGranularity: types.DecayPerTrade,
	// Rationale: Per-trade decay measured slightly better than per-step against the default flow.

	// --- Direction ---
	Direction: types.DirectionParameters{
		Mode: types.DirectionContrarian,
		// Rationale: Arbitrage that moved the pool one way is followed by arbitrage the other way only after
		// the price reverts, so protecting the opposite side and keeping the same side cheap wins retail.

		SameFraction:     types.NewRational(1, 2), // Used by half_contrarian and proportional_same.
		SameBaseBps:      20,                      // Used by two_level.
		OppositeBaseBps:  30,                      // Used by two_level.
		OppositeCapBps:   100,                     // Used by capped.
		SizeThresholdBps: 20,                      // Used by size_gated: 0.2% of reserveY.
	},

	// --- Classifier ---
	Classifier: types.ClassifierParameters{
		Mode: types.ClassifierNone,
		// Rationale: No classifier beat the plain contrarian baseline by a margin larger than its own
		// sensitivity to the simulator calibration. The fields below are ready for experiments.

		ThresholdBps:   20, // Trades above 0.2% of reserveY count as informed.
		LargeIncrement: 3,
		SmallDecrement: 1,
		CounterCap:     10,
		VolatileAbove:  3,
		VolatileDecay:  types.NewRational(8, 9),
		CalmDecay:      types.NewRational(3, 4),
		EmaWeight:      types.NewRational(1, 16),
		NominalVolBps:  10,
		MinBaseBps:     20,
		MaxBaseBps:     40,
	},
}

// DefaultSimulationParameters is the market the defaults were tuned against.
var DefaultSimulationParameters = types.SimulationParameters{
	Steps:        10_000, // One step per block.
	InitialPrice: 100,
	InitialX:     100,
	InitialY:     10_000, // Pool starts at the fair price.

	GbmMu:    0,        // No drift: edge must come from fees, not direction.
	GbmSigma: 0.000945, // Per-step volatility, the middle of the variance range.
	GbmDt:    1,

	RetailArrivalRate: 0.8, // Orders per step.
	RetailMeanSize:    20,  // Mean order notional in Y, 0.2% of the Y reserve.
	RetailSizeSigma:   1.2, // Heavy tail: some retail orders are as large as arbitrage trades.
	RetailBuyProb:     0.5,

	NormalizerFeeBps: 30, // The constant-fee reference pool.
}

// DefaultVarianceParameters draws each replica's market from a band around the defaults so a controller
// is not scored on a single calibration.
var DefaultVarianceParameters = types.VarianceParameters{
	VarySigma: true,
	SigmaMin:  0.000882,
	SigmaMax:  0.001008,

	VaryRetailRate: true,
	RetailRateMin:  0.6,
	RetailRateMax:  1.0,

	VaryRetailSize: true,
	RetailSizeMin:  19,
	RetailSizeMax:  21,
}

// DefaultSweepGrid is the phased grid around the baseline: spike coefficients first, then decay, then base.
var DefaultSweepGrid = types.SweepGrid{
	SpikeLinear: []types.Rational{
		types.NewRational(1, 1), types.NewRational(9, 8), types.NewRational(5, 4), types.NewRational(11, 8),
		types.NewRational(3, 2), types.NewRational(7, 4), types.NewRational(2, 1),
	},
	SpikeQuadratic: []types.Rational{
		types.NewRational(8, 1), types.NewRational(10, 1), types.NewRational(12, 1), types.NewRational(15, 1),
		types.NewRational(18, 1), types.NewRational(20, 1), types.NewRational(25, 1),
	},
	DecayRatios: []types.Rational{
		types.NewRational(3, 4), types.NewRational(4, 5), types.NewRational(5, 6), types.NewRational(6, 7),
		types.NewRational(7, 8), types.NewRational(8, 9), types.NewRational(9, 10), types.NewRational(10, 11),
	},
	BaseFeesBps: []uint64{20, 21, 22, 23, 24, 25, 26, 27, 28},
	Phased:      true,
	Top:         10,
}
