package simulations

import (
	"math/rand/v2"

	"github.com/elys-network/feelab/internal/types"
)

// ApplyVariance draws the per-replica market parameters. Fields not marked for variance are returned unchanged.
func ApplyVariance(params types.SimulationParameters, variance types.VarianceParameters, rng *rand.Rand) types.SimulationParameters {
	out := params
	if variance.VarySigma {
		out.GbmSigma = uniform(rng, variance.SigmaMin, variance.SigmaMax)
	}
	if variance.VaryRetailRate {
		out.RetailArrivalRate = uniform(rng, variance.RetailRateMin, variance.RetailRateMax)
	}
	if variance.VaryRetailSize {
		out.RetailMeanSize = uniform(rng, variance.RetailSizeMin, variance.RetailSizeMax)
	}
	return out
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + rng.Float64()*(hi-lo)
}
