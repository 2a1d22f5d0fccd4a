package sweep

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/feelab/internal/match"
	"github.com/elys-network/feelab/internal/types"
)

func baseParams() types.ControllerParameters {
	return types.ControllerParameters{
		BaseFeeBps:     24,
		MinFeeBps:      1,
		MaxFeeBps:      10_000,
		SpikeLinear:    types.NewRational(5, 4),
		SpikeQuadratic: types.NewRational(15, 1),
		DecayRatio:     types.NewRational(8, 9),
		Direction:      types.DirectionParameters{Mode: types.DirectionContrarian},
	}
}

func matchTemplate() match.Config {
	return match.Config{
		Simulation: types.SimulationParameters{
			Steps:             150,
			InitialPrice:      100,
			InitialX:          100,
			InitialY:          10_000,
			GbmSigma:          0.000945,
			GbmDt:             1,
			RetailArrivalRate: 0.8,
			RetailMeanSize:    20,
			RetailSizeSigma:   1.2,
			RetailBuyProb:     0.5,
			NormalizerFeeBps:  30,
		},
		Simulations: 2,
		Workers:     2,
		Seed:        3,
	}
}

func TestCartesian(t *testing.T) {
	grid := types.SweepGrid{
		BaseFeesBps: []uint64{20, 24},
		SpikeLinear: []types.Rational{types.NewRational(1, 1), types.NewRational(5, 4)},
		// 9/9 is not a decay and is skipped
		DecayRatios: []types.Rational{types.NewRational(8, 9), types.NewRational(9, 9)},
	}
	candidates := Cartesian(baseParams(), grid)
	require.Len(t, candidates, 4)

	labels := make(map[string]bool)
	for _, c := range candidates {
		labels[c.Label] = true
		assert.Equal(t, types.NewRational(15, 1), c.Parameters.SpikeQuadratic)
		assert.Equal(t, types.NewRational(8, 9), c.Parameters.DecayRatio)
	}
	assert.Len(t, labels, 4)
	assert.True(t, labels["b24_l5/4_q15/1_d8/9"])
}

func TestCartesianEmptyGridIsBase(t *testing.T) {
	candidates := Cartesian(baseParams(), types.SweepGrid{})
	require.Len(t, candidates, 1)
	assert.Equal(t, baseParams(), candidates[0].Parameters)
}

func TestSweepRanksCandidates(t *testing.T) {
	grid := types.SweepGrid{
		SpikeQuadratic: []types.Rational{types.NewRational(10, 1), types.NewRational(20, 1)},
	}
	sweeper, err := NewSweeper(baseParams(), grid, matchTemplate())
	require.NoError(t, err)

	ranked, err := sweeper.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, 1, ranked[0].Rank)
	assert.Equal(t, 2, ranked[1].Rank)
	assert.GreaterOrEqual(t, ranked[0].Summary.MeanEdge, ranked[1].Summary.MeanEdge)
	assert.Equal(t, 2, ranked[0].Summary.Simulations)
}

func TestPhasedSweep(t *testing.T) {
	grid := types.SweepGrid{
		SpikeLinear: []types.Rational{types.NewRational(1, 1), types.NewRational(5, 4)},
		DecayRatios: []types.Rational{types.NewRational(3, 4), types.NewRational(8, 9)},
		BaseFeesBps: []uint64{22, 24},
		Phased:      true,
		Top:         3,
	}
	sweeper, err := NewSweeper(baseParams(), grid, matchTemplate())
	require.NoError(t, err)

	ranked, err := sweeper.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, ranked, 3)

	labels := make(map[string]bool)
	for _, c := range ranked {
		assert.False(t, labels[c.Label], "duplicate %s", c.Label)
		labels[c.Label] = true
	}
}

func TestNewSweeperRejectsInvalidBase(t *testing.T) {
	p := baseParams()
	p.DecayRatio = types.NewRational(2, 1)
	_, err := NewSweeper(p, types.SweepGrid{}, matchTemplate())
	require.Error(t, err)
}
