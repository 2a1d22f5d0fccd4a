package analyzer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/feelab/internal/types"
)

func TestCalculateVolatility(t *testing.T) {
	_, err := CalculateVolatility([]float64{100}, 1)
	require.ErrorIs(t, err, ErrInsufficientData)

	vol, err := CalculateVolatility([]float64{100, 100, 100}, 1)
	require.NoError(t, err)
	assert.Zero(t, vol)

	// Alternating +r/-r log returns have a population std of r
	r := 0.01
	prices := []float64{100, 100 * math.Exp(r), 100, 100 * math.Exp(r), 100}
	vol, err = CalculateVolatility(prices, 1)
	require.NoError(t, err)
	assert.InDelta(t, r, vol, 1e-12)

	scaled, err := CalculateVolatility(prices, 4)
	require.NoError(t, err)
	assert.InDelta(t, 2*r, scaled, 1e-12)
}

func sim(index int, candidate, normalizer float64, outcome types.Outcome) types.SimulationResult {
	return types.SimulationResult{
		Index:      index,
		Candidate:  types.PoolMetrics{Edge: candidate, RetailVolumeY: 100 + candidate, ArbVolumeY: 50, AvgBidFeeBps: 30, AvgAskFeeBps: 40},
		Normalizer: types.PoolMetrics{Edge: normalizer, RetailVolumeY: 100},
		Outcome:    outcome,
	}
}

func TestSummarize(t *testing.T) {
	results := []types.SimulationResult{
		sim(0, 10, 5, types.OutcomeWin),
		sim(1, 20, 20, types.OutcomeDraw),
		sim(2, 30, 35, types.OutcomeLoss),
		sim(3, 40, 10, types.OutcomeWin),
	}

	summary, err := Summarize(results)
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Simulations)
	assert.Equal(t, 2, summary.Wins)
	assert.Equal(t, 1, summary.Draws)
	assert.Equal(t, 1, summary.Losses)
	assert.Equal(t, summary.Simulations, summary.Wins+summary.Draws+summary.Losses)
	assert.InDelta(t, 0.5, summary.WinRate, 1e-12)
	assert.InDelta(t, 25, summary.MeanEdge, 1e-12)
	assert.InDelta(t, math.Sqrt(125), summary.StdEdge, 1e-12)
	assert.InDelta(t, 25, summary.MedianEdge, 1e-12)
	assert.InDelta(t, 17.5, summary.MeanNormalizerEdge, 1e-12)
	assert.InDelta(t, 7.5, summary.MeanAdvantage, 1e-12)
	assert.InDelta(t, 30, summary.AvgBidFeeBps, 1e-12)
	assert.InDelta(t, 40, summary.AvgAskFeeBps, 1e-12)
	assert.InDelta(t, 125.0/225.0, summary.RetailShare, 1e-12)
	// Retail volume is an affine function of edge here
	assert.InDelta(t, 1, summary.EdgeRetailCorrelation, 1e-12)
	assert.Zero(t, summary.EdgeArbCorrelation)
}

func TestSummarizeRejectsEmptyAndNaN(t *testing.T) {
	_, err := Summarize(nil)
	require.ErrorIs(t, err, ErrNoSimulations)

	_, err = Summarize([]types.SimulationResult{sim(0, math.NaN(), 1, types.OutcomeLoss)})
	require.ErrorIs(t, err, ErrInvalidEdge)
}

func TestPercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}
	assert.Equal(t, 1.0, Percentile(sorted, 0))
	assert.Equal(t, 3.0, Percentile(sorted, 50))
	assert.Equal(t, 5.0, Percentile(sorted, 100))
	assert.InDelta(t, 1.2, Percentile(sorted, 5), 1e-12)
	assert.Equal(t, 7.0, Percentile([]float64{7}, 95))
	assert.Zero(t, Percentile(nil, 50))
}

func TestRankCandidates(t *testing.T) {
	candidates := []types.SweepCandidate{
		{Label: "a", Summary: types.MatchSummary{MeanEdge: 10, WinRate: 0.4}},
		{Label: "b", Summary: types.MatchSummary{MeanEdge: 30}},
		{Label: "c", Summary: types.MatchSummary{MeanEdge: 10, WinRate: 0.6}},
	}

	ranked, err := RankCandidates(candidates, 0)
	require.NoError(t, err)
	require.Len(t, ranked, 3)
	assert.Equal(t, []string{"b", "c", "a"}, []string{ranked[0].Label, ranked[1].Label, ranked[2].Label})
	assert.Equal(t, 1, ranked[0].Rank)
	assert.Equal(t, 3, ranked[2].Rank)

	top, err := RankCandidates(candidates, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "b", top[0].Label)

	_, err = RankCandidates(nil, 1)
	require.ErrorIs(t, err, ErrNoValidCandidates)

	_, err = RankCandidates([]types.SweepCandidate{{Label: "bad", Summary: types.MatchSummary{MeanEdge: math.Inf(1)}}}, 0)
	require.Error(t, err)
}
