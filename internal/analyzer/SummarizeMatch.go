/*

This file contains the aggregation of replica results into a match summary.

*/

package analyzer

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/elys-network/feelab/internal/types"
)

var ErrNoSimulations = errors.New("no simulation results to summarize")
var ErrInvalidEdge = errors.New("simulation produced a non-finite edge")

// Summarize aggregates replica results. Any non-finite edge fails the whole summary,
// since a match is never partially scored.
func Summarize(results []types.SimulationResult) (types.MatchSummary, error) {
	n := len(results)
	if n == 0 {
		return types.MatchSummary{}, ErrNoSimulations
	}

	edges := make([]float64, n)
	normalizerEdges := make([]float64, n)
	advantages := make([]float64, n)
	retailVolumes := make([]float64, n)
	arbVolumes := make([]float64, n)

	summary := types.MatchSummary{Simulations: n}
	var candidateRetail, totalRetail float64
	var bidFees, askFees, arbEdges, retailEdges float64

	for i, r := range results {
		if !finite(r.Candidate.Edge) || !finite(r.Normalizer.Edge) {
			return types.MatchSummary{}, fmt.Errorf("%w: simulation %d", ErrInvalidEdge, r.Index)
		}

		switch r.Outcome {
		case types.OutcomeWin:
			summary.Wins++
		case types.OutcomeDraw:
			summary.Draws++
		default:
			summary.Losses++
		}

		edges[i] = r.Candidate.Edge
		normalizerEdges[i] = r.Normalizer.Edge
		advantages[i] = r.Candidate.Edge - r.Normalizer.Edge
		retailVolumes[i] = r.Candidate.RetailVolumeY
		arbVolumes[i] = r.Candidate.ArbVolumeY

		candidateRetail += r.Candidate.RetailVolumeY
		totalRetail += r.Candidate.RetailVolumeY + r.Normalizer.RetailVolumeY
		bidFees += r.Candidate.AvgBidFeeBps
		askFees += r.Candidate.AvgAskFeeBps
		arbEdges += r.Candidate.ArbEdge
		retailEdges += r.Candidate.RetailEdge
	}

	count := float64(n)
	summary.WinRate = float64(summary.Wins) / count
	summary.MeanEdge, summary.StdEdge = meanStd(edges)
	summary.MeanNormalizerEdge, _ = meanStd(normalizerEdges)
	summary.MeanAdvantage, _ = meanStd(advantages)
	summary.MeanArbVolume, _ = meanStd(arbVolumes)
	summary.MeanRetailVolume, _ = meanStd(retailVolumes)
	summary.AvgBidFeeBps = bidFees / count
	summary.AvgAskFeeBps = askFees / count
	summary.MeanArbEdge = arbEdges / count
	summary.MeanRetailEdge = retailEdges / count
	if totalRetail > 0 {
		summary.RetailShare = candidateRetail / totalRetail
	}

	sorted := append([]float64(nil), edges...)
	sort.Float64s(sorted)
	summary.MedianEdge = Percentile(sorted, 50)
	summary.P5Edge = Percentile(sorted, 5)
	summary.P25Edge = Percentile(sorted, 25)
	summary.P75Edge = Percentile(sorted, 75)
	summary.P95Edge = Percentile(sorted, 95)

	summary.EdgeRetailCorrelation = Correlation(edges, retailVolumes)
	summary.EdgeArbCorrelation = Correlation(edges, arbVolumes)

	return summary, nil
}

// Percentile interpolates linearly between the closest ranks of an ascending slice.
func Percentile(sorted []float64, pct float64) float64 {
	n := len(sorted)
	switch {
	case n == 0:
		return 0
	case n == 1:
		return sorted[0]
	}
	rank := pct / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo < 0 {
		return sorted[0]
	}
	if hi >= n {
		return sorted[n-1]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// Correlation is the Pearson correlation of a and b. It is 0 when either series is constant.
func Correlation(a, b []float64) float64 {
	if len(a) != len(b) || len(a) < 2 {
		return 0
	}
	meanA, stdA := meanStd(a)
	meanB, stdB := meanStd(b)
	if stdA == 0 || stdB == 0 {
		return 0
	}
	var cov float64
	for i := range a {
		cov += (a[i] - meanA) * (b[i] - meanB)
	}
	cov /= float64(len(a))
	return cov / (stdA * stdB)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
