/*

This file contains the ranking of sweep candidates by their match summaries.

*/

package analyzer

import (
	"errors"
	"fmt"
	"sort"

	"github.com/elys-network/feelab/internal/logger"
	"github.com/elys-network/feelab/internal/types"
)

var ErrNoValidCandidates = errors.New("no candidates with valid scores found")

// RankCandidates orders candidates by mean edge, best first, and returns at most maxCandidates of them
// with Rank set. maxCandidates <= 0 keeps all. A candidate with a non-finite mean edge is an error.
func RankCandidates(candidates []types.SweepCandidate, maxCandidates int) ([]types.SweepCandidate, error) {
	rankLogger := logger.GetForComponent("candidate_ranker")

	if len(candidates) == 0 {
		rankLogger.Error().Msg("Input candidates slice is empty")
		return nil, ErrNoValidCandidates
	}

	valid := make([]types.SweepCandidate, 0, len(candidates))
	for _, c := range candidates {
		if !finite(c.Summary.MeanEdge) {
			rankLogger.Error().
				Str("candidate", c.Label).
				Float64("meanEdge", c.Summary.MeanEdge).
				Msg("Candidate has invalid score")
			return nil, fmt.Errorf("candidate %s has invalid mean edge: %f", c.Label, c.Summary.MeanEdge)
		}
		valid = append(valid, c)
	}

	// Ties go to the higher win rate, then to the label for a stable order
	sort.SliceStable(valid, func(i, j int) bool {
		if valid[i].Summary.MeanEdge != valid[j].Summary.MeanEdge {
			return valid[i].Summary.MeanEdge > valid[j].Summary.MeanEdge
		}
		if valid[i].Summary.WinRate != valid[j].Summary.WinRate {
			return valid[i].Summary.WinRate > valid[j].Summary.WinRate
		}
		return valid[i].Label < valid[j].Label
	})

	limit := len(valid)
	if maxCandidates > 0 && maxCandidates < limit {
		limit = maxCandidates
	}

	ranked := valid[:limit]
	for i := range ranked {
		ranked[i].Rank = i + 1
		rankLogger.Debug().
			Int("rank", i+1).
			Str("candidate", ranked[i].Label).
			Float64("meanEdge", ranked[i].Summary.MeanEdge).
			Msg("Ranked candidate")
	}
	return ranked, nil
}
