// ./internal/state/run_store.go
package state

import (
	"encoding/json"
	"fmt"

	"github.com/lib/pq" // PostgreSQL driver for array support
	"github.com/rs/zerolog/log"

	"github.com/elys-network/feelab/internal/types"
)

// SaveMatchRun stores a completed match. paramsID links the run to a stored parameter set and may be nil.
func SaveMatchRun(result types.MatchResult, paramsID *int64) (int64, error) {
	if DB == nil {
		return 0, ErrNotInitialized
	}

	summaryJSON, err := json.Marshal(result.Summary)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal summary: %w", err)
	}
	parametersJSON, err := json.Marshal(result.Parameters)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal parameters: %w", err)
	}

	query := `
		INSERT INTO match_runs (
			run_id, params_id, strategy_name, seed, started_at, finished_at,
			simulations, wins, draws, losses,
			mean_edge, std_edge, mean_normalizer_edge, retail_share,
			edges, summary, parameters
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id;
	`

	s := result.Summary
	var id int64
	err = DB.QueryRow(
		query,
		result.RunID, paramsID, result.StrategyName, int64(result.Seed), result.StartedAt, result.FinishedAt,
		s.Simulations, s.Wins, s.Draws, s.Losses,
		s.MeanEdge, s.StdEdge, s.MeanNormalizerEdge, s.RetailShare,
		pq.Array(result.Edges()), summaryJSON, parametersJSON,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to save match run: %w", err)
	}

	log.Info().
		Int64("id", id).
		Str("run_id", result.RunID).
		Float64("mean_edge", s.MeanEdge).
		Msg("Match run saved to database")

	return id, nil
}
