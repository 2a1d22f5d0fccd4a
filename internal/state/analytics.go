package state

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/elys-network/feelab/internal/types"
)

// ErrRunNotFound is returned when no stored run matches the lookup.
var ErrRunNotFound = errors.New("match run not found")

// PerformanceOverview represents aggregated results over every stored run
type PerformanceOverview struct {
	TotalRuns        int                   `json:"total_runs"`
	TotalSimulations int                   `json:"total_simulations"`
	TotalWins        int                   `json:"total_wins"`
	TotalDraws       int                   `json:"total_draws"`
	TotalLosses      int                   `json:"total_losses"`
	WinRate          float64               `json:"win_rate"`
	AvgMeanEdge      float64               `json:"avg_mean_edge"`
	BestMeanEdge     float64               `json:"best_mean_edge"`
	LastRunAt        *time.Time            `json:"last_run_at,omitempty"`
	Strategies       []StrategyPerformance `json:"strategies"`
}

// StrategyPerformance aggregates the runs of one strategy name
type StrategyPerformance struct {
	StrategyName string  `json:"strategy_name"`
	Runs         int     `json:"runs"`
	AvgMeanEdge  float64 `json:"avg_mean_edge"`
	BestMeanEdge float64 `json:"best_mean_edge"`
	WinRate      float64 `json:"win_rate"`
}

const runColumns = `
	id, run_id, params_id, strategy_name, seed, started_at, finished_at, summary, edges
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (types.RunRecord, error) {
	var run types.RunRecord
	var paramsID sql.NullInt64
	var seed int64
	var summaryJSON []byte

	err := row.Scan(
		&run.ID, &run.RunID, &paramsID, &run.StrategyName, &seed, &run.StartedAt, &run.FinishedAt,
		&summaryJSON, pq.Array(&run.Edges), // Use pq.Array for PostgreSQL array
	)
	if err != nil {
		return run, err
	}

	run.Seed = uint64(seed)
	if paramsID.Valid {
		id := paramsID.Int64
		run.ParamsID = &id
	}
	if len(summaryJSON) > 0 {
		if err := json.Unmarshal(summaryJSON, &run.Summary); err != nil {
			return run, fmt.Errorf("failed to unmarshal summary: %w", err)
		}
	}
	return run, nil
}

// GetRecentRuns retrieves the most recent runs, newest first
func GetRecentRuns(limit int) ([]types.RunRecord, error) {
	if DB == nil {
		return nil, ErrNotInitialized
	}

	if limit <= 0 || limit > 100 {
		limit = 10 // Default limit
	}

	query := `SELECT ` + runColumns + ` FROM match_runs ORDER BY finished_at DESC LIMIT $1`

	rows, err := DB.Query(query, limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to query recent runs")
		return nil, fmt.Errorf("failed to query recent runs: %w", err)
	}
	defer rows.Close()

	runs := make([]types.RunRecord, 0, limit)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			log.Error().Err(err).Msg("Failed to scan run row")
			continue // Skip this row and continue with others
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		log.Error().Err(err).Msg("Error occurred during row iteration")
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}

	log.Debug().Int("count", len(runs)).Int("limit", limit).Msg("Retrieved recent runs")
	return runs, nil
}

// GetRun retrieves one run by its run id
func GetRun(runID string) (*types.RunRecord, error) {
	if DB == nil {
		return nil, ErrNotInitialized
	}

	query := `SELECT ` + runColumns + ` FROM match_runs WHERE run_id = $1`
	run, err := scanRun(DB.QueryRow(query, runID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		log.Error().Err(err).Str("run_id", runID).Msg("Failed to query run")
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	return &run, nil
}

// GetLatestRun retrieves the most recently finished run
func GetLatestRun() (*types.RunRecord, error) {
	if DB == nil {
		return nil, ErrNotInitialized
	}

	query := `SELECT ` + runColumns + ` FROM match_runs ORDER BY finished_at DESC LIMIT 1`
	run, err := scanRun(DB.QueryRow(query))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to query latest run: %w", err)
	}
	return &run, nil
}

// GetPerformanceOverview retrieves aggregated results over all stored runs
func GetPerformanceOverview() (*PerformanceOverview, error) {
	if DB == nil {
		return nil, ErrNotInitialized
	}

	overview := &PerformanceOverview{Strategies: []StrategyPerformance{}}

	query := `
		SELECT
			COUNT(*) as total_runs,
			COALESCE(SUM(simulations), 0) as total_simulations,
			COALESCE(SUM(wins), 0) as total_wins,
			COALESCE(SUM(draws), 0) as total_draws,
			COALESCE(SUM(losses), 0) as total_losses,
			COALESCE(AVG(mean_edge), 0) as avg_mean_edge,
			COALESCE(MAX(mean_edge), 0) as best_mean_edge,
			MAX(finished_at) as last_run_at
		FROM match_runs
	`

	var lastRunAt sql.NullTime
	err := DB.QueryRow(query).Scan(
		&overview.TotalRuns,
		&overview.TotalSimulations,
		&overview.TotalWins,
		&overview.TotalDraws,
		&overview.TotalLosses,
		&overview.AvgMeanEdge,
		&overview.BestMeanEdge,
		&lastRunAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get performance overview: %w", err)
	}
	if lastRunAt.Valid {
		overview.LastRunAt = &lastRunAt.Time
	}
	if overview.TotalSimulations > 0 {
		overview.WinRate = float64(overview.TotalWins) / float64(overview.TotalSimulations)
	}

	strategyQuery := `
		SELECT
			strategy_name,
			COUNT(*) as runs,
			AVG(mean_edge) as avg_mean_edge,
			MAX(mean_edge) as best_mean_edge,
			SUM(wins)::DOUBLE PRECISION / NULLIF(SUM(simulations), 0) as win_rate
		FROM match_runs
		GROUP BY strategy_name
		ORDER BY avg_mean_edge DESC
		LIMIT 20
	`
	rows, err := DB.Query(strategyQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query strategy performance: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sp StrategyPerformance
		var winRate sql.NullFloat64
		if err := rows.Scan(&sp.StrategyName, &sp.Runs, &sp.AvgMeanEdge, &sp.BestMeanEdge, &winRate); err != nil {
			return nil, fmt.Errorf("failed to scan strategy performance: %w", err)
		}
		sp.WinRate = winRate.Float64
		overview.Strategies = append(overview.Strategies, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}

	log.Debug().
		Int("totalRuns", overview.TotalRuns).
		Float64("avgMeanEdge", overview.AvgMeanEdge).
		Msg("Retrieved performance overview")

	return overview, nil
}
