package main

import (
	"encoding/json"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/elys-network/feelab/internal/match"
	"github.com/elys-network/feelab/internal/state"
	"github.com/elys-network/feelab/internal/types"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		simulations int
		seed        uint64
		store       bool
		active      bool
		full        bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Play one match of the controller against the normalizer",
		Long: `Play one match of the configured controller against the constant-fee normalizer and print
its summary as JSON.

Examples:
  feelab run
  feelab run --simulations 200 --seed 7
  feelab run --store --active`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("simulations") {
				a.cfg.Match.Simulations = simulations
			}
			if cmd.Flags().Changed("seed") {
				a.cfg.Match.Seed = seed
			}

			params := a.cfg.Controller
			var paramsID *int64
			if store || active {
				if err := a.openStore(); err != nil {
					return err
				}
				defer state.CloseDB()
			}
			if active {
				p, id, err := a.activeParameters()
				if err != nil {
					return err
				}
				params, paramsID = p, &id
			}

			runner, err := match.NewRunner(a.matchConfig(a.cfg.ConfigName, params))
			if err != nil {
				return err
			}
			result, err := runner.Run(cmd.Context())
			if err != nil {
				return err
			}

			if store {
				if err := storeSink(paramsID)(cmd.Context(), result); err != nil {
					return err
				}
			}
			return printResult(result, full)
		},
	}

	cmd.Flags().IntVar(&simulations, "simulations", 0, "Override the number of replicas")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Override the match seed")
	cmd.Flags().BoolVar(&store, "store", false, "Save the run to the database")
	cmd.Flags().BoolVar(&active, "active", false, "Play the active stored parameter set instead of the configured one")
	cmd.Flags().BoolVar(&full, "full", false, "Print every replica, not only the summary")
	return cmd
}

func printResult(result types.MatchResult, full bool) error {
	log.Info().
		Str("run_id", result.RunID).
		Float64("meanEdge", result.Summary.MeanEdge).
		Float64("meanNormalizerEdge", result.Summary.MeanNormalizerEdge).
		Float64("winRate", result.Summary.WinRate).
		Msg("Match completed")

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if full {
		return enc.Encode(result)
	}
	return enc.Encode(struct {
		RunID        string             `json:"run_id"`
		StrategyName string             `json:"strategy_name"`
		Seed         uint64             `json:"seed"`
		Summary      types.MatchSummary `json:"summary"`
	}{result.RunID, result.StrategyName, result.Seed, result.Summary})
}
