package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/elys-network/feelab/internal/state"
	"github.com/elys-network/feelab/internal/sweep"
	"github.com/elys-network/feelab/internal/types"
)

func newSweepCmd(a *app) *cobra.Command {
	var (
		simulations int
		top         int
		full        bool
		save        bool
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Search the parameter grid around the configured controller",
		Long: `Score every point of the configured sweep grid and print the ranked candidates.
By default the grid is searched in phases (spike coefficients, then decay, then base fee);
--full plays the whole cartesian product instead.

Examples:
  feelab sweep --simulations 100
  feelab sweep --full --top 20 --json
  feelab sweep --save`,
		RunE: func(cmd *cobra.Command, args []string) error {
			grid := a.cfg.Sweep
			if full {
				grid.Phased = false
			}
			if cmd.Flags().Changed("top") {
				grid.Top = top
			}
			if cmd.Flags().Changed("simulations") {
				a.cfg.Match.Simulations = simulations
			}

			sweeper, err := sweep.NewSweeper(a.cfg.Controller, grid, a.matchConfig(a.cfg.ConfigName, a.cfg.Controller))
			if err != nil {
				return err
			}
			ranked, err := sweeper.Run(cmd.Context())
			if err != nil {
				return err
			}

			if save {
				if err := saveBest(a, ranked[0]); err != nil {
					return err
				}
			}
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(ranked)
			}
			return printRanking(ranked)
		},
	}

	cmd.Flags().IntVar(&simulations, "simulations", 0, "Override the number of replicas per candidate")
	cmd.Flags().IntVar(&top, "top", 0, "Number of candidates to keep, 0 for all")
	cmd.Flags().BoolVar(&full, "full", false, "Play the full cartesian grid instead of the phased search")
	cmd.Flags().BoolVar(&save, "save", false, "Save the best candidate to the database and activate it")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the ranking as JSON")
	return cmd
}

func saveBest(a *app, best types.SweepCandidate) error {
	if err := a.openStore(); err != nil {
		return err
	}
	defer state.CloseDB()

	paramsID, version, err := state.SaveControllerParameters(best.Parameters, a.cfg.ConfigName, true)
	if err != nil {
		return err
	}
	log.Info().
		Str("candidate", best.Label).
		Int64("paramsID", paramsID).
		Int("version", version).
		Msg("Best sweep candidate saved and activated")
	return nil
}

func printRanking(ranked []types.SweepCandidate) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tCANDIDATE\tMEAN EDGE\tSTD\tWIN RATE\tADVANTAGE\tRETAIL SHARE")
	for _, c := range ranked {
		fmt.Fprintf(w, "%d\t%s\t%.4f\t%.4f\t%.1f%%\t%.4f\t%.1f%%\n",
			c.Rank, c.Label, c.Summary.MeanEdge, c.Summary.StdEdge, c.Summary.WinRate*100,
			c.Summary.MeanAdvantage, c.Summary.RetailShare*100)
	}
	return w.Flush()
}
