package main

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/elys-network/feelab/internal/state"
)

func newParamsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "params",
		Short: "Inspect and manage stored controller parameter sets",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the active stored parameter set, or the configured one when none is stored",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.openStore(); err != nil {
				return err
			}
			defer state.CloseDB()

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")

			stored, err := state.LoadActiveControllerParameters(a.cfg.ConfigName)
			if errors.Is(err, state.ErrNoActiveParameters) {
				log.Warn().Str("config", a.cfg.ConfigName).Msg("No active parameter set stored, showing configured parameters")
				return enc.Encode(a.cfg.Controller)
			}
			if err != nil {
				return err
			}
			return enc.Encode(stored)
		},
	})

	var activate bool
	save := &cobra.Command{
		Use:   "save",
		Short: "Store the configured parameter set as a new version",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.openStore(); err != nil {
				return err
			}
			defer state.CloseDB()

			paramsID, version, err := state.SaveControllerParameters(a.cfg.Controller, a.cfg.ConfigName, activate)
			if err != nil {
				return err
			}
			log.Info().
				Str("config", a.cfg.ConfigName).
				Int64("paramsID", paramsID).
				Int("version", version).
				Bool("active", activate).
				Msg("Controller parameters saved")
			return nil
		},
	}
	save.Flags().BoolVar(&activate, "activate", true, "Make the saved version the active one")
	cmd.AddCommand(save)

	return cmd
}
