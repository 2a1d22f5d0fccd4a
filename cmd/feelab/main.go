package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/elys-network/feelab/internal/config"
	"github.com/elys-network/feelab/internal/logger"
	"github.com/elys-network/feelab/internal/match"
	"github.com/elys-network/feelab/internal/state"
	"github.com/elys-network/feelab/internal/types"
)

// app carries the loaded configuration from the root command to its subcommands.
type app struct {
	configPath string
	logLevel   string
	cfg        config.AppConfig
}

// main is the entry point for the feelab CLI.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("feelab failed")
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "feelab",
		Short: "Adaptive AMM fee controller lab",
		Long: `feelab simulates an adaptive two-sided fee controller against a constant-fee pool,
sweeps its parameters, stores the results in PostgreSQL and serves them over HTTP.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", os.Getenv("FEELAB_CONFIG"), "Path to a TOML configuration file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Override the configured log level (debug, info, warn, error)")

	root.AddCommand(newRunCmd(a))
	root.AddCommand(newSweepCmd(a))
	root.AddCommand(newServeCmd(a))
	root.AddCommand(newParamsCmd(a))
	return root
}

func (a *app) load() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if err := logger.Initialize(cfg.LogLevel, cfg.LogFormat, cfg.LogFile); err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

// openStore connects to PostgreSQL and makes sure the schema exists. The caller closes it with state.CloseDB.
func (a *app) openStore() error {
	if err := state.InitDB(a.cfg.Database.StateConfig()); err != nil {
		return err
	}
	if err := state.EnsureSchema(); err != nil {
		state.CloseDB()
		return err
	}
	return nil
}

// activeParameters returns the active stored parameter set, seeding the store with the configured
// parameters when none is active yet.
func (a *app) activeParameters() (types.ControllerParameters, int64, error) {
	stored, err := state.LoadActiveControllerParameters(a.cfg.ConfigName)
	if err == nil {
		log.Info().
			Str("configName", stored.ConfigName).
			Int("version", stored.Version).
			Msg("Controller parameters loaded successfully.")
		return stored.Parameters, stored.ParamsID, nil
	}
	if !errors.Is(err, state.ErrNoActiveParameters) {
		return types.ControllerParameters{}, 0, err
	}

	log.Warn().Err(err).Msg("Failed to load active controller parameters, using configured defaults and saving.")
	paramsID, version, err := state.SaveControllerParameters(a.cfg.Controller, a.cfg.ConfigName, true)
	if err != nil {
		return types.ControllerParameters{}, 0, err
	}
	log.Info().Int64("paramsID", paramsID).Int("version", version).Msg("Saved initial controller parameters.")
	return a.cfg.Controller, paramsID, nil
}

// matchConfig builds a runner config for params from the loaded configuration.
func (a *app) matchConfig(name string, params types.ControllerParameters) match.Config {
	return match.Config{
		Factory:      match.ControllerFactory(params),
		StrategyName: name,
		Parameters:   params,
		Simulation:   a.cfg.Simulation,
		Variance:     a.cfg.Variance,
		Simulations:  a.cfg.Match.Simulations,
		Workers:      a.cfg.Match.Workers,
		Seed:         a.cfg.Match.Seed,
		Timeout:      a.cfg.Match.Timeout.Duration,
	}
}

// storeSink persists every completed run against paramsID.
func storeSink(paramsID *int64) match.Sink {
	return func(ctx context.Context, result types.MatchResult) error {
		id, err := state.SaveMatchRun(result, paramsID)
		if err != nil {
			return err
		}
		log.Info().Int64("id", id).Str("run_id", result.RunID).Msg("Match run stored")
		return nil
	}
}
