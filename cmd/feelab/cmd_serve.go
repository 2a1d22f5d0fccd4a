package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/elys-network/feelab/internal/match"
	"github.com/elys-network/feelab/internal/state"
	"github.com/elys-network/feelab/internal/web"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stored results and, if an interval is configured, play matches periodically",
		Long: `Start the results API and Prometheus endpoint. When match.interval is set, the active parameter
set is played against the normalizer every interval and each run is stored.

Examples:
  feelab serve
  FEELAB_WEB_PORT=9090 feelab serve --config feelab.toml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if err := a.openStore(); err != nil {
				return err
			}
			defer state.CloseDB()

			params, paramsID, err := a.activeParameters()
			if err != nil {
				return err
			}

			metrics := web.NewMetrics()
			webServer := web.NewWebServer(a.cfg.Web.Port, a.cfg.ConfigName, metrics)
			go func() {
				log.Info().Str("port", a.cfg.Web.Port).Str("url", "http://localhost:"+a.cfg.Web.Port).Msg("Starting feelab web server")
				if err := webServer.Start(); err != nil {
					log.Error().Err(err).Msg("Web server failed to start")
				}
			}()

			interval := a.cfg.Match.Interval.Duration
			if interval <= 0 {
				log.Info().Msg("No match interval configured, serving stored results only")
				<-ctx.Done()
				return nil
			}

			matchCfg := a.matchConfig(a.cfg.ConfigName, params)
			matchCfg.Reporter = metrics
			matchCfg.Sink = storeSink(&paramsID)

			runner, err := match.NewRunner(matchCfg)
			if err != nil {
				return err
			}
			runner.RunLoop(ctx, interval)
			return nil
		},
	}
	return cmd
}
