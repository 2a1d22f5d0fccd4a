package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/elys-network/feelab/internal/config"
	"github.com/elys-network/feelab/internal/logger"
	"github.com/elys-network/feelab/internal/state"
)

func main() {
	// Configuration: optional TOML path as the only argument, then .env and FEELAB_* variables
	path := ""
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFormat, cfg.LogFile); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize logger")
	}
	log.Info().Msg("Starting database reset script...")

	dbCfg := cfg.Database.StateConfig()
	log.Info().
		Str("host", dbCfg.Host).
		Int("port", dbCfg.Port).
		Str("user", dbCfg.User).
		Str("dbname", dbCfg.DBName).
		Msg("Connecting to database")

	if err := state.InitDB(dbCfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database connection")
	}
	defer state.CloseDB()

	log.Info().Msg("Connected to database. Dropping and recreating all tables...")
	if err := state.ResetSchema(); err != nil {
		log.Fatal().Err(err).Msg("Failed to reset database schema")
	}

	log.Info().Msg("Database reset complete!")
}
