package config

import (
	"github.com/elys-network/feelab/internal/state"
)

// DatabaseConfig is the PostgreSQL connection used for parameter sets and run results.
type DatabaseConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	DBName   string `toml:"dbname"`
	SSLMode  string `toml:"sslmode"`
}

// WebConfig configures the results API.
type WebConfig struct {
	Port string `toml:"port"`
}

func defaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Host:    "localhost",
		Port:    5432,
		User:    "postgres",
		DBName:  "feelab",
		SSLMode: "disable",
	}
}

// StateConfig converts to the store's connection parameters.
func (d DatabaseConfig) StateConfig() state.DBConfig {
	return state.DBConfig{
		Host:     d.Host,
		Port:     d.Port,
		User:     d.User,
		Password: d.Password,
		DBName:   d.DBName,
		SSLMode:  d.SSLMode,
	}
}

// loadEndpointOverrides applies the database and web environment variables.
// This function is called by applyEnvOverrides() in General.go.
func loadEndpointOverrides(cfg *AppConfig) error {
	overrideString("DB_HOST", &cfg.Database.Host)
	overrideString("DB_USER", &cfg.Database.User)
	overrideString("DB_PASSWORD", &cfg.Database.Password)
	overrideString("DB_NAME", &cfg.Database.DBName)
	overrideString("DB_SSLMODE", &cfg.Database.SSLMode)
	overrideString("WEB_PORT", &cfg.Web.Port)

	if v, ok, err := getEnvAsInt("DB_PORT"); err != nil {
		return err
	} else if ok {
		cfg.Database.Port = v
	}
	return nil
}
