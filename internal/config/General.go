package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/elys-network/feelab/internal/controller"
	"github.com/elys-network/feelab/internal/simulations"
	"github.com/elys-network/feelab/internal/types"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// envPrefix is prepended to every environment override.
const envPrefix = "FEELAB_"

// Duration decodes TOML strings such as "90s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// AppConfig is the complete application configuration.
type AppConfig struct {
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"` // "console" or "json"
	LogFile   string `toml:"log_file"`   // Optional file written alongside stdout.

	// ConfigName is the name controller parameter sets are stored and activated under.
	ConfigName string `toml:"config_name"`

	Controller types.ControllerParameters `toml:"controller"`
	Simulation types.SimulationParameters `toml:"simulation"`
	Variance   types.VarianceParameters   `toml:"variance"`
	Match      MatchConfig                `toml:"match"`
	Sweep      types.SweepGrid            `toml:"sweep"`
	Database   DatabaseConfig             `toml:"database"`
	Web        WebConfig                  `toml:"web"`
}

// MatchConfig sizes a match.
type MatchConfig struct {
	Simulations int      `toml:"simulations"`
	Workers     int      `toml:"workers"` // 0 uses GOMAXPROCS.
	Seed        uint64   `toml:"seed"`
	Timeout     Duration `toml:"timeout"`  // Whole-run limit, 0 for none.
	Interval    Duration `toml:"interval"` // Period of the serve loop, 0 disables it.
}

// Defaults returns the built-in configuration that files and environment variables override.
func Defaults() AppConfig {
	return AppConfig{
		LogLevel:   "info",
		LogFormat:  "console",
		ConfigName: DefaultConfigName,
		Controller: DefaultControllerParameters,
		Simulation: DefaultSimulationParameters,
		Variance:   DefaultVarianceParameters,
		Match: MatchConfig{
			Simulations: 1000,
			Seed:        1,
			Timeout:     Duration{30 * time.Minute},
		},
		Sweep:    DefaultSweepGrid,
		Database: defaultDatabaseConfig(),
		Web:      WebConfig{Port: "8080"},
	}
}

// Load builds the configuration: defaults, then the TOML file at path (optional), then a .env file in the
// working directory (optional), then FEELAB_* environment variables. The result is validated.
func Load(path string) (AppConfig, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return AppConfig{}, fmt.Errorf("failed to decode config file %s: %w", path, err)
		}
		log.Info().Str("path", path).Msg("Loaded configuration file")
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return AppConfig{}, fmt.Errorf("failed to load .env file: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return AppConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}

	log.Debug().
		Str("configName", cfg.ConfigName).
		Int("simulations", cfg.Match.Simulations).
		Str("direction", string(cfg.Controller.Direction.Mode)).
		Msg("Configuration loaded successfully.")
	return cfg, nil
}

// Validate checks every section.
func (c AppConfig) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, c.LogLevel)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.LogFormat)
	}
	if c.ConfigName == "" {
		return fmt.Errorf("%w: config name cannot be empty", ErrInvalidConfig)
	}
	if err := controller.Validate(c.Controller); err != nil {
		return fmt.Errorf("%w: controller: %w", ErrInvalidConfig, err)
	}
	if err := simulations.ValidateSimulationParameters(c.Simulation); err != nil {
		return fmt.Errorf("%w: simulation: %w", ErrInvalidConfig, err)
	}
	if c.Match.Simulations <= 0 {
		return fmt.Errorf("%w: match simulations must be positive", ErrInvalidConfig)
	}
	if c.Match.Workers < 0 || c.Match.Timeout.Duration < 0 || c.Match.Interval.Duration < 0 {
		return fmt.Errorf("%w: match workers, timeout and interval cannot be negative", ErrInvalidConfig)
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return fmt.Errorf("%w: database port %d out of range", ErrInvalidConfig, c.Database.Port)
	}
	return nil
}

func applyEnvOverrides(cfg *AppConfig) error {
	overrideString("LOG_LEVEL", &cfg.LogLevel)
	overrideString("LOG_FORMAT", &cfg.LogFormat)
	overrideString("LOG_FILE", &cfg.LogFile)
	overrideString("CONFIG_NAME", &cfg.ConfigName)

	if v, ok, err := getEnvAsInt("SIMULATIONS"); err != nil {
		return err
	} else if ok {
		cfg.Match.Simulations = v
	}
	if v, ok, err := getEnvAsInt("WORKERS"); err != nil {
		return err
	} else if ok {
		cfg.Match.Workers = v
	}
	if v, ok, err := getEnvAsUint64("SEED"); err != nil {
		return err
	} else if ok {
		cfg.Match.Seed = v
	}
	if v, ok := getEnv("TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: environment variable %sTIMEOUT must be a duration, got: %s", ErrInvalidConfig, envPrefix, v)
		}
		cfg.Match.Timeout = Duration{d}
	}

	return loadEndpointOverrides(cfg)
}

// getEnv retrieves a prefixed environment variable.
func getEnv(key string) (string, bool) {
	return os.LookupEnv(envPrefix + key)
}

func overrideString(key string, target *string) {
	if v, ok := getEnv(key); ok {
		*target = v
	}
}

// getEnvAsInt retrieves a prefixed environment variable as an int. Returns error if set but invalid.
func getEnvAsInt(key string) (int, bool, error) {
	valueStr, ok := getEnv(key)
	if !ok {
		return 0, false, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, false, fmt.Errorf("%w: environment variable %s%s must be a valid int, got: %s", ErrInvalidConfig, envPrefix, key, valueStr)
	}
	return value, true, nil
}

// getEnvAsUint64 retrieves a prefixed environment variable as a uint64. Returns error if set but invalid.
func getEnvAsUint64(key string) (uint64, bool, error) {
	valueStr, ok := getEnv(key)
	if !ok {
		return 0, false, nil
	}
	value, err := strconv.ParseUint(valueStr, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%w: environment variable %s%s must be a valid uint64, got: %s", ErrInvalidConfig, envPrefix, key, valueStr)
	}
	return value, true, nil
}
