package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// Global logger instance
	Logger zerolog.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
)

// Initialize sets up the global logger. format is "console" (human readable) or "json". When filePath is
// set, JSON lines are appended to that file alongside stdout.
func Initialize(logLevel, format, filePath string) error {
	zerolog.TimeFieldFormat = time.RFC3339

	var output io.Writer
	if format == "json" {
		output = os.Stdout
	} else {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "2006-01-02 15:04:05",
		}
	}

	if filePath != "" {
		file, err := FileWriter(filePath)
		if err != nil {
			return fmt.Errorf("failed to open log file %s: %w", filePath, err)
		}
		output = zerolog.MultiLevelWriter(output, file)
	}

	Logger = New(output, logLevel)

	// Replace standard log with zerolog
	log.Logger = Logger
	return nil
}

// New builds a logger writing to w and sets the global level from logLevel.
func New(w io.Writer, logLevel string) zerolog.Logger {
	zerolog.SetGlobalLevel(ParseLevel(logLevel))
	return zerolog.New(w).
		With().
		Timestamp().
		Caller().
		Logger()
}

// ParseLevel maps a configured level name to zerolog, defaulting to info.
func ParseLevel(logLevel string) zerolog.Level {
	switch logLevel {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// GetForComponent returns a logger with a component field for better filtering
func GetForComponent(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}

// FileWriter returns a writer to a log file for optional use alongside console logging
func FileWriter(path string) (io.Writer, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return file, nil
}
