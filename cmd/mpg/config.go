package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/CTAG07/mpg/pkg/markov"
	"github.com/natefinch/atomic"
	"github.com/pelletier/go-toml/v2"
)

// Config holds every setting that can be read from a config file. Command
// line flags override the values loaded from the file.
type Config struct {
	Order         int     `json:"order" toml:"order"`
	Length        int     `json:"length" toml:"length"`
	Seed          *uint64 `json:"seed,omitempty" toml:"seed,omitempty"`
	Smoothing     string  `json:"smoothing" toml:"smoothing"`
	Solver        string  `json:"solver" toml:"solver"`
	MaxIterations int     `json:"max_iterations" toml:"max_iterations"`
	Tolerance     float64 `json:"tolerance" toml:"tolerance"`
	BurnIn        int     `json:"burn_in" toml:"burn_in"`
	Temperature   float64 `json:"temperature" toml:"temperature"`
	Name          string  `json:"name" toml:"name"`
	LogLevel      string  `json:"log_level" toml:"log_level"`
	DatabasePath  string  `json:"database_path" toml:"database_path"`
	Progress      bool    `json:"progress" toml:"progress"`
}

// DefaultConfig creates a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Order:         1,
		Length:        0,
		Smoothing:     markov.SmoothingNone.String(),
		Solver:        markov.SolverPower.String(),
		MaxIterations: markov.DefaultMaxIterations,
		Tolerance:     markov.DefaultTolerance,
		BurnIn:        0,
		Temperature:   1.0,
		Name:          "genseq",
		LogLevel:      "info",
		DatabasePath:  "",
		Progress:      false,
	}
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// LoadConfig reads the configuration from a JSON file at the given path, or
// a TOML file if the path ends in .toml. If the file doesn't exist, it
// creates one with default values.
func LoadConfig(path string, logger *slog.Logger) (*Config, error) {
	config := DefaultConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		// If the file doesn't exist, create it with the default config.
		if os.IsNotExist(err) {
			var data []byte
			if isTOML(path) {
				data, err = toml.Marshal(config)
			} else {
				data, err = json.MarshalIndent(config, "", "  ")
			}
			if err != nil {
				return nil, fmt.Errorf("failed to marshal default config: %w", err)
			}
			if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
				// Still usable with defaults.
				logger.Warn("Failed to write default config file", slog.String("path", path), slog.Any("error", err))
			} else {
				logger.Info("Wrote default config file", slog.String("path", path))
			}
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if isTOML(path) {
		err = toml.Unmarshal(file, config)
	} else {
		err = json.Unmarshal(file, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return config, nil
}

// modelOptions converts the config into markov.Model options.
func (c *Config) modelOptions(logger *slog.Logger) ([]markov.Option, error) {
	smoothing, err := markov.ParseSmoothing(c.Smoothing)
	if err != nil {
		return nil, err
	}
	solver, err := markov.ParseSolver(c.Solver)
	if err != nil {
		return nil, err
	}
	return []markov.Option{
		markov.WithSmoothing(smoothing),
		markov.WithSolver(solver),
		markov.WithMaxIterations(c.MaxIterations),
		markov.WithTolerance(c.Tolerance),
		markov.WithLogger(logger),
	}, nil
}

// generatorOptions converts the config into markov.Generator options.
func (c *Config) generatorOptions(logger *slog.Logger) []markov.GeneratorOption {
	opts := []markov.GeneratorOption{
		markov.WithBurnIn(c.BurnIn),
		markov.WithTemperature(c.Temperature),
		markov.WithGeneratorLogger(logger),
	}
	if c.Seed != nil {
		opts = append(opts, markov.WithSeed(*c.Seed))
	}
	return opts
}

// parseLogLevel maps a level name to a slog.Level, defaulting to info.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
