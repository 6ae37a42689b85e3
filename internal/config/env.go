// Package config defines environment configuration structs and loaders.
package config

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type AppConfig struct {
	EstimatorEnvConfig
	PlotEnvConfig
	HistoryEnvConfig
	LogEnvConfig
}

func LoadConfig(ctx context.Context) (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := envconfig.Process(ctx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// EstimatorEnvConfig holds defaults for the sliced distance estimator.
type EstimatorEnvConfig struct {
	NumProjections int `env:"SW_NUM_PROJECTIONS, default=100"`
}

// PlotEnvConfig holds figure rendering defaults.
type PlotEnvConfig struct {
	DPI       int    `env:"PLOT_DPI, default=300"`
	OutputDir string `env:"PLOT_OUTPUT_DIR, default=."`
}

// HistoryEnvConfig configures training-history retrieval.
type HistoryEnvConfig struct {
	FetchTimeout time.Duration `env:"HISTORY_FETCH_TIMEOUT, default=30s"`
}

// LogEnvConfig configures the global log level.
type LogEnvConfig struct {
	Environment string `env:"ENVIRONMENT, default=prod"`
}

func LoadEstimatorEnv(ctx context.Context) (*EstimatorEnvConfig, error) {
	cfg := &EstimatorEnvConfig{}
	if err := envconfig.Process(ctx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadPlotEnv(ctx context.Context) (*PlotEnvConfig, error) {
	cfg := &PlotEnvConfig{}
	if err := envconfig.Process(ctx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadHistoryEnv(ctx context.Context) (*HistoryEnvConfig, error) {
	cfg := &HistoryEnvConfig{}
	if err := envconfig.Process(ctx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
