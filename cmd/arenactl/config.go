package main

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"

	"github.com/joshuapare/arenakit/internal/logger"
)

const envVarPrefix = "ARENACTL"

// Config is the environment-provided configuration. Command-line flags
// override it.
type Config struct {
	Log      bool   `envconfig:"LOG"`
	LogDir   string `envconfig:"LOG_DIR"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

func loadConfig() (*Config, error) {
	var c Config
	if err := envconfig.Process(envVarPrefix, &c); err != nil {
		return nil, fmt.Errorf("parsing environment variables: %w", err)
	}
	return &c, nil
}

func (c *Config) initLogger() error {
	level, err := logger.ParseLevel(c.LogLevel)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	if err := logger.Init(logger.Options{
		Enabled: c.Log || c.LogDir != "",
		LogDir:  c.LogDir,
		Level:   level,
	}); err != nil {
		return fmt.Errorf("failed to init logging: %w", err)
	}
	return nil
}
