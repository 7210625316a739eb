package main

import (
	"context"
	"fmt"
	"io"

	"github.com/packit/buildstore/pkg/config"
	"github.com/packit/buildstore/pkg/store"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// loadConfig loads and validates the configuration. The config log level
// applies unless --log-level was given.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFiles...)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	if logLevel == "" {
		level, err := logrus.ParseLevel(cfg.Global.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid global.log_level %q: %w", cfg.Global.LogLevel, err)
		}

		log.SetLevel(level)
	}

	return cfg, nil
}

// withStore opens the configured store for the duration of fn.
func withStore(ctx context.Context, fn func(s store.Store) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	s := store.NewStore(log, &cfg.Database)

	if err := s.Start(ctx); err != nil {
		return fmt.Errorf("starting store: %w", err)
	}

	defer func() {
		if err := s.Stop(); err != nil {
			log.WithError(err).Warn("Failed to close database")
		}
	}()

	return fn(s)
}

// writeYAML renders v as a YAML document.
func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}

	return enc.Close()
}
