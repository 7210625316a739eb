package main

import (
	"fmt"

	"github.com/packit/buildstore/pkg/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the configuration after merging config files and environment
overrides. The database password is masked.`,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFiles...)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	out, err := cfg.Dump()
	if err != nil {
		return err
	}

	if _, err := cmd.OutOrStdout().Write(out); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Warn("Configuration is not valid")
	}

	return nil
}
