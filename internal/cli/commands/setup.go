// Package commands implements the spendlens subcommands.
package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	cliconfig "github.com/spendlens/spendlens/internal/cli/config"
	"github.com/spendlens/spendlens/internal/config"
	"github.com/spendlens/spendlens/internal/melt"
	"github.com/spendlens/spendlens/internal/pipeline"
	"github.com/spendlens/spendlens/internal/registry"
	"github.com/spendlens/spendlens/internal/store"
)

// getConfig returns the configuration loaded by the root command.
func getConfig() (*config.Config, error) {
	cfg := cliconfig.GetCurrentConfig()
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return cfg, nil
}

// getLogger returns the logger the root command stored in the context.
func getLogger(cmd *cobra.Command) *slog.Logger {
	return cliconfig.GetLogger(cmd.Context())
}

// openStore opens the database read-write, creating its directory and
// applying pending migrations.
func openStore(cfg *config.Config) (*store.Store, error) {
	if dir := filepath.Dir(cfg.DatabasePath); cfg.DatabasePath != ":memory:" && dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

// openStoreReadOnly opens an existing database for queries.
func openStoreReadOnly(cfg *config.Config) (*store.Store, error) {
	if cfg.DatabasePath != ":memory:" {
		if _, err := os.Stat(cfg.DatabasePath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (run 'spendlens run' first)", cfg.DatabasePath)
		}
	}
	return store.OpenReadOnly(cfg.DatabasePath)
}

// buildPipeline wires the load pipeline from configuration.
func buildPipeline(cfg *config.Config, st *store.Store, logger *slog.Logger) (*pipeline.Pipeline, error) {
	reg, err := registry.New(cfg.Files, cfg.DataDir)
	if err != nil {
		return nil, err
	}

	var lookup *registry.SampleSizeLookup
	if cfg.LookupPath != "" {
		lookup, err = registry.LoadSampleSizeLookup(cfg.LookupPath)
		if err != nil {
			return nil, err
		}
	}

	cls := melt.NewClassifier(cfg.Classification.IncomeItems, cfg.Classification.ConsumptionItems)

	return pipeline.New(reg, lookup, cls, st, logger), nil
}

// outputFormat resolves the effective format: the command-local flag wins
// over the configured default.
func outputFormat(cfg *config.Config, flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if cfg.OutputFormat != "" {
		return cfg.OutputFormat
	}
	return "table"
}
