// Package config loads the CLI configuration for SpendLens.
//
// Precedence (highest to lowest): flags > environment variables > config
// file > defaults. The loaded result is the shared internal/config.Config,
// so every stage downstream of the CLI is constructed from the same value.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	sharedcfg "github.com/spendlens/spendlens/internal/config"
)

// loggerKey is used to store the logger in context. The root command stores
// it; commands retrieve it via GetLogger.
type loggerKey struct{}

// Package-level koanf instance and config tracking.
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *sharedcfg.Config
)

// findConfigFile finds the config file to use.
// Priority: explicit path > spendlens.yaml > spendlens.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"spendlens.yaml", "spendlens.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration from file, environment variables, and flags.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*sharedcfg.Config, error) {
	k = koanf.New(".")

	// 1. Defaults.
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"data_dir":      sharedcfg.DefaultDataDir,
		"database_path": sharedcfg.DefaultDatabaseFile,
		"listen_addr":   sharedcfg.DefaultListenAddr,
		"output_format": sharedcfg.DefaultOutputFormat,
		"verbose":       false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file.
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Environment variables (SPENDLENS_ prefix).
	// Transform: SPENDLENS_DATABASE_PATH -> database_path
	if err := k.Load(env.Provider("SPENDLENS_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "SPENDLENS_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags (highest priority).
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set.
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")

			// The CLI flag names are shorter than their config keys.
			switch key {
			case "database":
				key = "database_path"
			case "lookup":
				key = "lookup_path"
			case "listen":
				key = "listen_addr"
			case "output":
				key = "output_format"
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal and finalize.
	var cfg sharedcfg.Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	sharedcfg.ApplyDefaults(&cfg)

	// Paths from the config file are relative to its directory, so a run
	// from anywhere in the tree resolves the same files.
	if configFileUsed != "" {
		base := filepath.Dir(configFileUsed)
		cfg.DataDir = resolvePathRelativeTo(cfg.DataDir, base)
		cfg.DatabasePath = resolvePathRelativeTo(cfg.DatabasePath, base)
		cfg.LookupPath = resolvePathRelativeTo(cfg.LookupPath, base)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	currentConfig = &cfg
	return &cfg, nil
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not
// absolute. Returns the path unchanged if it's empty or already absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
// Available after LoadConfig is called.
func GetCurrentConfig() *sharedcfg.Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger. The root
// command uses it to stash the logger without an import cycle with the
// commands package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}
