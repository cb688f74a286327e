package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sharedcfg "github.com/spendlens/spendlens/internal/config"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "spendlens.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("config", "", "")
	fs.String("data-dir", "", "")
	fs.String("database", "", "")
	fs.String("lookup", "", "")
	fs.String("listen", "", "")
	fs.BoolP("verbose", "v", false, "")
	fs.StringP("output", "o", "", "")
	return fs
}

const minimalConfig = `
data_dir: extracts
database_path: lens.db
files:
  - name: quintiles.csv
    path: quintiles.csv
    table_id: "1.2"
    segment_type: Income Quintile
    header_start: 2
    header_span: 3
    segment_pattern: smallint
`

func TestLoadConfig_Defaults(t *testing.T) {
	t.Cleanup(ResetConfig)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, sharedcfg.DefaultDataDir, cfg.DataDir)
	assert.Equal(t, sharedcfg.DefaultDatabaseFile, cfg.DatabasePath)
	assert.Equal(t, sharedcfg.DefaultListenAddr, cfg.ListenAddr)
	assert.Equal(t, sharedcfg.DefaultOutputFormat, cfg.OutputFormat)
	assert.False(t, cfg.Verbose)
	assert.Empty(t, cfg.Files)

	// Classification falls back to the canonical phrase sets.
	assert.NotEmpty(t, cfg.Classification.IncomeItems)
	assert.NotEmpty(t, cfg.Classification.ConsumptionItems)
}

func TestLoadConfig_FromFile(t *testing.T) {
	t.Cleanup(ResetConfig)

	path := writeConfigFile(t, minimalConfig)
	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	// Paths resolve relative to the config file's directory.
	dir := filepath.Dir(path)
	assert.Equal(t, filepath.Join(dir, "extracts"), cfg.DataDir)
	assert.Equal(t, filepath.Join(dir, "lens.db"), cfg.DatabasePath)

	require.Len(t, cfg.Files, 1)
	assert.Equal(t, "quintiles.csv", cfg.Files[0].Name)
	assert.Equal(t, "Income Quintile", cfg.Files[0].SegmentType)
	assert.Equal(t, sharedcfg.PatternSmallInt, cfg.Files[0].SegmentPattern)

	assert.Equal(t, path, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	t.Cleanup(ResetConfig)

	path := writeConfigFile(t, minimalConfig)
	t.Setenv("SPENDLENS_OUTPUT_FORMAT", "json")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.OutputFormat)
}

func TestLoadConfig_FlagOverridesEnv(t *testing.T) {
	t.Cleanup(ResetConfig)

	path := writeConfigFile(t, minimalConfig)
	t.Setenv("SPENDLENS_OUTPUT_FORMAT", "json")

	fs := testFlags()
	require.NoError(t, fs.Set("output", "table"))
	require.NoError(t, fs.Set("listen", ":9999"))

	cfg, err := LoadConfig(path, fs)
	require.NoError(t, err)
	assert.Equal(t, "table", cfg.OutputFormat)
	assert.Equal(t, ":9999", cfg.ListenAddr)
}

func TestLoadConfig_UnsetFlagsAreIgnored(t *testing.T) {
	t.Cleanup(ResetConfig)

	path := writeConfigFile(t, minimalConfig)

	// Registered but never set; file values must survive.
	cfg, err := LoadConfig(path, testFlags())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "lens.db"), cfg.DatabasePath)
}

func TestLoadConfig_InvalidOutputFormat(t *testing.T) {
	t.Cleanup(ResetConfig)

	path := writeConfigFile(t, minimalConfig+"output_format: xml\n")
	_, err := LoadConfig(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output_format")
}

func TestLoadConfig_SampleSizeRequiresLookup(t *testing.T) {
	t.Cleanup(ResetConfig)

	path := writeConfigFile(t, `
database_path: lens.db
files:
  - name: regions.csv
    path: regions.csv
    segment_type: Geographic Region
    header_start: 1
    header_span: 1
    segment_pattern: samplesize
`)
	_, err := LoadConfig(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lookup_path")
}

func TestLoadConfig_MissingFileErrors(t *testing.T) {
	t.Cleanup(ResetConfig)

	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
}
