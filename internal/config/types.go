// Package config provides shared configuration types for SpendLens.
// It is decoupled from CLI concerns so the pipeline, store and API can be
// constructed from a Config loaded by any front end.
package config

import (
	"fmt"
	"strings"
)

// Segment column detection patterns supported by the header resolver.
const (
	// PatternSmallInt matches segment labels that are small integers
	// (1-15) or the literal "Total". Used by quintile, decile and
	// household-size files.
	PatternSmallInt = "smallint"

	// PatternSampleSize matches segment columns whose identity is encoded
	// as a household sample-size count rather than a readable label.
	// Detection requires the code->label lookup table.
	PatternSampleSize = "samplesize"
)

// FileConfig declares the shape of one known source file. Adding a new
// source requires only a new entry; no per-file branching code elsewhere.
type FileConfig struct {
	// Name identifies the file and is recorded as fact provenance
	// (source_file). It must be unique within the registry.
	Name string `koanf:"name"`

	// Path is the location of the CSV extract, relative to DataDir when
	// not absolute.
	Path string `koanf:"path"`

	// TableID is the agency's table identifier (e.g. "1.2").
	TableID string `koanf:"table_id"`

	// SegmentType names the demographic axis of the file's columns,
	// e.g. "Income Quintile".
	SegmentType string `koanf:"segment_type"`

	// HeaderStart is the 0-based row index where the header block begins.
	// Rows above it are page titles and are never inspected.
	HeaderStart int `koanf:"header_start"`

	// HeaderSpan is the number of non-blank rows forming the header block.
	HeaderSpan int `koanf:"header_span"`

	// SegmentPattern selects the detection rule for segment columns:
	// PatternSmallInt or PatternSampleSize.
	SegmentPattern string `koanf:"segment_pattern"`
}

// Validate checks a file entry for the mistakes that would otherwise only
// surface as a failed header resolution at run time.
func (f *FileConfig) Validate() error {
	if f.Name == "" {
		return fmt.Errorf("file entry missing name")
	}
	if f.Path == "" {
		return fmt.Errorf("file %s: missing path", f.Name)
	}
	if f.SegmentType == "" {
		return fmt.Errorf("file %s: missing segment_type", f.Name)
	}
	if f.HeaderStart < 0 {
		return fmt.Errorf("file %s: header_start must be >= 0", f.Name)
	}
	if f.HeaderSpan < 1 {
		return fmt.Errorf("file %s: header_span must be >= 1", f.Name)
	}
	switch f.SegmentPattern {
	case PatternSmallInt, PatternSampleSize:
	default:
		return fmt.Errorf("file %s: unknown segment_pattern %q (want %q or %q)",
			f.Name, f.SegmentPattern, PatternSmallInt, PatternSampleSize)
	}
	return nil
}

// ClassificationConfig holds the two canonical phrase sets used to flag
// melted items as income or consumption metrics. Matching is exact after
// whitespace normalization; items matching neither set carry both flags
// false.
type ClassificationConfig struct {
	IncomeItems      []string `koanf:"income_items"`
	ConsumptionItems []string `koanf:"consumption_items"`
}

// Config is the root configuration. It is loaded once at startup and passed
// into each stage as an immutable value.
type Config struct {
	// DataDir is the directory holding the source CSV extracts.
	DataDir string `koanf:"data_dir"`

	// DatabasePath is the SQLite database file (":memory:" for tests).
	DatabasePath string `koanf:"database_path"`

	// LookupPath is the versioned sample-size code->label lookup file.
	// Optional; only files with segment_pattern "samplesize" need it.
	LookupPath string `koanf:"lookup_path"`

	// ListenAddr is the bind address for the read-only HTTP API.
	ListenAddr string `koanf:"listen_addr"`

	// OutputFormat selects CLI rendering: table or json.
	OutputFormat string `koanf:"output_format"`

	Verbose bool `koanf:"verbose"`

	Files []FileConfig `koanf:"files"`

	Classification ClassificationConfig `koanf:"classification"`
}

// Validate checks the whole configuration.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path is required")
	}
	seen := make(map[string]struct{}, len(c.Files))
	for i := range c.Files {
		f := &c.Files[i]
		if err := f.Validate(); err != nil {
			return err
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("duplicate file entry: %s", f.Name)
		}
		seen[f.Name] = struct{}{}
		if f.SegmentPattern == PatternSampleSize && c.LookupPath == "" {
			return fmt.Errorf("file %s: segment_pattern %q requires lookup_path",
				f.Name, PatternSampleSize)
		}
	}
	switch strings.ToLower(c.OutputFormat) {
	case "", "table", "json":
	default:
		return fmt.Errorf("unknown output_format %q (want table or json)", c.OutputFormat)
	}
	return nil
}
