// Package registry holds the declarative File Shape Registry: one entry per
// known source file, describing where its header block sits and how its
// segment columns are detected. The registry is what lets the pipeline
// support an open-ended number of segment types without per-file branching
// code.
package registry

import (
	"fmt"
	"path/filepath"

	"github.com/spendlens/spendlens/internal/config"
)

// Entry describes the shape of one known source file.
type Entry struct {
	// Name identifies the file; it is recorded verbatim as fact
	// provenance (source_file).
	Name string

	// Path is the absolute or data-dir-relative CSV location.
	Path string

	// TableID is the agency's table identifier.
	TableID string

	// SegmentType names the demographic axis encoded in the file's
	// segment columns.
	SegmentType string

	// HeaderStart is the 0-based row index where the header block begins.
	HeaderStart int

	// HeaderSpan is the number of non-blank header rows.
	HeaderSpan int

	// SegmentPattern is config.PatternSmallInt or config.PatternSampleSize.
	SegmentPattern string
}

// Registry is an immutable, ordered collection of file shape entries.
type Registry struct {
	entries []Entry
	byName  map[string]int
}

// New builds a registry from validated configuration. Relative paths are
// resolved against dataDir.
func New(files []config.FileConfig, dataDir string) (*Registry, error) {
	r := &Registry{byName: make(map[string]int, len(files))}
	for _, f := range files {
		if err := f.Validate(); err != nil {
			return nil, fmt.Errorf("invalid registry entry: %w", err)
		}
		if _, dup := r.byName[f.Name]; dup {
			return nil, fmt.Errorf("duplicate registry entry: %s", f.Name)
		}

		path := f.Path
		if !filepath.IsAbs(path) && dataDir != "" {
			path = filepath.Join(dataDir, path)
		}

		r.byName[f.Name] = len(r.entries)
		r.entries = append(r.entries, Entry{
			Name:           f.Name,
			Path:           path,
			TableID:        f.TableID,
			SegmentType:    f.SegmentType,
			HeaderStart:    f.HeaderStart,
			HeaderSpan:     f.HeaderSpan,
			SegmentPattern: f.SegmentPattern,
		})
	}
	return r, nil
}

// Entries returns all entries in declared order. The pipeline processes
// files in this order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Get returns the entry with the given name.
func (r *Registry) Get(name string) (Entry, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Entry{}, false
	}
	return r.entries[i], true
}

// Len returns the number of registered files.
func (r *Registry) Len() int {
	return len(r.entries)
}
