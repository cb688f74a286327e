package registry

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SampleSizeLookup maps household sample-size tokens to readable segment
// labels. Some files encode segment identity (typically a geographic region)
// as the number of sampled households instead of a label; the lookup lets
// the header resolver recognize those tokens as segment columns.
//
// The lookup is versioned and maintained outside ingestion. Ingestion always
// persists the raw code; the label is display-side information only.
type SampleSizeLookup struct {
	Version string            `yaml:"version"`
	Labels  map[string]string `yaml:"labels"`
}

// LoadSampleSizeLookup reads a lookup file. An empty path returns an empty
// lookup, which recognizes no tokens.
func LoadSampleSizeLookup(path string) (*SampleSizeLookup, error) {
	if path == "" {
		return &SampleSizeLookup{Labels: map[string]string{}}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sample-size lookup: %w", err)
	}

	var l SampleSizeLookup
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("failed to parse sample-size lookup: %w", err)
	}
	if l.Labels == nil {
		l.Labels = map[string]string{}
	}
	return &l, nil
}

// Has reports whether token is a known sample-size code. Thousands
// separators are stripped before lookup so "1,204" and "1204" match the
// same code.
func (l *SampleSizeLookup) Has(token string) bool {
	_, ok := l.Labels[normalizeToken(token)]
	return ok
}

// Label returns the readable label for a code, or the raw code itself when
// the lookup has no entry. Callers display the result; the store always
// receives the raw code.
func (l *SampleSizeLookup) Label(token string) string {
	if label, ok := l.Labels[normalizeToken(token)]; ok {
		return label
	}
	return token
}

func normalizeToken(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), ",", "")
}
