// Package grid reads one CSV spreadsheet extract into a raw 2-D grid of
// cell text. Cells pass through byte-exact: no trimming, no transliteration,
// no encoding changes. Downstream stages decide what each cell means.
package grid

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Grid is a raw 2-D grid of cell text. Rows may have differing lengths;
// use Cell for bounds-safe access.
type Grid [][]string

// ReadFile reads a CSV extract from disk.
func ReadFile(path string) (Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open extract: %w", err)
	}
	defer func() { _ = f.Close() }()

	g, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read extract %s: %w", path, err)
	}
	return g, nil
}

// Read reads a CSV extract from a reader. Rows are allowed to have varying
// field counts; spreadsheet exports pad headers and data unevenly.
func Read(r io.Reader) (Grid, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var g Grid
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		g = append(g, record)
	}
	return g, nil
}

// Cell returns the cell at (row, col), or "" when out of bounds. Spreadsheet
// exports routinely omit trailing empty cells.
func (g Grid) Cell(row, col int) string {
	if row < 0 || row >= len(g) {
		return ""
	}
	if col < 0 || col >= len(g[row]) {
		return ""
	}
	return g[row][col]
}

// Rows returns the number of rows.
func (g Grid) Rows() int {
	return len(g)
}

// Width returns the widest row's cell count.
func (g Grid) Width() int {
	w := 0
	for _, row := range g {
		if len(row) > w {
			w = len(row)
		}
	}
	return w
}

// RowBlank reports whether every cell in a row is empty or whitespace.
func (g Grid) RowBlank(row int) bool {
	if row < 0 || row >= len(g) {
		return true
	}
	for _, cell := range g[row] {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
