// Package melt reshapes wide per-file rows into long (item, segment, value)
// triples using the resolved header layout and the cell normalizer.
package melt

import (
	"strings"

	"github.com/spendlens/spendlens/internal/grid"
	"github.com/spendlens/spendlens/internal/header"
	"github.com/spendlens/spendlens/internal/normalize"
	"github.com/spendlens/spendlens/internal/registry"
)

// Row is one long-format observation: a single item measured for a single
// segment value.
type Row struct {
	SegmentType  string
	SegmentValue string

	// ItemName is the expenditure/income line label. Surrounding
	// whitespace is trimmed; the text itself is preserved byte-exact,
	// including script.
	ItemName string

	Value       *float64
	Reliability normalize.Reliability

	IsIncome      bool
	IsConsumption bool

	SourceFile string
}

// Melt emits one row per (item, segment) combination per data row. Rows whose
// item-label cell matches known non-data patterns are skipped before melting.
func Melt(g grid.Grid, layout *header.Layout, e registry.Entry, cls *Classifier) []Row {
	var out []Row

	for r := layout.DataStart; r < g.Rows(); r++ {
		item := strings.TrimSpace(g.Cell(r, layout.ItemCol))
		if skipRow(g, layout, r, item) {
			continue
		}

		isIncome, isConsumption := cls.Classify(item)

		for _, seg := range layout.Segments {
			res := normalize.Normalize(g.Cell(r, seg.Col))
			out = append(out, Row{
				SegmentType:   e.SegmentType,
				SegmentValue:  seg.Value,
				ItemName:      item,
				Value:         res.Value,
				Reliability:   res.Reliability,
				IsIncome:      isIncome,
				IsConsumption: isConsumption,
				SourceFile:    e.Name,
			})
		}
	}

	return out
}

// skipRow is the row-skip predicate, evaluated before melting. It drops
// blank separator rows and repeated mid-sheet section headers: rows with a
// label but no content in any segment column.
func skipRow(g grid.Grid, layout *header.Layout, row int, item string) bool {
	if item == "" {
		return true
	}
	for _, seg := range layout.Segments {
		if strings.TrimSpace(g.Cell(row, seg.Col)) != "" {
			return false
		}
	}
	return true
}
