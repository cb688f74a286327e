// Package header locates the multi-row header block in a raw grid and
// classifies each column as the item-label column or a segment-value column.
// A wrong classification would silently corrupt every downstream fact for
// the file, so resolution either succeeds completely or fails fatally.
package header

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/spendlens/spendlens/internal/config"
	"github.com/spendlens/spendlens/internal/grid"
	"github.com/spendlens/spendlens/internal/registry"
)

// ErrNoSegmentColumns is returned when fewer than two columns match the
// file's segment pattern within the configured header span. No partial or
// guessed header is ever accepted.
var ErrNoSegmentColumns = errors.New("fewer than two segment columns resolved")

// TotalLabel is the literal pseudo-segment label the sources use for the
// all-households column.
const TotalLabel = "Total"

// SegmentColumn is one resolved segment-value column.
type SegmentColumn struct {
	// Col is the 0-based column index in the grid.
	Col int

	// Value is the segment label exactly as it appears in the header
	// (a small integer, "Total", or a raw sample-size code).
	Value string
}

// Layout is the resolved column classification for one file.
type Layout struct {
	// ItemCol is the item-label column, normally the first column.
	ItemCol int

	// Segments lists segment columns in left-to-right order.
	Segments []SegmentColumn

	// DataStart is the 0-based index of the first data row, immediately
	// after the header block.
	DataStart int
}

// smallIntRe matches segment labels 1 through 15.
var smallIntRe = regexp.MustCompile(`^(1[0-5]|[1-9])$`)

// sampleSizeRe matches a bare household count, with optional thousands
// separators.
var sampleSizeRe = regexp.MustCompile(`^[0-9]{1,3}(?:,[0-9]{3})*$|^[0-9]+$`)

// Resolve classifies the columns of one file's grid according to its
// registry entry. The lookup is consulted only for samplesize-pattern files.
func Resolve(g grid.Grid, e registry.Entry, lookup *registry.SampleSizeLookup) (*Layout, error) {
	headerRows, dataStart, err := headerBlock(g, e)
	if err != nil {
		return nil, err
	}

	width := g.Width()
	layout := &Layout{ItemCol: -1, DataStart: dataStart}

	for col := 0; col < width; col++ {
		value, isSegment := matchSegment(g, headerRows, col, e, lookup)
		if isSegment {
			layout.Segments = append(layout.Segments, SegmentColumn{Col: col, Value: value})
		} else if layout.ItemCol < 0 && columnHasText(g, headerRows, col) {
			layout.ItemCol = col
		}
	}

	if layout.ItemCol < 0 {
		// Fall back to the leftmost non-segment column; data rows carry
		// the labels even when the header cell above them is blank.
		layout.ItemCol = firstNonSegment(layout.Segments, width)
	}
	if layout.ItemCol < 0 {
		return nil, fmt.Errorf("%s: no item-label column found", e.Name)
	}

	if len(layout.Segments) < 2 {
		return nil, fmt.Errorf("%s: matched %d column(s) in header rows %d-%d: %w",
			e.Name, len(layout.Segments), e.HeaderStart, e.HeaderStart+e.HeaderSpan-1,
			ErrNoSegmentColumns)
	}

	return layout, nil
}

// headerBlock collects the configured number of non-blank header rows,
// starting at the entry's header start. Page titles above the start are
// never inspected; blank rows inside the block are discarded.
func headerBlock(g grid.Grid, e registry.Entry) (rows []int, dataStart int, err error) {
	row := e.HeaderStart
	for len(rows) < e.HeaderSpan {
		if row >= g.Rows() {
			return nil, 0, fmt.Errorf("%s: header span %d starting at row %d exceeds sheet (%d rows)",
				e.Name, e.HeaderSpan, e.HeaderStart, g.Rows())
		}
		if !g.RowBlank(row) {
			rows = append(rows, row)
		}
		row++
	}
	return rows, row, nil
}

// matchSegment reports whether any header cell in the span classifies the
// column as a segment column, returning the matched label.
func matchSegment(g grid.Grid, headerRows []int, col int, e registry.Entry, lookup *registry.SampleSizeLookup) (string, bool) {
	for _, row := range headerRows {
		cell := strings.TrimSpace(g.Cell(row, col))
		if cell == "" {
			continue
		}
		if cell == TotalLabel {
			return cell, true
		}
		switch e.SegmentPattern {
		case config.PatternSmallInt:
			if smallIntRe.MatchString(cell) {
				return cell, true
			}
		case config.PatternSampleSize:
			if sampleSizeRe.MatchString(cell) && lookup != nil && lookup.Has(cell) {
				return cell, true
			}
		}
	}
	return "", false
}

func columnHasText(g grid.Grid, headerRows []int, col int) bool {
	for _, row := range headerRows {
		if strings.TrimSpace(g.Cell(row, col)) != "" {
			return true
		}
	}
	return false
}

func firstNonSegment(segments []SegmentColumn, width int) int {
	taken := make(map[int]struct{}, len(segments))
	for _, s := range segments {
		taken[s.Col] = struct{}{}
	}
	for col := 0; col < width; col++ {
		if _, ok := taken[col]; !ok {
			return col
		}
	}
	return -1
}
