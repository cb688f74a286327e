package header

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendlens/spendlens/internal/config"
	"github.com/spendlens/spendlens/internal/grid"
	"github.com/spendlens/spendlens/internal/registry"
)

func quintileEntry() registry.Entry {
	return registry.Entry{
		Name:           "expenditure_by_quintile.csv",
		SegmentType:    "Income Quintile",
		HeaderStart:    2,
		HeaderSpan:     2,
		SegmentPattern: config.PatternSmallInt,
	}
}

func TestResolve_QuintileHeader(t *testing.T) {
	g := grid.Grid{
		{"לוח 1.2 - הוצאות משק הבית"}, // page title, never inspected
		{""},
		{"סעיף", "חמישונים", "", "", "", "", ""},
		{"", "Total", "1", "2", "3", "4", "5"},
		{"הכנסה כספית נטו", "9000", "4000", "6000", "8000", "11000", "16000"},
	}

	layout, err := Resolve(g, quintileEntry(), nil)
	require.NoError(t, err)

	assert.Equal(t, 0, layout.ItemCol)
	assert.Equal(t, 4, layout.DataStart)

	require.Len(t, layout.Segments, 6)
	assert.Equal(t, SegmentColumn{Col: 1, Value: "Total"}, layout.Segments[0])
	assert.Equal(t, SegmentColumn{Col: 2, Value: "1"}, layout.Segments[1])
	assert.Equal(t, SegmentColumn{Col: 6, Value: "5"}, layout.Segments[5])
}

func TestResolve_BlankRowsInsideSpanDiscarded(t *testing.T) {
	g := grid.Grid{
		{"title"},
		{"", ""},
		{"item", "Total", ""},
		{"", "", ""}, // blank row inside the block, does not count toward the span
		{"", "", "1"},
		{"", "", "2"},
		{"row", "1", "2"},
	}
	e := quintileEntry()
	e.HeaderStart = 2
	e.HeaderSpan = 3

	layout, err := Resolve(g, e, nil)
	require.NoError(t, err)

	assert.Equal(t, 6, layout.DataStart)
	assert.Len(t, layout.Segments, 2)
}

func TestResolve_SampleSizePattern(t *testing.T) {
	lookup := &registry.SampleSizeLookup{Labels: map[string]string{
		"1204": "ירושלים",
		"2871": "תל אביב",
	}}

	g := grid.Grid{
		{"לוח 3.1"},
		{"סעיף", "Total", "1,204", "2,871", "1999"},
		{"הוצאה", "100", "90", "120", "50"},
	}
	e := registry.Entry{
		Name:           "expenditure_by_region.csv",
		SegmentType:    "Geographic Region",
		HeaderStart:    1,
		HeaderSpan:     1,
		SegmentPattern: config.PatternSampleSize,
	}

	layout, err := Resolve(g, e, lookup)
	require.NoError(t, err)

	// "1999" is numeric but absent from the lookup; it must not be guessed
	// into a segment column.
	require.Len(t, layout.Segments, 3)
	assert.Equal(t, "Total", layout.Segments[0].Value)
	assert.Equal(t, "1,204", layout.Segments[1].Value, "raw token preserved, not the label")
	assert.Equal(t, "2,871", layout.Segments[2].Value)
}

func TestResolve_TooFewSegmentColumnsIsFatal(t *testing.T) {
	g := grid.Grid{
		{"title"},
		{""},
		{"item", "Total"},
		{"", ""},
		{"row", "100"},
	}

	_, err := Resolve(g, quintileEntry(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoSegmentColumns))
}

func TestResolve_HeaderSpanBeyondSheet(t *testing.T) {
	g := grid.Grid{{"only row"}}

	_, err := Resolve(g, quintileEntry(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds sheet")
}

func TestResolve_SixteenIsNotASegmentLabel(t *testing.T) {
	g := grid.Grid{
		{}, {},
		{"item", "16", "17", "18"},
		{"תת-סעיף", "", "", ""},
		{"row", "100", "200", "300"},
	}

	_, err := Resolve(g, quintileEntry(), nil)
	assert.True(t, errors.Is(err, ErrNoSegmentColumns))
}
