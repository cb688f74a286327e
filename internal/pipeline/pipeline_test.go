package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendlens/spendlens/internal/config"
	"github.com/spendlens/spendlens/internal/header"
	"github.com/spendlens/spendlens/internal/melt"
	"github.com/spendlens/spendlens/internal/registry"
	"github.com/spendlens/spendlens/internal/store"
	"github.com/spendlens/spendlens/internal/testutil"
)

func testFiles() []config.FileConfig {
	return []config.FileConfig{
		{
			Name:           "expenditure_by_quintile.csv",
			Path:           "expenditure_by_quintile.csv",
			TableID:        "1.2",
			SegmentType:    "Income Quintile",
			HeaderStart:    2,
			HeaderSpan:     3,
			SegmentPattern: config.PatternSmallInt,
		},
		{
			Name:           "expenditure_by_region.csv",
			Path:           "expenditure_by_region.csv",
			TableID:        "3.1",
			SegmentType:    "Geographic Region",
			HeaderStart:    1,
			HeaderSpan:     1,
			SegmentPattern: config.PatternSampleSize,
		},
	}
}

func newTestPipeline(t *testing.T, files []config.FileConfig) (*Pipeline, *store.Store) {
	t.Helper()

	reg, err := registry.New(files, "testdata")
	require.NoError(t, err)

	lookup, err := registry.LoadSampleSizeLookup(filepath.Join("testdata", "region_labels.yaml"))
	require.NoError(t, err)

	cls := melt.NewClassifier(
		[]string{"הכנסה כספית נטו לחודש למשק בית"},
		[]string{"סך הכל הוצאה כספית לתצרוכת"},
	)

	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate())

	return New(reg, lookup, cls, st, testutil.NewTestLogger(t)), st
}

func TestRun_EndToEnd(t *testing.T) {
	p, st := newTestPipeline(t, testFiles()[:1])
	ctx := context.Background()

	summary, err := p.Run(ctx)
	require.NoError(t, err)
	require.Len(t, summary.Results, 1)
	assert.Equal(t, 0, summary.Failed)

	// 2 data rows x 2 segment columns.
	assert.Equal(t, int64(4), summary.Results[0].FactRows)

	values, err := st.ListSegmentValues(ctx, "Income Quintile")
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.Equal(t, "1", values[0].SegmentValue)
	assert.Equal(t, "2", values[1].SegmentValue)

	rates, err := st.BurnRates(ctx, "Income Quintile")
	require.NoError(t, err)
	require.Len(t, rates, 2)

	require.NotNil(t, rates[0].BurnRatePct)
	assert.InDelta(t, 146.2, *rates[0].BurnRatePct, 1e-9)
	require.NotNil(t, rates[1].BurnRatePct)
	assert.InDelta(t, 88.0, *rates[1].BurnRatePct, 1e-9)

	run, err := st.GetLoadRun(ctx, summary.RunID)
	require.NoError(t, err)
	assert.Equal(t, store.RunStatusCompleted, run.Status)
}

func TestRun_ReloadIsIdempotent(t *testing.T) {
	p, st := newTestPipeline(t, testFiles())
	ctx := context.Background()

	_, err := p.Run(ctx)
	require.NoError(t, err)

	countOnce, err := st.CountFacts(ctx, "expenditure_by_quintile.csv")
	require.NoError(t, err)
	sumOnce, err := st.SumFacts(ctx, "expenditure_by_quintile.csv")
	require.NoError(t, err)

	_, err = p.Run(ctx)
	require.NoError(t, err)

	countTwice, err := st.CountFacts(ctx, "expenditure_by_quintile.csv")
	require.NoError(t, err)
	sumTwice, err := st.SumFacts(ctx, "expenditure_by_quintile.csv")
	require.NoError(t, err)

	assert.Equal(t, countOnce, countTwice)
	assert.InDelta(t, sumOnce, sumTwice, 1e-9)

	// Dimensions must not duplicate either.
	types, err := st.ListSegmentTypes(ctx)
	require.NoError(t, err)
	assert.Len(t, types, 2)

	values, err := st.ListSegmentValues(ctx, "Geographic Region")
	require.NoError(t, err)
	assert.Len(t, values, 3)
}

func TestRun_SampleSizeFilePersistsRawCodes(t *testing.T) {
	p, st := newTestPipeline(t, testFiles())
	ctx := context.Background()

	_, err := p.Run(ctx)
	require.NoError(t, err)

	values, err := st.ListSegmentValues(ctx, "Geographic Region")
	require.NoError(t, err)
	require.Len(t, values, 3)

	// Raw codes persisted unconditionally; readable labels stay in the
	// versioned lookup, outside ingestion.
	assert.Equal(t, "1,204", values[0].SegmentValue)
	assert.Equal(t, "2,871", values[1].SegmentValue)
	assert.Equal(t, store.TotalSegment, values[2].SegmentValue)
}

func TestRun_FileFailureIsIsolated(t *testing.T) {
	files := testFiles()
	files = append(files, config.FileConfig{
		Name:           "bad_header.csv",
		Path:           "bad_header.csv",
		TableID:        "9.9",
		SegmentType:    "Broken Axis",
		HeaderStart:    1,
		HeaderSpan:     1,
		SegmentPattern: config.PatternSmallInt,
	})

	p, st := newTestPipeline(t, files)
	ctx := context.Background()

	summary, err := p.Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, header.ErrNoSegmentColumns))

	require.Len(t, summary.Results, 3)
	assert.Equal(t, 1, summary.Failed)

	// The good files still loaded completely.
	count, err := st.CountFacts(ctx, "expenditure_by_quintile.csv")
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)

	run, err := st.GetLoadRun(ctx, summary.RunID)
	require.NoError(t, err)
	assert.Equal(t, store.RunStatusCompletedWithErrors, run.Status)

	loads, err := st.ListFileLoads(ctx, summary.RunID)
	require.NoError(t, err)
	require.Len(t, loads, 3)
	assert.Equal(t, store.FileLoadStatusFailed, loads[2].Status)
}

func TestRun_UnknownEntryName(t *testing.T) {
	p, _ := newTestPipeline(t, testFiles())

	_, err := p.Run(context.Background(), "nonexistent.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown registry entry")
}

func TestRun_SelectedFileOnly(t *testing.T) {
	p, st := newTestPipeline(t, testFiles())
	ctx := context.Background()

	summary, err := p.Run(ctx, "expenditure_by_region.csv")
	require.NoError(t, err)
	require.Len(t, summary.Results, 1)

	count, err := st.CountFacts(ctx, "expenditure_by_quintile.csv")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count, "unselected files are untouched")

	count, err = st.CountFacts(ctx, "expenditure_by_region.csv")
	require.NoError(t, err)
	assert.Equal(t, int64(6), count)
}
