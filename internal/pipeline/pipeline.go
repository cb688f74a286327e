// Package pipeline orchestrates the per-file load sequence:
// read grid -> resolve header -> melt -> upsert dimensions -> load facts.
// Files are processed sequentially in registry order; each file's database
// work runs inside one transaction, and one file's failure never blocks or
// rolls back the others.
package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spendlens/spendlens/internal/grid"
	"github.com/spendlens/spendlens/internal/header"
	"github.com/spendlens/spendlens/internal/melt"
	"github.com/spendlens/spendlens/internal/registry"
	"github.com/spendlens/spendlens/internal/store"
)

// Pipeline loads registry-declared source files into the store.
type Pipeline struct {
	reg    *registry.Registry
	lookup *registry.SampleSizeLookup
	cls    *melt.Classifier
	store  *store.Store
	logger *slog.Logger
}

// New creates a pipeline. All collaborators are immutable values loaded once
// at startup; nothing here holds ambient mutable state.
func New(reg *registry.Registry, lookup *registry.SampleSizeLookup, cls *melt.Classifier, st *store.Store, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{reg: reg, lookup: lookup, cls: cls, store: st, logger: logger}
}

// FileResult is the outcome of loading one source file.
type FileResult struct {
	SourceFile string
	FactRows   int64
	Err        error
}

// Summary is the outcome of one pipeline run.
type Summary struct {
	RunID   string
	Results []FileResult
	Failed  int
}

// Run processes the named registry entries, or every entry when names is
// empty. It returns the summary together with the joined errors of failed
// files; a non-nil error with a non-nil summary means a partial run.
func (p *Pipeline) Run(ctx context.Context, names ...string) (*Summary, error) {
	entries, err := p.selectEntries(names)
	if err != nil {
		return nil, err
	}

	run, err := p.store.CreateLoadRun(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create load run: %w", err)
	}

	p.logger.Info("starting load run", "run_id", run.ID, "files", len(entries))

	summary := &Summary{RunID: run.ID}
	var fileErrs []error

	for _, e := range entries {
		result := p.loadFile(ctx, e)
		summary.Results = append(summary.Results, result)

		if result.Err != nil {
			summary.Failed++
			fileErrs = append(fileErrs, fmt.Errorf("%s: %w", e.Name, result.Err))
			p.logger.Error("file load failed", "file", e.Name, "error", result.Err)
			_ = p.store.RecordFileLoad(ctx, run.ID, e.Name, store.FileLoadStatusFailed, 0, result.Err.Error())
			continue
		}

		p.logger.Info("file loaded", "file", e.Name, "fact_rows", result.FactRows)
		_ = p.store.RecordFileLoad(ctx, run.ID, e.Name, store.FileLoadStatusLoaded, result.FactRows, "")
	}

	status := store.RunStatusCompleted
	errMsg := ""
	switch {
	case summary.Failed == len(entries) && len(entries) > 0:
		status = store.RunStatusFailed
		errMsg = "all files failed"
	case summary.Failed > 0:
		status = store.RunStatusCompletedWithErrors
		errMsg = fmt.Sprintf("%d file(s) failed", summary.Failed)
	}
	_ = p.store.CompleteLoadRun(ctx, run.ID, status, errMsg)

	p.logger.Info("load run finished", "run_id", run.ID, "status", status,
		"loaded", len(entries)-summary.Failed, "failed", summary.Failed)

	return summary, errors.Join(fileErrs...)
}

// loadFile runs the full sequence for one file. Everything that touches the
// database happens inside a single transaction so a partial failure never
// leaves the file half-written.
func (p *Pipeline) loadFile(ctx context.Context, e registry.Entry) FileResult {
	result := FileResult{SourceFile: e.Name}

	g, err := grid.ReadFile(e.Path)
	if err != nil {
		result.Err = err
		return result
	}

	layout, err := header.Resolve(g, e, p.lookup)
	if err != nil {
		result.Err = err
		return result
	}

	rows := melt.Melt(g, layout, e, p.cls)

	p.logger.Debug("melted file", "file", e.Name,
		"segments", len(layout.Segments), "rows", len(rows))

	result.Err = p.store.WithTx(ctx, func(tx *sql.Tx) error {
		// Dimensions first: facts may only reference existing keys.
		keys := make(map[string]int64, len(layout.Segments))
		for i, seg := range layout.Segments {
			if _, done := keys[seg.Value]; done {
				continue
			}
			key, err := p.store.UpsertSegmentValue(ctx, tx, e.SegmentType, seg.Value, i)
			if err != nil {
				return err
			}
			keys[seg.Value] = key
		}

		facts := make([]store.Fact, 0, len(rows))
		for _, r := range rows {
			key, ok := keys[r.SegmentValue]
			if !ok {
				return fmt.Errorf("segment %q: %w", r.SegmentValue, store.ErrMissingDimension)
			}
			facts = append(facts, store.Fact{
				SegmentKey:    key,
				ItemName:      r.ItemName,
				Value:         r.Value,
				Reliability:   string(r.Reliability),
				IsIncome:      r.IsIncome,
				IsConsumption: r.IsConsumption,
				SourceFile:    r.SourceFile,
			})
		}

		inserted, err := p.store.ReplaceFacts(ctx, tx, e.Name, facts)
		if err != nil {
			return err
		}
		result.FactRows = inserted
		return nil
	})

	return result
}

func (p *Pipeline) selectEntries(names []string) ([]registry.Entry, error) {
	if len(names) == 0 {
		return p.reg.Entries(), nil
	}

	entries := make([]registry.Entry, 0, len(names))
	for _, name := range names {
		e, ok := p.reg.Get(name)
		if !ok {
			return nil, fmt.Errorf("unknown registry entry: %s", name)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
