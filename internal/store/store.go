// Package store persists the star-style expenditure schema in SQLite and
// exposes the derived read models. Writes happen per source file inside one
// transaction; reads are side-effect-free and safe at any time.
package store

import (
	"errors"
	"time"
)

// ErrMissingDimension is returned when a fact references a segment value
// absent from the dimension at insert time. It indicates a resolver or
// upsert-ordering defect and is never silently recovered.
var ErrMissingDimension = errors.New("fact references missing segment dimension")

// TotalSegment is the pseudo-segment label for the all-households column.
// It always sorts last and is excluded from inequality ratios.
const TotalSegment = "Total"

// SegmentValue is one dimension row: a single value within a segment type.
// Rows are created once per distinct (type, value) pair and never mutated
// in place.
type SegmentValue struct {
	Key          int64
	SegmentType  string
	SegmentValue string
	SegmentOrder int
}

// Fact is one persisted expenditure observation.
type Fact struct {
	SegmentKey int64
	ItemName   string

	// Value is nil for source-declared suppressions, never zero.
	Value       *float64
	Reliability string

	IsIncome      bool
	IsConsumption bool

	SourceFile string
}

// FactRow is a fact joined with its segment value, as returned by reads.
type FactRow struct {
	SegmentValue  string
	SegmentOrder  int
	ItemName      string
	Value         *float64
	Reliability   string
	IsIncome      bool
	IsConsumption bool
	SourceFile    string
}

// BurnRate is the derived burn-rate read model for one segment value:
// consumption spending over income, as a percentage.
type BurnRate struct {
	SegmentValue     string
	SegmentOrder     int
	IncomeTotal      *float64
	ConsumptionTotal *float64

	// BurnRatePct is nil when the income sum is absent or zero; missing
	// denominators never raise.
	BurnRatePct *float64
}

// InequalityItem is the derived inequality read model for one item within a
// segment type: the value at the highest-ordered segment over the value at
// the lowest-ordered one.
type InequalityItem struct {
	ItemName      string
	TopSegment    string
	BottomSegment string
	TopValue      float64
	BottomValue   float64
	Ratio         float64
}

// Load run statuses.
const (
	RunStatusRunning             = "running"
	RunStatusCompleted           = "completed"
	RunStatusCompletedWithErrors = "completed_with_errors"
	RunStatusFailed              = "failed"
)

// File load statuses.
const (
	FileLoadStatusLoaded = "loaded"
	FileLoadStatusFailed = "failed"
)

// LoadRun tracks one pipeline execution.
type LoadRun struct {
	ID          string
	Status      string
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
}

// FileLoad tracks the outcome of one file within a run.
type FileLoad struct {
	ID         int64
	RunID      string
	SourceFile string
	Status     string
	FactRows   int64
	Error      string
	LoadedAt   time.Time
}
