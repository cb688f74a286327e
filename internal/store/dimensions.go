package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Segment ordering sentinels. Numeric labels sort by their own value;
// non-numeric labels sort after all numeric ones in first-seen order; the
// "Total" pseudo-segment always sorts last.
const (
	firstSeenOrderBase = 10000
	totalOrder         = 1 << 20
)

// segmentOrder computes the stable sort position for a segment label.
func segmentOrder(value string, firstSeen int) int {
	v := strings.TrimSpace(value)
	if v == TotalSegment {
		return totalOrder
	}
	if n, err := strconv.Atoi(strings.ReplaceAll(v, ",", "")); err == nil && n >= 0 {
		return n
	}
	return firstSeenOrderBase + firstSeen
}

// UpsertSegmentValue ensures exactly one dimension row exists for
// (segType, value) and returns its key. Existing rows are returned as-is:
// segment_order is assigned at creation and never mutated in place, so the
// upsert is safe to call repeatedly across file loads. firstSeen is the
// caller's encounter index within the current file, used only when the
// label is non-numeric.
func (s *Store) UpsertSegmentValue(ctx context.Context, tx *sql.Tx, segType, value string, firstSeen int) (int64, error) {
	var key int64
	err := tx.QueryRowContext(ctx,
		`SELECT segment_key FROM segment_values WHERE segment_type = ? AND segment_value = ?`,
		segType, value,
	).Scan(&key)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to look up segment value: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO segment_values (segment_type, segment_value, segment_order) VALUES (?, ?, ?)`,
		segType, value, segmentOrder(value, firstSeen),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert segment value: %w", err)
	}

	key, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read segment key: %w", err)
	}
	return key, nil
}

// ListSegmentTypes returns all loaded segment types.
func (s *Store) ListSegmentTypes(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT segment_type FROM segment_values ORDER BY segment_type`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list segment types: %w", err)
	}
	defer rows.Close()

	var types []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan segment type: %w", err)
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

// ListSegmentValues returns the dimension rows for one segment type in
// stable order.
func (s *Store) ListSegmentValues(ctx context.Context, segType string) ([]SegmentValue, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT segment_key, segment_type, segment_value, segment_order
		 FROM segment_values WHERE segment_type = ?
		 ORDER BY segment_order, segment_value`,
		segType,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list segment values: %w", err)
	}
	defer rows.Close()

	var values []SegmentValue
	for rows.Next() {
		var sv SegmentValue
		if err := rows.Scan(&sv.Key, &sv.SegmentType, &sv.SegmentValue, &sv.SegmentOrder); err != nil {
			return nil, fmt.Errorf("failed to scan segment value: %w", err)
		}
		values = append(values, sv)
	}
	return values, rows.Err()
}
