package store

import (
	"context"
	"database/sql"
	"fmt"
)

// ReplaceFacts persists melted rows for one source file with replace
// semantics: all existing facts for the file are deleted, then the new set
// is inserted, inside the caller's transaction. Loading a file twice leaves
// the table indistinguishable from a single load.
func (s *Store) ReplaceFacts(ctx context.Context, tx *sql.Tx, sourceFile string, facts []Fact) (int64, error) {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM expenditure_facts WHERE source_file = ?`, sourceFile,
	); err != nil {
		return 0, fmt.Errorf("failed to clear facts for %s: %w", sourceFile, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO expenditure_facts
		 (segment_key, item_name, expenditure_value, reliability, is_income_metric, is_consumption_metric, source_file)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare fact insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	var inserted int64
	for _, f := range facts {
		if f.SegmentKey <= 0 {
			return 0, fmt.Errorf("%s item %q: %w", sourceFile, f.ItemName, ErrMissingDimension)
		}

		var value any
		if f.Value != nil {
			value = *f.Value
		}

		if _, err := stmt.ExecContext(ctx,
			f.SegmentKey, f.ItemName, value, f.Reliability,
			boolToInt(f.IsIncome), boolToInt(f.IsConsumption), sourceFile,
		); err != nil {
			return 0, fmt.Errorf("failed to insert fact %q for %s: %w", f.ItemName, sourceFile, err)
		}
		inserted++
	}

	return inserted, nil
}

// CountFacts returns the number of facts loaded for one source file.
func (s *Store) CountFacts(ctx context.Context, sourceFile string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM expenditure_facts WHERE source_file = ?`, sourceFile,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count facts: %w", err)
	}
	return n, nil
}

// SumFacts returns the sum of non-null values for one source file. Together
// with CountFacts it is the cheap reload-idempotence check.
func (s *Store) SumFacts(ctx context.Context, sourceFile string) (float64, error) {
	var sum sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT SUM(expenditure_value) FROM expenditure_facts WHERE source_file = ?`, sourceFile,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("failed to sum facts: %w", err)
	}
	return sum.Float64, nil
}

// ListFacts returns a page of facts for one segment type, ordered by item
// then segment.
func (s *Store) ListFacts(ctx context.Context, segType string, limit, offset int) ([]FactRow, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT sv.segment_value, sv.segment_order, f.item_name, f.expenditure_value,
		        f.reliability, f.is_income_metric, f.is_consumption_metric, f.source_file
		 FROM expenditure_facts f
		 JOIN segment_values sv ON sv.segment_key = f.segment_key
		 WHERE sv.segment_type = ?
		 ORDER BY f.item_name, sv.segment_order, sv.segment_value
		 LIMIT ? OFFSET ?`,
		segType, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list facts: %w", err)
	}
	defer rows.Close()

	var out []FactRow
	for rows.Next() {
		var (
			fr            FactRow
			value         sql.NullFloat64
			isIncome      int
			isConsumption int
		)
		if err := rows.Scan(&fr.SegmentValue, &fr.SegmentOrder, &fr.ItemName, &value,
			&fr.Reliability, &isIncome, &isConsumption, &fr.SourceFile); err != nil {
			return nil, fmt.Errorf("failed to scan fact: %w", err)
		}
		if value.Valid {
			v := value.Float64
			fr.Value = &v
		}
		fr.IsIncome = isIncome != 0
		fr.IsConsumption = isConsumption != 0
		out = append(out, fr)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
