package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sort"
)

// BurnRates computes the burn rate for every segment value of a type:
// 100 * sum(consumption values) / sum(income values), rounded to one
// decimal. Segments whose income sum is absent or zero get a nil rate,
// never a divide-by-zero error. Pure read-side aggregation.
func (s *Store) BurnRates(ctx context.Context, segType string) ([]BurnRate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT sv.segment_value, sv.segment_order,
		        SUM(CASE WHEN f.is_income_metric = 1 THEN f.expenditure_value END),
		        SUM(CASE WHEN f.is_consumption_metric = 1 THEN f.expenditure_value END)
		 FROM segment_values sv
		 JOIN expenditure_facts f ON f.segment_key = sv.segment_key
		 WHERE sv.segment_type = ?
		 GROUP BY sv.segment_key, sv.segment_value, sv.segment_order
		 ORDER BY sv.segment_order, sv.segment_value`,
		segType,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query burn rates: %w", err)
	}
	defer rows.Close()

	var out []BurnRate
	for rows.Next() {
		var (
			br          BurnRate
			income      sql.NullFloat64
			consumption sql.NullFloat64
		)
		if err := rows.Scan(&br.SegmentValue, &br.SegmentOrder, &income, &consumption); err != nil {
			return nil, fmt.Errorf("failed to scan burn rate: %w", err)
		}

		if income.Valid {
			v := income.Float64
			br.IncomeTotal = &v
		}
		if consumption.Valid {
			v := consumption.Float64
			br.ConsumptionTotal = &v
		}
		if income.Valid && income.Float64 != 0 && consumption.Valid {
			pct := round1(100 * consumption.Float64 / income.Float64)
			br.BurnRatePct = &pct
		}

		out = append(out, br)
	}
	return out, rows.Err()
}

// TopInequality ranks items of a segment type by their inequality ratio:
// the value at the highest-ordered segment over the value at the
// lowest-ordered one. The "Total" pseudo-segment is excluded; it is an
// aggregate, not a segment. Items with a nil operand or a zero denominator
// are dropped rather than erroring. Returns the first n items descending
// by ratio.
func (s *Store) TopInequality(ctx context.Context, segType string, n int) ([]InequalityItem, error) {
	if n <= 0 {
		n = 10
	}

	bottom, top, ok, err := s.boundarySegments(ctx, segType)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT item_name, segment_key, expenditure_value
		 FROM expenditure_facts
		 WHERE segment_key IN (?, ?) AND expenditure_value IS NOT NULL`,
		bottom.Key, top.Key,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query inequality facts: %w", err)
	}
	defer rows.Close()

	type pair struct {
		top    *float64
		bottom *float64
	}
	pairs := make(map[string]*pair)

	for rows.Next() {
		var (
			item  string
			key   int64
			value float64
		)
		if err := rows.Scan(&item, &key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan inequality fact: %w", err)
		}
		p := pairs[item]
		if p == nil {
			p = &pair{}
			pairs[item] = p
		}
		v := value
		if key == top.Key {
			p.top = &v
		} else {
			p.bottom = &v
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var items []InequalityItem
	for item, p := range pairs {
		if p.top == nil || p.bottom == nil || *p.bottom == 0 {
			continue
		}
		items = append(items, InequalityItem{
			ItemName:      item,
			TopSegment:    top.SegmentValue,
			BottomSegment: bottom.SegmentValue,
			TopValue:      *p.top,
			BottomValue:   *p.bottom,
			Ratio:         *p.top / *p.bottom,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Ratio != items[j].Ratio {
			return items[i].Ratio > items[j].Ratio
		}
		return items[i].ItemName < items[j].ItemName
	})

	if len(items) > n {
		items = items[:n]
	}
	return items, nil
}

// boundarySegments returns the lowest- and highest-ordered real segments of
// a type, excluding "Total". ok is false when fewer than two real segments
// exist, in which case no ratio is defined.
func (s *Store) boundarySegments(ctx context.Context, segType string) (bottom, top SegmentValue, ok bool, err error) {
	values, err := s.ListSegmentValues(ctx, segType)
	if err != nil {
		return bottom, top, false, err
	}

	real := values[:0]
	for _, v := range values {
		if v.SegmentValue != TotalSegment {
			real = append(real, v)
		}
	}
	if len(real) < 2 {
		return bottom, top, false, nil
	}
	return real[0], real[len(real)-1], true, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
