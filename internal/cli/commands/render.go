package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

// renderRows writes a result set in the requested format. Table output is
// for terminals; JSON is stable enough for scripting.
func renderRows(w io.Writer, format string, cols []string, rows [][]any) error {
	if format == "json" {
		out := make([]map[string]any, 0, len(rows))
		for _, row := range rows {
			m := make(map[string]any, len(cols))
			for i, col := range cols {
				m[col] = row[i]
			}
			out = append(out, m)
		}
		return renderJSON(w, out)
	}
	return renderTable(w, cols, rows)
}

func renderTable(w io.Writer, cols []string, rows [][]any) error {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(cols))
	for i, col := range cols {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	for _, row := range rows {
		out := make(table.Row, len(cols))
		for i := range cols {
			out[i] = formatValue(row[i])
		}
		t.AppendRow(out)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(rows))
	return nil
}

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatValue(v any) string {
	if v == nil {
		return "NULL"
	}
	if p, ok := v.(*float64); ok {
		if p == nil {
			return "NULL"
		}
		return fmt.Sprintf("%v", *p)
	}
	return fmt.Sprintf("%v", v)
}
