package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/spendlens/spendlens/internal/pipeline"
)

// RunOptions holds options for the run command.
type RunOptions struct {
	Format string
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run [file...]",
		Short: "Load source files into the database",
		Long: `Load declared source files into the SQLite database.

By default every file in the registry is loaded. Passing file names loads
only those entries. Each file is loaded in its own transaction; a failing
file is recorded and skipped without blocking the rest of the run.`,
		Example: `  # Load every declared file
  spendlens run

  # Reload a single file
  spendlens run expenditure_by_quintile.csv

  # Machine-readable summary
  spendlens run --format json`,
		Aliases: []string{"load"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: table, json")

	return cmd
}

func runRun(cmd *cobra.Command, args []string, opts *RunOptions) error {
	cfg, err := getConfig()
	if err != nil {
		return err
	}
	logger := getLogger(cmd)

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	p, err := buildPipeline(cfg, st, logger)
	if err != nil {
		return err
	}

	startTime := time.Now()
	summary, runErr := p.Run(cmd.Context(), args...)
	if summary == nil {
		return runErr
	}

	if err := printRunSummary(cmd, outputFormat(cfg, opts.Format), summary, time.Since(startTime)); err != nil {
		return err
	}

	// A partial run still printed its summary; the joined error drives the
	// exit code.
	return runErr
}

func printRunSummary(cmd *cobra.Command, format string, summary *pipeline.Summary, elapsed time.Duration) error {
	w := cmd.OutOrStdout()

	if format == "json" {
		type fileSummary struct {
			SourceFile string `json:"source_file"`
			FactRows   int64  `json:"fact_rows"`
			Error      string `json:"error,omitempty"`
		}
		out := struct {
			RunID   string        `json:"run_id"`
			Loaded  int           `json:"loaded"`
			Failed  int           `json:"failed"`
			Files   []fileSummary `json:"files"`
			Elapsed string        `json:"elapsed"`
		}{
			RunID:   summary.RunID,
			Loaded:  len(summary.Results) - summary.Failed,
			Failed:  summary.Failed,
			Elapsed: elapsed.Round(time.Millisecond).String(),
		}
		for _, r := range summary.Results {
			fs := fileSummary{SourceFile: r.SourceFile, FactRows: r.FactRows}
			if r.Err != nil {
				fs.Error = r.Err.Error()
			}
			out.Files = append(out.Files, fs)
		}
		return renderJSON(w, out)
	}

	cols := []string{"file", "fact_rows", "status"}
	rows := make([][]any, 0, len(summary.Results))
	for _, r := range summary.Results {
		status := "loaded"
		if r.Err != nil {
			status = fmt.Sprintf("failed: %v", r.Err)
		}
		rows = append(rows, []any{r.SourceFile, r.FactRows, status})
	}
	if err := renderRows(w, format, cols, rows); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(w, "Run %s: %d loaded, %d failed in %s\n",
		summary.RunID, len(summary.Results)-summary.Failed, summary.Failed,
		elapsed.Round(time.Millisecond))
	return nil
}
