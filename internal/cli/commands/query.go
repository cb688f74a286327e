package commands

import (
	"github.com/spf13/cobra"

	"github.com/spendlens/spendlens/internal/registry"
)

// QueryOptions holds options shared by the query subcommands.
type QueryOptions struct {
	Format string
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query loaded data and derived metrics",
		Long: `Query the SpendLens database directly.

All subcommands open the database read-only, so they are safe to run while
a load is in progress. Supports table and JSON output for scripting.`,
		Example: `  # List the demographic axes that have been loaded
  spendlens query segments

  # Segment values in display order
  spendlens query values "Income Quintile"

  # Burn rate per segment
  spendlens query burn-rate "Income Quintile"

  # Most unequal expenditure items, as JSON
  spendlens query inequality "Income Quintile" --top 5 --format json`,
	}

	cmd.PersistentFlags().StringVarP(&opts.Format, "format", "f", "", "Output format: table, json")

	cmd.AddCommand(newQuerySegmentsCommand(opts))
	cmd.AddCommand(newQueryValuesCommand(opts))
	cmd.AddCommand(newQueryFactsCommand(opts))
	cmd.AddCommand(newQueryBurnRateCommand(opts))
	cmd.AddCommand(newQueryInequalityCommand(opts))

	return cmd
}

func newQuerySegmentsCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "segments",
		Short: "List loaded segment types",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := getConfig()
			if err != nil {
				return err
			}
			st, err := openStoreReadOnly(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			types, err := st.ListSegmentTypes(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([][]any, 0, len(types))
			for _, t := range types {
				rows = append(rows, []any{t})
			}
			return renderRows(cmd.OutOrStdout(), outputFormat(cfg, opts.Format), []string{"segment_type"}, rows)
		},
	}
}

func newQueryValuesCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "values <segment-type>",
		Short: "List segment values in display order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfig()
			if err != nil {
				return err
			}
			st, err := openStoreReadOnly(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			values, err := st.ListSegmentValues(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			// Ingestion persists raw sample-size codes; readable labels
			// come from the versioned lookup at read time.
			var lookup *registry.SampleSizeLookup
			if cfg.LookupPath != "" {
				lookup, err = registry.LoadSampleSizeLookup(cfg.LookupPath)
				if err != nil {
					return err
				}
			}

			cols := []string{"segment_value", "segment_order"}
			if lookup != nil {
				cols = []string{"segment_value", "label", "segment_order"}
			}

			rows := make([][]any, 0, len(values))
			for _, v := range values {
				if lookup != nil {
					rows = append(rows, []any{v.SegmentValue, lookup.Label(v.SegmentValue), v.SegmentOrder})
					continue
				}
				rows = append(rows, []any{v.SegmentValue, v.SegmentOrder})
			}
			return renderRows(cmd.OutOrStdout(), outputFormat(cfg, opts.Format), cols, rows)
		},
	}
}

func newQueryFactsCommand(opts *QueryOptions) *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "facts <segment-type>",
		Short: "List fact rows for a segment type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfig()
			if err != nil {
				return err
			}
			st, err := openStoreReadOnly(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			facts, err := st.ListFacts(cmd.Context(), args[0], limit, offset)
			if err != nil {
				return err
			}

			cols := []string{"segment_value", "item_name", "value", "reliability", "source_file"}
			rows := make([][]any, 0, len(facts))
			for _, f := range facts {
				rows = append(rows, []any{f.SegmentValue, f.ItemName, f.Value, f.Reliability, f.SourceFile})
			}
			return renderRows(cmd.OutOrStdout(), outputFormat(cfg, opts.Format), cols, rows)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum rows to return")
	cmd.Flags().IntVar(&offset, "offset", 0, "Rows to skip")

	return cmd
}

func newQueryBurnRateCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "burn-rate <segment-type>",
		Short: "Consumption as a percentage of net income per segment",
		Long: `Show the burn rate per segment: total consumption expenditure divided by
net income, as a percentage. Segments with no income figure show NULL
rather than failing the whole report.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfig()
			if err != nil {
				return err
			}
			st, err := openStoreReadOnly(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			rates, err := st.BurnRates(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			rows := make([][]any, 0, len(rates))
			for _, r := range rates {
				rows = append(rows, []any{r.SegmentValue, r.BurnRatePct})
			}
			return renderRows(cmd.OutOrStdout(), outputFormat(cfg, opts.Format),
				[]string{"segment_value", "burn_rate_pct"}, rows)
		},
	}
}

func newQueryInequalityCommand(opts *QueryOptions) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "inequality <segment-type>",
		Short: "Expenditure items ranked by top/bottom segment ratio",
		Long: `Rank expenditure items by how unequal they are between the highest and
lowest segments of the axis. The aggregate "Total" column never takes part;
items missing either boundary value or with a zero denominator are dropped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfig()
			if err != nil {
				return err
			}
			st, err := openStoreReadOnly(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			items, err := st.TopInequality(cmd.Context(), args[0], top)
			if err != nil {
				return err
			}

			cols := []string{"item_name", "top_segment", "bottom_segment", "ratio"}
			rows := make([][]any, 0, len(items))
			for _, it := range items {
				rows = append(rows, []any{it.ItemName, it.TopSegment, it.BottomSegment, it.Ratio})
			}
			return renderRows(cmd.OutOrStdout(), outputFormat(cfg, opts.Format), cols, rows)
		},
	}

	cmd.Flags().IntVar(&top, "top", 10, "Number of items to return")

	return cmd
}
