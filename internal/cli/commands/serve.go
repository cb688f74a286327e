package commands

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/spendlens/spendlens/internal/api"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only HTTP API",
		Long: `Serve the read-only JSON API over the loaded database.

The server only ever reads; loads keep going through 'spendlens run'.
Shuts down gracefully on SIGINT or SIGTERM.`,
		Example: `  # Serve on the configured address (default :8080)
  spendlens serve

  # Serve on a specific address
  spendlens serve --listen :9090`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := getConfig()
			if err != nil {
				return err
			}
			logger := getLogger(cmd)

			st, err := openStoreReadOnly(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := api.NewServer(st, cfg.ListenAddr, logger)
			return srv.ListenAndServe(ctx)
		},
	}
}
