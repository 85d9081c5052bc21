package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/joacominatel/pgbrowse/internal/web"
)

func newServeCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web interface",
		Long: `Start the HTTP server with the table browser, SQL editor, CSV export
and the JSON API. Stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, svc, err := opts.setup(cmd)
			if err != nil {
				return err
			}

			srv, err := web.NewServer(web.Config{
				Gateway:       svc,
				Addr:          cfg.Server.Addr,
				SessionSecret: cfg.Server.SessionSecret,
				Logger:        logger,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info("serving", "addr", cfg.Server.Addr, "database", cfg.Database.DisplayString())
			return srv.Serve(ctx)
		},
	}

	cmd.Flags().String("addr", "", "listen address (default: :5000)")
	return cmd
}
