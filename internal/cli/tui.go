package cli

import (
	"github.com/spf13/cobra"

	"github.com/joacominatel/pgbrowse/internal/config"
	"github.com/joacominatel/pgbrowse/internal/logging"
	"github.com/joacominatel/pgbrowse/internal/tui"
)

func newTUICommand(opts *globalOptions) *cobra.Command {
	var perPage int

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Start the terminal interface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			// The alternate screen owns the terminal, so nothing is logged.
			logger := logging.Discard()

			svc, err := newService(cfg.Database, logger)
			if err != nil {
				return err
			}

			connect := func(dsn string) (tui.Service, error) {
				db, err := config.ParseDSN(dsn)
				if err != nil {
					return nil, err
				}
				db.Schema = cfg.Database.Schema
				db.ConnectTimeout = cfg.Database.ConnectTimeout
				db.StatementTimeout = cfg.Database.StatementTimeout
				s, err := newService(db, logger)
				if err != nil {
					return nil, err
				}
				return s, nil
			}

			return tui.Run(tui.Options{
				Service: svc,
				Connect: connect,
				Display: cfg.Database.DisplayString(),
				PerPage: perPage,
			})
		},
	}

	cmd.Flags().IntVar(&perPage, "per-page", 50, "rows per page when browsing a table")
	return cmd
}
