package cli

import (
	"github.com/spf13/cobra"
)

func newTablesCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List tables with row counts and sizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, _, svc, err := opts.setup(cmd)
			if err != nil {
				return err
			}

			ov, err := svc.Overview(cmd.Context())
			if err != nil {
				return err
			}
			renderOverview(cmd.OutOrStdout(), ov)
			return nil
		},
	}
}
