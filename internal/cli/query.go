package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newQueryCommand(opts *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "query SQL...",
		Short: "Run one SQL statement",
		Long: `Run one SQL statement and print its result. Arguments are joined with
spaces, so quoting the whole statement is optional.`,
		Example: `  pgbrowse query "SELECT * FROM users LIMIT 5"
  pgbrowse query --format csv SELECT id, email FROM users`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case formatTable, formatCSV, formatJSON:
			default:
				return fmt.Errorf("unknown format %q (want table, csv or json)", format)
			}

			_, _, svc, err := opts.setup(cmd)
			if err != nil {
				return err
			}

			result, err := svc.Execute(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return renderResult(cmd.OutOrStdout(), result, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "output format (table|csv|json)")
	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{formatTable, formatCSV, formatJSON}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}
