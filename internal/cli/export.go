package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/joacominatel/pgbrowse/internal/database"
	"github.com/joacominatel/pgbrowse/internal/export"
)

func newExportCommand(opts *globalOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export TABLE",
		Short: "Export a table as CSV",
		Long: `Stream every row of TABLE as CSV with a header line. Without --output the
CSV is written to stdout; "--output ." writes TABLE.csv in the current directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table := args[0]

			_, logger, svc, err := opts.setup(cmd)
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err := exportTo(cmd.Context(), svc, table, cmd.OutOrStdout())
				return err
			}

			if output == "." {
				output = export.Filename(table)
			}
			n, err := exportFile(cmd.Context(), svc, table, output)
			if err != nil {
				return err
			}
			logger.Info("export written", "table", table, "rows", n, "file", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", `output file, "." for TABLE.csv (default: stdout)`)
	return cmd
}

type exporter interface {
	Export(ctx context.Context, table string, sink database.RowSink) error
}

// exportFile writes the CSV to path. A failed export removes the
// partial file.
func exportFile(ctx context.Context, svc exporter, table, path string) (n int64, err error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(path)
		}
	}()

	n, err = exportTo(ctx, svc, table, f)
	if err != nil {
		return 0, err
	}
	if err = f.Close(); err != nil {
		return 0, fmt.Errorf("close %s: %w", path, err)
	}
	return n, nil
}

func exportTo(ctx context.Context, svc exporter, table string, w io.Writer) (int64, error) {
	sink := export.NewCSV(w)
	if err := svc.Export(ctx, table, sink); err != nil {
		return 0, err
	}
	if err := sink.Flush(); err != nil {
		return 0, fmt.Errorf("write csv: %w", err)
	}
	return sink.Rows(), nil
}
