// Package cli provides the pgbrowse command-line interface.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joacominatel/pgbrowse/internal/app"
	"github.com/joacominatel/pgbrowse/internal/config"
	"github.com/joacominatel/pgbrowse/internal/database/postgres"
	"github.com/joacominatel/pgbrowse/internal/logging"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configFile string
	dsn        string
}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "pgbrowse",
		Short: "Browse and administer a PostgreSQL database",
		Long: `pgbrowse is a small administration tool for one PostgreSQL database.

It serves a web interface for browsing tables, running SQL, inserting rows
and exporting CSV, and offers the same operations from the terminal.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.configFile, "config", "", "config file (default: ~/.pgbrowse/config.yaml)")
	pf.StringVar(&opts.dsn, "dsn", "", "connection URL, overrides the database section")
	pf.String("schema", "", "schema to browse (default: public)")
	pf.String("log-level", "", "log level (debug|info|warn|error)")
	pf.String("log-format", "", "log format (text|json)")

	_ = rootCmd.RegisterFlagCompletionFunc("log-level", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("log-format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newServeCommand(opts))
	rootCmd.AddCommand(newTUICommand(opts))
	rootCmd.AddCommand(newTablesCommand(opts))
	rootCmd.AddCommand(newQueryCommand(opts))
	rootCmd.AddCommand(newExportCommand(opts))
	rootCmd.AddCommand(newConfigCommand(opts))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// load resolves configuration for cmd. Flags only count when set on the
// command line.
func (o *globalOptions) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{
		File:  o.configFile,
		DSN:   o.dsn,
		Flags: cmd.Flags(),
	})
	if err != nil {
		return nil, &app.ErrConfig{Cause: err}
	}
	return cfg, nil
}

// setup loads configuration and builds the logger and service.
func (o *globalOptions) setup(cmd *cobra.Command) (*config.Config, *slog.Logger, *app.Service, error) {
	cfg, err := o.load(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	logger := logging.New(cfg.Log, cmd.ErrOrStderr())
	svc, err := newService(cfg.Database, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, svc, nil
}

func newService(db config.Database, logger *slog.Logger) (*app.Service, error) {
	connector, err := postgres.NewConnector(postgres.Options{
		DSN:              db.DSN(),
		Schema:           db.Schema,
		ConnectTimeout:   db.ConnectTimeout,
		StatementTimeout: db.StatementTimeout,
		Logger:           logger,
	})
	if err != nil {
		return nil, &app.ErrConfig{Cause: err}
	}
	return app.NewService(connector, logger), nil
}
