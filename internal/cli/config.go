package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/joacominatel/pgbrowse/internal/config"
)

func newConfigCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(newConfigInitCommand(opts))
	cmd.AddCommand(newConfigShowCommand(opts))
	return cmd
}

func newConfigInitCommand(opts *globalOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file interactively",
		Long: `Ask for the connection settings and write them to the config file.
The password is stored in the OS keyring, never in the file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := opts.configFile
			if path == "" {
				p, err := config.DefaultPath()
				if err != nil {
					return err
				}
				path = p
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			cfg, err := config.Load(config.LoadOptions{SkipKeyring: true})
			if err != nil {
				return err
			}

			p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
			if err := p.database(&cfg.Database); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			written, err := config.Save(cfg, path)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Config written to %s\n", written)

			if cfg.Database.Password != "" {
				if err := config.StorePassword(cfg.Database); err != nil {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(),
						"Warning: could not store the password in the keyring: %v\nSet DB_PASSWORD instead.\n", err)
				} else {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Password stored in the keyring")
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}

func newConfigShowCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			printConfig(cmd.OutOrStdout(), cfg)
			return nil
		},
	}
}

func printConfig(w io.Writer, cfg *config.Config) {
	password := "(not set)"
	if cfg.Database.Password != "" {
		password = "****"
	}
	secret := "(random per start)"
	if cfg.Server.SessionSecret != "" {
		secret = "****"
	}

	db := cfg.Database
	lines := [][2]string{
		{"database.host", db.Host},
		{"database.port", strconv.Itoa(db.Port)},
		{"database.name", db.Name},
		{"database.user", db.User},
		{"database.password", password},
		{"database.sslmode", db.SSLMode},
		{"database.schema", db.Schema},
		{"database.connect_timeout", db.ConnectTimeout.String()},
		{"database.statement_timeout", db.StatementTimeout.String()},
		{"server.addr", cfg.Server.Addr},
		{"server.session_secret", secret},
		{"log.level", cfg.Log.Level},
		{"log.format", cfg.Log.Format},
	}
	for _, l := range lines {
		_, _ = fmt.Fprintf(w, "%-28s %s\n", l[0], l[1])
	}
}

// prompter asks questions on out and reads answers from in.
type prompter struct {
	in     io.Reader
	reader *bufio.Reader
	out    io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: in, reader: bufio.NewReader(in), out: out}
}

func (p *prompter) database(d *config.Database) error {
	var err error
	if d.Host, err = p.ask("Host", d.Host); err != nil {
		return err
	}

	port, err := p.ask("Port", strconv.Itoa(d.Port))
	if err != nil {
		return err
	}
	if d.Port, err = strconv.Atoi(port); err != nil {
		return fmt.Errorf("invalid port %q", port)
	}

	if d.Name, err = p.ask("Database", d.Name); err != nil {
		return err
	}
	if d.User, err = p.ask("User", d.User); err != nil {
		return err
	}
	if d.Password, err = p.password("Password"); err != nil {
		return err
	}
	if d.SSLMode, err = p.ask("SSL mode (disable|require|verify-full)", d.SSLMode); err != nil {
		return err
	}
	if d.Schema, err = p.ask("Schema", d.Schema); err != nil {
		return err
	}
	return nil
}

// ask prints label with its default and returns the trimmed answer, or
// def when the answer is empty.
func (p *prompter) ask(label, def string) (string, error) {
	if def != "" {
		_, _ = fmt.Fprintf(p.out, "%s [%s]: ", label, def)
	} else {
		_, _ = fmt.Fprintf(p.out, "%s: ", label)
	}

	line, err := p.readLine()
	if err != nil {
		return "", err
	}
	if line == "" {
		return def, nil
	}
	return line, nil
}

// password reads without echo on a terminal and a plain line otherwise.
func (p *prompter) password(label string) (string, error) {
	_, _ = fmt.Fprintf(p.out, "%s: ", label)

	if f, ok := p.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(p.out)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return p.readRaw()
}

func (p *prompter) readLine() (string, error) {
	line, err := p.readRaw()
	return strings.TrimSpace(line), err
}

// readRaw returns the next line without its line ending.
func (p *prompter) readRaw() (string, error) {
	line, err := p.reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
