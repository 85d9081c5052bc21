package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configDir  = ".pgbrowse"
	configFile = "config"
	configType = "yaml"
	envPrefix  = "PGBROWSE"
)

// envAliases are the DB_* variables read before the PGBROWSE_* ones.
var envAliases = map[string]string{
	"database.host":     "DB_HOST",
	"database.port":     "DB_PORT",
	"database.name":     "DB_NAME",
	"database.user":     "DB_USER",
	"database.password": "DB_PASSWORD",
	"database.sslmode":  "DB_SSLMODE",
	"database.schema":   "DB_SCHEMA",
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"addr":       "server.addr",
	"schema":     "database.schema",
	"log-level":  "log.level",
	"log-format": "log.format",
}

// LoadOptions controls where configuration comes from.
type LoadOptions struct {
	// File is an explicit config file. Empty means ~/.pgbrowse/config.yaml,
	// which may be absent.
	File string

	// DSN, when set, replaces the connection fields of the database section.
	DSN string

	// Flags are bound for the keys in flagKeys when present.
	Flags *pflag.FlagSet

	// SkipKeyring disables the keyring password lookup.
	SkipKeyring bool
}

// Load reads configuration with precedence flags > env > file > defaults.
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, alias := range envAliases {
		envKey := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, alias, envKey); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", alias, err)
		}
	}

	if opts.File != "" {
		v.SetConfigFile(opts.File)
	} else {
		v.SetConfigName(configFile)
		v.SetConfigType(configType)
		if dir, err := configDirPath(); err == nil {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.File != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if opts.Flags != nil {
		for name, key := range flagKeys {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if opts.DSN != "" {
		db, err := ParseDSN(opts.DSN)
		if err != nil {
			return nil, err
		}
		applyDSN(&cfg.Database, db)
	}

	if cfg.Database.Password == "" && !opts.SkipKeyring {
		// A missing or unavailable keyring just leaves the password empty.
		if pw, err := LookupPassword(cfg.Database); err == nil {
			cfg.Database.Password = pw
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "postgres")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.sslmode", "")
	v.SetDefault("database.schema", "public")
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.statement_timeout", "0s")
	v.SetDefault("server.addr", ":5000")
	v.SetDefault("server.session_secret", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

func applyDSN(dst *Database, src Database) {
	dst.Host = src.Host
	dst.Port = src.Port
	dst.Name = src.Name
	dst.User = src.User
	dst.Password = src.Password
	if src.SSLMode != "" {
		dst.SSLMode = src.SSLMode
	}
}

// Save writes the configuration to path, or to ~/.pgbrowse/config.yaml
// when path is empty. The password is never written; keep it in the
// keyring with StorePassword.
func Save(cfg *Config, path string) (string, error) {
	if path == "" {
		dir, err := configDirPath()
		if err != nil {
			return "", fmt.Errorf("config dir: %w", err)
		}
		path = filepath.Join(dir, configFile+"."+configType)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}

	db := cfg.Database
	v := viper.New()
	v.SetConfigType(configType)
	v.Set("database.host", db.Host)
	v.Set("database.port", db.Port)
	v.Set("database.name", db.Name)
	v.Set("database.user", db.User)
	v.Set("database.sslmode", db.SSLMode)
	v.Set("database.schema", db.Schema)
	v.Set("database.connect_timeout", db.ConnectTimeout.String())
	v.Set("database.statement_timeout", db.StatementTimeout.String())
	v.Set("server.addr", cfg.Server.Addr)
	if cfg.Server.SessionSecret != "" {
		v.Set("server.session_secret", cfg.Server.SessionSecret)
	}
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.format", cfg.Log.Format)

	if err := v.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("write config: %w", err)
	}
	return path, nil
}

// DefaultPath returns ~/.pgbrowse/config.yaml.
func DefaultPath() (string, error) {
	dir, err := configDirPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile+"."+configType), nil
}

func configDirPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configDir), nil
}
