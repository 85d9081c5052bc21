package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Config represents the application configuration.
type Config struct {
	Database Database `mapstructure:"database" yaml:"database"`
	Server   Server   `mapstructure:"server" yaml:"server"`
	Log      Log      `mapstructure:"log" yaml:"log"`
}

// Database holds the connection settings for the target database.
type Database struct {
	Host             string        `mapstructure:"host" yaml:"host"`
	Port             int           `mapstructure:"port" yaml:"port"`
	Name             string        `mapstructure:"name" yaml:"name"`
	User             string        `mapstructure:"user" yaml:"user"`
	Password         string        `mapstructure:"password" yaml:"password,omitempty"`
	SSLMode          string        `mapstructure:"sslmode" yaml:"sslmode"`
	Schema           string        `mapstructure:"schema" yaml:"schema"`
	ConnectTimeout   time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout"`
	StatementTimeout time.Duration `mapstructure:"statement_timeout" yaml:"statement_timeout"`
}

// Server holds HTTP server settings.
type Server struct {
	Addr          string `mapstructure:"addr" yaml:"addr"`
	SessionSecret string `mapstructure:"session_secret" yaml:"session_secret,omitempty"`
}

// Log holds logging settings.
type Log struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DSN builds a PostgreSQL connection URL.
func (d Database) DSN() string {
	u := url.URL{
		Scheme: "postgresql",
		Host:   d.Host,
		Path:   "/" + d.Name,
	}
	if d.Port > 0 {
		u.Host = net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
	}
	if d.User != "" {
		if d.Password != "" {
			u.User = url.UserPassword(d.User, d.Password)
		} else {
			u.User = url.User(d.User)
		}
	}
	if d.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {d.SSLMode}}.Encode()
	}
	return u.String()
}

// DisplayString returns a human-readable summary without the password.
func (d Database) DisplayString() string {
	s := d.Host
	if d.Port > 0 {
		s += ":" + strconv.Itoa(d.Port)
	}
	s += "/" + d.Name
	if d.User != "" {
		s = d.User + "@" + s
	}
	return s
}

// ParseDSN parses a PostgreSQL connection URL into database settings.
func ParseDSN(dsn string) (Database, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return Database{}, fmt.Errorf("invalid DSN: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return Database{}, fmt.Errorf("invalid DSN: unsupported scheme %q", u.Scheme)
	}

	db := Database{
		Host:    u.Hostname(),
		Name:    strings.TrimPrefix(u.Path, "/"),
		SSLMode: u.Query().Get("sslmode"),
	}

	if u.User != nil {
		db.User = u.User.Username()
		if p, ok := u.User.Password(); ok {
			db.Password = p
		}
	}

	if portStr := u.Port(); portStr != "" {
		db.Port, err = strconv.Atoi(portStr)
		if err != nil {
			return Database{}, fmt.Errorf("invalid DSN port: %w", err)
		}
	}
	if db.Port == 0 {
		db.Port = 5432
	}
	if db.Host == "" {
		db.Host = "localhost"
	}

	return db, nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if c.Database.Name == "" {
		errs = append(errs, errors.New("database.name is required"))
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Errorf("database.port %d out of range", c.Database.Port))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not one of text, json", c.Log.Format))
	}
	return errors.Join(errs...)
}
