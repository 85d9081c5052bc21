package config

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const keyringService = "pgbrowse"

// keyringUser identifies a password entry by user, host, port and database.
func keyringUser(d Database) string {
	return fmt.Sprintf("%s@%s:%d/%s", d.User, d.Host, d.Port, d.Name)
}

// LookupPassword returns the stored password for d, or "" when none is stored.
func LookupPassword(d Database) (string, error) {
	pw, err := keyring.Get(keyringService, keyringUser(d))
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("keyring: %w", err)
	}
	return pw, nil
}

// StorePassword saves d.Password in the OS keyring.
func StorePassword(d Database) error {
	if err := keyring.Set(keyringService, keyringUser(d), d.Password); err != nil {
		return fmt.Errorf("keyring: %w", err)
	}
	return nil
}
