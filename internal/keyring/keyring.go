// Package keyring remembers the backup passphrase in the OS keyring.
package keyring

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/daytrack/internal/constants"
)

var (
	// ErrNotFound is returned when no passphrase is stored
	ErrNotFound = errors.New("passphrase not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// GetPassphrase retrieves the stored backup passphrase
func GetPassphrase() (string, error) {
	pass, err := keyring.Get(constants.AppName, constants.KeyringBackupUser)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return pass, nil
}

// SetPassphrase stores the backup passphrase
func SetPassphrase(pass string) error {
	if pass == "" {
		return errors.New("passphrase cannot be empty")
	}
	if err := keyring.Set(constants.AppName, constants.KeyringBackupUser, pass); err != nil {
		return fmt.Errorf("failed to store passphrase in keyring: %w", err)
	}
	return nil
}

// DeletePassphrase forgets the stored backup passphrase
func DeletePassphrase() error {
	err := keyring.Delete(constants.AppName, constants.KeyringBackupUser)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete passphrase from keyring: %w", err)
	}
	return nil
}

// IsAvailable reports whether the OS keyring answers requests. It is a
// best-effort probe.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "test-availability")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
