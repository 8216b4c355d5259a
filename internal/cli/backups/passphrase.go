package backups

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/daytrack/internal/keyring"
	"github.com/julianstephens/daytrack/internal/logger"
)

const passphraseEnv = "DAYTRACK_BACKUP_PASSPHRASE"

// promptFunc asks the user for a passphrase; replaced in tests
var promptFunc = prompt

// PassphraseFlags are shared by every command that may encrypt or decrypt
type PassphraseFlags struct {
	Remember  bool `help:"Store the passphrase in the OS keyring after use."`
	NoKeyring bool `help:"Do not read the passphrase from the OS keyring."`
}

// resolve returns the backup passphrase from the environment, the OS
// keyring or an interactive prompt, in that order. confirm asks twice when
// prompting for a new passphrase.
func (f PassphraseFlags) resolve(confirm bool) (string, error) {
	if pass := os.Getenv(passphraseEnv); pass != "" {
		return pass, nil
	}
	if !f.NoKeyring {
		pass, err := keyring.GetPassphrase()
		switch {
		case err == nil:
			return pass, nil
		case stderrors.Is(err, keyring.ErrNotFound):
		default:
			logger.Debug("Keyring lookup failed", "error", err)
		}
	}
	return promptFunc(confirm)
}

// remember stores pass in the keyring when requested. Failure is reported
// but never fails the command.
func (f PassphraseFlags) remember(pass string) {
	if !f.Remember {
		return
	}
	if err := keyring.SetPassphrase(pass); err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Could not store passphrase in keyring: %v\n", err)
		return
	}
	fmt.Println("  Passphrase stored in OS keyring")
}

func prompt(confirm bool) (string, error) {
	var pass, again string

	fields := []huh.Field{
		huh.NewInput().
			Title("Backup passphrase").
			EchoMode(huh.EchoModePassword).
			Value(&pass).
			Validate(func(s string) error {
				if s == "" {
					return fmt.Errorf("passphrase cannot be empty")
				}
				return nil
			}),
	}
	if confirm {
		fields = append(fields, huh.NewInput().
			Title("Confirm passphrase").
			EchoMode(huh.EchoModePassword).
			Value(&again).
			Validate(func(s string) error {
				if s != pass {
					return fmt.Errorf("passphrases do not match")
				}
				return nil
			}))
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return "", fmt.Errorf("passphrase prompt cancelled: %w", err)
	}
	return pass, nil
}
