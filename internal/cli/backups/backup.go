package backups

import (
	"context"
	stderrors "errors"
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/julianstephens/daytrack/internal/backup"
	"github.com/julianstephens/daytrack/internal/cli"
	"github.com/julianstephens/daytrack/internal/keyring"
)

type BackupCreateCmd struct {
	PassphraseFlags `embed:""`

	Encrypt bool `short:"e" help:"Encrypt the backup with a passphrase."`
}

func (c *BackupCreateCmd) Run(ctx *cli.Context) error {
	pass := ""
	if c.Encrypt {
		var err error
		if pass, err = c.resolve(true); err != nil {
			return err
		}
	}

	if err := ctx.Store.Flush(context.Background()); err != nil {
		return err
	}
	path, err := ctx.Backups().Create(context.Background(), pass)
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}

	fmt.Println(cli.Success(fmt.Sprintf("Backup created: %s", filepath.Base(path))))
	if c.Encrypt {
		c.remember(pass)
	}
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *cli.Context) error {
	mgr := ctx.Backups()
	backups, err := mgr.List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	if len(backups) == 0 {
		fmt.Println("No backups found.")
		fmt.Printf("Backups are stored in: %s\n", mgr.Dir())
		return nil
	}

	fmt.Printf("Available backups (%d total, keeping most recent %d):\n\n", len(backups), ctx.Config.Backup.Keep)
	for _, b := range backups {
		lock := " "
		if b.Encrypted {
			lock = "🔒"
		}
		fmt.Printf("  %s %s  %-40s %8s  %s\n",
			lock,
			b.Timestamp.Format("2006-01-02 15:04:05"),
			filepath.Base(b.Path),
			humanize.Bytes(uint64(b.Size)),
			cli.MutedStyle.Render(humanize.Time(b.Timestamp)),
		)
	}
	fmt.Printf("\nBackup directory: %s\n", mgr.Dir())
	return nil
}

// resolvePath accepts a path or a file name inside the backup directory
func resolvePath(mgr *backup.Manager, name string) string {
	if filepath.Base(name) == name {
		return filepath.Join(mgr.Dir(), name)
	}
	return name
}

// readPassphrase returns the passphrase needed to read path, or "" when the
// file is not encrypted. With decrypt set the passphrase is always resolved,
// so a file missing the container header is rejected.
func (f PassphraseFlags) readPassphrase(path string, decrypt bool) (string, error) {
	if decrypt {
		return f.resolve(false)
	}
	encrypted, err := backup.IsEncryptedFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to open backup: %w", err)
	}
	if !encrypted {
		return "", nil
	}
	return f.resolve(false)
}

type BackupRestoreCmd struct {
	PassphraseFlags `embed:""`

	File    string `arg:"" help:"Backup file name or path."`
	Decrypt bool   `help:"Require an encrypted backup."`
}

func (c *BackupRestoreCmd) Run(ctx *cli.Context) error {
	mgr := ctx.Backups()
	path := resolvePath(mgr, c.File)

	pass, err := c.readPassphrase(path, c.Decrypt)
	if err != nil {
		return err
	}

	bg := context.Background()
	if err := ctx.Store.Flush(bg); err != nil {
		return err
	}
	safety, err := mgr.Restore(bg, path, pass)
	if err != nil {
		if stderrors.Is(err, backup.ErrPassphraseRequired) {
			return fmt.Errorf("%w (set %s or use the keyring)", err, passphraseEnv)
		}
		return fmt.Errorf("restore failed, existing data was left untouched: %w", err)
	}
	if err := ctx.Store.Reload(bg); err != nil {
		return err
	}

	fmt.Println(cli.Success(fmt.Sprintf("Restored from %s", filepath.Base(path))))
	fmt.Printf("  Previous data saved as %s\n", filepath.Base(safety))
	if pass != "" {
		c.remember(pass)
	}
	return nil
}

type BackupExportCmd struct {
	PassphraseFlags `embed:""`

	Path    string `arg:"" help:"Destination file." type:"path"`
	Encrypt bool   `short:"e" help:"Encrypt the export with a passphrase."`
}

func (c *BackupExportCmd) Run(ctx *cli.Context) error {
	pass := ""
	if c.Encrypt {
		var err error
		if pass, err = c.resolve(true); err != nil {
			return err
		}
	}

	bg := context.Background()
	if err := ctx.Store.Flush(bg); err != nil {
		return err
	}
	if err := ctx.Backups().Export(bg, c.Path, pass); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	fmt.Println(cli.Success(fmt.Sprintf("Database exported to %s", c.Path)))
	if c.Encrypt {
		c.remember(pass)
	}
	return nil
}

type BackupImportCmd struct {
	PassphraseFlags `embed:""`

	Path    string `arg:"" help:"Snapshot file to import." type:"existingfile"`
	Decrypt bool   `help:"Require an encrypted snapshot."`
}

func (c *BackupImportCmd) Run(ctx *cli.Context) error {
	pass, err := c.readPassphrase(c.Path, c.Decrypt)
	if err != nil {
		return err
	}

	bg := context.Background()
	if err := ctx.Store.Flush(bg); err != nil {
		return err
	}
	if err := ctx.Backups().Import(bg, c.Path, pass); err != nil {
		return fmt.Errorf("import failed, existing data was left untouched: %w", err)
	}
	if err := ctx.Store.Reload(bg); err != nil {
		return err
	}
	fmt.Println(cli.Success(fmt.Sprintf("Database imported from %s", c.Path)))
	return nil
}

type BackupForgetCmd struct{}

func (c *BackupForgetCmd) Run(ctx *cli.Context) error {
	if err := keyring.DeletePassphrase(); err != nil {
		if stderrors.Is(err, keyring.ErrNotFound) {
			fmt.Println("No passphrase stored in keyring")
			return nil
		}
		return err
	}
	fmt.Println(cli.Success("Passphrase removed from OS keyring"))
	return nil
}
