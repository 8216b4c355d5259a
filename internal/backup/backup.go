// Package backup writes, rotates and restores snapshot backups, optionally
// sealed in the encrypted container format.
package backup

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/julianstephens/daytrack/internal/constants"
	"github.com/julianstephens/daytrack/internal/logger"
)

// ErrPassphraseRequired is returned when an encrypted backup is read
// without a passphrase
var ErrPassphraseRequired = stderrors.New("backup is encrypted, passphrase required")

const (
	minuteLayout = "20060102-1504"
	secondLayout = "20060102-150405"
)

// Snapshotter exports and imports the full database image
type Snapshotter interface {
	ExportSnapshot(ctx context.Context) ([]byte, error)
	ImportSnapshot(ctx context.Context, data []byte) error
}

// Info describes a backup file
type Info struct {
	Path      string
	Timestamp time.Time
	Size      int64
	Encrypted bool
}

// Manager handles backup operations
type Manager struct {
	engine    Snapshotter
	backupDir string
	keep      int
	now       func() time.Time
}

// NewManager creates a manager storing backups under dataDir. keep <= 0
// uses the default retention.
func NewManager(engine Snapshotter, dataDir string, keep int) *Manager {
	if keep <= 0 {
		keep = constants.DefaultBackupKeep
	}
	return &Manager{
		engine:    engine,
		backupDir: filepath.Join(dataDir, constants.BackupDirName),
		keep:      keep,
		now:       time.Now,
	}
}

// Dir returns the backup directory path
func (m *Manager) Dir() string {
	return m.backupDir
}

// Create writes a backup of the current database. A non-empty passphrase
// encrypts it.
func (m *Manager) Create(ctx context.Context, passphrase string) (string, error) {
	return m.create(ctx, passphrase, false)
}

// create writes a backup; skipRotation keeps the pre-restore safety copy
// from pushing older backups out
func (m *Manager) create(ctx context.Context, passphrase string, skipRotation bool) (string, error) {
	if err := os.MkdirAll(m.backupDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	data, err := m.encode(ctx, passphrase)
	if err != nil {
		return "", err
	}

	path, err := m.uniquePath(passphrase != "")
	if err != nil {
		return "", err
	}
	if err := writeFile(path, data); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	logger.Info("Backup created", "path", path, "encrypted", passphrase != "")

	if !skipRotation {
		if err := m.rotate(); err != nil {
			logger.Warn("Failed to rotate old backups", "error", err)
		}
	}
	return path, nil
}

func (m *Manager) encode(ctx context.Context, passphrase string) ([]byte, error) {
	data, err := m.engine.ExportSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export snapshot: %w", err)
	}
	if passphrase == "" {
		return data, nil
	}
	return Encrypt(data, passphrase)
}

// uniquePath picks a timestamped file name, adding seconds and then a
// counter when a backup of either kind exists for the same stamp
func (m *Manager) uniquePath(encrypted bool) (string, error) {
	suffix := constants.BackupFileSuffix
	if encrypted {
		suffix = constants.EncryptedBackupSuffix + suffix
	}
	now := m.now()

	stamp := now.Format(minuteLayout)
	if !m.stampTaken(stamp) {
		return filepath.Join(m.backupDir, constants.BackupFilePrefix+stamp+suffix), nil
	}

	base := now.Format(secondLayout)
	stamp = base
	for counter := 1; m.stampTaken(stamp); counter++ {
		if counter > 100 {
			return "", fmt.Errorf("failed to generate unique backup filename")
		}
		stamp = fmt.Sprintf("%s-%d", base, counter)
	}
	return filepath.Join(m.backupDir, constants.BackupFilePrefix+stamp+suffix), nil
}

// stampTaken reports whether a plain or encrypted backup uses stamp
func (m *Manager) stampTaken(stamp string) bool {
	name := constants.BackupFilePrefix + stamp
	return exists(filepath.Join(m.backupDir, name+constants.BackupFileSuffix)) ||
		exists(filepath.Join(m.backupDir, name+constants.EncryptedBackupSuffix+constants.BackupFileSuffix))
}

// List returns all backups, newest first
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.backupDir)
	if os.IsNotExist(err) {
		return []Info{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var backups []Info
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ts, encrypted, ok := parseName(entry.Name())
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, Info{
			Path:      filepath.Join(m.backupDir, entry.Name()),
			Timestamp: ts,
			Size:      info.Size(),
			Encrypted: encrypted,
		})
	}

	sort.SliceStable(backups, func(i, j int) bool {
		if backups[i].Timestamp.Equal(backups[j].Timestamp) {
			return backups[i].Path > backups[j].Path
		}
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

// parseName extracts the timestamp from a backup file name. Names carry an
// optional counter after the time and an optional encrypted marker.
func parseName(name string) (time.Time, bool, bool) {
	if !strings.HasPrefix(name, constants.BackupFilePrefix) || !strings.HasSuffix(name, constants.BackupFileSuffix) {
		return time.Time{}, false, false
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, constants.BackupFilePrefix), constants.BackupFileSuffix)
	encrypted := strings.HasSuffix(stamp, constants.EncryptedBackupSuffix)
	stamp = strings.TrimSuffix(stamp, constants.EncryptedBackupSuffix)

	if parts := strings.Split(stamp, "-"); len(parts) > 2 {
		last := parts[len(parts)-1]
		if len(last) != 4 && len(last) != 6 && isDigits(last) {
			stamp = strings.Join(parts[:len(parts)-1], "-")
		}
	}

	if ts, err := time.ParseInLocation(minuteLayout, stamp, time.Local); err == nil {
		return ts, encrypted, true
	}
	if ts, err := time.ParseInLocation(secondLayout, stamp, time.Local); err == nil {
		return ts, encrypted, true
	}
	return time.Time{}, false, false
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return s != ""
}

// rotate removes backups beyond the retention limit
func (m *Manager) rotate() error {
	backups, err := m.List()
	if err != nil {
		return err
	}
	for i := m.keep; i < len(backups); i++ {
		if err := os.Remove(backups[i].Path); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", backups[i].Path, err)
		}
	}
	return nil
}

// Restore replaces the database with a backup. The current database is
// backed up first. Invalid backups leave stored data untouched.
func (m *Manager) Restore(ctx context.Context, path, passphrase string) (string, error) {
	data, err := ReadFile(path, passphrase)
	if err != nil {
		return "", err
	}

	safety, err := m.create(ctx, "", true)
	if err != nil {
		return "", fmt.Errorf("failed to backup current database before restore: %w", err)
	}

	if err := m.engine.ImportSnapshot(ctx, data); err != nil {
		return safety, err
	}
	logger.Info("Backup restored", "path", path, "safety", safety)
	return safety, nil
}

// Export writes the current database to path, encrypted when passphrase is
// non-empty
func (m *Manager) Export(ctx context.Context, path, passphrase string) error {
	data, err := m.encode(ctx, passphrase)
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

// Import loads a snapshot file into the database without a safety backup
func (m *Manager) Import(ctx context.Context, path, passphrase string) error {
	data, err := ReadFile(path, passphrase)
	if err != nil {
		return err
	}
	return m.engine.ImportSnapshot(ctx, data)
}

// ReadFile reads a snapshot file. With no passphrase a plain snapshot is
// returned as-is. A non-empty passphrase asks for decryption, so a file
// without the container header fails instead of being read as plaintext.
func ReadFile(path, passphrase string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup: %w", err)
	}
	if passphrase != "" {
		return Decrypt(data, passphrase)
	}
	if IsEncrypted(data) {
		return nil, ErrPassphraseRequired
	}
	return data, nil
}

// IsEncryptedFile reports whether the file at path is an encrypted container
func IsEncryptedFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	header := make([]byte, len(Magic))
	n, _ := f.Read(header)
	return IsEncrypted(header[:n]), nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// writeFile writes data through a temp file and rename
func writeFile(path string, data []byte) error {
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
