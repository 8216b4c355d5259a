package constants

import "time"

const (
	AppName           = "daytrack"
	Version           = "v0.3.0"
	DefaultConfigPath = "~/.config/daytrack/config.yaml"
	DefaultDataDir    = "~/.local/share/daytrack"

	// DateFormat is the date layout used for due dates (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the wall-clock layout used for due times (HH:MM)
	TimeFormat = "15:04"

	// Snapshot storage
	BlobStoreFileName = "blobs.db"
	BlobSnapshotKey   = "main"
	SnapshotDirName   = "snapshots"
	SnapshotFileName  = "daytrack.sqlite"

	// Backup constants
	BackupDirName         = "backups"
	BackupFilePrefix      = "daytrack-"
	BackupFileSuffix      = ".sqlite"
	EncryptedBackupSuffix = ".ydt"
	DefaultBackupKeep     = 14

	// FallbackCategoryID receives tasks whose category is deleted
	FallbackCategoryID = "personal"

	// Reminder scheduling
	ReminderPollSpec = "@every 5s"
	SnoozeDuration   = 5 * time.Minute

	// Notification helper
	NotifierAppIdentifier = "daytrack-notify"
	NotifierLockfileName  = "daytrack-notify.lock"
	NotifierSecretHeader  = "X-Daytrack-Secret"

	// Keyring
	KeyringBackupUser = "backup-passphrase"
)
