package system

import (
	"context"
	"fmt"
	"time"

	"github.com/julianstephens/daytrack/internal/cli"
	"github.com/julianstephens/daytrack/internal/keyring"
	"github.com/julianstephens/daytrack/internal/notifier"
	"github.com/julianstephens/daytrack/internal/storage"
)

type DoctorCmd struct{}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	fmt.Println("Running diagnostics...")
	fmt.Println()

	bg := context.Background()
	hasError := false
	dbReachable := false

	// Check 1: DB reachable
	if err := checkDBReachable(bg, ctx); err != nil {
		fmt.Printf("❌ Database reachable: FAIL\n")
		fmt.Printf("   Error: %v\n", err)
		hasError = true
	} else {
		fmt.Printf("✓ Database reachable: OK\n")
		dbReachable = true
	}

	// Check 2: Schema version current
	if dbReachable {
		if err := checkSchemaVersion(bg, ctx); err != nil {
			fmt.Printf("❌ Schema version: FAIL\n")
			fmt.Printf("   Error: %v\n", err)
			hasError = true
		} else {
			fmt.Printf("✓ Schema version: OK\n")
		}
	} else {
		fmt.Printf("⊘ Schema version: SKIPPED (database not reachable)\n")
	}

	// Check 3: Snapshot backends
	if err := checkSnapshots(ctx); err != nil {
		fmt.Printf("⚠ Snapshot mirror: WARNING\n")
		fmt.Printf("   %v\n", err)
	} else {
		fmt.Printf("✓ Snapshot storage: OK (%s)\n", ctx.Backends.Blob.Path())
	}

	// Check 4: Backups present (warning only)
	if err := checkBackupsPresent(ctx); err != nil {
		fmt.Printf("⚠ Backups present: WARNING\n")
		fmt.Printf("   %v\n", err)
	} else {
		fmt.Printf("✓ Backups present: OK\n")
	}

	// Check 5: Validation passes (only if DB is reachable)
	if dbReachable {
		result := validateStore(ctx)
		if result.HasConflicts() {
			fmt.Printf("❌ Data validation: FAIL\n")
			for _, c := range result.Conflicts {
				fmt.Printf("   - %s\n", c.Description)
			}
			hasError = true
		} else {
			fmt.Printf("✓ Data validation: OK\n")
		}
	} else {
		fmt.Printf("⊘ Data validation: SKIPPED (database not reachable)\n")
	}

	// Check 6: Notification helper (warning only)
	if !ctx.Config.Notify.Enabled {
		fmt.Printf("⊘ Notification helper: SKIPPED (disabled in config)\n")
	} else if err := checkNotifier(); err != nil {
		fmt.Printf("⚠ Notification helper: WARNING\n")
		fmt.Printf("   %v\n", err)
	} else {
		fmt.Printf("✓ Notification helper: OK\n")
	}

	// Check 7: Keyring (informational)
	if keyring.IsAvailable() {
		fmt.Printf("✓ OS keyring: OK\n")
	} else {
		fmt.Printf("⊘ OS keyring: unavailable (backup passphrases must come from the environment or a prompt)\n")
	}

	// Check 8: Clock/timezone sanity
	if err := checkClockTimezone(ctx.Now()); err != nil {
		fmt.Printf("❌ Clock/timezone: FAIL\n")
		fmt.Printf("   Error: %v\n", err)
		hasError = true
	} else {
		fmt.Printf("✓ Clock/timezone: OK\n")
	}

	fmt.Println()
	if hasError {
		fmt.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	fmt.Println("All diagnostics passed!")
	return nil
}

func checkDBReachable(bg context.Context, ctx *cli.Context) error {
	if _, err := ctx.Engine.SchemaVersion(bg); err != nil {
		return fmt.Errorf("failed to query database: %w", err)
	}
	return nil
}

func checkSchemaVersion(bg context.Context, ctx *cli.Context) error {
	current, err := ctx.Engine.SchemaVersion(bg)
	if err != nil {
		return err
	}
	latest, err := storage.LatestSchemaVersion()
	if err != nil {
		return err
	}
	return compareSchema(current, latest)
}

func compareSchema(current, latest int) error {
	switch {
	case current > latest:
		return fmt.Errorf("database schema version (%d) is newer than this build supports (%d); upgrade daytrack", current, latest)
	case current < latest:
		return fmt.Errorf("database schema version (%d) is behind the latest version (%d)", current, latest)
	}
	return nil
}

func checkSnapshots(ctx *cli.Context) error {
	if !ctx.Store.Settings().OPFSEnabled {
		return nil
	}
	if !ctx.Backends.FS.Available() {
		return fmt.Errorf("mirroring is enabled but %s is not writable", ctx.Backends.FS.Dir())
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	backups, err := ctx.Backups().List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found in %s (run 'daytrack backup create')", ctx.Backups().Dir())
	}
	return nil
}

func checkNotifier() error {
	dir, err := notifier.HelperConfigDir()
	if err != nil {
		return err
	}
	if err := notifier.CheckHelper(dir); err != nil {
		return fmt.Errorf("desktop notifications will be skipped: %w", err)
	}
	return nil
}

func checkClockTimezone(now time.Time) error {
	if now.Location() == nil {
		return fmt.Errorf("timezone not set")
	}
	if now.Year() < 2020 {
		return fmt.Errorf("system clock appears to be wrong (year %d)", now.Year())
	}
	return nil
}
