package errors

import (
	"errors"
	"fmt"
	"os"

	"github.com/julianstephens/daytrack/internal/logger"
)

var (
	// ErrStorageUnavailable is returned when a storage backend cannot be used
	// in the current environment. Callers degrade to the remaining backend.
	ErrStorageUnavailable = errors.New("storage backend unavailable")
	// ErrCorruptSnapshot is returned when bytes do not parse as a database
	// snapshot or fail the encrypted container checks.
	ErrCorruptSnapshot = errors.New("corrupt or invalid snapshot")
	// ErrInvariantViolation is returned when an operation would break a data
	// invariant, such as deleting the last category. The operation is a no-op.
	ErrInvariantViolation = errors.New("operation rejected")
	// ErrNotificationUnavailable is returned when no notification channel is
	// reachable.
	ErrNotificationUnavailable = errors.New("notifications unavailable")
	// ErrNotFound is returned when an entity id is unknown.
	ErrNotFound = errors.New("not found")
)

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}
