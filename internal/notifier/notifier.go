// Package notifier hands reminder notifications to the desktop helper
// process that owns the system notification area.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/daytrack/internal/constants"
	"github.com/julianstephens/daytrack/internal/errors"
)

// MessageTypeNotify is the only message type the helper displays
const MessageTypeNotify = "notify"

const requestTimeout = 3 * time.Second

var (
	userConfigDirFunc = os.UserConfigDir
	findProcessFunc   = ps.FindProcess
)

// Message is the payload posted to the helper
type Message struct {
	Type  string            `json:"type"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Tag   string            `json:"tag,omitempty"`
	Data  map[string]string `json:"data,omitempty"`
}

// Notifier posts messages to a running helper
type Notifier struct {
	enabled bool
	client  *http.Client
}

func New(enabled bool) *Notifier {
	return &Notifier{
		enabled: enabled,
		client:  &http.Client{Timeout: requestTimeout},
	}
}

// Notify delivers msg. A disabled notifier or a missing helper yields
// ErrNotificationUnavailable.
func (n *Notifier) Notify(ctx context.Context, msg Message) error {
	if !n.enabled {
		return fmt.Errorf("notifications disabled: %w", errors.ErrNotificationUnavailable)
	}
	if msg.Type == "" {
		msg.Type = MessageTypeNotify
	}
	if msg.Title == "" {
		msg.Title = "Reminder"
	}

	dir, err := HelperConfigDir()
	if err != nil {
		return fmt.Errorf("%v: %w", err, errors.ErrNotificationUnavailable)
	}

	port, secret, err := findHelper(filepath.Join(dir, constants.NotifierLockfileName))
	if err != nil {
		return fmt.Errorf("%v: %w", err, errors.ErrNotificationUnavailable)
	}

	return n.send(ctx, port, secret, msg)
}

// HelperConfigDir returns the directory holding the helper's lockfile. A
// lockfile_dir entry in the helper's settings.json overrides the default.
func HelperConfigDir() (string, error) {
	configDir, err := userConfigDirFunc()
	if err != nil {
		return "", fmt.Errorf("failed to get user config dir: %w", err)
	}

	helperDir := filepath.Join(configDir, constants.NotifierAppIdentifier)

	data, err := os.ReadFile(filepath.Join(helperDir, "settings.json"))
	if err != nil {
		return helperDir, nil
	}
	var store struct {
		Settings struct {
			LockfileDir *string `json:"lockfile_dir"`
		} `json:"settings"`
	}
	if err := json.Unmarshal(data, &store); err == nil {
		if store.Settings.LockfileDir != nil && *store.Settings.LockfileDir != "" {
			return *store.Settings.LockfileDir, nil
		}
	}
	return helperDir, nil
}

// CheckHelper reports whether a helper is running for the lockfile in dir
func CheckHelper(dir string) error {
	_, _, err := findHelper(filepath.Join(dir, constants.NotifierLockfileName))
	return err
}

// findHelper parses a "port|pid|secret" lockfile and checks that the pid
// belongs to the helper
func findHelper(lockfilePath string) (string, string, error) {
	content, err := os.ReadFile(lockfilePath)
	if err != nil {
		return "", "", fmt.Errorf("%s is not running", constants.NotifierAppIdentifier)
	}

	parts := strings.Split(strings.TrimSpace(string(content)), "|")
	if len(parts) != 3 {
		return "", "", fmt.Errorf("lockfile is malformed")
	}

	port := strings.TrimSpace(parts[0])
	if port == "" {
		return "", "", fmt.Errorf("port in lockfile is empty")
	}
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return "", "", fmt.Errorf("invalid port number in lockfile")
	}
	if portNum < 1 || portNum > 65535 {
		return "", "", fmt.Errorf("port number %d is outside valid range (1-65535)", portNum)
	}

	pid, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", "", fmt.Errorf("invalid process ID in lockfile")
	}
	secret := parts[2]
	if strings.TrimSpace(secret) == "" {
		return "", "", fmt.Errorf("secret in lockfile is empty")
	}

	process, err := findProcessFunc(pid)
	if err != nil || process == nil {
		return "", "", fmt.Errorf("%s process not running", constants.NotifierAppIdentifier)
	}
	if !strings.HasPrefix(process.Executable(), constants.NotifierAppIdentifier) {
		return "", "", fmt.Errorf("process with PID %d is not %s (is %s)", pid, constants.NotifierAppIdentifier, process.Executable())
	}

	return port, secret, nil
}

func (n *Notifier) send(ctx context.Context, port, secret string, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("http://127.0.0.1:%s", port)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(constants.NotifierSecretHeader, secret)

	res, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("%v: %w", err, errors.ErrNotificationUnavailable)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}
	detail, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
	return fmt.Errorf("notification failed with status %d: %s", res.StatusCode, string(detail))
}
