package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/julianstephens/daytrack/internal/constants"
)

// Config holds user preferences that live outside the task database
type Config struct {
	DataDir  string `yaml:"data_dir"`  // Directory holding snapshots, backups and logs
	LogLevel string `yaml:"log_level"` // debug, info, warn, error
	Debug    bool   `yaml:"debug"`

	Notify NotifyConfig `yaml:"notify"`
	Sound  SoundConfig  `yaml:"sound"`
	Backup BackupConfig `yaml:"backup"`
}

type NotifyConfig struct {
	Enabled bool `yaml:"enabled"`
}

type SoundConfig struct {
	Enabled bool   `yaml:"enabled"`
	Player  string `yaml:"player"` // external WAV player, e.g. "aplay" or "afplay"; empty rings the terminal bell
}

type BackupConfig struct {
	Keep int `yaml:"keep"`
}

// DefaultConfig returns default settings
func DefaultConfig() *Config {
	return &Config{
		DataDir:  constants.DefaultDataDir,
		LogLevel: "warn",
		Notify:   NotifyConfig{Enabled: true},
		Sound:    SoundConfig{Enabled: true},
		Backup:   BackupConfig{Keep: constants.DefaultBackupKeep},
	}
}

// Load reads the YAML config at path. A missing file yields defaults.
// Environment variables override file values.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	path, err := ExpandHome(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnv()

	cfg.DataDir, err = ExpandHome(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	if cfg.Backup.Keep <= 0 {
		cfg.Backup.Keep = constants.DefaultBackupKeep
	}
	return cfg, nil
}

// Save writes the config as YAML to path
func (c *Config) Save(path string) error {
	path, err := ExpandHome(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DAYTRACK_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("DAYTRACK_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("DAYTRACK_DEBUG"); v != "" {
		c.Debug = v == "1" || strings.EqualFold(v, "true")
	}
}

// ExpandHome replaces a leading "~" with the user's home directory
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
