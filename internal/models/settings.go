package models

import (
	"fmt"

	"github.com/julianstephens/daytrack/internal/constants"
)

type ReminderSound string

const (
	SoundBeep  ReminderSound = "beep"
	SoundChime ReminderSound = "chime"
	SoundNone  ReminderSound = "none"
)

// Settings represents application-wide settings
type Settings struct {
	OPFSEnabled         bool          `json:"opfs_enabled"` // mirror snapshots to the private snapshot directory
	DefaultPriority     Priority      `json:"default_priority"`
	DefaultCategoryID   string        `json:"default_category_id"`
	Use24h              bool          `json:"use_24h"`
	DefaultReminderType ReminderType  `json:"default_reminder_type"`
	ReminderSound       ReminderSound `json:"reminder_sound"`
}

// DefaultSettings returns the settings a fresh database is seeded with.
func DefaultSettings() Settings {
	s, _ := SettingsFromMap(constants.DefaultSettings)
	return s
}

// SettingsFromMap coerces stored string values into typed settings. Missing
// or invalid keys keep their default values; the first problem is returned.
func SettingsFromMap(m map[string]string) (Settings, error) {
	s := Settings{
		OPFSEnabled:         true,
		DefaultPriority:     PriorityMedium,
		DefaultCategoryID:   constants.DefaultCategoryID,
		DefaultReminderType: ReminderNone,
		ReminderSound:       SoundBeep,
	}
	var firstErr error
	for k, v := range m {
		if err := s.Set(k, v); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return s, firstErr
}

// Set assigns a single settings key from its string form. Boolean keys accept
// only "true" and "false".
func (s *Settings) Set(key, value string) error {
	switch key {
	case constants.SettingOPFSEnabled:
		b, err := parseBool(key, value)
		if err != nil {
			return err
		}
		s.OPFSEnabled = b
	case constants.SettingUse24h:
		b, err := parseBool(key, value)
		if err != nil {
			return err
		}
		s.Use24h = b
	case constants.SettingDefaultPriority:
		if !ValidPriority(Priority(value)) {
			return fmt.Errorf("invalid priority %q", value)
		}
		s.DefaultPriority = Priority(value)
	case constants.SettingDefaultCategoryID:
		if value == "" {
			return fmt.Errorf("default category cannot be empty")
		}
		s.DefaultCategoryID = value
	case constants.SettingDefaultReminderType:
		if !ValidReminderType(ReminderType(value)) {
			return fmt.Errorf("invalid reminder type %q", value)
		}
		s.DefaultReminderType = ReminderType(value)
	case constants.SettingReminderSound:
		switch ReminderSound(value) {
		case SoundBeep, SoundChime, SoundNone:
			s.ReminderSound = ReminderSound(value)
		default:
			return fmt.Errorf("invalid reminder sound %q", value)
		}
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}

// Get returns the stored string form of a settings key.
func (s Settings) Get(key string) (string, bool) {
	switch key {
	case constants.SettingOPFSEnabled:
		return fmt.Sprintf("%t", s.OPFSEnabled), true
	case constants.SettingUse24h:
		return fmt.Sprintf("%t", s.Use24h), true
	case constants.SettingDefaultPriority:
		return string(s.DefaultPriority), true
	case constants.SettingDefaultCategoryID:
		return s.DefaultCategoryID, true
	case constants.SettingDefaultReminderType:
		return string(s.DefaultReminderType), true
	case constants.SettingReminderSound:
		return string(s.ReminderSound), true
	}
	return "", false
}

func parseBool(key, value string) (bool, error) {
	switch value {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, fmt.Errorf("setting %s expects true or false, got %q", key, value)
}
