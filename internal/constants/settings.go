package constants

// Settings keys as stored in the settings table
const (
	SettingOPFSEnabled         = "opfsEnabled"
	SettingDefaultPriority     = "defaultPriority"
	SettingDefaultCategoryID   = "defaultCategoryId"
	SettingUse24h              = "use24h"
	SettingDefaultReminderType = "defaultReminderType"
	SettingReminderSound       = "reminderSound"
)

// Default settings values
const (
	DefaultOPFSEnabled   = "true"
	DefaultPriority      = "medium"
	DefaultCategoryID    = "personal"
	DefaultUse24h        = "false"
	DefaultReminderType  = "none"
	DefaultReminderSound = "beep"
)

// SettingKeys lists every persisted settings key in display order.
var SettingKeys = []string{
	SettingOPFSEnabled,
	SettingDefaultPriority,
	SettingDefaultCategoryID,
	SettingUse24h,
	SettingDefaultReminderType,
	SettingReminderSound,
}

// DefaultSettings maps each settings key to its seed value.
var DefaultSettings = map[string]string{
	SettingOPFSEnabled:         DefaultOPFSEnabled,
	SettingDefaultPriority:     DefaultPriority,
	SettingDefaultCategoryID:   DefaultCategoryID,
	SettingUse24h:              DefaultUse24h,
	SettingDefaultReminderType: DefaultReminderType,
	SettingReminderSound:       DefaultReminderSound,
}
