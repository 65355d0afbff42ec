package task

import "strings"

// BackupSchedule selects how often a save may trigger an automatic backup.
// Periods are calendar boundaries, not elapsed durations: "daily" means at
// least one backup per calendar day.
type BackupSchedule string

const (
	BackupNone    BackupSchedule = "none"
	BackupDaily   BackupSchedule = "daily"
	BackupWeekly  BackupSchedule = "weekly"
	BackupMonthly BackupSchedule = "monthly"
)

// Settings holds the persisted user settings document.
type Settings struct {
	Theme        string `json:"theme"`
	Language     string `json:"language"`
	SoundEnabled bool   `json:"sound_enabled"`

	BackupSchedule BackupSchedule `json:"backup_schedule"`
	LastBackupAt   *int64         `json:"last_backup_at"`

	// ReminderRepeatIntervalSec is the cadence for repeating normal
	// reminders; 0 disables repeating.
	ReminderRepeatIntervalSec int64 `json:"reminder_repeat_interval_sec"`
	// ReminderRepeatMaxTimes caps fires of a repeating reminder; 0 means
	// unlimited.
	ReminderRepeatMaxTimes int64 `json:"reminder_repeat_max_times"`
}

// DefaultSettings returns the first-run settings.
func DefaultSettings() Settings {
	return Settings{
		Theme:          "light",
		Language:       "auto",
		SoundEnabled:   true,
		BackupSchedule: BackupDaily,
	}
}

// Clone returns a deep copy of the settings.
func (s Settings) Clone() Settings {
	out := s
	out.LastBackupAt = cloneInt64(s.LastBackupAt)
	return out
}

// Normalize repairs a potentially user-edited settings document in place.
// It returns true when anything changed so the caller can re-persist.
func (s *Settings) Normalize() bool {
	dirty := false

	lang := strings.ToLower(strings.TrimSpace(s.Language))
	switch lang {
	case "auto", "zh", "en":
	default:
		lang = DefaultSettings().Language
	}
	if lang != s.Language {
		s.Language = lang
		dirty = true
	}

	switch s.BackupSchedule {
	case BackupNone, BackupDaily, BackupWeekly, BackupMonthly:
	default:
		s.BackupSchedule = DefaultSettings().BackupSchedule
		dirty = true
	}

	if s.ReminderRepeatIntervalSec < 0 {
		s.ReminderRepeatIntervalSec = 0
		dirty = true
	}
	if s.ReminderRepeatMaxTimes < 0 {
		s.ReminderRepeatMaxTimes = 0
		dirty = true
	}

	return dirty
}
