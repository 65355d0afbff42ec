package task

// ReminderKind selects how a reminder surfaces to the user.
type ReminderKind string

const (
	// ReminderNone disables reminders for the task.
	ReminderNone ReminderKind = "none"
	// ReminderNormal is a soft reminder; it may repeat on a fixed cadence.
	ReminderNormal ReminderKind = "normal"
	// ReminderForced blocks the UI until dismissed; it never repeats.
	ReminderForced ReminderKind = "forced"
)

// ReminderConfig holds the reminder state for a single task.
type ReminderConfig struct {
	Kind ReminderKind `json:"kind"`
	// RemindAt overrides the computed default target time when set.
	RemindAt *int64 `json:"remind_at"`
	// SnoozedUntil always wins over RemindAt and the default target while
	// it is relevant.
	SnoozedUntil *int64 `json:"snoozed_until"`
	// ForcedDismissed permanently silences a forced reminder.
	ForcedDismissed bool `json:"forced_dismissed"`
	// LastFiredAt is the instant the reminder last fired.
	LastFiredAt *int64 `json:"last_fired_at"`
	// RepeatFiredCount counts fires of a repeating reminder; never negative.
	RepeatFiredCount int64 `json:"repeat_fired_count"`
}

// DefaultReminderConfig returns the zero reminder: kind none, nothing set.
func DefaultReminderConfig() ReminderConfig {
	return ReminderConfig{Kind: ReminderNone}
}

// Clone returns a deep copy of the reminder config.
func (r ReminderConfig) Clone() ReminderConfig {
	out := r
	out.RemindAt = cloneInt64(r.RemindAt)
	out.SnoozedUntil = cloneInt64(r.SnoozedUntil)
	out.LastFiredAt = cloneInt64(r.LastFiredAt)
	return out
}
