package jsonfile

import (
	"time"

	"github.com/Tioit-Wang/fk.todo/internal/core/task"
)

// ShouldAutoBackup reports whether a save must take a backup first.
// The comparison is against calendar boundaries in local time, not elapsed
// durations: "daily" means at least one backup per calendar day, "weekly"
// per ISO week, "monthly" per (year, month).
func ShouldAutoBackup(schedule task.BackupSchedule, lastBackupAt *int64, now time.Time) bool {
	if schedule == task.BackupNone {
		return false
	}
	if lastBackupAt == nil {
		return true
	}

	last := time.Unix(*lastBackupAt, 0).In(now.Location())
	switch schedule {
	case task.BackupDaily:
		return !sameDay(last, now)
	case task.BackupWeekly:
		return !sameISOWeek(last, now)
	case task.BackupMonthly:
		return !sameMonth(last, now)
	default:
		return false
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func sameISOWeek(a, b time.Time) bool {
	ay, aw := a.ISOWeek()
	by, bw := b.ISOWeek()
	return ay == by && aw == bw
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}
