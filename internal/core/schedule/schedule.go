// Package schedule decides, for a given instant, which tasks must fire a
// reminder. It is pure: callers own the side effects (marking fired,
// persisting, notifying).
package schedule

import (
	"math"
	"slices"

	"github.com/Tioit-Wang/fk.todo/internal/core/task"
)

// normalLeadSeconds is how far before the due time a normal reminder
// targets by default.
const normalLeadSeconds = 10 * 60

// CollectDueTasks returns the tasks whose reminder must fire at now,
// ordered important-first then by due time. Tasks that are completed, have
// no reminder, or are dismissed forced reminders are never returned.
func CollectDueTasks(tasks []task.Task, settings task.Settings, now int64) []task.Task {
	repeatInterval := max(settings.ReminderRepeatIntervalSec, 0)
	repeatMaxTimes := settings.ReminderRepeatMaxTimes

	var due []task.Task
	for _, t := range tasks {
		if t.Completed {
			continue
		}
		reminder := t.Reminder
		if reminder.Kind == task.ReminderNone {
			continue
		}
		if reminder.Kind == task.ReminderForced && reminder.ForcedDismissed {
			continue
		}

		// Kind is normal or forced from here on.
		defaultTarget := t.DueAt
		if reminder.Kind == task.ReminderNormal {
			defaultTarget = t.DueAt - normalLeadSeconds
		}
		targetTime := defaultTarget
		switch {
		case reminder.SnoozedUntil != nil:
			targetTime = *reminder.SnoozedUntil
		case reminder.RemindAt != nil:
			targetTime = *reminder.RemindAt
		}

		// Only normal reminders repeat. A forced reminder fires once and
		// stays pending until dismissed.
		effectiveInterval := int64(0)
		if reminder.Kind == task.ReminderNormal {
			effectiveInterval = repeatInterval
		}

		if effectiveInterval <= 0 {
			// Single-shot: last_fired_at de-dupes a given target_time, so
			// moving the target (edit, snooze) re-arms firing.
			alreadyFired := reminder.LastFiredAt != nil && *reminder.LastFiredAt >= targetTime
			if !alreadyFired && now >= targetTime {
				due = append(due, t.Clone())
			}
			continue
		}

		firedCount := max(reminder.RepeatFiredCount, 0)
		if repeatMaxTimes > 0 && firedCount >= repeatMaxTimes {
			continue
		}

		lastFired := int64(math.MinInt64)
		if reminder.LastFiredAt != nil {
			lastFired = *reminder.LastFiredAt
		}

		var nextTarget int64
		switch {
		case reminder.SnoozedUntil != nil && *reminder.SnoozedUntil > lastFired:
			// Snooze always wins while it is later than the last fire.
			nextTarget = *reminder.SnoozedUntil
		case reminder.LastFiredAt != nil:
			nextTarget = saturatingAdd(*reminder.LastFiredAt, effectiveInterval)
		default:
			nextTarget = targetTime
		}

		if now >= nextTarget {
			due = append(due, t.Clone())
		}
	}

	slices.SortStableFunc(due, func(a, b task.Task) int {
		if a.Important != b.Important {
			if a.Important {
				return -1
			}
			return 1
		}
		switch {
		case a.DueAt < b.DueAt:
			return -1
		case a.DueAt > b.DueAt:
			return 1
		default:
			return 0
		}
	})
	return due
}

func saturatingAdd(a, b int64) int64 {
	sum := a + b
	if b > 0 && sum < a {
		return math.MaxInt64
	}
	if b < 0 && sum > a {
		return math.MinInt64
	}
	return sum
}
