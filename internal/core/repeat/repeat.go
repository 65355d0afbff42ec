// Package repeat advances a task's due date according to its repeat rule.
// All calculations are pure and interpret timestamps as local calendar
// dates with an attached time-of-day.
package repeat

import (
	"time"

	"github.com/Tioit-Wang/fk.todo/internal/core/task"
)

// NextDueTimestamp returns the epoch-second due time that follows dueAt
// under the given rule. It never fails: an unrepresentable dueAt falls
// back to the current time.
func NextDueTimestamp(dueAt int64, rule task.RepeatRule) int64 {
	return nextDueIn(dueAt, rule, time.Local, time.Now())
}

// nextDueIn is the location- and clock-injected core, used by tests to stay
// independent of the host timezone.
func nextDueIn(dueAt int64, rule task.RepeatRule, loc *time.Location, now time.Time) int64 {
	base := time.Unix(dueAt, 0).In(loc)
	if base.Year() < 1 || base.Year() > 9999 {
		base = now.In(loc)
	}

	baseDate := base
	var nextDate time.Time
	switch rule.Type {
	case task.RepeatNone:
		// The scheduler never advances a non-repeating task; keep the date.
		nextDate = baseDate
	case task.RepeatDaily:
		nextDate = nextWorkday(baseDate, rule.WorkdayOnly)
	case task.RepeatWeekly:
		nextDate = nextWeekday(baseDate, rule.Days)
	case task.RepeatMonthly:
		nextDate = nextMonthDay(baseDate, rule.Day)
	case task.RepeatYearly:
		nextDate = nextYearDay(baseDate, rule.Month, rule.Day)
	default:
		nextDate = baseDate
	}

	resolved := resolveLocal(
		nextDate.Year(), nextDate.Month(), nextDate.Day(),
		base.Hour(), base.Minute(), base.Second(),
		loc, base,
	)
	return resolved.Unix()
}

func nextWorkday(date time.Time, workdayOnly bool) time.Time {
	next := date.AddDate(0, 0, 1)
	if !workdayOnly {
		return next
	}
	for next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func nextWeekday(date time.Time, days []int) time.Time {
	// Out-of-range entries can never match a weekday; dropping them up
	// front keeps the scan bounded.
	valid := make(map[int]bool, len(days))
	for _, day := range days {
		if day >= 1 && day <= 7 {
			valid[day] = true
		}
	}
	if len(valid) == 0 {
		return date.AddDate(0, 0, 7)
	}
	for offset := 1; ; offset++ {
		candidate := date.AddDate(0, 0, offset)
		if valid[isoWeekday(candidate.Weekday())] {
			return candidate
		}
	}
}

// isoWeekday maps Go's Sunday=0 convention to Monday=1..Sunday=7.
func isoWeekday(d time.Weekday) int {
	if d == time.Sunday {
		return 7
	}
	return int(d)
}

func nextMonthDay(date time.Time, day int) time.Time {
	year, month := date.Year(), int(date.Month())
	month++
	if month > 12 {
		month = 1
		year++
	}
	return clampedDate(date, year, month, day)
}

func nextYearDay(date time.Time, month, day int) time.Time {
	year := date.Year() + 1
	month = min(12, max(1, month))
	return clampedDate(date, year, month, day)
}

func clampedDate(fallback time.Time, year, month, day int) time.Time {
	last := lastDayOfMonth(year, month, fallback.Location())
	useDay := min(max(1, day), last)
	return time.Date(year, time.Month(month), useDay, 0, 0, 0, 0, fallback.Location())
}

func lastDayOfMonth(year, month int, loc *time.Location) int {
	firstNext := time.Date(year, time.Month(month)+1, 1, 0, 0, 0, 0, loc)
	return firstNext.AddDate(0, 0, -1).Day()
}

// resolveLocal turns a naive local date + time-of-day into a concrete
// instant. A time inside a DST spring-forward gap shifts forward one hour
// and retries; an ambiguous fall-back time resolves to the earlier instant.
// If even the shifted time does not exist, fallback is returned.
func resolveLocal(year int, month time.Month, day, hour, minute, sec int, loc *time.Location, fallback time.Time) time.Time {
	if t, ok := lookupLocal(year, month, day, hour, minute, sec, loc); ok {
		return t
	}
	if t, ok := lookupLocal(year, month, day, hour+1, minute, sec, loc); ok {
		return t
	}
	return fallback
}

// lookupLocal reports whether the naive local time exists in loc and, when
// it does, the earliest instant carrying that wall clock.
func lookupLocal(year int, month time.Month, day, hour, minute, sec int, loc *time.Location) (time.Time, bool) {
	t := time.Date(year, month, day, hour, minute, sec, 0, loc)

	// time.Date normalizes nonexistent wall clocks to a different one.
	if t.Hour() != hour%24 || t.Minute() != minute || t.Second() != sec {
		return time.Time{}, false
	}

	// A fall-back transition yields two instants with the same wall clock,
	// one DST hour apart. Prefer the earlier.
	if earlier := t.Add(-time.Hour); earlier.Hour() == t.Hour() &&
		earlier.Minute() == t.Minute() &&
		earlier.Second() == t.Second() &&
		earlier.Day() == t.Day() {
		return earlier, true
	}
	return t, true
}
