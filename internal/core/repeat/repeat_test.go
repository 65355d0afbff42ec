package repeat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tioit-Wang/fk.todo/internal/core/task"
)

func localStamp(year int, month time.Month, day, hour, minute int) int64 {
	return time.Date(year, month, day, hour, minute, 0, 0, time.Local).Unix()
}

func asLocal(ts int64) time.Time {
	return time.Unix(ts, 0).In(time.Local)
}

func TestNextDueTimestamp_Daily(t *testing.T) {
	t.Run("plain daily advances one day", func(t *testing.T) {
		due := localStamp(2024, time.January, 5, 10, 0)
		next := NextDueTimestamp(due, task.RepeatRule{Type: task.RepeatDaily})

		got := asLocal(next)
		assert.Equal(t, time.Date(2024, time.January, 6, 10, 0, 0, 0, time.Local), got)
	})

	t.Run("workday only skips weekend from friday to monday", func(t *testing.T) {
		// 2024-01-05 is a Friday.
		due := localStamp(2024, time.January, 5, 10, 0)
		next := NextDueTimestamp(due, task.RepeatRule{Type: task.RepeatDaily, WorkdayOnly: true})

		got := asLocal(next)
		assert.Equal(t, time.Date(2024, time.January, 8, 10, 0, 0, 0, time.Local), got)
		assert.Equal(t, time.Monday, got.Weekday())
	})

	t.Run("workday only never lands on a weekend", func(t *testing.T) {
		due := localStamp(2024, time.March, 1, 9, 30)
		rule := task.RepeatRule{Type: task.RepeatDaily, WorkdayOnly: true}
		for n := 0; n < 30; n++ {
			due = NextDueTimestamp(due, rule)
			weekday := asLocal(due).Weekday()
			require.NotEqual(t, time.Saturday, weekday)
			require.NotEqual(t, time.Sunday, weekday)
		}
	})
}

func TestNextDueTimestamp_Weekly(t *testing.T) {
	t.Run("picks the earliest strictly later weekday in the set", func(t *testing.T) {
		// 2024-01-03 is a Wednesday; days {1,4} = Monday, Thursday.
		due := localStamp(2024, time.January, 3, 8, 0)
		next := NextDueTimestamp(due, task.RepeatRule{Type: task.RepeatWeekly, Days: []int{1, 4}})

		got := asLocal(next)
		assert.Equal(t, time.Date(2024, time.January, 4, 8, 0, 0, 0, time.Local), got)
	})

	t.Run("same weekday in set lands one week later", func(t *testing.T) {
		// 2024-01-01 is a Monday.
		due := localStamp(2024, time.January, 1, 8, 0)
		next := NextDueTimestamp(due, task.RepeatRule{Type: task.RepeatWeekly, Days: []int{1}})

		assert.Equal(t, time.Date(2024, time.January, 8, 8, 0, 0, 0, time.Local), asLocal(next))
	})

	t.Run("empty set defaults to plus seven days", func(t *testing.T) {
		due := localStamp(2024, time.January, 3, 8, 0)
		next := NextDueTimestamp(due, task.RepeatRule{Type: task.RepeatWeekly})

		assert.Equal(t, time.Date(2024, time.January, 10, 8, 0, 0, 0, time.Local), asLocal(next))
	})

	t.Run("out of range entries are ignored", func(t *testing.T) {
		due := localStamp(2024, time.January, 3, 8, 0)
		next := NextDueTimestamp(due, task.RepeatRule{Type: task.RepeatWeekly, Days: []int{0, 9}})

		assert.Equal(t, time.Date(2024, time.January, 10, 8, 0, 0, 0, time.Local), asLocal(next))
	})
}

func TestNextDueTimestamp_Monthly(t *testing.T) {
	t.Run("clamps day 31 to february leap day", func(t *testing.T) {
		due := localStamp(2024, time.January, 31, 9, 0)
		next := NextDueTimestamp(due, task.RepeatRule{Type: task.RepeatMonthly, Day: 31})

		assert.Equal(t, time.Date(2024, time.February, 29, 9, 0, 0, 0, time.Local), asLocal(next))
	})

	t.Run("clamps day 31 to february 28 outside leap years", func(t *testing.T) {
		due := localStamp(2023, time.January, 15, 9, 0)
		next := NextDueTimestamp(due, task.RepeatRule{Type: task.RepeatMonthly, Day: 31})

		assert.Equal(t, time.Date(2023, time.February, 28, 9, 0, 0, 0, time.Local), asLocal(next))
	})

	t.Run("rolls the year forward from december", func(t *testing.T) {
		due := localStamp(2024, time.December, 10, 18, 15)
		next := NextDueTimestamp(due, task.RepeatRule{Type: task.RepeatMonthly, Day: 10})

		assert.Equal(t, time.Date(2025, time.January, 10, 18, 15, 0, 0, time.Local), asLocal(next))
	})

	t.Run("day below one clamps to the first", func(t *testing.T) {
		due := localStamp(2024, time.May, 20, 7, 0)
		next := NextDueTimestamp(due, task.RepeatRule{Type: task.RepeatMonthly, Day: 0})

		assert.Equal(t, time.Date(2024, time.June, 1, 7, 0, 0, 0, time.Local), asLocal(next))
	})
}

func TestNextDueTimestamp_Yearly(t *testing.T) {
	t.Run("advances one year and clamps month and day", func(t *testing.T) {
		due := localStamp(2024, time.February, 29, 12, 0)
		next := NextDueTimestamp(due, task.RepeatRule{Type: task.RepeatYearly, Month: 2, Day: 29})

		// 2025 is not a leap year.
		assert.Equal(t, time.Date(2025, time.February, 28, 12, 0, 0, 0, time.Local), asLocal(next))
	})

	t.Run("month out of range clamps into the calendar", func(t *testing.T) {
		due := localStamp(2024, time.June, 1, 6, 0)
		next := NextDueTimestamp(due, task.RepeatRule{Type: task.RepeatYearly, Month: 13, Day: 40})

		assert.Equal(t, time.Date(2025, time.December, 31, 6, 0, 0, 0, time.Local), asLocal(next))
	})
}

func TestNextDueTimestamp_None(t *testing.T) {
	due := localStamp(2024, time.April, 2, 11, 45)
	next := NextDueTimestamp(due, task.NoRepeat())

	assert.Equal(t, due, next)
}

func TestNextDueTimestamp_PreservesTimeOfDay(t *testing.T) {
	due := localStamp(2024, time.July, 4, 23, 59)
	next := NextDueTimestamp(due, task.RepeatRule{Type: task.RepeatDaily})

	got := asLocal(next)
	assert.Equal(t, 23, got.Hour())
	assert.Equal(t, 59, got.Minute())
}

func TestNextDueTimestamp_UnrepresentableFallsBackToNow(t *testing.T) {
	now := time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)
	next := nextDueIn(int64(1)<<62, task.RepeatRule{Type: task.RepeatDaily}, time.UTC, now)

	assert.Equal(t, time.Date(2024, time.June, 2, 10, 0, 0, 0, time.UTC).Unix(), next)
}

func TestNextDueTimestamp_DST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	now := time.Date(2024, time.January, 1, 0, 0, 0, 0, ny)

	t.Run("spring forward gap shifts one hour later", func(t *testing.T) {
		// 2024-03-10 02:30 does not exist in New York; daily repeat from
		// 03-09 02:30 must land on 03:30.
		due := time.Date(2024, time.March, 9, 2, 30, 0, 0, ny).Unix()
		next := nextDueIn(due, task.RepeatRule{Type: task.RepeatDaily}, ny, now)

		got := time.Unix(next, 0).In(ny)
		assert.Equal(t, time.Date(2024, time.March, 10, 3, 30, 0, 0, ny), got)
	})

	t.Run("fall back ambiguity resolves to the earlier instant", func(t *testing.T) {
		// 2024-11-03 01:30 occurs twice in New York (EDT then EST).
		due := time.Date(2024, time.November, 2, 1, 30, 0, 0, ny).Unix()
		next := nextDueIn(due, task.RepeatRule{Type: task.RepeatDaily}, ny, now)

		got := time.Unix(next, 0).In(ny)
		assert.Equal(t, 1, got.Hour())
		assert.Equal(t, 30, got.Minute())
		assert.Equal(t, 3, got.Day())

		// The earlier instant is still on EDT (UTC-4).
		_, offset := got.Zone()
		assert.Equal(t, -4*3600, offset)
	})
}
