package schedule

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tioit-Wang/fk.todo/internal/core/task"
)

func reminderTask(id string, dueAt int64, important, completed bool, reminder task.ReminderConfig) task.Task {
	return task.Task{
		ID:        id,
		ProjectID: task.InboxProjectID,
		Title:     fmt.Sprintf("task-%s", id),
		DueAt:     dueAt,
		Important: important,
		Completed: completed,
		CreatedAt: 1,
		UpdatedAt: 1,
		SortOrder: 1,
		Quadrant:  1,
		Reminder:  reminder,
		Repeat:    task.NoRepeat(),
	}
}

func ptr(v int64) *int64 { return &v }

func TestCollectDueTasks_FiltersAndSorts(t *testing.T) {
	const now = 1000

	tasks := []task.Task{
		// target = 2000-600 = 1400 => not due.
		reminderTask("not-due-normal", 2000, false, false, task.ReminderConfig{Kind: task.ReminderNormal}),
		// target = 1500-600 = 900 => due, and important sorts first.
		reminderTask("due-important", 1500, true, false, task.ReminderConfig{Kind: task.ReminderNormal}),
		// forced target = due_at = 1100 => not due.
		reminderTask("not-due-forced", 1100, false, false, task.ReminderConfig{Kind: task.ReminderForced}),
		// snooze wins over the forced default target => due.
		reminderTask("due-forced-snoozed", 1100, false, false, task.ReminderConfig{Kind: task.ReminderForced, SnoozedUntil: ptr(900)}),
		reminderTask("completed", 900, false, true, task.ReminderConfig{Kind: task.ReminderNormal}),
		reminderTask("kind-none", 900, false, false, task.DefaultReminderConfig()),
		reminderTask("forced-dismissed", 900, false, false, task.ReminderConfig{Kind: task.ReminderForced, ForcedDismissed: true}),
		// target = 900, already fired at 950 >= 900 => skip.
		reminderTask("already-fired", 1500, false, false, task.ReminderConfig{Kind: task.ReminderNormal, LastFiredAt: ptr(950)}),
	}

	due := CollectDueTasks(tasks, task.DefaultSettings(), now)

	require.Len(t, due, 2)
	assert.Equal(t, "due-important", due[0].ID)
	assert.Equal(t, "due-forced-snoozed", due[1].ID)
}

func TestCollectDueTasks_DefaultLeadTime(t *testing.T) {
	// kind=normal, due_at=T, now=T-600 => included: default target is T-10min.
	const dueAt = 5000
	tsk := reminderTask("lead", dueAt, false, false, task.ReminderConfig{Kind: task.ReminderNormal})

	due := CollectDueTasks([]task.Task{tsk}, task.DefaultSettings(), dueAt-600)
	require.Len(t, due, 1)

	due = CollectDueTasks([]task.Task{tsk}, task.DefaultSettings(), dueAt-601)
	assert.Empty(t, due)
}

func TestCollectDueTasks_RemindAtOverride(t *testing.T) {
	tsk := reminderTask("override", 5000, false, false, task.ReminderConfig{
		Kind:     task.ReminderNormal,
		RemindAt: ptr(1200),
	})

	assert.Empty(t, CollectDueTasks([]task.Task{tsk}, task.DefaultSettings(), 1199))
	assert.Len(t, CollectDueTasks([]task.Task{tsk}, task.DefaultSettings(), 1200), 1)
}

func TestCollectDueTasks_SnoozeWinsOverRemindAt(t *testing.T) {
	tsk := reminderTask("snooze-wins", 5000, false, false, task.ReminderConfig{
		Kind:         task.ReminderNormal,
		RemindAt:     ptr(1000),
		SnoozedUntil: ptr(2000),
	})

	assert.Empty(t, CollectDueTasks([]task.Task{tsk}, task.DefaultSettings(), 1500))
	assert.Len(t, CollectDueTasks([]task.Task{tsk}, task.DefaultSettings(), 2000), 1)
}

func TestCollectDueTasks_RearmsAfterTargetMovesForward(t *testing.T) {
	// Fired at 950 for target 900; snoozing to 1100 moves the target past
	// the last fire, so it fires again.
	tsk := reminderTask("rearm", 1500, false, false, task.ReminderConfig{
		Kind:         task.ReminderNormal,
		LastFiredAt:  ptr(950),
		SnoozedUntil: ptr(1100),
	})

	assert.Empty(t, CollectDueTasks([]task.Task{tsk}, task.DefaultSettings(), 1099))
	assert.Len(t, CollectDueTasks([]task.Task{tsk}, task.DefaultSettings(), 1100), 1)
}

func TestCollectDueTasks_RepeatingNormalReminders(t *testing.T) {
	settings := task.DefaultSettings()
	settings.ReminderRepeatIntervalSec = 300

	t.Run("fires again one interval after the last fire", func(t *testing.T) {
		tsk := reminderTask("repeat", 2000, false, false, task.ReminderConfig{
			Kind:             task.ReminderNormal,
			LastFiredAt:      ptr(700),
			RepeatFiredCount: 1,
		})

		out := CollectDueTasks([]task.Task{tsk}, settings, 1000)
		require.Len(t, out, 1)
		assert.Equal(t, "repeat", out[0].ID)

		assert.Empty(t, CollectDueTasks([]task.Task{tsk}, settings, 999))
	})

	t.Run("first firing uses the target time", func(t *testing.T) {
		tsk := reminderTask("first", 2000, false, false, task.ReminderConfig{Kind: task.ReminderNormal})

		// target = 2000-600 = 1400.
		assert.Empty(t, CollectDueTasks([]task.Task{tsk}, settings, 1399))
		assert.Len(t, CollectDueTasks([]task.Task{tsk}, settings, 1400), 1)
	})

	t.Run("pending snooze defers the next fire", func(t *testing.T) {
		tsk := reminderTask("snoozed", 2000, false, false, task.ReminderConfig{
			Kind:             task.ReminderNormal,
			LastFiredAt:      ptr(700),
			SnoozedUntil:     ptr(1200),
			RepeatFiredCount: 1,
		})

		assert.Empty(t, CollectDueTasks([]task.Task{tsk}, settings, 1000))
		assert.Len(t, CollectDueTasks([]task.Task{tsk}, settings, 1200), 1)
	})

	t.Run("consumed snooze falls back to the cadence", func(t *testing.T) {
		// Snooze is older than the last fire, so cadence applies: 900+300.
		tsk := reminderTask("consumed", 2000, false, false, task.ReminderConfig{
			Kind:             task.ReminderNormal,
			LastFiredAt:      ptr(900),
			SnoozedUntil:     ptr(800),
			RepeatFiredCount: 1,
		})

		assert.Empty(t, CollectDueTasks([]task.Task{tsk}, settings, 1199))
		assert.Len(t, CollectDueTasks([]task.Task{tsk}, settings, 1200), 1)
	})

	t.Run("max times excludes regardless of how late now is", func(t *testing.T) {
		capped := settings
		capped.ReminderRepeatMaxTimes = 2
		tsk := reminderTask("maxed", 2000, false, false, task.ReminderConfig{
			Kind:             task.ReminderNormal,
			LastFiredAt:      ptr(700),
			RepeatFiredCount: 2,
		})

		assert.Empty(t, CollectDueTasks([]task.Task{tsk}, capped, 1000))
		assert.Empty(t, CollectDueTasks([]task.Task{tsk}, capped, math.MaxInt64))
	})

	t.Run("cadence never overflows", func(t *testing.T) {
		tsk := reminderTask("saturate", 2000, false, false, task.ReminderConfig{
			Kind:             task.ReminderNormal,
			LastFiredAt:      ptr(int64(math.MaxInt64) - 10),
			RepeatFiredCount: 1,
		})

		assert.Empty(t, CollectDueTasks([]task.Task{tsk}, settings, math.MaxInt64-1))
	})
}

func TestCollectDueTasks_ForcedNeverRepeats(t *testing.T) {
	settings := task.DefaultSettings()
	settings.ReminderRepeatIntervalSec = 300

	// Forced reminder fired after its target; without repeat it stays quiet
	// no matter how large the repeat count or how late now is.
	tsk := reminderTask("forced", 1100, false, false, task.ReminderConfig{
		Kind:             task.ReminderForced,
		LastFiredAt:      ptr(1200),
		RepeatFiredCount: 99,
	})

	assert.Empty(t, CollectDueTasks([]task.Task{tsk}, settings, 2000))
}

func TestCollectDueTasks_ReturnsClones(t *testing.T) {
	tsk := reminderTask("clone", 1500, false, false, task.ReminderConfig{Kind: task.ReminderNormal})
	tsk.Tags = []string{"a"}
	tasks := []task.Task{tsk}

	due := CollectDueTasks(tasks, task.DefaultSettings(), 1000)
	require.Len(t, due, 1)

	due[0].Tags[0] = "mutated"
	assert.Equal(t, "a", tasks[0].Tags[0])
}
