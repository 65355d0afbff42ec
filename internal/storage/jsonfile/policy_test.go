package jsonfile

import (
	"testing"
	"time"

	"github.com/Tioit-Wang/fk.todo/internal/core/task"
	"github.com/stretchr/testify/assert"
)

func TestShouldAutoBackup(t *testing.T) {
	t.Parallel()

	loc := time.UTC
	at := func(stamp string) time.Time {
		parsed, err := time.ParseInLocation("2006-01-02 15:04:05", stamp, loc)
		if err != nil {
			t.Fatalf("bad stamp %q: %v", stamp, err)
		}
		return parsed
	}
	unix := func(stamp string) *int64 {
		v := at(stamp).Unix()
		return &v
	}

	tests := []struct {
		name     string
		schedule task.BackupSchedule
		last     *int64
		now      time.Time
		want     bool
	}{
		{
			name:     "none never backs up",
			schedule: task.BackupNone,
			last:     nil,
			now:      at("2024-06-10 12:00:00"),
			want:     false,
		},
		{
			name:     "no previous backup",
			schedule: task.BackupDaily,
			last:     nil,
			now:      at("2024-06-10 12:00:00"),
			want:     true,
		},
		{
			name:     "daily same day",
			schedule: task.BackupDaily,
			last:     unix("2024-06-10 00:00:01"),
			now:      at("2024-06-10 23:59:59"),
			want:     false,
		},
		{
			name:     "daily crossed midnight",
			schedule: task.BackupDaily,
			last:     unix("2024-06-10 23:59:59"),
			now:      at("2024-06-11 00:00:01"),
			want:     true,
		},
		{
			name:     "weekly same iso week",
			schedule: task.BackupWeekly,
			last:     unix("2024-06-10 08:00:00"), // Monday
			now:      at("2024-06-16 22:00:00"),   // Sunday, same ISO week
			want:     false,
		},
		{
			name:     "weekly crossed into next week",
			schedule: task.BackupWeekly,
			last:     unix("2024-06-16 22:00:00"), // Sunday
			now:      at("2024-06-17 02:00:00"),   // Monday
			want:     true,
		},
		{
			name:     "weekly iso week spans year boundary",
			schedule: task.BackupWeekly,
			last:     unix("2024-12-30 10:00:00"), // Monday, ISO week 1 of 2025
			now:      at("2025-01-02 10:00:00"),   // Thursday, same ISO week
			want:     false,
		},
		{
			name:     "monthly same month",
			schedule: task.BackupMonthly,
			last:     unix("2024-06-01 00:00:00"),
			now:      at("2024-06-30 23:00:00"),
			want:     false,
		},
		{
			name:     "monthly crossed month boundary",
			schedule: task.BackupMonthly,
			last:     unix("2024-06-30 23:00:00"),
			now:      at("2024-07-01 01:00:00"),
			want:     true,
		},
		{
			name:     "monthly same month different year",
			schedule: task.BackupMonthly,
			last:     unix("2023-06-15 12:00:00"),
			now:      at("2024-06-15 12:00:00"),
			want:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ShouldAutoBackup(tt.schedule, tt.last, tt.now)
			assert.Equal(t, tt.want, got)
		})
	}
}
