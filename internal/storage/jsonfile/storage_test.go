package jsonfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Tioit-Wang/fk.todo/internal/core/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	s := New(t.TempDir())
	require.NoError(t, s.EnsureDirs())
	return s
}

func sampleDocument() task.TasksDocument {
	return task.TasksDocument{
		SchemaVersion: task.SchemaVersion,
		Tasks: []task.Task{
			{
				ID:        "t1",
				ProjectID: task.InboxProjectID,
				Title:     "write the report",
				DueAt:     1_700_000_000,
				CreatedAt: 1_699_990_000,
				UpdatedAt: 1_699_990_000,
				SortOrder: 1_699_990_000_000,
				Reminder:  task.DefaultReminderConfig(),
				Repeat:    task.NoRepeat(),
			},
		},
		Projects: []task.Project{
			{
				ID:        task.InboxProjectID,
				Name:      task.InboxProjectDefaultName,
				Pinned:    true,
				CreatedAt: 1_699_990_000,
				UpdatedAt: 1_699_990_000,
			},
		},
	}
}

func TestStorage_SaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	s := newTestStorage(t)
	doc := sampleDocument()

	require.NoError(t, s.SaveTasks(doc, false))

	loaded, err := s.LoadTasks()
	require.NoError(t, err)
	assert.Equal(t, doc, loaded)
}

func TestStorage_SaveLoadSettings(t *testing.T) {
	t.Parallel()

	s := newTestStorage(t)
	doc := task.SettingsDocument{
		SchemaVersion: task.SchemaVersion,
		Settings:      task.DefaultSettings(),
	}

	require.NoError(t, s.SaveSettings(doc))

	loaded, err := s.LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, doc, loaded)
}

func TestStorage_LoadMissingFile(t *testing.T) {
	t.Parallel()

	s := newTestStorage(t)

	_, err := s.LoadTasks()
	require.Error(t, err)
	assert.True(t, IsIOError(err))
	assert.True(t, IsNotFound(err))
	assert.False(t, IsFormatError(err))
}

func TestStorage_LoadInvalidJSON(t *testing.T) {
	t.Parallel()

	s := newTestStorage(t)
	require.NoError(t, os.WriteFile(s.DataPath(), []byte("{not json"), 0o644))

	_, err := s.LoadTasks()
	require.Error(t, err)
	assert.True(t, IsFormatError(err))
	assert.False(t, IsIOError(err))
}

func TestStorage_AtomicWriteFallsBackToSuffixedTemp(t *testing.T) {
	t.Parallel()

	s := newTestStorage(t)

	// Occupy the preferred temp name with a directory so O_EXCL creation
	// fails and the writer must move on to a suffixed temp name.
	blocked := s.DataPath() + ".tmp"
	require.NoError(t, os.Mkdir(blocked, 0o755))

	doc := sampleDocument()
	require.NoError(t, s.SaveTasks(doc, false))

	loaded, err := s.LoadTasks()
	require.NoError(t, err)
	assert.Equal(t, doc, loaded)

	// The blocking directory is left alone.
	info, err := os.Stat(blocked)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestStorage_BackupOnSave(t *testing.T) {
	t.Parallel()

	s := newTestStorage(t)
	doc := sampleDocument()

	// First save has nothing to back up.
	require.NoError(t, s.SaveTasks(doc, true))
	backups, err := s.ListBackups()
	require.NoError(t, err)
	assert.Empty(t, backups)

	// Second save snapshots the previous canonical file.
	doc.Tasks[0].Title = "revised"
	require.NoError(t, s.SaveTasks(doc, true))

	backups, err = s.ListBackups()
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.Regexp(t, `^data-\d{4}-\d{2}-\d{2}(-\d+)?\.json$`, backups[0].Name)
}

func TestStorage_BackupRotationKeepsFive(t *testing.T) {
	t.Parallel()

	s := newTestStorage(t)
	doc := sampleDocument()
	require.NoError(t, s.SaveTasks(doc, false))

	for i := 0; i < 8; i++ {
		_, err := s.CreateBackup(s.DataPath())
		require.NoError(t, err)
	}

	backups, err := s.ListBackups()
	require.NoError(t, err)
	assert.Len(t, backups, backupLimit)
}

func TestStorage_BackupNamesDisambiguate(t *testing.T) {
	t.Parallel()

	s := newTestStorage(t)
	require.NoError(t, s.SaveTasks(sampleDocument(), false))

	first, err := s.CreateBackup(s.DataPath())
	require.NoError(t, err)
	second, err := s.CreateBackup(s.DataPath())
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestStorage_RestoreBackup(t *testing.T) {
	t.Parallel()

	s := newTestStorage(t)

	original := sampleDocument()
	require.NoError(t, s.SaveTasks(original, false))
	name, err := s.CreateBackup(s.DataPath())
	require.NoError(t, err)

	changed := sampleDocument()
	changed.Tasks[0].Title = "overwritten"
	require.NoError(t, s.SaveTasks(changed, false))

	restored, err := s.RestoreBackup(name)
	require.NoError(t, err)
	assert.Equal(t, original, restored)

	// The canonical file now holds the restored content.
	loaded, err := s.LoadTasks()
	require.NoError(t, err)
	assert.Equal(t, original, loaded)
}

func TestStorage_RestoreBackupRejectsBadNames(t *testing.T) {
	t.Parallel()

	s := newTestStorage(t)

	for _, name := range []string{"", ".", "..", "../data.json", "a/b.json", "/etc/passwd"} {
		t.Run(fmt.Sprintf("name=%q", name), func(t *testing.T) {
			_, err := s.RestoreBackup(name)
			require.Error(t, err)
			assert.True(t, IsIOError(err))
		})
	}
}

func TestStorage_DeleteBackup(t *testing.T) {
	t.Parallel()

	s := newTestStorage(t)
	require.NoError(t, s.SaveTasks(sampleDocument(), false))

	name, err := s.CreateBackup(s.DataPath())
	require.NoError(t, err)
	require.NoError(t, s.DeleteBackup(name))

	backups, err := s.ListBackups()
	require.NoError(t, err)
	assert.Empty(t, backups)

	// Deleting again reports the missing file.
	err = s.DeleteBackup(name)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestStorage_RestoreFromPath(t *testing.T) {
	t.Parallel()

	s := newTestStorage(t)

	doc := sampleDocument()
	data, err := json.MarshalIndent(doc, "", "  ")
	require.NoError(t, err)
	external := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, os.WriteFile(external, data, 0o644))

	restored, err := s.RestoreFromPath(external)
	require.NoError(t, err)
	assert.Equal(t, doc, restored)

	loaded, err := s.LoadTasks()
	require.NoError(t, err)
	assert.Equal(t, doc, loaded)
}

func TestStorage_RestoreFromPathRejectsInvalid(t *testing.T) {
	t.Parallel()

	s := newTestStorage(t)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("nope"), 0o644))

	_, err := s.RestoreFromPath(bad)
	require.Error(t, err)
	assert.True(t, IsFormatError(err))
}

func TestStorage_ListBackupsNewestFirst(t *testing.T) {
	t.Parallel()

	s := newTestStorage(t)
	dir := filepath.Join(s.Root(), BackupDir)

	old := filepath.Join(dir, "data-2024-01-01.json")
	recent := filepath.Join(dir, "data-2024-06-01.json")
	require.NoError(t, os.WriteFile(old, []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(recent, []byte("{}"), 0o644))

	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	backups, err := s.ListBackups()
	require.NoError(t, err)
	require.Len(t, backups, 2)
	assert.Equal(t, "data-2024-06-01.json", backups[0].Name)
	assert.Equal(t, "data-2024-01-01.json", backups[1].Name)
}
