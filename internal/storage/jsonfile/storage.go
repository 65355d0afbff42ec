// Package jsonfile persists the task and settings documents as JSON files
// with atomic writes and a bounded, rotating set of dated backups.
package jsonfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/Tioit-Wang/fk.todo/internal/core/task"
)

const (
	// DataFile is the canonical task document.
	DataFile = "data.json"
	// SettingsFile is the canonical settings document.
	SettingsFile = "settings.json"
	// BackupDir holds dated snapshots of the task document.
	BackupDir = "backups"

	// backupLimit is the rotation retention: only this many backups are
	// kept, oldest evicted first.
	backupLimit = 5

	// tempfileAttempts bounds the fallback temp names tried when the
	// preferred one is unavailable.
	tempfileAttempts = 10
)

// Storage reads and writes the persisted documents under a root directory.
type Storage struct {
	root string
}

// New creates a Storage rooted at dir.
func New(dir string) *Storage {
	return &Storage{root: dir}
}

// Root returns the data directory.
func (s *Storage) Root() string { return s.root }

// DataPath returns the path of the canonical task document.
func (s *Storage) DataPath() string { return filepath.Join(s.root, DataFile) }

// EnsureDirs creates the root and backup directories.
func (s *Storage) EnsureDirs() error {
	if err := os.MkdirAll(filepath.Join(s.root, BackupDir), 0o755); err != nil {
		return ioError(err)
	}
	return nil
}

// LoadTasks reads data.json. A missing or corrupt file surfaces a distinct
// error (see IsNotFound/IsFormatError); callers substitute an empty
// document and never treat it as fatal.
func (s *Storage) LoadTasks() (task.TasksDocument, error) {
	var doc task.TasksDocument
	if err := s.loadJSON(s.DataPath(), &doc); err != nil {
		return task.TasksDocument{}, fmt.Errorf("load %s: %w", DataFile, err)
	}
	return doc, nil
}

// LoadSettings reads settings.json under the same recoverability contract
// as LoadTasks.
func (s *Storage) LoadSettings() (task.SettingsDocument, error) {
	var doc task.SettingsDocument
	if err := s.loadJSON(filepath.Join(s.root, SettingsFile), &doc); err != nil {
		return task.SettingsDocument{}, fmt.Errorf("load %s: %w", SettingsFile, err)
	}
	return doc, nil
}

// SaveTasks writes data.json atomically. With withBackup set, the current
// canonical file is first copied into the backup rotation.
func (s *Storage) SaveTasks(doc task.TasksDocument, withBackup bool) error {
	path := s.DataPath()
	if withBackup {
		if _, err := os.Stat(path); err == nil {
			if _, err := s.CreateBackup(path); err != nil {
				return fmt.Errorf("backup %s: %w", DataFile, err)
			}
		}
	}
	return s.writeAtomic(path, doc)
}

// SaveSettings writes settings.json atomically.
func (s *Storage) SaveSettings(doc task.SettingsDocument) error {
	return s.writeAtomic(filepath.Join(s.root, SettingsFile), doc)
}

func (s *Storage) loadJSON(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return ioError(err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return formatError(err)
	}
	return nil
}

func (s *Storage) writeAtomic(path string, doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return formatError(err)
	}
	return s.writeAtomicBytes(path, data)
}

// writeAtomicBytes writes to a temporary sibling, fsyncs, and renames over
// the destination so the canonical file is never observed partially
// written. The preferred "<path>.tmp" name is stable and readable; when it
// is unavailable the write falls back to suffixed names before giving up.
// The temp file never outlives a failed attempt.
func (s *Storage) writeAtomicBytes(path string, data []byte) error {
	var lastErr error
	for attempt := 0; attempt <= tempfileAttempts; attempt++ {
		tempPath := path + ".tmp"
		if attempt > 0 {
			tempPath = fmt.Sprintf("%s.tmp.%d.%d", path, os.Getpid(), attempt)
		}

		// O_EXCL keeps concurrent writers from clobbering the same temp
		// file; a taken name falls through to the next suffix.
		file, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err != nil {
			if isRetryableTempError(err) {
				lastErr = ioError(err)
				continue
			}
			return ioError(err)
		}

		if err := writeAndSync(file, data); err != nil {
			_ = file.Close()
			_ = os.Remove(tempPath)
			return ioError(err)
		}
		// Close before rename; on Windows renaming an open file fails.
		if err := file.Close(); err != nil {
			_ = os.Remove(tempPath)
			return ioError(err)
		}

		if err := os.Rename(tempPath, path); err != nil {
			_ = os.Remove(tempPath)
			return ioError(err)
		}
		return nil
	}

	if lastErr == nil {
		lastErr = ioError(errors.New("failed to create temporary file"))
	}
	return lastErr
}

func writeAndSync(file *os.File, data []byte) error {
	if _, err := file.Write(data); err != nil {
		return err
	}
	return file.Sync()
}

func isRetryableTempError(err error) bool {
	return errors.Is(err, fs.ErrExist) || errors.Is(err, fs.ErrPermission)
}

// BackupInfo describes one backup file.
type BackupInfo struct {
	Name       string `json:"name"`
	ModifiedAt int64  `json:"modified_at"`
}

// CreateBackup copies the given file into the backup directory under the
// next dated name and returns that name, then trims the rotation. Trimming
// is best effort: a successfully created backup is never rolled back
// because cleanup failed.
func (s *Storage) CreateBackup(path string) (string, error) {
	name, err := s.nextBackupName(time.Now())
	if err != nil {
		return "", err
	}
	if err := copyFile(path, filepath.Join(s.root, BackupDir, name)); err != nil {
		return "", ioError(err)
	}
	_ = s.trimBackups()
	return name, nil
}

// ListBackups returns the backups newest first by modification time.
func (s *Storage) ListBackups() ([]BackupInfo, error) {
	entries, err := s.backupEntries()
	if err != nil {
		return nil, err
	}

	infos := make([]BackupInfo, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		infos = append(infos, BackupInfo{
			Name:       entries[i].name,
			ModifiedAt: entries[i].modified.Unix(),
		})
	}
	return infos, nil
}

// DeleteBackup removes one backup by name. The name is sanitized so a
// caller-supplied value can never escape the backup directory.
func (s *Storage) DeleteBackup(name string) error {
	clean, err := sanitizeBackupName(name)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.root, BackupDir, clean)); err != nil {
		return ioError(err)
	}
	return nil
}

// RestoreBackup loads a named backup and re-persists it as the canonical
// task document.
func (s *Storage) RestoreBackup(name string) (task.TasksDocument, error) {
	clean, err := sanitizeBackupName(name)
	if err != nil {
		return task.TasksDocument{}, err
	}

	var doc task.TasksDocument
	if err := s.loadJSON(filepath.Join(s.root, BackupDir, clean), &doc); err != nil {
		return task.TasksDocument{}, fmt.Errorf("load backup %s: %w", clean, err)
	}
	if err := s.writeAtomic(s.DataPath(), doc); err != nil {
		return task.TasksDocument{}, err
	}
	return doc, nil
}

// RestoreFromPath imports an external task document and re-persists it as
// canonical.
func (s *Storage) RestoreFromPath(source string) (task.TasksDocument, error) {
	var doc task.TasksDocument
	if err := s.loadJSON(source, &doc); err != nil {
		return task.TasksDocument{}, fmt.Errorf("load %s: %w", source, err)
	}
	if err := s.writeAtomic(s.DataPath(), doc); err != nil {
		return task.TasksDocument{}, err
	}
	return doc, nil
}

type backupEntry struct {
	name     string
	modified time.Time
}

// backupEntries returns the backups sorted oldest first by mtime.
func (s *Storage) backupEntries() ([]backupEntry, error) {
	dirEntries, err := os.ReadDir(filepath.Join(s.root, BackupDir))
	if err != nil {
		return nil, ioError(err)
	}

	entries := make([]backupEntry, 0, len(dirEntries))
	for _, entry := range dirEntries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		entries = append(entries, backupEntry{name: entry.Name(), modified: info.ModTime()})
	}

	slices.SortFunc(entries, func(a, b backupEntry) int {
		return a.modified.Compare(b.modified)
	})
	return entries, nil
}

func (s *Storage) trimBackups() error {
	entries, err := s.backupEntries()
	if err != nil {
		return err
	}
	for i := 0; i < len(entries)-backupLimit; i++ {
		_ = os.Remove(filepath.Join(s.root, BackupDir, entries[i].name))
	}
	return nil
}

// nextBackupName picks the first free data-YYYY-MM-DD[-N].json name for
// the given day.
func (s *Storage) nextBackupName(now time.Time) (string, error) {
	date := now.Format("2006-01-02")
	for index := 1; index <= 9999; index++ {
		name := fmt.Sprintf("data-%s.json", date)
		if index > 1 {
			name = fmt.Sprintf("data-%s-%d.json", date, index)
		}
		if _, err := os.Stat(filepath.Join(s.root, BackupDir, name)); errors.Is(err, fs.ErrNotExist) {
			return name, nil
		}
	}
	return "", ioError(errors.New("failed to generate backup filename"))
}

// sanitizeBackupName rejects empty, dot, and path-traversal names.
func sanitizeBackupName(name string) (string, error) {
	base := filepath.Base(name)
	if base != name || base == "" || base == "." || base == ".." || base == string(filepath.Separator) {
		return "", ioError(fmt.Errorf("invalid backup filename %q", name))
	}
	return base, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
