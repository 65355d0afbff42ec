package mustdo

import (
	"fmt"

	"github.com/Tioit-Wang/fk.todo/internal/core/eventbus"
	"github.com/Tioit-Wang/fk.todo/internal/core/task"
	"github.com/Tioit-Wang/fk.todo/internal/storage/jsonfile"
)

// ListBackups returns the rotation contents, newest first.
func (s *Service) ListBackups() ([]jsonfile.BackupInfo, error) {
	return s.storage.ListBackups()
}

// CreateBackup snapshots the canonical task document on demand and
// advances the last-backup stamp.
func (s *Service) CreateBackup() (string, error) {
	name, err := s.storage.CreateBackup(s.storage.DataPath())
	if err != nil {
		return "", fmt.Errorf("create backup: %w", err)
	}

	settings := s.store.Settings()
	stamp := s.now()
	settings.LastBackupAt = &stamp
	s.store.UpdateSettings(settings)
	if err := s.storage.SaveSettings(s.store.SettingsDocument()); err != nil {
		return "", fmt.Errorf("save settings: %w", err)
	}

	s.bus.PublishBackupCreated(eventbus.BackupCreatedPayload{Name: name})
	return name, nil
}

// DeleteBackup removes one backup from the rotation.
func (s *Service) DeleteBackup(name string) error {
	return s.storage.DeleteBackup(name)
}

// RestoreBackup replaces the live state with a named backup. The restored
// collections go through normalization, so an old backup still gets an
// inbox and filled sort orders.
func (s *Service) RestoreBackup(name string) error {
	doc, err := s.storage.RestoreBackup(name)
	if err != nil {
		return fmt.Errorf("restore backup: %w", err)
	}
	return s.adoptDocument(doc.Tasks, doc.Projects)
}

// ImportData replaces the live state with an external task document.
func (s *Service) ImportData(path string) error {
	doc, err := s.storage.RestoreFromPath(path)
	if err != nil {
		return fmt.Errorf("import data: %w", err)
	}
	return s.adoptDocument(doc.Tasks, doc.Projects)
}

func (s *Service) adoptDocument(tasks []task.Task, projects []task.Project) error {
	s.store.ReplaceProjects(projects)
	s.store.ReplaceTasks(tasks)
	if err := s.persistTasks(); err != nil {
		return err
	}
	return nil
}
