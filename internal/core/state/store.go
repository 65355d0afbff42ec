// Package state owns the in-memory task, project, and settings collections.
// One mutex serializes every reader and writer; getters return deep copies
// so callers never observe a half-mutated collection and never hold the
// lock across I/O.
package state

import (
	"strings"
	"sync"
	"time"

	"github.com/Tioit-Wang/fk.todo/internal/core/task"
)

// Store is the single source of truth for the application's collections.
type Store struct {
	mu       sync.Mutex
	tasks    []task.Task
	projects []task.Project
	settings task.Settings
}

// Snapshot is a consistent deep copy of every collection, taken under one
// lock acquisition.
type Snapshot struct {
	Tasks    []task.Task
	Projects []task.Project
	Settings task.Settings
}

// New builds a store from loaded collections and applies the structural
// normalization invariants: the inbox project exists, every sort_order is
// non-zero, and every task references a known project.
func New(tasks []task.Task, projects []task.Project, settings task.Settings) *Store {
	now := time.Now().Unix()
	projects = ensureInboxProject(projects, now)
	normalizeProjects(projects)
	normalizeTasks(tasks, projects)
	return &Store{tasks: tasks, projects: projects, settings: settings}
}

func ensureInboxProject(projects []task.Project, now int64) []task.Project {
	for _, p := range projects {
		if p.ID == task.InboxProjectID {
			return projects
		}
	}
	return append(projects, task.Project{
		ID:        task.InboxProjectID,
		Name:      task.InboxProjectDefaultName,
		Pinned:    true,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func normalizeProjects(projects []task.Project) {
	for i := range projects {
		if projects[i].SortOrder == 0 {
			projects[i].SortOrder = projects[i].CreatedAt * 1000
		}
	}
}

func normalizeTasks(tasks []task.Task, projects []task.Project) {
	known := make(map[string]bool, len(projects))
	for _, p := range projects {
		known[p.ID] = true
	}

	for i := range tasks {
		if tasks[i].SortOrder == 0 {
			tasks[i].SortOrder = tasks[i].CreatedAt * 1000
		}
		if strings.TrimSpace(tasks[i].ProjectID) == "" || !known[tasks[i].ProjectID] {
			tasks[i].ProjectID = task.InboxProjectID
		}
		normalizeTask(&tasks[i])
	}
}

// normalizeTask repairs the zero-valued enums on a task. A document whose
// task omits the repeat or reminder key unmarshals with an empty type; the
// repeat variant set is closed, so the empty value could never be written
// back, and an empty reminder kind is neither none nor forced.
func normalizeTask(t *task.Task) {
	if t.Repeat.Type == "" {
		t.Repeat.Type = task.RepeatNone
	}
	if t.Reminder.Kind == "" {
		t.Reminder.Kind = task.ReminderNone
	}
}

// Snapshot returns a deep copy of all collections under one lock.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Tasks:    cloneTasks(s.tasks),
		Projects: cloneProjects(s.projects),
		Settings: s.settings.Clone(),
	}
}

// Tasks returns a deep copy of the task collection.
func (s *Store) Tasks() []task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneTasks(s.tasks)
}

// Task returns a deep copy of the task with the given id.
func (s *Store) Task(id string) (task.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return s.tasks[i].Clone(), true
		}
	}
	return task.Task{}, false
}

// Projects returns a deep copy of the project collection.
func (s *Store) Projects() []task.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneProjects(s.projects)
}

// Project returns a deep copy of the project with the given id.
func (s *Store) Project(id string) (task.Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.projects {
		if s.projects[i].ID == id {
			return s.projects[i].Clone(), true
		}
	}
	return task.Project{}, false
}

// Settings returns a copy of the current settings.
func (s *Store) Settings() task.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.Clone()
}

// TasksDocument snapshots tasks and projects into the persisted data.json
// shape.
func (s *Store) TasksDocument() task.TasksDocument {
	s.mu.Lock()
	defer s.mu.Unlock()
	return task.TasksDocument{
		SchemaVersion: task.SchemaVersion,
		Tasks:         cloneTasks(s.tasks),
		Projects:      cloneProjects(s.projects),
	}
}

// SettingsDocument snapshots settings into the persisted settings.json
// shape.
func (s *Store) SettingsDocument() task.SettingsDocument {
	s.mu.Lock()
	defer s.mu.Unlock()
	return task.SettingsDocument{
		SchemaVersion: task.SchemaVersion,
		Settings:      s.settings.Clone(),
	}
}

// AddTask appends a task, repairing zero-valued enums on the way in.
func (s *Store) AddTask(t task.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := t.Clone()
	normalizeTask(&next)
	s.tasks = append(s.tasks, next)
}

// UpdateTask replaces the task with the same id. Unknown ids are a no-op.
// An absent sample tag on the incoming task preserves the existing one.
func (s *Store) UpdateTask(t task.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID != t.ID {
			continue
		}
		next := t.Clone()
		normalizeTask(&next)
		if next.SampleTag == nil && s.tasks[i].SampleTag != nil {
			tag := *s.tasks[i].SampleTag
			next.SampleTag = &tag
		}
		s.tasks[i] = next
		return
	}
}

// RemoveTask deletes the task with the given id.
func (s *Store) RemoveTask(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = removeTasksByID(s.tasks, map[string]bool{id: true})
}

// RemoveTasks deletes every task whose id is in ids.
func (s *Store) RemoveTasks(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	s.tasks = removeTasksByID(s.tasks, set)
}

func removeTasksByID(tasks []task.Task, ids map[string]bool) []task.Task {
	out := tasks[:0]
	for _, t := range tasks {
		if !ids[t.ID] {
			out = append(out, t)
		}
	}
	return out
}

// CompleteTask finalizes a task: completed, completion and update stamps,
// snooze cleared, last_fired_at stamped. It returns the finalized task, or
// false if the id is unknown.
func (s *Store) CompleteTask(id string, now int64) (task.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID != id {
			continue
		}
		completedAt := now
		s.tasks[i].Completed = true
		s.tasks[i].CompletedAt = &completedAt
		s.tasks[i].UpdatedAt = now
		s.tasks[i].Reminder.SnoozedUntil = nil
		firedAt := now
		s.tasks[i].Reminder.LastFiredAt = &firedAt
		return s.tasks[i].Clone(), true
	}
	return task.Task{}, false
}

// MarkReminderFired records a fire of the task's reminder at the given
// instant: stamps last_fired_at, bumps the repeat counter, and clears a
// snooze once it has been consumed.
func (s *Store) MarkReminderFired(t task.Task, at int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID != t.ID {
			continue
		}
		firedAt := at
		s.tasks[i].Reminder.LastFiredAt = &firedAt
		count := max(s.tasks[i].Reminder.RepeatFiredCount, 0)
		s.tasks[i].Reminder.RepeatFiredCount = count + 1
		if snoozed := s.tasks[i].Reminder.SnoozedUntil; snoozed != nil && *snoozed <= at {
			s.tasks[i].Reminder.SnoozedUntil = nil
		}
		return
	}
}

// SwapTaskOrder exchanges the sort_order of two tasks and stamps both
// updated_at. It returns false if either id is missing.
func (s *Store) SwapTaskOrder(firstID, secondID string, updatedAt int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	first, second := -1, -1
	for i := range s.tasks {
		switch s.tasks[i].ID {
		case firstID:
			first = i
		case secondID:
			second = i
		}
		if first >= 0 && second >= 0 {
			break
		}
	}
	if first < 0 || second < 0 {
		return false
	}
	s.tasks[first].SortOrder, s.tasks[second].SortOrder = s.tasks[second].SortOrder, s.tasks[first].SortOrder
	s.tasks[first].UpdatedAt = updatedAt
	s.tasks[second].UpdatedAt = updatedAt
	return true
}

// SwapProjectOrder mirrors SwapTaskOrder for projects.
func (s *Store) SwapProjectOrder(firstID, secondID string, updatedAt int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	first, second := -1, -1
	for i := range s.projects {
		switch s.projects[i].ID {
		case firstID:
			first = i
		case secondID:
			second = i
		}
		if first >= 0 && second >= 0 {
			break
		}
	}
	if first < 0 || second < 0 {
		return false
	}
	s.projects[first].SortOrder, s.projects[second].SortOrder = s.projects[second].SortOrder, s.projects[first].SortOrder
	s.projects[first].UpdatedAt = updatedAt
	s.projects[second].UpdatedAt = updatedAt
	return true
}

// AddProject appends a project as-is.
func (s *Store) AddProject(p task.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects = append(s.projects, p.Clone())
}

// UpdateProject replaces the project with the same id. Unknown ids are a
// no-op.
func (s *Store) UpdateProject(p task.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.projects {
		if s.projects[i].ID == p.ID {
			s.projects[i] = p.Clone()
			return
		}
	}
}

// RemoveProject deletes a project and re-homes its tasks into the inbox.
// Removing the inbox itself is a no-op.
func (s *Store) RemoveProject(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == task.InboxProjectID {
		return
	}
	out := s.projects[:0]
	for _, p := range s.projects {
		if p.ID != id {
			out = append(out, p)
		}
	}
	s.projects = out
	normalizeTasks(s.tasks, s.projects)
}

// ReplaceTasks swaps in a new task collection, re-normalized against the
// current projects.
func (s *Store) ReplaceTasks(tasks []task.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := cloneTasks(tasks)
	normalizeTasks(next, s.projects)
	s.tasks = next
}

// ReplaceProjects swaps in a new project collection. The inbox invariant is
// re-established and tasks referencing now-missing projects move to inbox.
func (s *Store) ReplaceProjects(projects []task.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := cloneProjects(projects)
	next = ensureInboxProject(next, time.Now().Unix())
	normalizeProjects(next)
	s.projects = next
	normalizeTasks(s.tasks, s.projects)
}

// UpdateSettings replaces the settings wholesale.
func (s *Store) UpdateSettings(settings task.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings.Clone()
}

func cloneTasks(tasks []task.Task) []task.Task {
	out := make([]task.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}

func cloneProjects(projects []task.Project) []task.Project {
	out := make([]task.Project, len(projects))
	for i, p := range projects {
		out[i] = p.Clone()
	}
	return out
}
