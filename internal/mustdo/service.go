// Package mustdo wires the task state, reminder scheduling, and durable
// storage together behind one service surface shared by all commands.
package mustdo

import (
	"errors"
	"fmt"
	"time"

	"github.com/Tioit-Wang/fk.todo/internal/core/eventbus"
	"github.com/Tioit-Wang/fk.todo/internal/core/repeat"
	"github.com/Tioit-Wang/fk.todo/internal/core/schedule"
	"github.com/Tioit-Wang/fk.todo/internal/core/state"
	"github.com/Tioit-Wang/fk.todo/internal/core/task"
	"github.com/Tioit-Wang/fk.todo/internal/storage/jsonfile"
	"github.com/Tioit-Wang/fk.todo/pkg/randid"
	"github.com/rs/zerolog"
)

var (
	// ErrTaskNotFound is returned when a task id does not exist.
	ErrTaskNotFound = errors.New("task not found")
	// ErrProjectNotFound is returned when a project id does not exist.
	ErrProjectNotFound = errors.New("project not found")
	// ErrInboxImmutable is returned when an operation would remove the inbox.
	ErrInboxImmutable = errors.New("inbox project cannot be removed")
)

const taskIDLength = 12

// Service owns the in-memory state and persists every mutation through
// durable storage. All methods are safe for concurrent use.
type Service struct {
	store   *state.Store
	storage *jsonfile.Storage
	bus     *eventbus.EventBus
	log     zerolog.Logger

	now func() int64
}

// NewService creates a service over an already loaded store.
func NewService(store *state.Store, storage *jsonfile.Storage, bus *eventbus.EventBus, logger zerolog.Logger) *Service {
	return &Service{
		store:   store,
		storage: storage,
		bus:     bus,
		log:     logger,
		now:     func() int64 { return time.Now().Unix() },
	}
}

// Load reads both documents from storage and builds the state store.
// A missing or unreadable document degrades to defaults rather than
// refusing to start; settings are normalized and re-persisted when the
// stored values were out of range.
func Load(storage *jsonfile.Storage, logger zerolog.Logger) (*state.Store, error) {
	if err := storage.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("ensure data directories: %w", err)
	}

	var tasks []task.Task
	var projects []task.Project
	tasksDoc, err := storage.LoadTasks()
	switch {
	case err == nil:
		tasks = tasksDoc.Tasks
		projects = tasksDoc.Projects
	case jsonfile.IsNotFound(err):
		logger.Debug().Msg("no task document yet, starting empty")
	case jsonfile.IsFormatError(err):
		logger.Warn().Err(err).Msg("task document unreadable, starting empty")
	default:
		return nil, fmt.Errorf("load tasks: %w", err)
	}

	settings := task.DefaultSettings()
	settingsDoc, err := storage.LoadSettings()
	dirty := false
	switch {
	case err == nil:
		settings = settingsDoc.Settings
		dirty = settings.Normalize()
	case jsonfile.IsNotFound(err):
		logger.Debug().Msg("no settings document yet, using defaults")
	case jsonfile.IsFormatError(err):
		logger.Warn().Err(err).Msg("settings document unreadable, using defaults")
	default:
		return nil, fmt.Errorf("load settings: %w", err)
	}

	store := state.New(tasks, projects, settings)

	if dirty {
		if err := storage.SaveSettings(store.SettingsDocument()); err != nil {
			logger.Warn().Err(err).Msg("failed to re-persist normalized settings")
		}
	}

	return store, nil
}

// Reload re-reads both documents from storage and replaces the in-memory
// state. Used when another process rewrites the data files. Unreadable
// documents leave the current state untouched.
func (s *Service) Reload() error {
	tasksDoc, err := s.storage.LoadTasks()
	if err != nil && !jsonfile.IsNotFound(err) {
		return fmt.Errorf("reload tasks: %w", err)
	}
	if err == nil {
		s.store.ReplaceProjects(tasksDoc.Projects)
		s.store.ReplaceTasks(tasksDoc.Tasks)
	}

	settingsDoc, err := s.storage.LoadSettings()
	if err != nil && !jsonfile.IsNotFound(err) {
		return fmt.Errorf("reload settings: %w", err)
	}
	if err == nil {
		settings := settingsDoc.Settings
		settings.Normalize()
		s.store.UpdateSettings(settings)
	}

	s.bus.PublishStateUpdated(eventbus.StateUpdatedPayload{})
	return nil
}

// Snapshot returns a deep copy of the current state.
func (s *Service) Snapshot() state.Snapshot { return s.store.Snapshot() }

// Tasks returns a deep copy of all tasks.
func (s *Service) Tasks() []task.Task { return s.store.Tasks() }

// Task returns one task by id.
func (s *Service) Task(id string) (task.Task, error) {
	t, ok := s.store.Task(id)
	if !ok {
		return task.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return t, nil
}

// Projects returns a deep copy of all projects.
func (s *Service) Projects() []task.Project { return s.store.Projects() }

// Project returns one project by id.
func (s *Service) Project(id string) (task.Project, error) {
	p, ok := s.store.Project(id)
	if !ok {
		return task.Project{}, fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}
	return p, nil
}

// Settings returns a copy of the current settings.
func (s *Service) Settings() task.Settings { return s.store.Settings() }

// CreateTask fills in identity and bookkeeping fields, stores the task,
// and persists. A blank project id lands the task in the inbox.
func (s *Service) CreateTask(t task.Task) (task.Task, error) {
	now := s.now()

	if t.ID == "" {
		t.ID = randid.Generate(taskIDLength)
	}
	if t.ProjectID == "" {
		t.ProjectID = task.InboxProjectID
	}
	if t.CreatedAt == 0 {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	if t.SortOrder == 0 {
		t.SortOrder = t.CreatedAt * 1000
	}

	s.store.AddTask(t)
	if err := s.persistTasks(); err != nil {
		return task.Task{}, err
	}

	s.log.Debug().Str("task_id", t.ID).Str("project_id", t.ProjectID).Msg("task created")
	stored, _ := s.store.Task(t.ID)
	return stored, nil
}

// UpdateTask replaces an existing task and persists.
func (s *Service) UpdateTask(t task.Task) (task.Task, error) {
	if _, ok := s.store.Task(t.ID); !ok {
		return task.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, t.ID)
	}

	t.UpdatedAt = s.now()
	s.store.UpdateTask(t)
	if err := s.persistTasks(); err != nil {
		return task.Task{}, err
	}

	stored, _ := s.store.Task(t.ID)
	return stored, nil
}

// DeleteTask removes one task and persists.
func (s *Service) DeleteTask(id string) error {
	if _, ok := s.store.Task(id); !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	s.store.RemoveTask(id)
	return s.persistTasks()
}

// DeleteTasks removes every listed task and persists. Unknown ids are
// skipped.
func (s *Service) DeleteTasks(ids []string) error {
	s.store.RemoveTasks(ids)
	return s.persistTasks()
}

// CompleteTask finalizes a task. When the task carries a repeat rule a
// successor occurrence is spawned with a fresh reminder and the next
// computed due time.
func (s *Service) CompleteTask(id string) (task.Task, *task.Task, error) {
	now := s.now()

	completed, ok := s.store.CompleteTask(id, now)
	if !ok {
		return task.Task{}, nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	var successor *task.Task
	if completed.Repeat.Type != task.RepeatNone {
		next := spawnSuccessor(completed, now)
		s.store.AddTask(next)
		successor = &next
	}

	if err := s.persistTasks(); err != nil {
		return task.Task{}, nil, err
	}

	event := eventbus.TaskCompletedPayload{Task: completed}
	if successor != nil {
		clone := successor.Clone()
		event.Successor = &clone
	}
	s.bus.PublishTaskCompleted(event)

	s.log.Debug().
		Str("task_id", id).
		Bool("spawned_successor", successor != nil).
		Msg("task completed")
	return completed, successor, nil
}

// spawnSuccessor derives the next occurrence of a repeating task. The
// successor keeps the task's content but gets a derived id, cleared
// completion state, a reset reminder, and the next due time.
func spawnSuccessor(parent task.Task, now int64) task.Task {
	next := parent.Clone()
	next.ID = fmt.Sprintf("%s-%d", parent.ID, now)
	next.Completed = false
	next.CompletedAt = nil
	next.CreatedAt = now
	next.UpdatedAt = now
	next.DueAt = repeat.NextDueTimestamp(parent.DueAt, parent.Repeat)
	next.Reminder.LastFiredAt = nil
	next.Reminder.SnoozedUntil = nil
	next.Reminder.ForcedDismissed = false
	next.Reminder.RepeatFiredCount = 0
	return next
}

// SnoozeTask pushes a task's next reminder to the given instant. The
// current fire is recorded so an elapsed snooze is not treated as missed.
func (s *Service) SnoozeTask(id string, until int64) (task.Task, error) {
	t, ok := s.store.Task(id)
	if !ok {
		return task.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	now := s.now()
	t.Reminder.SnoozedUntil = &until
	firedAt := now
	t.Reminder.LastFiredAt = &firedAt
	t.UpdatedAt = now

	s.store.UpdateTask(t)
	if err := s.persistTasks(); err != nil {
		return task.Task{}, err
	}
	stored, _ := s.store.Task(id)
	return stored, nil
}

// DismissForced permanently silences a forced reminder. The dismissal
// counts as the reminder's final fire, so last_fired_at is stamped too.
func (s *Service) DismissForced(id string) (task.Task, error) {
	t, ok := s.store.Task(id)
	if !ok {
		return task.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	now := s.now()
	t.Reminder.ForcedDismissed = true
	firedAt := now
	t.Reminder.LastFiredAt = &firedAt
	t.UpdatedAt = now

	s.store.UpdateTask(t)
	if err := s.persistTasks(); err != nil {
		return task.Task{}, err
	}
	stored, _ := s.store.Task(id)
	return stored, nil
}

// SwapTaskOrder exchanges the manual sort position of two tasks.
func (s *Service) SwapTaskOrder(firstID, secondID string) error {
	if !s.store.SwapTaskOrder(firstID, secondID, s.now()) {
		return fmt.Errorf("%w: %s or %s", ErrTaskNotFound, firstID, secondID)
	}
	return s.persistTasks()
}

// CreateProject stores a new project and persists.
func (s *Service) CreateProject(p task.Project) (task.Project, error) {
	now := s.now()

	if p.ID == "" {
		p.ID = randid.Generate(taskIDLength)
	}
	if p.CreatedAt == 0 {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if p.SortOrder == 0 {
		p.SortOrder = p.CreatedAt * 1000
	}

	s.store.AddProject(p)
	if err := s.persistTasks(); err != nil {
		return task.Project{}, err
	}
	stored, _ := s.store.Project(p.ID)
	return stored, nil
}

// UpdateProject replaces an existing project and persists.
func (s *Service) UpdateProject(p task.Project) (task.Project, error) {
	if _, ok := s.store.Project(p.ID); !ok {
		return task.Project{}, fmt.Errorf("%w: %s", ErrProjectNotFound, p.ID)
	}

	p.UpdatedAt = s.now()
	s.store.UpdateProject(p)
	if err := s.persistTasks(); err != nil {
		return task.Project{}, err
	}
	stored, _ := s.store.Project(p.ID)
	return stored, nil
}

// DeleteProject removes a project. Its tasks move to the inbox. The inbox
// itself cannot be removed.
func (s *Service) DeleteProject(id string) error {
	if id == task.InboxProjectID {
		return ErrInboxImmutable
	}
	if _, ok := s.store.Project(id); !ok {
		return fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}
	s.store.RemoveProject(id)
	return s.persistTasks()
}

// SwapProjectOrder exchanges the manual sort position of two projects.
func (s *Service) SwapProjectOrder(firstID, secondID string) error {
	if !s.store.SwapProjectOrder(firstID, secondID, s.now()) {
		return fmt.Errorf("%w: %s or %s", ErrProjectNotFound, firstID, secondID)
	}
	return s.persistTasks()
}

// UpdateSettings normalizes and stores new settings.
func (s *Service) UpdateSettings(settings task.Settings) (task.Settings, error) {
	settings.Normalize()
	s.store.UpdateSettings(settings)
	if err := s.storage.SaveSettings(s.store.SettingsDocument()); err != nil {
		return task.Settings{}, fmt.Errorf("save settings: %w", err)
	}
	s.bus.PublishSettingsUpdated(eventbus.SettingsUpdatedPayload{Settings: s.store.Settings()})
	return s.store.Settings(), nil
}

// DueReminders returns the reminders due at the given instant without
// recording a fire. Results are sorted important first, then by due time.
func (s *Service) DueReminders(now int64) []task.Task {
	return schedule.CollectDueTasks(s.store.Tasks(), s.store.Settings(), now)
}

// Tick collects every reminder due at the given instant, records the fire
// on each, persists once, and publishes one event per fired reminder. A
// panic anywhere in the pass is contained so a broken tick cannot take
// down the scan loop.
func (s *Service) Tick(now int64) (fired []task.Task, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			s.log.Error().Any("panic", recovered).Msg("reminder tick panicked")
			fired = nil
			err = fmt.Errorf("reminder tick panicked: %v", recovered)
		}
	}()

	due := schedule.CollectDueTasks(s.store.Tasks(), s.store.Settings(), now)
	if len(due) == 0 {
		return nil, nil
	}

	for _, t := range due {
		s.store.MarkReminderFired(t, now)
	}
	if err := s.persistTasks(); err != nil {
		return nil, err
	}

	for _, t := range due {
		s.bus.PublishReminderFired(eventbus.ReminderFiredPayload{Task: t, FiredAt: now})
	}
	return due, nil
}

// persistTasks writes the task document, taking an automatic backup first
// when the configured calendar period has rolled over since the last one.
func (s *Service) persistTasks() error {
	settings := s.store.Settings()
	now := time.Unix(s.now(), 0)

	if jsonfile.ShouldAutoBackup(settings.BackupSchedule, settings.LastBackupAt, now) {
		if err := s.backupBeforeSave(now); err != nil {
			s.log.Warn().Err(err).Msg("automatic backup failed, saving anyway")
		}
	}

	if err := s.storage.SaveTasks(s.store.TasksDocument(), false); err != nil {
		return fmt.Errorf("save tasks: %w", err)
	}
	s.bus.PublishStateUpdated(eventbus.StateUpdatedPayload{})
	return nil
}

// backupBeforeSave snapshots the current canonical file and advances the
// last-backup stamp. A missing canonical file (first ever save) still
// advances the stamp so the period is considered covered.
func (s *Service) backupBeforeSave(now time.Time) error {
	name, err := s.storage.CreateBackup(s.storage.DataPath())
	if err != nil && !jsonfile.IsNotFound(err) {
		return err
	}

	settings := s.store.Settings()
	stamp := now.Unix()
	settings.LastBackupAt = &stamp
	s.store.UpdateSettings(settings)
	if err := s.storage.SaveSettings(s.store.SettingsDocument()); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	if name != "" {
		s.bus.PublishBackupCreated(eventbus.BackupCreatedPayload{Name: name})
		s.log.Info().Str("backup", name).Msg("automatic backup created")
	}
	return nil
}
