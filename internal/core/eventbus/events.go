package eventbus

import "github.com/Tioit-Wang/fk.todo/internal/core/task"

// Event names.
const (
	// Keep list sorted A-Z
	EventBackupCreated   Event = "backup.created"
	EventReminderFired   Event = "reminder.fired"
	EventSettingsUpdated Event = "settings.updated"
	EventStateUpdated    Event = "state.updated"
	EventTaskCompleted   Event = "task.completed"
)

// ReminderFiredPayload is emitted when a reminder comes due on a tick.
type ReminderFiredPayload struct {
	Task    task.Task
	FiredAt int64
}

// TaskCompletedPayload is emitted when a task is completed. Successor is
// set when a repeat rule spawned a follow-up occurrence.
type TaskCompletedPayload struct {
	Task      task.Task
	Successor *task.Task
}

// StateUpdatedPayload is emitted after any mutation is persisted.
type StateUpdatedPayload struct{}

// SettingsUpdatedPayload is emitted when settings change.
type SettingsUpdatedPayload struct {
	Settings task.Settings
}

// BackupCreatedPayload is emitted when a backup file is written.
type BackupCreatedPayload struct {
	Name string
}

// PublishReminderFired publishes a reminder.fired event.
func (bus *EventBus) PublishReminderFired(p ReminderFiredPayload) {
	bus.send(EventReminderFired, p)
}

// SubscribeReminderFired registers a handler for reminder.fired events.
func (bus *EventBus) SubscribeReminderFired(fn func(ReminderFiredPayload)) {
	bus.subscribe(EventReminderFired, func(payload any) {
		if p, ok := payload.(ReminderFiredPayload); ok {
			fn(p)
		}
	})
}

// PublishTaskCompleted publishes a task.completed event.
func (bus *EventBus) PublishTaskCompleted(p TaskCompletedPayload) {
	bus.send(EventTaskCompleted, p)
}

// SubscribeTaskCompleted registers a handler for task.completed events.
func (bus *EventBus) SubscribeTaskCompleted(fn func(TaskCompletedPayload)) {
	bus.subscribe(EventTaskCompleted, func(payload any) {
		if p, ok := payload.(TaskCompletedPayload); ok {
			fn(p)
		}
	})
}

// PublishStateUpdated publishes a state.updated event.
func (bus *EventBus) PublishStateUpdated(p StateUpdatedPayload) {
	bus.send(EventStateUpdated, p)
}

// SubscribeStateUpdated registers a handler for state.updated events.
func (bus *EventBus) SubscribeStateUpdated(fn func(StateUpdatedPayload)) {
	bus.subscribe(EventStateUpdated, func(payload any) {
		if p, ok := payload.(StateUpdatedPayload); ok {
			fn(p)
		}
	})
}

// PublishSettingsUpdated publishes a settings.updated event.
func (bus *EventBus) PublishSettingsUpdated(p SettingsUpdatedPayload) {
	bus.send(EventSettingsUpdated, p)
}

// SubscribeSettingsUpdated registers a handler for settings.updated events.
func (bus *EventBus) SubscribeSettingsUpdated(fn func(SettingsUpdatedPayload)) {
	bus.subscribe(EventSettingsUpdated, func(payload any) {
		if p, ok := payload.(SettingsUpdatedPayload); ok {
			fn(p)
		}
	})
}

// PublishBackupCreated publishes a backup.created event.
func (bus *EventBus) PublishBackupCreated(p BackupCreatedPayload) {
	bus.send(EventBackupCreated, p)
}

// SubscribeBackupCreated registers a handler for backup.created events.
func (bus *EventBus) SubscribeBackupCreated(fn func(BackupCreatedPayload)) {
	bus.subscribe(EventBackupCreated, func(payload any) {
		if p, ok := payload.(BackupCreatedPayload); ok {
			fn(p)
		}
	})
}
