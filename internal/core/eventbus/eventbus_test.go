package eventbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Tioit-Wang/fk.todo/internal/core/task"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startBus(t *testing.T, buffer int) *EventBus {
	t.Helper()

	bus := New(buffer)
	ctx, cancel := context.WithCancel(context.Background())
	go bus.Start(ctx)
	t.Cleanup(cancel)
	return bus
}

func waitFor(t *testing.T, done <-chan struct{}) {
	t.Helper()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event delivery")
	}
}

func TestEventBus_PublishSubscribe(t *testing.T) {
	t.Parallel()

	bus := startBus(t, 8)

	done := make(chan struct{})
	var got ReminderFiredPayload
	bus.SubscribeReminderFired(func(p ReminderFiredPayload) {
		got = p
		close(done)
	})

	bus.PublishReminderFired(ReminderFiredPayload{
		Task:    task.Task{ID: "t1", Title: "standup"},
		FiredAt: 1_700_000_000,
	})

	waitFor(t, done)
	assert.Equal(t, "t1", got.Task.ID)
	assert.Equal(t, int64(1_700_000_000), got.FiredAt)
}

func TestEventBus_TypedSubscribersDoNotCross(t *testing.T) {
	t.Parallel()

	bus := startBus(t, 8)

	done := make(chan struct{})
	fired := 0
	bus.SubscribeBackupCreated(func(BackupCreatedPayload) {
		fired++
	})
	bus.SubscribeStateUpdated(func(StateUpdatedPayload) {
		close(done)
	})

	bus.PublishStateUpdated(StateUpdatedPayload{})

	waitFor(t, done)
	assert.Zero(t, fired, "backup subscriber must not see state events")
}

func TestEventBus_SubscriberPanicIsIsolated(t *testing.T) {
	t.Parallel()

	bus := startBus(t, 8)

	var panicked Event
	bus.OnPanic(func(event Event, _ any, _ any) {
		panicked = event
	})

	done := make(chan struct{})
	bus.SubscribeTaskCompleted(func(TaskCompletedPayload) {
		panic("boom")
	})
	bus.SubscribeTaskCompleted(func(TaskCompletedPayload) {
		close(done)
	})

	bus.PublishTaskCompleted(TaskCompletedPayload{Task: task.Task{ID: "t1"}})

	waitFor(t, done)
	assert.Equal(t, EventTaskCompleted, panicked)
}

func TestEventBus_DropsWhenBufferFull(t *testing.T) {
	t.Parallel()

	// No Start call, so nothing drains the buffer.
	bus := New(1)

	var mu sync.Mutex
	dropped := 0
	bus.OnDrop(func(Event, any) {
		mu.Lock()
		dropped++
		mu.Unlock()
	})

	bus.PublishStateUpdated(StateUpdatedPayload{})
	bus.PublishStateUpdated(StateUpdatedPayload{})

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, dropped)
}

func TestEventBus_PublishHook(t *testing.T) {
	t.Parallel()

	bus := New(4)

	var events []Event
	bus.OnPublish(func(event Event, _ any) {
		events = append(events, event)
	})

	bus.PublishBackupCreated(BackupCreatedPayload{Name: "data-2024-06-10.json"})
	bus.PublishSettingsUpdated(SettingsUpdatedPayload{Settings: task.DefaultSettings()})

	require.Len(t, events, 2)
	assert.Equal(t, []Event{EventBackupCreated, EventSettingsUpdated}, events)
}

func TestRegisterDebugLogger(t *testing.T) {
	t.Parallel()

	bus := startBus(t, 8)
	RegisterDebugLogger(bus, zerolog.Nop())

	done := make(chan struct{})
	bus.SubscribeStateUpdated(func(StateUpdatedPayload) {
		close(done)
	})

	bus.PublishStateUpdated(StateUpdatedPayload{})
	waitFor(t, done)
}
