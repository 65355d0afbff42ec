package jsonfile

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	debounceDelay   = 50 * time.Millisecond
	eventBufferSize = 16
)

// ChangeEvent is delivered when a watched document file is modified on disk
// by another process.
type ChangeEvent struct {
	File      string
	Timestamp time.Time
}

// Watcher watches the storage root for external changes to the document
// files using fsnotify. Writes performed through Storage also trigger
// events; callers that persist through the same process should debounce or
// compare content before reloading.
type Watcher struct {
	root    string
	watcher *fsnotify.Watcher

	mu          sync.Mutex
	subscribers []chan<- ChangeEvent
	debounce    map[string]*time.Timer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatcher creates a watcher over the storage root directory. The
// directory must already exist; call Storage.EnsureDirs first.
func NewWatcher(s *Storage) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, ioError(err)
	}

	if err := fw.Add(s.Root()); err != nil {
		_ = fw.Close()
		return nil, ioError(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		root:     s.Root(),
		watcher:  fw,
		debounce: make(map[string]*time.Timer),
		ctx:      ctx,
		cancel:   cancel,
	}

	w.wg.Add(1)
	go w.run()

	return w, nil
}

// Watch returns a channel that receives an event whenever data.json or
// settings.json changes. The subscription ends when ctx is cancelled or the
// watcher is closed.
func (w *Watcher) Watch(ctx context.Context) <-chan ChangeEvent {
	ch := make(chan ChangeEvent, eventBufferSize)

	w.mu.Lock()
	w.subscribers = append(w.subscribers, ch)
	w.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			w.unsubscribe(ch)
		case <-w.ctx.Done():
		}
	}()

	return ch
}

// Close stops watching and closes all subscriber channels.
func (w *Watcher) Close() error {
	w.cancel()

	w.mu.Lock()
	for _, timer := range w.debounce {
		timer.Stop()
	}
	for _, ch := range w.subscribers {
		close(ch)
	}
	w.subscribers = nil
	w.mu.Unlock()

	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) unsubscribe(ch chan<- ChangeEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i, sub := range w.subscribers {
		if sub == ch {
			w.subscribers = append(w.subscribers[:i], w.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

func (w *Watcher) run() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	// Temp files from atomic writes carry a suffix and never match the
	// canonical names, so in-progress writes are filtered out here too.
	filename := filepath.Base(event.Name)
	if filename != DataFile && filename != SettingsFile {
		return
	}

	w.mu.Lock()
	if timer, exists := w.debounce[filename]; exists {
		timer.Stop()
	}
	w.debounce[filename] = time.AfterFunc(debounceDelay, func() {
		w.notify(filename)
	})
	w.mu.Unlock()
}

func (w *Watcher) notify(filename string) {
	ev := ChangeEvent{
		File:      filename,
		Timestamp: time.Now(),
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	for _, ch := range w.subscribers {
		select {
		case ch <- ev:
		default:
			// Slow subscriber, drop rather than block the event loop.
		}
	}

	delete(w.debounce, filename)
}
