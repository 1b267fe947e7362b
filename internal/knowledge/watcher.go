package knowledge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"elsbot/internal/logging"
)

var errWatcherClosed = errors.New("knowledge watcher already stopped")

// Watcher reports edits to the knowledge file while a session runs.
// It never reloads anything: the system instruction of a running session
// stays fixed, so a change only means the next session will see new data.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	path     string
	onChange func(path string)

	debounceDur time.Duration
	lastEvent   time.Time
	pending     bool

	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
	closed  bool
}

// NewWatcher creates a watcher for the knowledge file at path. onChange is
// called from the watcher goroutine once edits have settled.
func NewWatcher(path string, onChange func(path string)) (*Watcher, error) {
	if path == "" {
		path = DefaultPath
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher:     fw,
		path:        abs,
		onChange:    onChange,
		debounceDur: 300 * time.Millisecond, // editors write in bursts
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start begins watching. It is non-blocking.
// The parent directory is watched so rename-on-save editors are seen.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	if w.closed {
		w.mu.Unlock()
		return errWatcherClosed
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		w.close()
		return err
	}
	logging.Knowledge("Watching knowledge file %s", w.path)

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for its goroutine to exit. It also
// releases the fsnotify watcher of a Watcher that was never started.
func (w *Watcher) Stop() {
	w.mu.Lock()
	running := w.running
	w.running = false
	w.mu.Unlock()

	if running {
		close(w.stopCh)
		<-w.doneCh
	}
	w.close()
}

// close releases the fsnotify watcher once.
func (w *Watcher) close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.mu.Unlock()

	if err := w.watcher.Close(); err != nil {
		logging.Get(logging.CategoryKnowledge).Error("Knowledge watcher close failed: %v", err)
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.debounceDur / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Get(logging.CategoryKnowledge).Error("Knowledge watcher error: %v", err)

		case <-ticker.C:
			w.flush()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	w.mu.Lock()
	w.lastEvent = time.Now()
	w.pending = true
	w.mu.Unlock()
}

// flush fires onChange once the last event is older than the debounce window.
func (w *Watcher) flush() {
	w.mu.Lock()
	fire := w.pending && time.Since(w.lastEvent) >= w.debounceDur
	if fire {
		w.pending = false
	}
	w.mu.Unlock()

	if !fire {
		return
	}
	if _, err := os.Stat(w.path); err != nil {
		logging.Get(logging.CategoryKnowledge).Warn("Knowledge file %s changed and is no longer readable: %v", w.path, err)
	} else {
		logging.Get(logging.CategoryKnowledge).Warn("Knowledge file %s changed; restart to use the new catalog", w.path)
	}
	if w.onChange != nil {
		w.onChange(w.path)
	}
}
