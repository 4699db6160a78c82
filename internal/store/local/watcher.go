package local

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// selfWriteWindow is how long after one of our own writes a file event
// for the same key is suppressed.
const selfWriteWindow = 500 * time.Millisecond

// Watcher emits the store keys whose blobs were changed by another
// process. Events are debounced so a burst of writes to the same key
// produces a single notification.
//
// This is how a second oclock process (or a second "tab") observes
// mutations: the store itself is last-write-wins, the watcher only
// triggers a re-read.
type Watcher struct {
	store    *Store
	watcher  *fsnotify.Watcher
	events   chan string
	errors   chan error
	done     chan struct{}
	wg       sync.WaitGroup
	debounce time.Duration
}

// Watch starts watching the store directory for external blob changes.
// Callers must Close the watcher when done.
func (s *Store) Watch() (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	if err := fsw.Add(s.dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", s.dir, err)
	}

	w := &Watcher{
		store:    s,
		watcher:  fsw,
		events:   make(chan string, 16),
		errors:   make(chan error, 4),
		done:     make(chan struct{}),
		debounce: 100 * time.Millisecond,
	}

	w.wg.Add(1)
	go w.processEvents()

	return w, nil
}

// Events returns the channel of changed store keys.
func (w *Watcher) Events() <-chan string {
	return w.events
}

// Errors returns the channel of watcher errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	close(w.done)
	err := w.watcher.Close()
	w.wg.Wait()
	close(w.events)
	close(w.errors)
	return err
}

// processEvents converts fsnotify events to debounced key notifications.
func (w *Watcher) processEvents() {
	defer w.wg.Done()

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			key, accept := w.convertEvent(event)
			if accept {
				pending[key] = time.Now()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			case <-w.done:
				return
			}

		case <-ticker.C:
			for key, at := range pending {
				if time.Since(at) < w.debounce {
					continue
				}
				delete(pending, key)
				select {
				case w.events <- key:
				case <-w.done:
					return
				}
			}
		}
	}
}

// convertEvent maps an fsnotify event to a store key, filtering out
// non-blob files and echoes of this process's own writes.
func (w *Watcher) convertEvent(event fsnotify.Event) (string, bool) {
	if !strings.HasSuffix(event.Name, ".json") {
		return "", false
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Remove) {
		return "", false
	}

	key := strings.TrimSuffix(filepath.Base(event.Name), ".json")
	if w.store.recentlyWritten(key, selfWriteWindow) {
		return "", false
	}
	return key, true
}
