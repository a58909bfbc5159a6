package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay is how long changes must settle before a reload;
// editors fire several filesystem events per save.
const debounceDelay = 100 * time.Millisecond

// Watcher reloads the configuration file when it changes on disk.
type Watcher struct {
	watcher *fsnotify.Watcher

	mu      sync.Mutex
	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// Watch watches path and calls onChange with the freshly loaded
// configuration after each change settles. Load failures go to
// onError and leave the previous configuration in effect. Both
// callbacks run on the watcher goroutine and must not block.
func Watch(path string, onChange func(Config), onError func(error)) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory rather than the file: most editors save by
	// writing a temp file and renaming it over the original, which
	// drops a direct file watch.
	dir := filepath.Dir(abs)
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	w := &Watcher{
		watcher: fsw,
		closeCh: make(chan struct{}),
	}
	w.wg.Add(1)
	go w.processLoop(abs, onChange, onError)
	return w, nil
}

// processLoop debounces events for the config file and reloads it.
func (w *Watcher) processLoop(path string, onChange func(Config), onError func(error)) {
	defer w.wg.Done()

	var debounce *time.Timer
	var pending <-chan time.Time

	for {
		select {
		case <-w.closeCh:
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Name != path {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(debounceDelay)
			} else {
				if !debounce.Stop() {
					select {
					case <-debounce.C:
					default:
					}
				}
				debounce.Reset(debounceDelay)
			}
			pending = debounce.C

		case <-pending:
			pending = nil
			cfg, err := Load(path)
			if err != nil {
				if onError != nil {
					onError(err)
				}
				continue
			}
			onChange(cfg)

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// The next write retriggers a reload; no recovery needed
			// here.
		}
	}
}

// Close stops the watcher. Safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	w.mu.Unlock()

	w.wg.Wait()
	return w.watcher.Close()
}
