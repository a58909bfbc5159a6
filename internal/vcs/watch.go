package vcs

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// HeadWatcher reports checkouts in one repository by watching its HEAD
// file, so the displayed branch changes without waiting out the cache
// TTL.
type HeadWatcher struct {
	watcher *fsnotify.Watcher

	mu      sync.Mutex
	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// WatchHead watches the repository rooted at root and calls onChange
// whenever HEAD is rewritten, which is what a checkout does. onChange
// runs on the watcher goroutine and must not block; callers marshal
// any real work onto their own loop.
func WatchHead(root string, onChange func()) (*HeadWatcher, error) {
	dir, ok := gitDir(root)
	if !ok {
		return nil, ErrNotRepository
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the git directory rather than HEAD itself: git rewrites
	// HEAD by rename, which silently drops a direct file watch.
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	w := &HeadWatcher{
		watcher: fsw,
		closeCh: make(chan struct{}),
	}
	w.wg.Add(1)
	go w.processLoop(filepath.Join(dir, "HEAD"), onChange)
	return w, nil
}

// processLoop filters fsnotify traffic down to HEAD rewrites.
func (w *HeadWatcher) processLoop(headPath string, onChange func()) {
	defer w.wg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Name != headPath {
				continue
			}
			if ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Rename) {
				onChange()
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// A broken watch degrades to cache TTL expiry, which the
			// tracker handles anyway.
		}
	}
}

// Close stops the watcher. Safe to call more than once.
func (w *HeadWatcher) Close() error {
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
