// Package watch implements the optional near-real-time reopen watcher
// (spec_full 5): an fsnotify event loop, run in its own goroutine, that
// debounces new snapshot manifests and triggers a caller-supplied reopen
// callback — the one sanctioned exception to the core's single-threaded
// scheduling model. Grounded on the teacher's indexing.FileWatcher
// (internal/indexing/watcher.go): fsnotify.Watcher plus a timer-based
// debouncer, callbacks delivered synchronously off the debounce timer.
package watch

import (
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/ixo/internal/ixlog"
	"github.com/standardbeagle/ixo/internal/snapshot"
)

// NRTWatcher watches an index directory for new snapshot manifests and
// calls OnReopen, debounced, once activity settles. Searcher.Reopen
// itself remains single-threaded from its caller's perspective; only
// the trigger runs on its own goroutine.
type NRTWatcher struct {
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
	onReopen func() error

	wg     sync.WaitGroup
	mu     sync.Mutex
	timer  *time.Timer
	closed bool

	errMu   sync.Mutex
	lastErr error
}

// New creates a watcher over path (an OSFolder's root directory; RAM-backed
// indexes have no filesystem path and cannot be watched). onReopen is
// called at most once per debounce window, from the debounce timer's
// goroutine.
func New(path string, debounceMs int, onReopen func() error) (*NRTWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounceMs <= 0 {
		debounceMs = 200
	}
	return &NRTWatcher{
		watcher:  fw,
		path:     path,
		debounce: time.Duration(debounceMs) * time.Millisecond,
		onReopen: onReopen,
	}, nil
}

// Start begins watching path's directory and launches the event loop.
func (w *NRTWatcher) Start() error {
	if err := w.watcher.Add(w.path); err != nil {
		return err
	}
	w.wg.Add(1)
	go w.run()
	return nil
}

// Stop cancels any pending debounce timer, tears down the fsnotify
// watcher and waits for the event loop to finish; an onReopen call that
// has already started is not waited for.
func (w *NRTWatcher) Stop() error {
	w.mu.Lock()
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

// LastError returns the most recent error onReopen returned, if any.
func (w *NRTWatcher) LastError() error {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	return w.lastErr
}

func (w *NRTWatcher) run() {
	defer w.wg.Done()
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !isSnapshotCreate(event) {
				continue
			}
			w.scheduleReopen()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			ixlog.Printf("watch error: %v", err)
		}
	}
}

func isSnapshotCreate(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return false
	}
	_, ok := snapshot.ParseName(baseName(event.Name))
	return ok
}

func baseName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			return path[i+1:]
		}
	}
	return path
}

// scheduleReopen (re)arms the debounce timer so a burst of snapshot
// writes collapses into a single reopen call.
func (w *NRTWatcher) scheduleReopen() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fireReopen)
}

func (w *NRTWatcher) fireReopen() {
	if err := w.onReopen(); err != nil {
		w.errMu.Lock()
		w.lastErr = err
		w.errMu.Unlock()
		ixlog.Printf("reopen failed: %v", err)
	}
}
