// Package watcher reports changes to the declaration files read by a run.
package watcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	slogctx "github.com/veqryn/slog-context"
	"gitlab.com/tozd/go/errors"
)

// DefaultDebounce is the quiet period before changes are reported.
const DefaultDebounce = 500 * time.Millisecond

// Watcher monitors a fixed set of files with debouncing and pause/resume support.
type Watcher interface {
	// Start begins watching, calling callback with debounced file changes.
	Start(ctx context.Context, callback func(files []string)) error

	// Stop stops the watcher and cleans up resources.
	Stop() error

	// Pause stops firing callbacks but continues accumulating events.
	Pause()

	// Resume resumes firing callbacks. If events accumulated during pause, fires immediately.
	Resume()
}

type fileWatcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]string // absolute path to the path as given
	debounce time.Duration
	callback func(files []string)
	ctx      context.Context
	cancel   context.CancelFunc

	pausedMu sync.RWMutex
	paused   bool

	accumulatedMu sync.Mutex
	accumulated   map[string]bool

	timerMu       sync.Mutex
	debounceTimer *time.Timer

	stopOnce sync.Once
	doneCh   chan struct{}
}

// New creates a watcher for files. Their directories are watched rather
// than the files themselves, so that files replaced by an editor are still
// seen. A debounce of zero uses DefaultDebounce.
func New(files []string, debounce time.Duration) (Watcher, error) {
	if len(files) == 0 {
		return nil, errors.New("no files to watch")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Errorf("failed to create watcher: %w", err)
	}

	fw := &fileWatcher{
		watcher:     w,
		files:       make(map[string]string, len(files)),
		debounce:    debounce,
		accumulated: make(map[string]bool),
		doneCh:      make(chan struct{}),
	}

	dirs := make(map[string]bool)
	for _, file := range files {
		abs, err := filepath.Abs(file)
		if err != nil {
			w.Close()
			return nil, errors.Errorf("failed to resolve %s: %w", file, err)
		}
		fw.files[abs] = file
		dirs[filepath.Dir(abs)] = true
	}

	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			w.Close()
			return nil, errors.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	return fw, nil
}

// Start begins watching for file changes.
func (fw *fileWatcher) Start(ctx context.Context, callback func(files []string)) error {
	if callback == nil {
		return errors.New("nil callback")
	}

	fw.callback = callback
	fw.ctx, fw.cancel = context.WithCancel(ctx)

	go fw.watch()
	return nil
}

// Stop stops the watcher. It is safe to call more than once.
func (fw *fileWatcher) Stop() error {
	var err error
	fw.stopOnce.Do(func() {
		if fw.cancel != nil {
			fw.cancel()
			<-fw.doneCh
		} else {
			close(fw.doneCh)
		}
		err = fw.watcher.Close()
	})
	return err
}

// Pause stops firing callbacks but continues accumulating events.
func (fw *fileWatcher) Pause() {
	fw.pausedMu.Lock()
	defer fw.pausedMu.Unlock()
	fw.paused = true
}

// Resume resumes firing callbacks. Changes accumulated during the pause are
// reported immediately, from the calling goroutine.
func (fw *fileWatcher) Resume() {
	fw.pausedMu.Lock()
	wasPaused := fw.paused
	fw.paused = false
	fw.pausedMu.Unlock()

	if wasPaused {
		fw.flush()
	}
}

func (fw *fileWatcher) watch() {
	defer close(fw.doneCh)

	fire := make(chan struct{}, 1)

	for {
		select {
		case <-fw.ctx.Done():
			fw.stopDebounceTimer()
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			file, watched := fw.files[event.Name]
			if !watched || event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			fw.accumulatedMu.Lock()
			fw.accumulated[file] = true
			fw.accumulatedMu.Unlock()

			fw.resetDebounceTimer(fire)

		case <-fire:
			fw.pausedMu.RLock()
			paused := fw.paused
			fw.pausedMu.RUnlock()

			if !paused {
				fw.flush()
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			slogctx.FromCtx(fw.ctx).WarnContext(fw.ctx, "file watcher error", "error", err)
		}
	}
}

// flush reports and clears the accumulated changes.
func (fw *fileWatcher) flush() {
	if fw.callback == nil {
		return
	}

	fw.accumulatedMu.Lock()
	if len(fw.accumulated) == 0 {
		fw.accumulatedMu.Unlock()
		return
	}
	files := make([]string, 0, len(fw.accumulated))
	for file := range fw.accumulated {
		files = append(files, file)
	}
	fw.accumulated = make(map[string]bool)
	fw.accumulatedMu.Unlock()

	fw.callback(files)
}

// resetDebounceTimer restarts the quiet period.
func (fw *fileWatcher) resetDebounceTimer(fire chan struct{}) {
	fw.timerMu.Lock()
	defer fw.timerMu.Unlock()

	if fw.debounceTimer != nil {
		fw.debounceTimer.Stop()
	}
	fw.debounceTimer = time.AfterFunc(fw.debounce, func() {
		select {
		case fire <- struct{}{}:
		default:
		}
	})
}

func (fw *fileWatcher) stopDebounceTimer() {
	fw.timerMu.Lock()
	defer fw.timerMu.Unlock()

	if fw.debounceTimer != nil {
		fw.debounceTimer.Stop()
		fw.debounceTimer = nil
	}
}
