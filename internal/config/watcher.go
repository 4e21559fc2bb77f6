package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/teemow/tweetbridge/internal/logging"
)

// DefaultDebounce coalesces bursts of writes from editors into one reload.
const DefaultDebounce = 500 * time.Millisecond

// EnvWatcher calls onChange after any of a set of files is written, created,
// renamed or removed. Parent directories are watched rather than the files
// themselves so editors that replace files atomically are still seen.
type EnvWatcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]bool
	onChange func()
	debounce time.Duration
	logger   logging.Logger

	mu    sync.Mutex
	timer *time.Timer
}

// WatcherOption configures an EnvWatcher.
type WatcherOption func(*EnvWatcher)

// WithDebounce sets the quiet period before onChange fires.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *EnvWatcher) {
		w.debounce = d
	}
}

// WithWatcherLogger sets the logger for watcher diagnostics.
func WithWatcherLogger(l logging.Logger) WatcherOption {
	return func(w *EnvWatcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewEnvWatcher starts watching the directories containing paths.
// Paths whose directory does not exist are ignored.
func NewEnvWatcher(paths []string, onChange func(), opts ...WatcherOption) (*EnvWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &EnvWatcher{
		watcher:  fw,
		files:    make(map[string]bool),
		onChange: onChange,
		debounce: DefaultDebounce,
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(w)
	}

	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		w.files[abs] = true

		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		if err := fw.Add(dir); err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
		dirs[dir] = true
		w.logger.Debug("watching directory for env changes", "dir", dir)
	}

	return w, nil
}

// Run processes events until ctx is cancelled or the watcher is closed.
func (w *EnvWatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			return w.watcher.Close()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("env file watcher error", logging.Err(err))
		}
	}
}

// Close stops watching. Run returns once the event channels drain.
func (w *EnvWatcher) Close() error {
	w.stopTimer()
	return w.watcher.Close()
}

func (w *EnvWatcher) handle(event fsnotify.Event) {
	name, err := filepath.Abs(event.Name)
	if err != nil || !w.files[name] {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	w.logger.Debug("env file event", "file", name, "op", event.Op.String())

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.onChange)
}

func (w *EnvWatcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
