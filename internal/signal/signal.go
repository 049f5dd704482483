// Package signal lets separate daylog processes tell each other that the
// local store changed. Writers touch a revision file; a running session
// watches it and reacts once per burst of writes.
package signal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

const defaultDebounce = 300 * time.Millisecond

// Touch writes a fresh revision to path, creating the directory if needed.
// An empty path is a no-op.
func Touch(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create signal dir: %w", err)
	}
	rev := strconv.FormatInt(time.Now().UnixNano(), 10)
	return os.WriteFile(path, []byte(rev), 0o644)
}

// Watcher calls a handler after the revision file changes.
type Watcher struct {
	path     string
	debounce time.Duration
	handler  func()
	log      *logrus.Entry

	mu      sync.Mutex
	lastRev string
	timer   *time.Timer
}

type Option func(*Watcher)

func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

func WithLogger(log *logrus.Entry) Option {
	return func(w *Watcher) {
		if log != nil {
			w.log = log
		}
	}
}

func NewWatcher(path string, handler func(), opts ...Option) *Watcher {
	w := &Watcher{
		path:     path,
		debounce: defaultDebounce,
		handler:  handler,
		log:      logrus.NewEntry(logrus.StandardLogger()).WithField("component", "signal"),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.lastRev = w.readRev()
	return w
}

// Run watches until ctx is done. It returns an error only when the watch
// cannot be set up.
func (w *Watcher) Run(ctx context.Context) error {
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create signal dir: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer watcher.Close()
	// The directory is watched so the file may be replaced or created later.
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	name := filepath.Base(w.path)

	defer w.stopTimer()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.schedule()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.WithError(err).Warn("signal watch error")
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func (w *Watcher) fire() {
	rev := w.readRev()
	w.mu.Lock()
	if rev == w.lastRev {
		w.mu.Unlock()
		return
	}
	w.lastRev = rev
	w.mu.Unlock()

	w.log.WithField("rev", rev).Debug("change signalled")
	if w.handler != nil {
		w.handler()
	}
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

func (w *Watcher) readRev() string {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
