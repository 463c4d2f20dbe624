package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/sred-drafter/internal/logger"
)

// DefaultDebounce is how long the watcher waits for further writes before
// reloading. Editors often write a file in several steps.
const DefaultDebounce = 250 * time.Millisecond

// Reloader is anything whose cached state should be dropped when files change.
type Reloader interface {
	Reload()
}

// Watcher reloads a prompt store whenever a .txt file in its directory
// is created, written, renamed or removed.
type Watcher struct {
	dir      string
	target   Reloader
	debounce time.Duration
	fsw      *fsnotify.Watcher

	mu      sync.Mutex
	timer   *time.Timer
	reloads int
	done    chan struct{}
}

// NewWatcher creates a watcher for dir. The directory is created if missing.
func NewWatcher(dir string, target Reloader, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create prompt directory: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	return &Watcher{
		dir:      dir,
		target:   target,
		debounce: debounce,
		fsw:      fsw,
		done:     make(chan struct{}),
	}, nil
}

// Run processes events until ctx is cancelled or Close is called.
func (w *Watcher) Run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				w.stopTimer()
				return
			}
			if filepath.Ext(event.Name) != ".txt" {
				continue
			}
			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}
			logger.Debug("prompt file changed: %s (%s)", filepath.Base(event.Name), event.Op)
			w.schedule()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				w.stopTimer()
				return
			}
			logger.Warn("prompt watcher: %v", err)
		}
	}
}

// Close stops watching. Run returns once the event channel closes.
func (w *Watcher) Close() error {
	err := w.fsw.Close()
	w.stopTimer()
	return err
}

// Done is closed when Run returns.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

// Reloads returns how many reloads have fired.
func (w *Watcher) Reloads() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloads
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
	w.target.Reload()

	w.mu.Lock()
	w.reloads++
	w.mu.Unlock()

	logger.Info("prompts reloaded from %s", w.dir)
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}
