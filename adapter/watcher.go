package adapter

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Code-Grump/vscode-cucumber-test-adapter/logging"
)

const defaultDebounce = 250 * time.Millisecond

// Watcher fires a callback once feature files stop changing for a while.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	log      *logging.Log
	debounce time.Duration
	timer    *time.Timer
	onChange func()
	stopCh   chan struct{}
	done     chan struct{}
	closed   bool
}

// NewWatcher watches dirs, non recursively, for changes to .feature files.
func NewWatcher(dirs []string, debounce time.Duration, log *logging.Log, onChange func()) (*Watcher, error) {
	if debounce == 0 {
		debounce = defaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	for _, dir := range dirs {
		if err := fw.Add(dir); err != nil {
			_ = fw.Close()
			return nil, err
		}
		log.Debug("Watching directory: %s", dir)
	}

	w := &Watcher{
		watcher:  fw,
		log:      log,
		debounce: debounce,
		onChange: onChange,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	go w.processEvents()

	return w, nil
}

func (w *Watcher) processEvents() {
	defer close(w.done)

	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error(err, "Feature file watcher error")
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if filepath.Ext(event.Name) != ".feature" {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	w.log.Debug("Feature file changed: %s", event.Name)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func (w *Watcher) fire() {
	w.mu.Lock()
	closed := w.closed
	w.timer = nil
	w.mu.Unlock()

	if !closed {
		w.onChange()
	}
}

// Close stops watching; a pending change is dropped.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	close(w.stopCh)
	w.mu.Unlock()

	err := w.watcher.Close()
	<-w.done
	return err
}

// featureDirs lists the directories holding the configured feature files,
// or cwd when there are none.
func featureDirs(cwd string, featurePaths []string) []string {
	seen := map[string]bool{}
	var dirs []string
	for _, p := range featurePaths {
		dir := filepath.Dir(p)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	if len(dirs) == 0 {
		dirs = append(dirs, cwd)
	}
	sort.Strings(dirs)
	return dirs
}

// Watch fires the autorun event whenever a feature file of the workspace
// changes, until the adapter is disposed. Calling it again is a no-op.
func (a *CucumberAdapter) Watch(ctx context.Context) error {
	cfg, err := a.loader.Load(ctx)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.disposed || a.watcher != nil {
		return nil
	}

	w, err := NewWatcher(featureDirs(cfg.Cwd, cfg.FeaturePaths), a.debounce, a.log.With("watcher"), func() {
		a.log.Info("Feature files changed")
		a.autorun.Fire(struct{}{})
	})
	if err != nil {
		return err
	}
	a.watcher = w

	return nil
}
