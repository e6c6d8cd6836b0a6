// Package watch reports settled changes to facet and recipe files so a prompt
// can be recomposed after edits.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/kayz/facet/internal/logger"
)

// DefaultDebounce batches rapid saves into one change.
const DefaultDebounce = 300 * time.Millisecond

var watchedExts = []string{".md", ".yaml", ".yml"}

// Watcher watches directories (and their immediate subdirectories).
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
}

// New creates a Watcher over dirs. Directories that do not exist are skipped.
func New(dirs []string, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w := &Watcher{watcher: fw, debounce: debounce}
	for _, dir := range dirs {
		w.addTree(dir)
	}
	return w, nil
}

func (w *Watcher) addTree(dir string) {
	if err := w.watcher.Add(dir); err != nil {
		logger.Debug("Watch skipped %s: %v", dir, err)
		return
	}
	logger.Debug("Watching %s", dir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			sub := filepath.Join(dir, e.Name())
			if err := w.watcher.Add(sub); err != nil {
				logger.Debug("Watch skipped %s: %v", sub, err)
			}
		}
	}
}

// Run blocks until ctx is done, calling onChange with the sorted paths of
// each settled batch of changes. The underlying watcher is closed on return.
func (w *Watcher) Run(ctx context.Context, onChange func(paths []string)) error {
	defer w.watcher.Close()

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			logger.Trace("Watch event %s on %s", event.Op, event.Name)
			pending[event.Name] = struct{}{}
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("Watch error: %v", err)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			pending = make(map[string]struct{})
			onChange(paths)
		}
	}
}

func relevant(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) &&
		!event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
		return false
	}
	for _, ext := range watchedExts {
		if strings.HasSuffix(event.Name, ext) {
			return true
		}
	}
	return false
}
