package config

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"knowledge-engine/domain/knowledge"
)

// RuleWatcher serves the current suggestion rule table and hot-reloads it
// when the backing file changes, so connection heuristics can be tuned
// without a redeploy. It satisfies the suggester's RuleSource contract.
type RuleWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	logger  *zap.Logger

	mu      sync.RWMutex
	current knowledge.RuleTable

	stopCh chan struct{}
}

// NewRuleWatcher loads the initial rule table from path and starts watching
// it for changes.
func NewRuleWatcher(path string, logger *zap.Logger) (*RuleWatcher, error) {
	table, err := LoadRuleTable(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load initial rule table: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch rules file: %w", err)
	}
	// Watch the directory too: editors and configmap mounts replace the
	// file atomically via rename.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		logger.Warn("Failed to watch rules directory", zap.Error(err))
	}

	w := &RuleWatcher{
		path:    path,
		watcher: watcher,
		logger:  logger,
		current: table,
		stopCh:  make(chan struct{}),
	}
	go w.watch()

	return w, nil
}

// Rules returns the current rule table.
func (w *RuleWatcher) Rules() knowledge.RuleTable {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Stop stops watching for changes.
func (w *RuleWatcher) Stop() {
	close(w.stopCh)
	w.watcher.Close()
}

func (w *RuleWatcher) watch() {
	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Rules watcher error", zap.Error(err))
		}
	}
}

func (w *RuleWatcher) reload() {
	table, err := LoadRuleTable(w.path)
	if err != nil {
		// Keep serving the last good table on a broken edit.
		w.logger.Warn("Failed to reload rule table", zap.String("path", w.path), zap.Error(err))
		return
	}

	w.mu.Lock()
	w.current = table
	w.mu.Unlock()

	w.logger.Info("Reloaded suggestion rule table",
		zap.String("path", w.path),
		zap.Int("rules", len(table.Rules)),
	)
}
