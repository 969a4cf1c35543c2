package dictionary

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

const reloadDebounce = 300 * time.Millisecond

// Watch watches Store's backing file for external edits (a human correcting
// a mapping by hand) and drops the in-memory cache so the next lookup
// reloads from disk. It runs until ctx is cancelled. Debounced the same way
// as a directory watcher would debounce a burst of writes from one save.
func (s *Store) Watch(ctx context.Context) error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return err
	}

	go s.runWatch(ctx, watcher)
	return nil
}

func (s *Store) runWatch(ctx context.Context, watcher *fsnotify.Watcher) {
	defer watcher.Close()
	target := filepath.Clean(s.Path)
	var timer *time.Timer

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(reloadDebounce, s.invalidate)
		case werr, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Debug().Err(werr).Str("path", s.Path).Msg("dictionary watch error")
		}
	}
}

// invalidate drops the in-memory cache so the next Lookup/LookupAll call
// re-reads Path from disk.
func (s *Store) invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = false
	s.entries = nil
}
