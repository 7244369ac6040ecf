package fs

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/mimir/pkg/core"
)

// DefaultWatchPattern matches every note file.
const DefaultWatchPattern = "*" + NoteExt

const debounceDelay = 50 * time.Millisecond

// Watch reports changes made to the notes directory by other processes.
// pattern is a doublestar glob matched against note file names; an empty
// pattern means DefaultWatchPattern. Changes to the group collection are
// reported as core.EventGroups regardless of pattern. The channel is closed
// once ctx is done.
func (s *Store) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	if pattern == "" {
		pattern = DefaultWatchPattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid watch pattern %q", pattern)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(s.Path); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", s.Path, err)
	}

	events := make(chan core.Event, 100)
	w := &watcherLoop{
		store:     s,
		pattern:   pattern,
		events:    events,
		done:      make(chan struct{}),
		watcher:   watcher,
		debouncer: newDebouncer(debounceDelay),
	}
	s.setWatcherActive(true)

	lifecycle.Go(ctx, w.run, lifecycle.WithErrorHandler(func(err error) {
		s.reportError(fmt.Errorf("watcher: %w", err))
	}))
	return events, nil
}

type watcherLoop struct {
	store     *Store
	pattern   string
	events    chan core.Event
	done      chan struct{} // Closed before events; releases blocked sends.
	watcher   *fsnotify.Watcher
	debouncer *debouncer
}

func (w *watcherLoop) run(ctx context.Context) (err error) {
	logger := w.store.config.Logger
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("watcher panic: %v", recovered)
			if logger.Enabled(ctx, slog.LevelDebug) {
				logger.Error("watcher panic", "error", err, "stack", string(debug.Stack()))
			} else {
				logger.Error("watcher panic", "error", err)
			}
		}
		close(w.done)
		w.debouncer.stop()
		close(w.events)
	}()
	defer w.store.setWatcherActive(false)
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			if e, ok := w.translate(event); ok {
				w.send(ctx, e)
			}

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.store.reportError(wErr)
		}
	}
}

// translate maps a filesystem notification to a domain event. Temp files,
// the system directory and files outside the pattern are ignored.
func (w *watcherLoop) translate(event fsnotify.Event) (core.Event, bool) {
	name := filepath.Base(event.Name)
	w.store.config.Logger.Debug("fs event", "name", name, "op", event.Op.String())

	if strings.HasPrefix(name, TempFilePrefix) || name == w.store.config.SystemDir {
		return core.Event{}, false
	}

	var eType core.EventType
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		eType = core.EventDelete
	case event.Has(fsnotify.Create):
		eType = core.EventCreate
	case event.Has(fsnotify.Write):
		eType = core.EventModify
	default:
		return core.Event{}, false
	}

	now := time.Now().Unix()
	if name == GroupsFile {
		return core.Event{Type: core.EventGroups, Timestamp: now}, true
	}

	if ok, _ := doublestar.Match(w.pattern, name); !ok {
		return core.Event{}, false
	}
	id, ok := noteID(name)
	if !ok {
		return core.Event{}, false
	}
	return core.Event{Type: eType, ID: id, Timestamp: now}, true
}

func (w *watcherLoop) send(ctx context.Context, e core.Event) {
	w.debouncer.add(e, func(e core.Event) {
		select {
		case w.events <- e:
		case <-w.done:
		case <-ctx.Done():
		}
	})
}

func (s *Store) reportError(err error) {
	if s.config.ErrorHandler != nil {
		s.config.ErrorHandler(err)
		return
	}
	s.config.Logger.Error("watcher error", "error", err)
}
