package platform

import (
	"context"

	"github.com/aretw0/mimir/pkg/adapters/fs"
	"github.com/aretw0/mimir/pkg/core"
	"github.com/aretw0/mimir/pkg/state"
)

// New opens the notes directory at path and loads it into a state.
//
//	st, err := mimir.New("./notes", mimir.WithLoadMode(state.LoadLazy))
func New(path string, opts ...Option) (*state.State, error) {
	o := resolve(opts)

	store, err := open(path, o)
	if err != nil {
		return nil, err
	}

	return state.New(context.Background(), store, state.Config{
		LoadMode:      o.loadMode,
		LazyThreshold: o.lazyThreshold,
		Loader:        o.loader,
		Logger:        o.logger,
	})
}

// Open returns the initialized store for path without loading any note.
func Open(path string, opts ...Option) (core.NoteStore, error) {
	return open(path, resolve(opts))
}

// Watch starts watching the store behind st with the pattern set by
// WithWatchPattern.
func Watch(ctx context.Context, st *state.State, opts ...Option) (<-chan core.Event, error) {
	o := resolve(opts)
	return st.Watch(ctx, o.watchPattern)
}

func open(path string, o *options) (core.NoteStore, error) {
	// Injected stores are used as is.
	if o.store != nil {
		return o.store, nil
	}

	store := newFS(path, o)
	if err := store.Initialize(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}

// newFS resolves the notes path under the dev safety rules and builds the
// filesystem store.
func newFS(path string, o *options) *fs.Store {
	// Read-only access is inherently safe.
	bypassSafety := o.readOnly || !o.devSafety
	useTemp := o.forceTemp || (IsDevRun() && !bypassSafety)
	resolvedPath := ResolveNotesPath(path, useTemp)

	if IsDevRun() && o.logger != nil {
		if bypassSafety {
			if o.readOnly {
				o.logger.Debug("running in READ-ONLY mode (bypassing dev sandbox)", "path", resolvedPath)
			} else {
				o.logger.Warn("running in UNSAFE mode (bypassing dev sandbox)", "path", resolvedPath)
			}
		} else {
			o.logger.Debug("running in SAFE mode (dev sandbox enabled)", "path", resolvedPath)
		}
	}
	if o.logger != nil && useTemp && resolvedPath != path {
		o.logger.Warn("running in SAFE MODE (Dev/Test)", "original_path", path, "resolved_path", resolvedPath)
	}

	return fs.NewStore(fs.Config{
		Path:         resolvedPath,
		MustExist:    o.mustExist,
		ReadOnly:     o.readOnly,
		SystemDir:    o.systemDir,
		Logger:       o.logger,
		ErrorHandler: o.watchErrors,
	})
}
