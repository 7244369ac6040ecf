package platform

import (
	"log/slog"

	"github.com/aretw0/mimir/pkg/core"
	"github.com/aretw0/mimir/pkg/loader"
	"github.com/aretw0/mimir/pkg/state"
)

// options holds the internal configuration for opening a notes directory.
type options struct {
	store         core.NoteStore
	logger        *slog.Logger
	loadMode      state.LoadMode
	loader        loader.Config
	lazyThreshold int

	readOnly     bool
	mustExist    bool
	devSafety    bool
	forceTemp    bool
	systemDir    string
	watchPattern string
	watchErrors  func(error)
}

// Option defines a functional option for configuring Mimir.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		loadMode:  state.LoadAuto,
		devSafety: true,
	}
}

func resolve(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the logger for the store and the state.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStore allows injecting a custom storage adapter (e.g. an in-memory
// store). If provided, the filesystem adapter is skipped.
func WithStore(store core.NoteStore) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithLoadMode selects eager, lazy or automatic loading. Defaults to auto.
func WithLoadMode(mode state.LoadMode) Option {
	return func(o *options) {
		o.loadMode = mode
	}
}

// WithPageSize sets the number of notes per lazy page.
func WithPageSize(n int) Option {
	return func(o *options) {
		o.loader.PageSize = n
	}
}

// WithPrefetchPages sets how many pages are read ahead. A negative value
// disables prefetching.
func WithPrefetchPages(n int) Option {
	return func(o *options) {
		o.loader.PrefetchPages = n
	}
}

// WithCachePages sets how many pages the lazy cache may hold.
func WithCachePages(n int) Option {
	return func(o *options) {
		o.loader.CachePages = n
	}
}

// WithLazyThreshold sets the note count above which auto mode goes lazy.
func WithLazyThreshold(n int) Option {
	return func(o *options) {
		o.lazyThreshold = n
	}
}

// WithReadOnly enables read-only mode.
// In this mode:
// 1. Write operations return core.ErrReadOnly.
// 2. The notes directory is never created.
// 3. Index updates are not persisted to disk.
// 4. Dev Safety Lock (go run temp dir) is BYPASSED (uses real path).
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.readOnly = enabled
	}
}

// WithMustExist ensures the notes directory must already exist.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.mustExist = must
	}
}

// WithDevSafety controls the sandbox used when running via `go run`.
// By default (true), the notes directory is re-rooted into a temporary
// directory to prevent accidental data loss.
//
// CAUTION: Only disable this if you are sure your code is safe.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.devSafety = enabled
	}
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.forceTemp = force
	}
}

// WithSystemDir sets the hidden directory holding the metadata index.
// Defaults to ".mimir".
func WithSystemDir(name string) Option {
	return func(o *options) {
		o.systemDir = name
	}
}

// WithWatchPattern sets the glob matched against changed file names.
// Defaults to "*.json".
func WithWatchPattern(pattern string) Option {
	return func(o *options) {
		o.watchPattern = pattern
	}
}

// WithWatcherErrorHandler registers a callback for errors occurring in the
// watch loop (e.g. permission denied), which are otherwise only logged.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.watchErrors = fn
	}
}
