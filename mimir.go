package mimir

import (
	"context"
	"log/slog"

	"github.com/aretw0/mimir/internal/platform"
	"github.com/aretw0/mimir/pkg/core"
	"github.com/aretw0/mimir/pkg/state"
)

// --- Types ---

// State is a public alias for the application state.
type State = state.State

// LoadMode is a public alias for the note loading strategy.
type LoadMode = state.LoadMode

const (
	LoadAuto  = state.LoadAuto
	LoadEager = state.LoadEager
	LoadLazy  = state.LoadLazy
)

// ParseLoadMode parses "auto", "eager" or "lazy".
func ParseLoadMode(s string) (LoadMode, error) {
	return state.ParseLoadMode(s)
}

// Config is the on-disk configuration file.
type Config = platform.Config

// --- Configuration ---

// Option defines a functional option for configuring Mimir.
type Option = platform.Option

// WithLogger sets the logger for the store and the state.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithStore allows injecting a custom storage adapter.
func WithStore(store core.NoteStore) Option {
	return platform.WithStore(store)
}

// WithLoadMode selects eager, lazy or automatic loading.
func WithLoadMode(mode LoadMode) Option {
	return platform.WithLoadMode(mode)
}

// WithPageSize sets the number of notes per lazy page.
func WithPageSize(n int) Option {
	return platform.WithPageSize(n)
}

// WithPrefetchPages sets how many pages are read ahead.
func WithPrefetchPages(n int) Option {
	return platform.WithPrefetchPages(n)
}

// WithCachePages sets how many pages the lazy cache may hold.
func WithCachePages(n int) Option {
	return platform.WithCachePages(n)
}

// WithLazyThreshold sets the note count above which auto mode goes lazy.
func WithLazyThreshold(n int) Option {
	return platform.WithLazyThreshold(n)
}

// WithReadOnly enables read-only mode.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithMustExist ensures the notes directory must already exist.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithDevSafety controls the temp-dir sandbox used under `go run`.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithSystemDir sets the hidden directory holding the metadata index.
func WithSystemDir(name string) Option {
	return platform.WithSystemDir(name)
}

// WithWatchPattern sets the glob matched against changed file names.
func WithWatchPattern(pattern string) Option {
	return platform.WithWatchPattern(pattern)
}

// WithWatcherErrorHandler registers a callback for watch loop errors.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// --- Factory ---

// New opens the notes directory at path and loads it into a State.
func New(path string, opts ...Option) (*State, error) {
	return platform.New(path, opts...)
}

// Open returns the initialized store for path without loading any note.
func Open(path string, opts ...Option) (core.NoteStore, error) {
	return platform.Open(path, opts...)
}

// Watch starts watching the store behind st for external changes. Feed the
// events to st.ApplyEvent.
func Watch(ctx context.Context, st *State, opts ...Option) (<-chan core.Event, error) {
	return platform.Watch(ctx, st, opts...)
}

// LoadConfig reads the configuration file at path; empty selects the
// default location.
func LoadConfig(path string) (Config, error) {
	return platform.LoadConfig(path)
}

// DefaultConfigPath returns the location of the configuration file.
func DefaultConfigPath() (string, error) {
	return platform.DefaultConfigPath()
}

// --- Safety & Utils ---

// ResolveNotesPath determines the actual notes directory under the safety rules.
func ResolveNotesPath(userPath string, forceTemp bool) string {
	return platform.ResolveNotesPath(userPath, forceTemp)
}

// IsDevRun checks if the current process is running via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}

// FindNotesRoot looks upwards from startDir for a notes directory.
func FindNotesRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}
