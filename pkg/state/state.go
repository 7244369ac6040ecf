// Package state owns the in-memory view of a notes directory: the note list,
// the group tree, the lazy loader and the handle to the store.
//
// Every mutation is written to the store before it is reflected in memory. A
// failed write leaves the state untouched and is returned to the caller.
// Cascades that touch many notes (assigning notes to a new group, moving the
// notes of a deleted group) are best-effort: each note is saved on its own
// and a failure is logged without stopping the cascade.
//
// A State is not safe for concurrent use. It is meant to be driven from a
// single event loop.
package state

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/aretw0/mimir/pkg/core"
	"github.com/aretw0/mimir/pkg/grouptree"
	"github.com/aretw0/mimir/pkg/loader"
)

// LoadMode selects how notes are brought into memory.
type LoadMode string

const (
	// LoadAuto picks LoadLazy above the lazy threshold, LoadEager otherwise.
	LoadAuto LoadMode = "auto"
	// LoadEager reads every note at startup.
	LoadEager LoadMode = "eager"
	// LoadLazy reads notes page by page through a loader.Loader.
	LoadLazy LoadMode = "lazy"
)

// DefaultLazyThreshold is the note count above which LoadAuto goes lazy.
const DefaultLazyThreshold = 100

// ParseLoadMode parses "auto", "eager" or "lazy". The empty string is LoadAuto.
func ParseLoadMode(s string) (LoadMode, error) {
	switch m := LoadMode(s); m {
	case "":
		return LoadAuto, nil
	case LoadAuto, LoadEager, LoadLazy:
		return m, nil
	default:
		return "", fmt.Errorf("unknown load mode %q (want auto, eager or lazy)", s)
	}
}

// ErrUnsupported is returned when the store lacks an optional capability.
var ErrUnsupported = errors.New("operation not supported by store")

// Config holds the state parameters. Zero values fall back to the defaults.
type Config struct {
	LoadMode      LoadMode
	LazyThreshold int
	Loader        loader.Config
	Logger        *slog.Logger
}

// State is the single owner of the application data.
type State struct {
	store  core.NoteStore
	logger *slog.Logger
	cfg    Config

	mode       LoadMode // Effective mode, never LoadAuto.
	notes      []core.Note
	tree       *grouptree.Tree
	loader     *loader.Loader // Nil unless mode is LoadLazy.
	scratchpad string
}

// New loads groups, notes and the scratchpad from store.
func New(ctx context.Context, store core.NoteStore, cfg Config) (*State, error) {
	if cfg.LoadMode == "" {
		cfg.LoadMode = LoadAuto
	}
	if cfg.LazyThreshold <= 0 {
		cfg.LazyThreshold = DefaultLazyThreshold
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Loader.Logger == nil {
		cfg.Loader.Logger = cfg.Logger
	}

	s := &State{
		store:  store,
		logger: cfg.Logger,
		cfg:    cfg,
		tree:   grouptree.New(nil),
	}

	if err := s.reloadGroups(ctx); err != nil {
		return nil, err
	}
	if err := s.initialize(ctx, cfg.LoadMode); err != nil {
		return nil, err
	}
	s.loadScratchpad(ctx)

	return s, nil
}

func (s *State) reloadGroups(ctx context.Context) error {
	groups, err := s.store.LoadGroups(ctx)
	if err != nil {
		return fmt.Errorf("failed to load groups: %w", err)
	}
	tree := grouptree.New(groups)
	if tree.Repair() {
		s.logger.Warn("repaired inconsistent group hierarchy", "op", "load", "entity", "groups")
	}
	s.tree = tree
	return nil
}

// initialize (re)builds the note list for mode.
func (s *State) initialize(ctx context.Context, mode LoadMode) error {
	if mode == LoadAuto {
		mode = LoadEager
		ids, err := s.store.ListIDs(ctx)
		if err != nil {
			s.logger.Warn("failed to count notes, loading eagerly", "op", "init", "error", err)
		} else if len(ids) > s.cfg.LazyThreshold {
			mode = LoadLazy
		}
	}

	if mode == LoadLazy {
		l := loader.New(s.store, s.cfg.Loader)
		if err := l.InitializeFromStore(ctx); err != nil {
			s.logger.Error("lazy loader init failed, falling back to eager", "op", "init", "entity", "loader", "error", err)
			mode = LoadEager
		} else {
			s.mode = LoadLazy
			s.loader = l
			s.notes = nil
			page, err := l.LoadNextPage(ctx)
			if err != nil {
				s.logger.Error("failed to load first page", "op", "load", "entity", "page", "id", 0, "error", err)
			}
			s.merge(page)
			s.logger.Info("lazy loading initialized", "op", "init", "entity", "notes", "total", l.TotalCount())
			return nil
		}
	}

	notes, err := s.store.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load notes: %w", err)
	}
	s.mode = LoadEager
	s.loader = nil
	s.notes = notes
	sortNotes(s.notes)
	s.logger.Info("notes loaded", "op", "init", "entity", "notes", "count", len(notes))
	return nil
}

// SwitchLoadMode reinitializes the note list under mode.
func (s *State) SwitchLoadMode(ctx context.Context, mode LoadMode) error {
	if mode == s.mode {
		return nil
	}
	s.logger.Info("switching load mode", "op", "switch", "entity", "load_mode", "from", s.mode, "to", mode)
	return s.initialize(ctx, mode)
}

// Store returns the store backing the state.
func (s *State) Store() core.NoteStore {
	return s.store
}

// Mode returns the effective load mode, LoadEager or LoadLazy.
func (s *State) Mode() LoadMode {
	return s.mode
}

// LoadMoreIfNeeded appends the next page when the visible range approaches
// the loaded boundary. It reports whether new notes were added. It is a
// no-op in eager mode.
func (s *State) LoadMoreIfNeeded(ctx context.Context, visible loader.Range) (bool, error) {
	if s.loader == nil || !s.loader.ShouldLoadMore(visible) {
		return false, nil
	}

	// A page re-read after a reindex may hold only notes already in memory.
	added := 0
	for added == 0 {
		page, err := s.loader.LoadNextPage(ctx)
		if err != nil {
			s.logger.Error("failed to load page", "op", "load", "entity", "page", "id", s.loader.LoadedPages(), "error", err)
			return false, err
		}
		if len(page) == 0 {
			break
		}
		added = s.merge(page)
	}
	if added > 0 {
		s.logger.Debug("page loaded", "op", "load", "entity", "page", "id", s.loader.LoadedPages()-1, "added", added)
	}
	return added > 0, nil
}

// Page returns the notes of one page without advancing the pager. In eager
// mode pages are cut from the sorted note list.
func (s *State) Page(ctx context.Context, page int) ([]core.Note, error) {
	if s.loader != nil {
		return s.loader.LoadPage(ctx, page)
	}
	size := s.pageSize()
	start := page * size
	if page < 0 || start >= len(s.notes) {
		return []core.Note{}, nil
	}
	return slices.Clone(s.notes[start:min(start+size, len(s.notes))]), nil
}

func (s *State) pageSize() int {
	if s.cfg.Loader.PageSize > 0 {
		return s.cfg.Loader.PageSize
	}
	return loader.DefaultPageSize
}

// LoaderStats returns the loader counters; ok is false in eager mode.
func (s *State) LoaderStats() (stats loader.Stats, ok bool) {
	if s.loader == nil {
		return loader.Stats{}, false
	}
	return s.loader.Stats(), true
}

// NoteMetadata returns the summary at index from the loader's metadata
// cache; ok is false in eager mode or out of range.
func (s *State) NoteMetadata(index int) (core.NoteMetadata, bool) {
	if s.loader == nil {
		return core.NoteMetadata{}, false
	}
	return s.loader.Metadata(index)
}

// IsNoteCached reports whether the note at index is in memory.
func (s *State) IsNoteCached(index int) bool {
	if s.loader == nil {
		return index >= 0 && index < len(s.notes)
	}
	return s.loader.IsCached(index)
}

// TotalNotes returns the number of notes in the store as far as the state
// knows, including notes not yet loaded.
func (s *State) TotalNotes() int {
	if s.loader == nil {
		return len(s.notes)
	}
	return max(s.loader.TotalCount(), len(s.notes))
}

// reindex rebuilds the loader's identifier list after the store changed.
// Positions shift when notes come and go, so the pager resumes at the page
// holding the first note not yet in memory.
func (s *State) reindex(ctx context.Context) {
	if s.loader == nil {
		return
	}
	if err := s.loader.InitializeFromStore(ctx); err != nil {
		s.logger.Error("failed to refresh lazy loader", "op", "update", "entity", "loader", "error", err)
		return
	}

	loaded := make(map[uuid.UUID]struct{}, len(s.notes))
	for _, n := range s.notes {
		loaded[n.ID] = struct{}{}
	}
	total := s.loader.TotalCount()
	next := total
	for i := 0; i < total; i++ {
		id, _ := s.loader.ID(i)
		if _, ok := loaded[id]; !ok {
			next = i
			break
		}
	}
	s.loader.SeekItem(next)
}

// merge adds notes not already present and re-sorts. It returns how many
// were added.
func (s *State) merge(notes []core.Note) int {
	added := 0
	for _, n := range notes {
		if s.indexOf(n.ID) < 0 {
			s.notes = append(s.notes, n)
			added++
		}
	}
	sortNotes(s.notes)
	return added
}

// sortNotes orders pinned notes first, then newest first.
func sortNotes(notes []core.Note) {
	slices.SortStableFunc(notes, func(a, b core.Note) int {
		if a.Pinned != b.Pinned {
			if a.Pinned {
				return -1
			}
			return 1
		}
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), bytes.Compare(a.ID[:], b.ID[:]))
	})
}

// Watch forwards the store's change notifications when it supports them.
// Apply them with ApplyEvent.
func (s *State) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	w, ok := s.store.(core.Watchable)
	if !ok {
		return nil, fmt.Errorf("watch: %w", ErrUnsupported)
	}
	return w.Watch(ctx, pattern)
}
