// Package loader provides an indexable, paged view over a large note
// collection in which only a bounded number of notes is resident in memory.
//
// Positions are fixed when the loader is initialized from the store's
// identifier list. Full notes are read lazily, page by page, and kept in a
// cache evicted in load order (FIFO). Re-reading a cached note does not
// refresh its position in the eviction queue. Lightweight metadata for every
// note is kept separately and is never evicted.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/aretw0/mimir/pkg/core"
)

// Defaults.
const (
	DefaultPageSize      = 20
	DefaultPrefetchPages = 2
	DefaultCachePages    = 5
)

// Source is the subset of core.NoteStore the loader reads from.
type Source interface {
	Get(ctx context.Context, id uuid.UUID) (core.Note, error)
	ListMetadata(ctx context.Context) ([]core.NoteMetadata, error)
}

// Config holds the paging parameters. Zero values fall back to the defaults;
// a negative PrefetchPages disables prefetching.
type Config struct {
	PageSize      int
	PrefetchPages int
	CachePages    int
	Logger        *slog.Logger
}

// Loader is the paged note cache. It is not safe for concurrent use; it is
// owned by a single state object driven from one event loop.
type Loader struct {
	source        Source
	logger        *slog.Logger
	pageSize      int
	prefetchPages int
	maxCacheSize  int

	ids         []uuid.UUID
	currentPage int
	cache       map[int]core.Note
	queue       []int // Load order of cached indices, oldest first.
	metadata    map[uuid.UUID]core.NoteMetadata
}

// New creates an empty loader reading from source.
func New(source Source, cfg Config) *Loader {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.PrefetchPages == 0 {
		cfg.PrefetchPages = DefaultPrefetchPages
	}
	if cfg.PrefetchPages < 0 {
		cfg.PrefetchPages = 0
	}
	if cfg.CachePages <= 0 {
		cfg.CachePages = DefaultCachePages
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Loader{
		source:        source,
		logger:        cfg.Logger,
		pageSize:      cfg.PageSize,
		prefetchPages: cfg.PrefetchPages,
		maxCacheSize:  cfg.PageSize * cfg.CachePages,
		cache:         make(map[int]core.Note),
		metadata:      make(map[uuid.UUID]core.NoteMetadata),
	}
}

// Initialize resets the loader to the given ordered identifiers.
// The metadata cache is dropped.
func (l *Loader) Initialize(ids []uuid.UUID) {
	l.ids = append([]uuid.UUID(nil), ids...)
	l.metadata = make(map[uuid.UUID]core.NoteMetadata)
	l.Reset()
}

// InitializeFromStore resets the loader from the store's metadata listing
// and fills the metadata cache. This is the one full scan the loader pays
// for; note content stays on disk.
func (l *Loader) InitializeFromStore(ctx context.Context) error {
	metas, err := l.source.ListMetadata(ctx)
	if err != nil {
		return fmt.Errorf("failed to list note metadata: %w", err)
	}

	ids := make([]uuid.UUID, len(metas))
	for i, m := range metas {
		ids[i] = m.ID
	}
	l.Initialize(ids)
	for _, m := range metas {
		l.metadata[m.ID] = m
	}
	return nil
}

// LoadNextPage returns the next unread page and advances the page counter.
// It returns an empty slice once every page has been read. Afterwards it
// prefetches the following pages into the cache; prefetch failures are
// logged and discarded.
func (l *Loader) LoadNextPage(ctx context.Context) ([]core.Note, error) {
	if l.currentPage*l.pageSize >= len(l.ids) {
		return []core.Note{}, nil
	}

	notes, err := l.LoadPage(ctx, l.currentPage)
	if err != nil {
		return nil, err
	}
	l.currentPage++

	l.prefetch(ctx)
	return notes, nil
}

// LoadPage reads the notes of page through the cache. Notes deleted out of
// band are skipped.
func (l *Loader) LoadPage(ctx context.Context, page int) ([]core.Note, error) {
	start := page * l.pageSize
	end := min(start+l.pageSize, len(l.ids))
	if page < 0 || start >= end {
		return []core.Note{}, nil
	}

	notes := make([]core.Note, 0, end-start)
	for i := start; i < end; i++ {
		n, ok, err := l.GetByIndex(ctx, i)
		if err != nil {
			return nil, err
		}
		if ok {
			notes = append(notes, n)
		}
	}
	return notes, nil
}

func (l *Loader) prefetch(ctx context.Context) {
	for i := 0; i < l.prefetchPages; i++ {
		page := l.currentPage + i
		if page*l.pageSize >= len(l.ids) {
			return
		}
		if _, err := l.LoadPage(ctx, page); err != nil {
			l.logger.Debug("prefetch failed", "page", page, "error", err)
		}
	}
}

// GetByIndex returns the note at position index. ok is false when index is
// out of range or the note no longer exists in the store.
func (l *Loader) GetByIndex(ctx context.Context, index int) (note core.Note, ok bool, err error) {
	if index < 0 || index >= len(l.ids) {
		return core.Note{}, false, nil
	}

	if n, hit := l.cache[index]; hit {
		return n, true, nil
	}

	n, err := l.source.Get(ctx, l.ids[index])
	if errors.Is(err, core.ErrNotFound) {
		return core.Note{}, false, nil
	}
	if err != nil {
		return core.Note{}, false, fmt.Errorf("failed to load note %s: %w", l.ids[index], err)
	}

	l.store(index, n)
	return n, true, nil
}

// store inserts into the cache, evicting the oldest loaded entry when full.
func (l *Loader) store(index int, n core.Note) {
	for len(l.cache) >= l.maxCacheSize && len(l.queue) > 0 {
		oldest := l.queue[0]
		l.queue = l.queue[1:]
		delete(l.cache, oldest)
	}
	l.cache[index] = n
	l.queue = append(l.queue, index)
}

// Metadata returns the cached summary of the note at index. It never touches
// the store.
func (l *Loader) Metadata(index int) (core.NoteMetadata, bool) {
	if index < 0 || index >= len(l.ids) {
		return core.NoteMetadata{}, false
	}
	m, ok := l.metadata[l.ids[index]]
	return m, ok
}

// Range is the visible-range signal supplied by the presentation layer:
// the first and last visible positions.
type Range struct {
	First int
	Last  int
}

// ShouldLoadMore reports whether the visible range is within one page of the
// loaded boundary while unread pages remain.
func (l *Loader) ShouldLoadMore(visible Range) bool {
	loadedEnd := l.currentPage * l.pageSize
	return max(visible.Last, 0)+l.pageSize >= loadedEnd && loadedEnd < len(l.ids)
}

// Visible returns exactly count entries starting at start. Entries past the
// end of the collection, and notes deleted out of band, are nil. Store
// errors are returned as is.
func (l *Loader) Visible(ctx context.Context, start, count int) ([]*core.Note, error) {
	start = max(start, 0)
	count = max(count, 0)

	out := make([]*core.Note, count)
	for i := range out {
		n, ok, err := l.GetByIndex(ctx, start+i)
		if err != nil {
			return nil, err
		}
		if ok {
			out[i] = &n
		}
	}
	return out, nil
}

// Update refreshes the metadata and any cached copy of a note edited in
// place. Positions are unchanged. It reports whether the note is indexed.
func (l *Loader) Update(n core.Note) bool {
	if !slices.Contains(l.ids, n.ID) {
		return false
	}
	l.metadata[n.ID] = n.Metadata()
	for i, cached := range l.cache {
		if cached.ID == n.ID {
			l.cache[i] = n
		}
	}
	return true
}

// Seek moves the page counter to page without reading anything. It is used
// to resume paging after the identifier list was rebuilt.
func (l *Loader) Seek(page int) {
	l.currentPage = min(max(page, 0), l.pageCount())
}

// SeekItem moves the pager to the page holding index, so the next page read
// starts with it. An index past the end marks every page as read.
func (l *Loader) SeekItem(index int) {
	if index >= len(l.ids) {
		l.currentPage = l.pageCount()
		return
	}
	l.Seek(index / l.pageSize)
}

// ID returns the identifier at index in listing order.
func (l *Loader) ID(index int) (uuid.UUID, bool) {
	if index < 0 || index >= len(l.ids) {
		return uuid.Nil, false
	}
	return l.ids[index], true
}

func (l *Loader) pageCount() int {
	return (len(l.ids) + l.pageSize - 1) / l.pageSize
}

// ClearCache drops every resident note. Identifiers and metadata are kept.
func (l *Loader) ClearCache() {
	l.cache = make(map[int]core.Note)
	l.queue = nil
}

// Reset rewinds paging and clears the cache.
func (l *Loader) Reset() {
	l.currentPage = 0
	l.ClearCache()
}

// IsCached reports whether the note at index is resident.
func (l *Loader) IsCached(index int) bool {
	_, ok := l.cache[index]
	return ok
}

// TotalCount returns the number of indexed notes.
func (l *Loader) TotalCount() int {
	return len(l.ids)
}

// LoadedPages returns how many pages LoadNextPage has handed out.
func (l *Loader) LoadedPages() int {
	return l.currentPage
}

// PageSize returns the configured page size.
func (l *Loader) PageSize() int {
	return l.pageSize
}

// MaxCacheSize returns the resident note bound.
func (l *Loader) MaxCacheSize() int {
	return l.maxCacheSize
}

// LoadedPercentage returns the resident share of the collection in percent;
// an empty collection counts as fully loaded.
func (l *Loader) LoadedPercentage() float64 {
	if len(l.ids) == 0 {
		return 100
	}
	return float64(len(l.cache)) / float64(len(l.ids)) * 100
}

// Stats is a snapshot of the loader for observability.
type Stats struct {
	TotalNotes    int     `json:"total_notes"`
	LoadedNotes   int     `json:"loaded_notes"`
	CurrentPage   int     `json:"current_page"`
	CacheHitRatio float64 `json:"cache_hit_ratio"`
}

// Stats returns the current counters.
func (l *Loader) Stats() Stats {
	s := Stats{
		TotalNotes:  len(l.ids),
		LoadedNotes: len(l.cache),
		CurrentPage: l.currentPage,
	}
	if s.TotalNotes > 0 {
		s.CacheHitRatio = float64(s.LoadedNotes) / float64(s.TotalNotes)
	}
	return s
}
