package fs

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/mimir/pkg/core"
)

const (
	// NoteExt is the extension of note files; the stem is the note ID.
	NoteExt = ".json"
	// GroupsFile holds the whole group collection.
	GroupsFile = "groups.json"
	// ScratchpadFile holds the free-form persistent text.
	ScratchpadFile = "persistent_text.txt"
	// DefaultSystemDir holds the metadata index.
	DefaultSystemDir = ".mimir"
)

// Store implements core.NoteStore on a flat directory of JSON files.
type Store struct {
	Path   string
	cache  *cache
	config Config

	mu            sync.RWMutex
	watcherActive bool
	lastScan      *time.Time
}

// Config holds the configuration for the filesystem store.
type Config struct {
	Path         string
	MustExist    bool
	ReadOnly     bool
	SystemDir    string // e.g. ".mimir"
	Logger       *slog.Logger
	ErrorHandler func(error) // Receives watcher failures; nil logs them.
}

// NewStore creates a new filesystem-backed note store.
func NewStore(config Config) *Store {
	if config.SystemDir == "" {
		config.SystemDir = DefaultSystemDir
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{
		Path:   config.Path,
		config: config,
		cache:  newCache(config.Path, config.SystemDir),
	}
}

// Initialize creates the notes directory (unless MustExist is set) and loads
// the metadata index.
func (s *Store) Initialize(ctx context.Context) error {
	if s.config.MustExist || s.config.ReadOnly {
		info, err := os.Stat(s.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("notes path does not exist: %s", s.Path)
		}
		if err != nil {
			return fmt.Errorf("failed to stat notes path: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("notes path is not a directory: %s", s.Path)
		}
	} else if err := os.MkdirAll(s.Path, 0755); err != nil {
		return fmt.Errorf("failed to create notes directory: %w", err)
	}

	if !s.config.ReadOnly {
		n, err := sweepStaged(s.Path)
		if err != nil {
			s.config.Logger.Warn("failed to remove interrupted writes", "op", "init", "entity", "store", "error", err)
		} else if n > 0 {
			s.config.Logger.Info("removed interrupted writes", "op", "init", "entity", "store", "count", n)
		}
	}
	return s.cache.Load()
}

func (s *Store) notePath(id uuid.UUID) string {
	return filepath.Join(s.Path, id.String()+NoteExt)
}

// noteID extracts the note ID from a file name. Files that are not named
// "<uuid>.json" are not notes.
func noteID(name string) (uuid.UUID, bool) {
	stem, ok := strings.CutSuffix(name, NoteExt)
	if !ok || name == GroupsFile {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(stem)
	if err != nil || id.String() != stem {
		return uuid.Nil, false
	}
	return id, true
}

// noteEntries returns the note files of the directory. A missing directory
// is an empty store.
func (s *Store) noteEntries() ([]os.DirEntry, error) {
	entries, err := os.ReadDir(s.Path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read notes directory: %w", err)
	}

	out := entries[:0]
	for _, e := range entries {
		if e.Type().IsRegular() {
			if _, ok := noteID(e.Name()); ok {
				out = append(out, e)
			}
		}
	}
	return out, nil
}

// ListIDs enumerates note IDs from file names without opening any file.
func (s *Store) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	entries, err := s.noteEntries()
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		id, _ := noteID(e.Name())
		ids = append(ids, id)
	}
	return ids, nil
}

// ListMetadata returns the summary of every readable note, newest first.
// Summaries come from the index when the file's mtime is unchanged; other
// files are parsed and the index is refreshed. Unreadable notes are logged
// and skipped.
func (s *Store) ListMetadata(ctx context.Context) ([]core.NoteMetadata, error) {
	entries, err := s.noteEntries()
	if err != nil {
		return nil, err
	}

	metas := make([]core.NoteMetadata, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := e.Name()
		info, err := e.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		seen[name] = true

		if entry, ok := s.cache.Get(name, info.ModTime()); ok {
			metas = append(metas, entry.Metadata)
			continue
		}

		n, err := s.readNote(filepath.Join(s.Path, name))
		if err != nil {
			s.config.Logger.Warn("skipping unreadable note", "file", name, "error", err)
			continue
		}
		m := n.Metadata()
		s.cache.Set(name, &indexEntry{Metadata: m, LastModified: info.ModTime()})
		metas = append(metas, m)
	}

	s.cache.Prune(seen)
	s.persistIndex()
	s.recordScan()

	sortMetadata(metas)
	return metas, nil
}

func (s *Store) persistIndex() {
	if s.config.ReadOnly {
		return
	}
	if err := s.cache.Save(); err != nil {
		s.config.Logger.Warn("failed to save metadata index", "error", err)
	}
}

func sortMetadata(metas []core.NoteMetadata) {
	slices.SortStableFunc(metas, func(a, b core.NoteMetadata) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), bytes.Compare(a.ID[:], b.ID[:]))
	})
}

func (s *Store) readNote(path string) (core.Note, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.Note{}, err
	}
	var n core.Note
	if err := json.Unmarshal(data, &n); err != nil {
		return core.Note{}, fmt.Errorf("failed to decode note: %w", err)
	}
	return n, nil
}

// Get reads one note. It returns core.ErrNotFound when the file is absent.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (core.Note, error) {
	n, err := s.readNote(s.notePath(id))
	if errors.Is(err, os.ErrNotExist) {
		return core.Note{}, fmt.Errorf("note %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Note{}, fmt.Errorf("failed to read note %s: %w", id, err)
	}
	return n, nil
}

// List reads every note, newest first. Unreadable notes are logged and
// skipped.
func (s *Store) List(ctx context.Context) ([]core.Note, error) {
	ids, err := s.ListIDs(ctx)
	if err != nil {
		return nil, err
	}

	notes := make([]core.Note, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := s.Get(ctx, id)
		if errors.Is(err, core.ErrNotFound) {
			continue
		}
		if err != nil {
			s.config.Logger.Warn("skipping unreadable note", "id", id, "error", err)
			continue
		}
		notes = append(notes, n)
	}

	slices.SortStableFunc(notes, func(a, b core.Note) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), bytes.Compare(a.ID[:], b.ID[:]))
	})
	return notes, nil
}

// Save writes the note atomically, replacing any previous version.
func (s *Store) Save(ctx context.Context, n core.Note) error {
	if s.config.ReadOnly {
		return core.ErrReadOnly
	}
	if n.ID == uuid.Nil {
		return fmt.Errorf("note has no ID")
	}

	path := s.notePath(n.ID)
	if err := writeJSON(path, n); err != nil {
		return fmt.Errorf("failed to write note %s: %w", n.ID, err)
	}

	if info, err := os.Stat(path); err == nil {
		s.cache.Set(filepath.Base(path), &indexEntry{Metadata: n.Metadata(), LastModified: info.ModTime()})
	}
	return nil
}

// Delete removes the note file. It returns core.ErrNotFound when absent.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	if s.config.ReadOnly {
		return core.ErrReadOnly
	}

	path := s.notePath(id)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("note %s: %w", id, core.ErrNotFound)
		}
		return fmt.Errorf("failed to delete note %s: %w", id, err)
	}
	s.cache.Delete(filepath.Base(path))
	return nil
}

// LoadGroups reads the group collection. A missing or empty file is an
// empty collection.
func (s *Store) LoadGroups(ctx context.Context) ([]core.Group, error) {
	data, err := os.ReadFile(filepath.Join(s.Path, GroupsFile))
	if os.IsNotExist(err) {
		return []core.Group{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read groups: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []core.Group{}, nil
	}

	var groups []core.Group
	if err := json.Unmarshal(data, &groups); err != nil {
		return nil, fmt.Errorf("failed to decode groups: %w", err)
	}
	if groups == nil {
		groups = []core.Group{}
	}
	return groups, nil
}

// SaveGroups replaces the group collection in one atomic write.
func (s *Store) SaveGroups(ctx context.Context, groups []core.Group) error {
	if s.config.ReadOnly {
		return core.ErrReadOnly
	}
	if groups == nil {
		groups = []core.Group{}
	}

	if err := writeJSON(filepath.Join(s.Path, GroupsFile), groups); err != nil {
		return fmt.Errorf("failed to write groups: %w", err)
	}
	return nil
}

// LoadScratchpad returns the persistent text, empty when never written.
func (s *Store) LoadScratchpad(ctx context.Context) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.Path, ScratchpadFile))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read scratchpad: %w", err)
	}
	return string(data), nil
}

// SaveScratchpad replaces the persistent text.
func (s *Store) SaveScratchpad(ctx context.Context, text string) error {
	if s.config.ReadOnly {
		return core.ErrReadOnly
	}
	if err := replaceFile(filepath.Join(s.Path, ScratchpadFile), []byte(text)); err != nil {
		return fmt.Errorf("failed to write scratchpad: %w", err)
	}
	return nil
}

// Close flushes the metadata index.
func (s *Store) Close() error {
	if s.config.ReadOnly {
		return nil
	}
	return s.cache.Save()
}

var (
	_ core.NoteStore  = (*Store)(nil)
	_ core.Watchable  = (*Store)(nil)
	_ core.Scratchpad = (*Store)(nil)
)
