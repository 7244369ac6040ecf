package fs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TempFilePrefix names the sibling file a write is staged in. Listings and
// the watcher skip these files.
const TempFilePrefix = "mimir-tmp-"

const filePerm = 0644

// writeJSON encodes v in the indented layout every store file uses and
// replaces path with it.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	return replaceFile(path, data)
}

// replaceFile stages data next to path, syncs it and renames it over path.
// A reader sees the old file or the new one, never a torn note or group
// collection. On failure the staged file is removed and path is untouched.
func replaceFile(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), TempFilePrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to stage %s: %w", filepath.Base(path), err)
	}
	staged := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(staged)
		}
	}()

	_, err = tmp.Write(data)
	if err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to stage %s: %w", filepath.Base(path), err)
	}

	if err = os.Chmod(staged, filePerm); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", staged, err)
	}
	if err = os.Rename(staged, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// sweepStaged removes writes left behind in dir by a crash between staging
// and rename. It returns how many were removed.
func sweepStaged(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), TempFilePrefix) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil && !os.IsNotExist(err) {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
