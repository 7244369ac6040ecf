package platform

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/aretw0/mimir/pkg/adapters/fs"
)

// ErrRootNotFound is returned by FindRoot when no notes directory encloses
// the start directory.
var ErrRootNotFound = errors.New("notes root not found")

// FindRoot looks upwards from startDir for a notes directory, recognized by
// a groups.json file or a .mimir index directory. It returns the absolute
// path of the first match.
func FindRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		if hasFile(dir, fs.GroupsFile) || hasFile(dir, fs.DefaultSystemDir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrRootNotFound
		}
		dir = parent
	}
}

func hasFile(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}
