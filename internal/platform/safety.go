package platform

import (
	"os"
	"path/filepath"
	"strings"
)

// devDirName is the namespace under the system temp dir used by the sandbox.
const devDirName = "mimir-dev"

// IsDevRun checks if the current process is running via `go run` or `go test`.
// Both build their binaries in temporary directories.
func IsDevRun() bool {
	exe, err := os.Executable()
	if err != nil {
		return false
	}

	if strings.HasPrefix(strings.ToLower(exe), strings.ToLower(os.TempDir())) {
		return true
	}

	// go test binaries end in .test
	return strings.HasSuffix(exe, ".test") || strings.HasSuffix(exe, ".test.exe")
}

// ResolveNotesPath determines the actual notes directory under the safety
// rules. With forceTemp it re-roots the path into a temporary directory so a
// development run never touches real notes. Paths already inside the system
// temp dir (e.g. from t.TempDir()) are trusted and returned unchanged.
func ResolveNotesPath(userPath string, forceTemp bool) string {
	if !forceTemp {
		if userPath == "" {
			return "."
		}
		return userPath
	}

	cleanUserPath := filepath.Clean(userPath)
	rel, err := filepath.Rel(os.TempDir(), cleanUserPath)
	if userPath != "" && err == nil && !strings.HasPrefix(rel, "..") {
		return cleanUserPath
	}

	subName := "default"
	if userPath != "" && userPath != "." && userPath != "./" {
		// Only the base name is kept, so "../foo" cannot escape the sandbox.
		subName = filepath.Base(userPath)
		if subName == "." || subName == string(os.PathSeparator) {
			subName = "default"
		}
	}

	return filepath.Join(os.TempDir(), devDirName, subName)
}
