package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/mimir/pkg/core"
	"github.com/aretw0/mimir/pkg/validation"
)

// run executes the CLI in-process against dir and returns its stdout.
// Flag values persist between runs, so every test passes what it relies on.
func run(t *testing.T, dir string, args ...string) string {
	t.Helper()

	r, w, err := os.Pipe()
	require.NoError(t, err)
	stdout := os.Stdout
	os.Stdout = w

	full := append([]string{"--dir", dir, "--config", filepath.Join(dir, "absent.yaml")}, args...)
	rootCmd.SetArgs(full)
	execErr := rootCmd.Execute()

	w.Close()
	os.Stdout = stdout
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, execErr, "mimir %s", strings.Join(args, " "))
	return string(out)
}

func TestCLI(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "notes")

	out := run(t, dir, "init")
	assert.Contains(t, out, "Initialized notes directory")
	assert.FileExists(t, filepath.Join(dir, "groups.json"))

	id := strings.TrimSpace(run(t, dir, "note", "add", "Hello", "--content", "body", "--group", ""))
	require.Len(t, id, 36)

	var notes []core.Note
	require.NoError(t, json.Unmarshal([]byte(run(t, dir, "note", "list", "--json")), &notes))
	require.Len(t, notes, 1)
	assert.Equal(t, "Hello", notes[0].Title)

	assert.Contains(t, run(t, dir, "note", "pin", id[:8]), "pinned: true")

	groupID := strings.TrimSpace(run(t, dir, "group", "add", "Work", "--parent", "", "--note", id))
	require.Len(t, groupID, 36)
	tree := run(t, dir, "group", "tree", "--yaml")
	assert.Contains(t, tree, "name: Work")
	assert.Contains(t, tree, "notes: \"1\"")

	run(t, dir, "scratch", "--append", id)
	assert.Equal(t, "body", run(t, dir, "scratch", "--append="))

	show := run(t, dir, "note", "show", id)
	assert.Contains(t, show, "# Hello")
	assert.Contains(t, show, "group: Work")

	var stats map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(run(t, dir, "stats", "--json")), &stats))
	assert.Contains(t, stats, "state")
	assert.Contains(t, stats, "note-store")

	run(t, dir, "group", "rm", "Work")
	assert.Contains(t, run(t, dir, "group", "tree", "--yaml=false"), "ungrouped (1)")

	run(t, dir, "note", "rm", id)
	require.NoError(t, json.Unmarshal([]byte(run(t, dir, "note", "list", "--json")), &notes))
	assert.Empty(t, notes)

	assert.Contains(t, run(t, dir, "version"), "mimir version")
}

func TestParseEventTypes(t *testing.T) {
	types, err := parseEventTypes([]string{"create", " Groups "})
	require.NoError(t, err)
	assert.Equal(t, []core.EventType{core.EventCreate, core.EventGroups}, types)

	types, err = parseEventTypes(nil)
	require.NoError(t, err)
	assert.Empty(t, types)

	_, err = parseEventTypes([]string{"rename"})
	assert.Error(t, err)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"Not Found", fmt.Errorf("note %q: %w", "abc", core.ErrNotFound), exitNotFound},
		{"Read Only", fmt.Errorf("failed to save note: %w", core.ErrReadOnly), exitReadOnly},
		{"Invalid", validation.Note("", "").Err(), exitInvalid},
		{"Other", errors.New("disk full"), exitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}
