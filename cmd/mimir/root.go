package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/aretw0/mimir"
	"github.com/aretw0/mimir/pkg/core"
)

var (
	verbose    bool
	notesDir   string
	configPath string
	readOnly   bool
	loadMode   string

	cfg mimir.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mimir",
	Short: "Notes with nested groups, stored as plain JSON files",
	Long: `Mimir keeps one JSON file per note and a single groups.json for the
group hierarchy. Large directories are paged in lazily.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		var err error
		cfg, err = mimir.LoadConfig(configPath)
		if err != nil {
			fatal("Failed to load config", err)
		}

		level, err := cfg.Level()
		if err != nil {
			fatal("Invalid config", err)
		}
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&notesDir, "dir", "d", "", "Notes directory (default: enclosing notes dir, then config)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: user config dir)")
	rootCmd.PersistentFlags().BoolVar(&readOnly, "read-only", false, "Open the notes directory read-only")
	rootCmd.PersistentFlags().StringVar(&loadMode, "load-mode", "", "Override load mode: auto, eager or lazy")
}

// resolveDir picks the notes directory: the --dir flag, then a notes
// directory enclosing the working directory, then the configured one.
func resolveDir() string {
	if notesDir != "" {
		return notesDir
	}
	if cwd, err := os.Getwd(); err == nil {
		if root, err := mimir.FindNotesRoot(cwd); err == nil {
			return root
		}
	}
	return cfg.NotesDir
}

func options(extra ...mimir.Option) []mimir.Option {
	opts, err := cfg.Options()
	if err != nil {
		fatal("Invalid config", err)
	}
	opts = append(opts, mimir.WithLogger(slog.Default()))
	if readOnly {
		opts = append(opts, mimir.WithReadOnly(true))
	}
	if loadMode != "" {
		mode, err := mimir.ParseLoadMode(loadMode)
		if err != nil {
			fatal("Invalid --load-mode", err)
		}
		opts = append(opts, mimir.WithLoadMode(mode))
	}
	return append(opts, extra...)
}

// openState loads the notes directory or exits.
func openState(extra ...mimir.Option) *mimir.State {
	st, err := mimir.New(resolveDir(), options(extra...)...)
	if err != nil {
		fatal("Failed to open notes", err)
	}
	return st
}

// resolveNote accepts a full note ID or a unique prefix of a loaded note.
func resolveNote(st *mimir.State, arg string) uuid.UUID {
	if id, err := uuid.Parse(arg); err == nil {
		return id
	}
	var match []uuid.UUID
	for _, n := range st.Notes() {
		if strings.HasPrefix(n.ID.String(), arg) {
			match = append(match, n.ID)
		}
	}
	switch len(match) {
	case 1:
		return match[0]
	case 0:
		fatal("Unknown note", fmt.Errorf("%q: %w", arg, core.ErrNotFound))
	default:
		fatal("Ambiguous note", fmt.Errorf("%q matches %d notes", arg, len(match)))
	}
	return uuid.Nil
}

// resolveGroup accepts a group ID, a unique ID prefix or an exact name. The
// empty string means no group.
func resolveGroup(st *mimir.State, arg string) uuid.NullUUID {
	if arg == "" {
		return core.NoRef
	}
	if id, err := uuid.Parse(arg); err == nil {
		return core.Ref(id)
	}
	var match []uuid.UUID
	for _, g := range st.Groups() {
		if g.Name == arg || strings.HasPrefix(g.ID.String(), arg) {
			match = append(match, g.ID)
		}
	}
	switch len(match) {
	case 1:
		return core.Ref(match[0])
	case 0:
		fatal("Unknown group", fmt.Errorf("%q: %w", arg, core.ErrNotFound))
	default:
		fatal("Ambiguous group", errors.New(arg))
	}
	return core.NoRef
}
