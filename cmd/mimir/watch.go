package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/mimir"
	"github.com/aretw0/mimir/pkg/adapters/lifecycle"
	"github.com/aretw0/mimir/pkg/core"
)

var (
	watchPattern string
	watchTypes   []string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow changes made to the notes directory by other programs",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		types, err := parseEventTypes(watchTypes)
		if err != nil {
			fatal("Invalid --type", err)
		}
		st := openState(mimir.WithWatcherErrorHandler(func(err error) {
			slog.Error("watcher error", "error", err)
		}))

		events, err := mimir.Watch(ctx, st, mimir.WithWatchPattern(watchPattern))
		if err != nil {
			fatal("Failed to watch notes", err)
		}

		src := lifecycle.NewSource(events, lifecycle.WithTypes(types...))
		if err := src.Start(ctx); err != nil {
			fatal("Failed to start watcher", err)
		}

		fmt.Fprintf(os.Stderr, "watching %d notes, Ctrl-C to stop\n", st.TotalNotes())
		for e := range src.Events() {
			var ev core.Event
			switch e := e.(type) {
			case lifecycle.NoteChanged:
				ev = e.Event
			case lifecycle.GroupsChanged:
				ev = e.Event
			default:
				continue
			}
			if err := st.ApplyEvent(ctx, ev); err != nil {
				slog.Error("failed to apply change", "event", ev.String(), "error", err)
				continue
			}

			line := ev.String()
			if ev.Type == core.EventGroups {
				line += fmt.Sprintf("  %d groups", len(st.Groups()))
			} else if n, ok := st.Note(ev.ID); ok {
				line += "  " + n.Title
			}
			fmt.Printf("%s %s\n", time.Unix(ev.Timestamp, 0).Format(time.TimeOnly), line)
		}
	},
}

// parseEventTypes maps create, modify, delete and groups to event types.
func parseEventTypes(names []string) ([]core.EventType, error) {
	var types []core.EventType
	for _, name := range names {
		t := core.EventType(strings.ToUpper(strings.TrimSpace(name)))
		switch t {
		case core.EventCreate, core.EventModify, core.EventDelete, core.EventGroups:
			types = append(types, t)
		default:
			return nil, fmt.Errorf("unknown event type %q", name)
		}
	}
	return types, nil
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchPattern, "pattern", "", "Glob matched against changed file names (default *.json)")
	watchCmd.Flags().StringSliceVar(&watchTypes, "type", nil, "Only report these changes: create, modify, delete, groups")
}
