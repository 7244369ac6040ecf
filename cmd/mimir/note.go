package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/mimir"
	"github.com/aretw0/mimir/pkg/core"
	"github.com/aretw0/mimir/pkg/loader"
)

var (
	noteContent string
	noteGroup   string
	noteTitle   string
	listJSON    bool
	listAll     bool
	listGroup   string
)

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Create, list and edit notes",
}

var noteAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a note",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st := openState()
		n, err := st.CreateNote(context.Background(), args[0], noteContent, resolveGroup(st, noteGroup))
		if err != nil {
			fatal("Failed to create note", err)
		}
		fmt.Println(n.ID)
	},
}

var noteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes, pinned first then newest first",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		st := openState()
		if listAll {
			loadAll(st)
		}

		notes := st.Notes()
		if cmd.Flags().Changed("group") {
			notes = st.NotesInGroup(resolveGroup(st, listGroup))
		}

		if listJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(notes); err != nil {
				fatal("Failed to encode JSON", err)
			}
			return
		}

		for _, n := range notes {
			pin := " "
			if n.Pinned {
				pin = "*"
			}
			fmt.Printf("%s %s %s  %s\n", pin, n.ID.String()[:8], n.CreatedAt.Format("2006-01-02 15:04"), n.Title)
		}
		if st.TotalNotes() > len(st.Notes()) {
			fmt.Printf("(%d of %d loaded, use --all)\n", len(st.Notes()), st.TotalNotes())
		}
	},
}

// loadAll scrolls a virtual viewport to the end of the list until every
// page is in memory.
func loadAll(st *mimir.State) {
	scroller := loader.NewScroller(1, 20)
	for {
		scroller.ScrollTo(float64(len(st.Notes())))
		loaded, err := st.LoadMoreIfNeeded(context.Background(), scroller.VisibleRange(st.TotalNotes()))
		if err != nil {
			fatal("Failed to load notes", err)
		}
		if !loaded {
			return
		}
	}
}

var noteShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a note",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st := openState()
		n, err := st.Lookup(context.Background(), resolveNote(st, args[0]))
		if err != nil {
			fatal("Failed to read note", err)
		}

		fmt.Printf("# %s\n", n.Title)
		if n.GroupID.Valid {
			if g, ok := st.Group(n.GroupID.UUID); ok {
				fmt.Printf("group: %s\n", g.Name)
			}
		}
		fmt.Printf("created: %s  updated: %s\n\n", n.CreatedAt.Format("2006-01-02 15:04"), n.UpdatedAt.Format("2006-01-02 15:04"))
		fmt.Println(n.Content)
	},
}

var noteEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change the title and/or content of a note",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var title, content *string
		if cmd.Flags().Changed("title") {
			title = &noteTitle
		}
		if cmd.Flags().Changed("content") {
			content = &noteContent
		}
		if title == nil && content == nil {
			fatal("Nothing to change", fmt.Errorf("pass --title and/or --content"))
		}

		st := openState()
		if _, err := st.UpdateNote(context.Background(), resolveNote(st, args[0]), title, content); err != nil {
			fatal("Failed to update note", err)
		}
	},
}

var notePinCmd = &cobra.Command{
	Use:   "pin <id>",
	Short: "Toggle the pinned flag of a note",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st := openState()
		pinned, err := st.TogglePin(context.Background(), resolveNote(st, args[0]))
		if err != nil {
			fatal("Failed to pin note", err)
		}
		fmt.Println("pinned:", pinned)
	},
}

var noteMoveCmd = &cobra.Command{
	Use:   "move <id> [group]",
	Short: "Move a note into a group, or out of any group",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		st := openState()
		group := core.NoRef
		if len(args) == 2 {
			group = resolveGroup(st, args[1])
		}
		if err := st.SetNoteGroup(context.Background(), resolveNote(st, args[0]), group); err != nil {
			fatal("Failed to move note", err)
		}
	},
}

var noteRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a note",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st := openState()
		if err := st.DeleteNote(context.Background(), resolveNote(st, args[0])); err != nil {
			fatal("Failed to delete note", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(noteCmd)
	noteCmd.AddCommand(noteAddCmd, noteListCmd, noteShowCmd, noteEditCmd, notePinCmd, noteMoveCmd, noteRmCmd)

	noteAddCmd.Flags().StringVarP(&noteContent, "content", "c", "", "Note content")
	noteAddCmd.Flags().StringVarP(&noteGroup, "group", "g", "", "Group ID or name")

	noteEditCmd.Flags().StringVarP(&noteTitle, "title", "t", "", "New title (blank is ignored)")
	noteEditCmd.Flags().StringVarP(&noteContent, "content", "c", "", "New content")

	noteListCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	noteListCmd.Flags().BoolVar(&listAll, "all", false, "Load every page in lazy mode")
	noteListCmd.Flags().StringVarP(&listGroup, "group", "g", "", "Only notes directly in this group (empty for ungrouped)")
}
