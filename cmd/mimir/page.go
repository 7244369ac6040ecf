package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var pageCmd = &cobra.Command{
	Use:   "page <n>",
	Short: "Print one page of notes (zero-based)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			fatal("Invalid page", fmt.Errorf("%q is not a page number", args[0]))
		}

		st := openState()
		notes, err := st.Page(context.Background(), n)
		if err != nil {
			fatal("Failed to load page", err)
		}
		for _, note := range notes {
			fmt.Printf("%s  %s\n", note.ID.String()[:8], note.Title)
		}
		if stats, ok := st.LoaderStats(); ok {
			fmt.Printf("(%d notes, %.0f%% loaded, cache hit ratio %.2f)\n", stats.TotalNotes, 100*float64(stats.LoadedNotes)/float64(max(stats.TotalNotes, 1)), stats.CacheHitRatio)
		}
	},
}

func init() {
	rootCmd.AddCommand(pageCmd)
}
