package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	scratchAppend string
	scratchSet    bool
)

var scratchCmd = &cobra.Command{
	Use:   "scratch",
	Short: "Print or change the persistent scratchpad",
	Long: `Without flags the scratchpad is printed. --append copies the content
of a note to the end of it; --set replaces it with standard input.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		st := openState()
		ctx := context.Background()

		switch {
		case scratchAppend != "":
			if err := st.AppendNoteToScratchpad(ctx, resolveNote(st, scratchAppend)); err != nil {
				fatal("Failed to append to scratchpad", err)
			}
		case scratchSet:
			text, err := io.ReadAll(os.Stdin)
			if err != nil {
				fatal("Failed to read stdin", err)
			}
			if err := st.SetScratchpad(ctx, string(text)); err != nil {
				fatal("Failed to save scratchpad", err)
			}
		default:
			fmt.Print(st.Scratchpad())
		}
	},
}

func init() {
	rootCmd.AddCommand(scratchCmd)
	scratchCmd.Flags().StringVarP(&scratchAppend, "append", "a", "", "Append the content of this note")
	scratchCmd.Flags().BoolVar(&scratchSet, "set", false, "Replace the scratchpad with stdin")
}
