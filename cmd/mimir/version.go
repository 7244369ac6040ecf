package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/mimir"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of mimir",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mimir version %s\n", strings.TrimSpace(mimir.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
