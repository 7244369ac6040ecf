package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aretw0/mimir"
)

var saveConfig bool

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Initialize a notes directory",
	Long: `Create the notes directory and an empty groups.json marking it as a
notes root. With --save-config the directory becomes the default one.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dir := resolveDir()
		if len(args) == 1 {
			dir = args[0]
		}
		ctx := context.Background()

		store, err := mimir.Open(dir, options()...)
		if err != nil {
			fatal("Failed to initialize notes directory", err)
		}
		groups, err := store.LoadGroups(ctx)
		if err != nil {
			fatal("Failed to read groups", err)
		}
		if len(groups) == 0 {
			if err := store.SaveGroups(ctx, groups); err != nil {
				fatal("Failed to write groups", err)
			}
		}

		if saveConfig {
			abs, err := filepath.Abs(dir)
			if err != nil {
				fatal("Failed to resolve path", err)
			}
			path := configPath
			if path == "" {
				if path, err = mimir.DefaultConfigPath(); err != nil {
					fatal("Failed to locate config", err)
				}
			}
			cfg.NotesDir = abs
			if err := cfg.Save(path); err != nil {
				fatal("Failed to save config", err)
			}
			fmt.Println("Saved config to", path)
		}

		fmt.Println("Initialized notes directory in", dir)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&saveConfig, "save-config", false, "Record the directory in the config file")
}
