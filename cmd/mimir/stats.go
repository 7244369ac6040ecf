package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/introspection"
	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the state of the notes directory and the loader",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		st := openState()

		components := []introspection.Introspectable{st}
		if intro, ok := st.Store().(introspection.Introspectable); ok {
			components = append(components, intro)
		}

		if statsJSON {
			out := make(map[string]any, len(components))
			for _, c := range components {
				out[componentName(c)] = c.State()
			}
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(out); err != nil {
				fatal("Failed to encode JSON", err)
			}
			return
		}

		for _, c := range components {
			fmt.Printf("%s: %+v\n", componentName(c), c.State())
		}
	},
}

func componentName(c introspection.Introspectable) string {
	if comp, ok := c.(introspection.Component); ok {
		return comp.ComponentType()
	}
	return fmt.Sprintf("%T", c)
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Output in JSON format")
}
