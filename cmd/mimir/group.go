package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/introspection"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/mimir"
	"github.com/aretw0/mimir/pkg/core"
)

var (
	groupParent string
	groupNotes  []string
	groupName   string
	groupToRoot bool
	treeYAML    bool
	treeDiagram bool
)

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Manage the group hierarchy",
}

var groupAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a group, optionally under a parent and with initial notes",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st := openState()
		var ids []uuid.UUID
		for _, arg := range groupNotes {
			ids = append(ids, resolveNote(st, arg))
		}

		g, err := st.CreateGroup(context.Background(), args[0], resolveGroup(st, groupParent), ids)
		if err != nil {
			fatal("Failed to create group", err)
		}
		fmt.Println(g.ID)
	},
}

var groupEditCmd = &cobra.Command{
	Use:   "edit <group>",
	Short: "Rename a group and/or move it under another parent",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st := openState()
		id := resolveGroup(st, args[0]).UUID
		g, _ := st.Group(id)

		name := g.Name
		if cmd.Flags().Changed("name") {
			name = groupName
		}
		parent := g.ParentID
		switch {
		case groupToRoot:
			parent = core.NoRef
		case cmd.Flags().Changed("parent"):
			parent = resolveGroup(st, groupParent)
		}

		if err := st.UpdateGroup(context.Background(), id, name, parent); err != nil {
			fatal("Failed to update group", err)
		}
	},
}

var groupRmCmd = &cobra.Command{
	Use:   "rm <group>",
	Short: "Delete a group; its notes and children move to its parent",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st := openState()
		if err := st.DeleteGroup(context.Background(), resolveGroup(st, args[0]).UUID); err != nil {
			fatal("Failed to delete group", err)
		}
	},
}

var groupToggleCmd = &cobra.Command{
	Use:   "toggle <group>",
	Short: "Collapse or expand a group",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st := openState()
		collapsed, err := st.ToggleGroupCollapsed(context.Background(), resolveGroup(st, args[0]).UUID)
		if err != nil {
			fatal("Failed to toggle group", err)
		}
		fmt.Println("collapsed:", collapsed)
	},
}

var groupTreeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the group hierarchy with note counts",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		st := openState()
		root := buildGroupTree(st)

		switch {
		case treeYAML:
			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			if err := enc.Encode(root.Children); err != nil {
				fatal("Failed to encode YAML", err)
			}
		case treeDiagram:
			config := introspection.DefaultDiagramConfig()
			config.SecondaryID = "groups"
			config.SecondaryLabel = "Group Hierarchy"
			fmt.Println(introspection.TreeDiagram(root, config))
		default:
			printGroupTree(st)
		}
	},
}

// groupNode is the rendering shape shared by the YAML and Mermaid outputs.
type groupNode struct {
	Name     string            `yaml:"name"`
	Status   string            `yaml:"-"`
	Metadata map[string]string `yaml:"metadata,omitempty"`
	Children []groupNode       `yaml:"children,omitempty"`
}

func buildGroupTree(st *mimir.State) groupNode {
	tree := st.GroupTree()
	counts := st.GroupNoteCounts()

	var build func(g core.Group) groupNode
	build = func(g core.Group) groupNode {
		// Status must match the classes of introspection.DefaultStyles().
		status := "running"
		if g.Collapsed {
			status = "suspended"
		}
		node := groupNode{
			Name:   g.Name,
			Status: status,
			Metadata: map[string]string{
				"id":    g.ID.String(),
				"notes": fmt.Sprint(counts[g.ID]),
				"level": fmt.Sprint(g.Level),
			},
		}
		for _, child := range tree.Children(g.ID) {
			node.Children = append(node.Children, build(child))
		}
		return node
	}

	root := groupNode{
		Name:     "Notes",
		Status:   "running",
		Metadata: map[string]string{"ungrouped": fmt.Sprint(len(st.UngroupedNotes()))},
	}
	for _, g := range tree.Roots() {
		root.Children = append(root.Children, build(g))
	}
	return root
}

func printGroupTree(st *mimir.State) {
	counts := st.GroupNoteCounts()
	st.GroupTree().Walk(func(g core.Group, depth int) bool {
		marker := "▾"
		if g.Collapsed {
			marker = "▸"
		}
		fmt.Printf("%s%s %s (%d)  %s\n", strings.Repeat("  ", depth), marker, g.Name, counts[g.ID], g.ID.String()[:8])
		return !g.Collapsed
	})
	fmt.Printf("ungrouped (%d)\n", len(st.UngroupedNotes()))
}

func init() {
	rootCmd.AddCommand(groupCmd)
	groupCmd.AddCommand(groupAddCmd, groupEditCmd, groupRmCmd, groupToggleCmd, groupTreeCmd)

	groupAddCmd.Flags().StringVarP(&groupParent, "parent", "p", "", "Parent group ID or name")
	groupAddCmd.Flags().StringSliceVarP(&groupNotes, "note", "n", nil, "Ungrouped notes to add (repeatable)")

	groupEditCmd.Flags().StringVar(&groupName, "name", "", "New name")
	groupEditCmd.Flags().StringVarP(&groupParent, "parent", "p", "", "New parent group ID or name")
	groupEditCmd.Flags().BoolVar(&groupToRoot, "root", false, "Move the group to the top level")

	groupTreeCmd.Flags().BoolVar(&treeYAML, "yaml", false, "Output in YAML format")
	groupTreeCmd.Flags().BoolVar(&treeDiagram, "diagram", false, "Output a Mermaid diagram")
}
