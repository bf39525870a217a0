package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pipegraph/pkg/errors"
	"github.com/matzehuels/pipegraph/pkg/graph"
	"github.com/matzehuels/pipegraph/pkg/group"
)

// groupCommand creates the group management command.
func (c *CLI) groupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Manage node groups",
		Long: `Manage node groups.

Groups are stored in the backend named by the [groups] section of the config
file: a JSON file (default), Redis or MongoDB. Nodes refer to groups by ID in
their groupIds field.`,
	}

	cmd.AddCommand(c.groupCreateCommand())
	cmd.AddCommand(c.groupListCommand())
	cmd.AddCommand(c.groupUpdateCommand())
	cmd.AddCommand(c.groupDeleteCommand())
	cmd.AddCommand(c.groupMembersCommand())

	return cmd
}

func (c *CLI) groupCreateCommand() *cobra.Command {
	var description, color string

	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			reg, err := c.newRegistry(ctx)
			if err != nil {
				return err
			}
			defer reg.Close()

			g, err := reg.Create(ctx, args[0], description, color)
			if err != nil {
				return err
			}
			printSuccess("Created group %s", StyleHighlight.Render(g.Name))
			printKeyValue("ID", g.ID)
			printKeyValue("Color", g.Color)
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "group description")
	cmd.Flags().StringVar(&color, "color", "", "fill color (#rrggbb or hsl(h, s%, l%); default: next palette color)")

	return cmd
}

func (c *CLI) groupListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List groups",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := c.newRegistry(cmd.Context())
			if err != nil {
				return err
			}
			defer reg.Close()

			groups := reg.List()
			if len(groups) == 0 {
				printInfo("No groups")
				printNextStep("Create one", appName+" group create <name>")
				return nil
			}
			fmt.Println(groupTable(groups))
			return nil
		},
	}
}

func (c *CLI) groupUpdateCommand() *cobra.Command {
	var name, description, color string

	cmd := &cobra.Command{
		Use:   "update [id|name]",
		Short: "Rename, recolor or describe a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			reg, err := c.newRegistry(ctx)
			if err != nil {
				return err
			}
			defer reg.Close()

			id, err := findGroup(reg.List(), args[0])
			if err != nil {
				return err
			}
			var u group.Update
			if cmd.Flags().Changed("name") {
				u.Name = &name
			}
			if cmd.Flags().Changed("description") {
				u.Description = &description
			}
			if cmd.Flags().Changed("color") {
				u.Color = &color
			}
			if _, err := reg.Update(ctx, id, u); err != nil {
				return err
			}
			g, _ := reg.Get(id)
			printSuccess("Updated group %s", StyleHighlight.Render(g.Name))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	cmd.Flags().StringVar(&color, "color", "", "new fill color")

	return cmd
}

func (c *CLI) groupDeleteCommand() *cobra.Command {
	var graphFiles []string

	cmd := &cobra.Command{
		Use:     "delete [id|name]",
		Aliases: []string{"rm"},
		Short:   "Delete a group",
		Long: `Delete a group.

Graph files are only modified when passed with --graph: the group ID is then
removed from every node of each file. Other graphs keep the reference, and
their nodes are simply no longer colored by the group.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			graphs := make([]graph.Graph, len(graphFiles))
			for i, path := range graphFiles {
				if path == "-" {
					return errors.New(errors.ErrCodeInvalidInput, "--graph needs a file, not stdin")
				}
				g, err := readGraph(path)
				if err != nil {
					return fmt.Errorf("load graph %s: %w", path, err)
				}
				graphs[i] = g
			}

			reg, err := c.newRegistry(ctx)
			if err != nil {
				return err
			}
			defer reg.Close()

			id, err := findGroup(reg.List(), args[0])
			if err != nil {
				return err
			}

			var rewritten []string
			var rewriteErr error
			unsubscribe := reg.Subscribe(func(e group.Event) {
				if e.Kind != group.EventDeleted || e.GroupID != id {
					return
				}
				for i, path := range graphFiles {
					if err := graph.WriteGraphFile(graph.RemoveGroup(graphs[i], id), path); err != nil {
						rewriteErr = fmt.Errorf("rewrite graph %s: %w", path, err)
						return
					}
					rewritten = append(rewritten, path)
				}
			})
			defer unsubscribe()

			if _, err := reg.Delete(ctx, id); err != nil {
				return err
			}
			printSuccess("Deleted group %s", id)
			for _, path := range rewritten {
				printFile(path)
			}
			return rewriteErr
		},
	}

	cmd.Flags().StringArrayVar(&graphFiles, "graph", nil, "graph file to remove the membership from (repeatable)")

	return cmd
}

func (c *CLI) groupMembersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "members [id|name] [graph.json]",
		Short: "List the nodes of a graph that belong to a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := c.newRegistry(cmd.Context())
			if err != nil {
				return err
			}
			defer reg.Close()

			id, err := findGroup(reg.List(), args[0])
			if err != nil {
				return err
			}
			g, err := readGraph(args[1])
			if err != nil {
				return fmt.Errorf("load graph %s: %w", args[1], err)
			}
			members := reg.Members(g, id)
			printSuccess("%d members", len(members))
			printNodeIDs(members)
			return nil
		},
	}
}

// findGroup returns the ID of the group whose ID or name matches ref. Names
// compare case-insensitively.
func findGroup(groups []group.Group, ref string) (string, error) {
	for _, g := range groups {
		if g.ID == ref {
			return g.ID, nil
		}
	}
	for _, g := range groups {
		if strings.EqualFold(g.Name, strings.TrimSpace(ref)) {
			return g.ID, nil
		}
	}
	return "", errors.New(errors.ErrCodeGroupNotFound, "group %q not found", ref)
}

// resolveGroupRefs maps group IDs or names to IDs. Unknown references are
// kept as given and match no node.
func resolveGroupRefs(groups []group.Group, refs []string) []string {
	ids := make([]string, len(refs))
	for i, ref := range refs {
		if id, err := findGroup(groups, ref); err == nil {
			ids[i] = id
		} else {
			ids[i] = ref
		}
	}
	return ids
}
