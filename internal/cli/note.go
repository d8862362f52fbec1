package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pagefold/marginalia/pkg/outline"
	"github.com/pagefold/marginalia/pkg/pipeline"
	"github.com/pagefold/marginalia/pkg/render"
	"github.com/pagefold/marginalia/pkg/state"
)

// noteCommand creates the "note" command group.
func (c *CLI) noteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note",
		Short: "Add, list, and rearrange annotations",
		Long: `Note manages the annotations stored for a document. Annotations live in
the state store, not in the document file; the tree, layout, export, and
view commands merge them back in.`,
	}

	cmd.AddCommand(c.noteAddCommand())
	cmd.AddCommand(c.noteListCommand())
	cmd.AddCommand(c.noteRemoveCommand())
	cmd.AddCommand(c.notePromoteCommand())
	cmd.AddCommand(c.noteDemoteCommand())
	cmd.AddCommand(c.noteMoveCommand())

	return cmd
}

// noteAddCommand creates the "note add" subcommand.
func (c *CLI) noteAddCommand() *cobra.Command {
	var (
		page        int
		at          float64
		color       string
		parent      string
		chapter     bool
		translation string
	)

	cmd := &cobra.Command{
		Use:   "add <document> <text>",
		Short: "Add an annotation to a document",
		Long: `Add stores a new annotation. With --page (and optionally --at) the note
anchors to a document position and sorts among the outline entries;
without an anchor it sorts after them.`,
		Example: `  marginalia note add thoreau.pdf "the mass of men" --page 7 --color yellow
  marginalia note add notes.md "Follow up" --parent src-2 --chapter`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path, text := args[0], args[1]

			if color != "" && !render.ValidColor(color) {
				return fmt.Errorf("invalid color %q (valid: %s or #hex)", color, strings.Join(render.HighlightNames(), ", "))
			}

			var anchor outline.Anchor
			if page > 0 {
				p := page - 1
				anchor.PageIndex = &p
			}
			if cmd.Flags().Changed("at") {
				if at < 0 || at > 1 {
					return fmt.Errorf("--at must be between 0 and 1, got %g", at)
				}
				r := at
				anchor.TopRatio = &r
			}

			store, err := c.newStateStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if parent != "" {
				parent = resolveParentID(parent)
				if err := c.checkNodeExists(ctx, store, path, parent); err != nil {
					return err
				}
			}

			st, err := loadDocState(ctx, store, path, "")
			if err != nil {
				return err
			}

			item := outline.Item{
				ID:          uuid.NewString(),
				Text:        text,
				Translation: translation,
				Color:       color,
				Structural:  chapter,
				Anchor:      anchor,
				ParentID:    parent,
				Origin:      outline.OriginUser,
			}
			st.Items = append(st.Items, item)
			st.Touch()
			if err := store.Set(ctx, st); err != nil {
				return fmt.Errorf("save state: %w", err)
			}

			printSuccess("Note added")
			printKeyValue("id", item.ID)
			if color != "" {
				printKeyValue("color", color)
			}
			printNewline()
			printNextStep("View", fmt.Sprintf("marginalia view %s", path))
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 0, "1-based page the note anchors to")
	cmd.Flags().Float64Var(&at, "at", 0, "vertical position on the page, 0 (top) to 1 (bottom)")
	cmd.Flags().StringVar(&color, "color", "", "highlight color: "+strings.Join(render.HighlightNames(), ", ")+", or #hex")
	cmd.Flags().StringVar(&parent, "parent", "", "attach under this node id instead of by anchor")
	cmd.Flags().BoolVar(&chapter, "chapter", false, "create a chapter instead of a note")
	cmd.Flags().StringVar(&translation, "translation", "", "translated text shown under the note")

	return cmd
}

// noteListCommand creates the "note list" subcommand.
func (c *CLI) noteListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list <document>",
		Short: "List the stored annotations for a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := c.newStateStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			st, err := loadDocState(ctx, store, args[0], "")
			if err != nil {
				return err
			}
			if len(st.Items) == 0 {
				printInfo("No annotations stored for %s", args[0])
				return nil
			}

			for _, it := range st.Items {
				fmt.Println(formatNoteLine(it))
			}
			printNewline()
			printStats(len(st.Items), 0, false)
			return nil
		},
	}
}

// formatNoteLine renders one annotation as a list row.
func formatNoteLine(it outline.Item) string {
	kind := "note"
	if it.Structural || it.ChapterTitle {
		kind = "chapter"
	}

	var meta []string
	meta = append(meta, kind)
	if it.Color != "" {
		meta = append(meta, it.Color)
	}
	if it.Anchor.PageIndex != nil {
		meta = append(meta, fmt.Sprintf("p.%d", *it.Anchor.PageIndex+1))
	}

	text := it.Text
	if runes := []rune(text); len(runes) > 60 {
		text = string(runes[:57]) + "..."
	}

	return StyleDim.Render(it.ID[:8]) + "  " + StyleValue.Render(text) + "  " + StyleDim.Render("("+strings.Join(meta, ", ")+")")
}

// noteRemoveCommand creates the "note rm" subcommand.
func (c *CLI) noteRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <document> <id>",
		Short: "Remove a stored annotation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := c.newStateStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			st, err := loadDocState(ctx, store, args[0], "")
			if err != nil {
				return err
			}

			id, err := resolveItemID(st, args[1])
			if err != nil {
				return err
			}
			st.RemoveItem(id)
			delete(st.Moves, id)
			st.Touch()
			if err := store.Set(ctx, st); err != nil {
				return fmt.Errorf("save state: %w", err)
			}

			printSuccess("Removed %s", id)
			return nil
		},
	}
}

// notePromoteCommand creates the "note promote" subcommand.
func (c *CLI) notePromoteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "promote <document> <id>",
		Short: "Turn an annotation into a chapter",
		Long: `Promote marks an annotation as structural: it becomes a chapter node
that other notes can attach under.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.setStructural(cmd.Context(), args[0], args[1], true)
		},
	}
}

// noteDemoteCommand creates the "note demote" subcommand.
func (c *CLI) noteDemoteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "demote <document> <id>",
		Short: "Turn a promoted chapter back into an annotation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.setStructural(cmd.Context(), args[0], args[1], false)
		},
	}
}

// setStructural flips the structural flag on a stored item.
func (c *CLI) setStructural(ctx context.Context, path, id string, structural bool) error {
	store, err := c.newStateStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	st, err := loadDocState(ctx, store, path, "")
	if err != nil {
		return err
	}

	resolved, err := resolveItemID(st, id)
	if err != nil {
		return err
	}
	it, _ := st.Item(resolved)
	it.Structural = structural
	if !structural {
		it.ChapterTitle = false
	}
	st.Touch()
	if err := store.Set(ctx, st); err != nil {
		return fmt.Errorf("save state: %w", err)
	}

	if structural {
		printSuccess("Promoted %s to chapter", resolved)
	} else {
		printSuccess("Demoted %s to note", resolved)
	}
	return nil
}

// noteMoveCommand creates the "note move" subcommand.
func (c *CLI) noteMoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "move <document> <id> <parent-id>",
		Short: "Move a node under a new parent",
		Long: `Move records a parent override for any node in the tree, annotation or
outline entry alike. The move is validated against the merged tree first:
moving a node into its own subtree is rejected.

Use "root" as the parent id to move a node to the top level, and
"marginalia tree --ids" to discover node ids.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path, id, parentID := args[0], args[1], resolveParentID(args[2])

			store, err := c.newStateStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			st, err := loadDocState(ctx, store, path, "")
			if err != nil {
				return err
			}

			tree, err := c.buildTree(ctx, path, st)
			if err != nil {
				return err
			}
			if err := tree.Reparent(id, parentID); err != nil {
				return err
			}

			if st.Moves == nil {
				st.Moves = make(map[string]string)
			}
			st.Moves[id] = parentID
			st.Touch()
			if err := store.Set(ctx, st); err != nil {
				return fmt.Errorf("save state: %w", err)
			}

			printSuccess("Moved %s under %s", id, parentID)
			return nil
		},
	}
}

// =============================================================================
// Helpers
// =============================================================================

// resolveParentID maps the "root" alias to the tree's root id.
func resolveParentID(id string) string {
	if id == "root" {
		return outline.RootID
	}
	return id
}

// resolveItemID finds a stored item by full id or unambiguous prefix.
func resolveItemID(st *state.DocState, id string) (string, error) {
	if _, ok := st.Item(id); ok {
		return id, nil
	}

	var matches []string
	for _, it := range st.Items {
		if strings.HasPrefix(it.ID, id) {
			matches = append(matches, it.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no annotation with id %q", id)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("id %q is ambiguous (%d matches)", id, len(matches))
	}
}

// buildTree loads the document and merges the given state into a tree.
// Used by note subcommands to validate ids and moves before persisting.
func (c *CLI) buildTree(ctx context.Context, path string, st *state.DocState) (*outline.Tree, error) {
	logger := loggerFromContext(ctx)
	opts := pipeline.Options{Path: path, Logger: logger}
	c.setCLIDefaults(&opts)
	applyDocState(&opts, st)

	runner, err := c.newRunner(false)
	if err != nil {
		return nil, err
	}
	defer runner.Close()

	prog := newProgress(logger)
	doc, err := runner.Load(ctx, opts)
	if err != nil {
		return nil, err
	}
	tree, err := runner.BuildTree(ctx, doc, opts)
	if err != nil {
		return nil, err
	}
	prog.done(fmt.Sprintf("Merged %d entries", doc.EntryCount()))
	return tree, nil
}

// checkNodeExists verifies that a node id is present in the merged tree.
func (c *CLI) checkNodeExists(ctx context.Context, store state.Store, path, id string) error {
	st, err := loadDocState(ctx, store, path, "")
	if err != nil {
		return err
	}
	tree, err := c.buildTree(ctx, path, st)
	if err != nil {
		return err
	}
	if _, ok := tree.Node(id); !ok {
		return fmt.Errorf("no node with id %q (run \"marginalia tree %s --ids\")", id, path)
	}
	return nil
}
