package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/pagefold/marginalia/pkg/outline"
	"github.com/pagefold/marginalia/pkg/pipeline"
)

// Tree glyph styles, keyed by node kind.
var (
	treeChapterStyle = lipgloss.NewStyle().Foreground(colorWhite)
	treeCustomStyle  = lipgloss.NewStyle().Foreground(colorCyan)
	treeNoteStyle    = lipgloss.NewStyle().Foreground(colorYellow)
	treeRootStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	treeGuideStyle   = lipgloss.NewStyle().Foreground(colorDim)
)

// treeCommand creates the "tree" command.
func (c *CLI) treeCommand() *cobra.Command {
	opts := pipeline.Options{}
	c.setCLIDefaults(&opts)

	var (
		noCache bool
		noState bool
		asJSON  bool
		output  string
		showIDs bool
	)

	cmd := &cobra.Command{
		Use:   "tree <document>",
		Short: "Print the merged outline tree for a document",
		Long: `Tree reads a document's outline, merges in your stored annotations and
moves, and prints the resulting tree.

By default the tree is printed as indented text. Use --json for the full
tree document, suitable for piping into other tools.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts.Path = args[0]
			opts.Logger = loggerFromContext(ctx)

			if !noState {
				c.mergeStoredState(ctx, &opts)
			}

			runner, err := c.newRunner(noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			spinner := newSpinnerWithContext(ctx, "Reading document...")
			spinner.Start()

			doc, err := runner.Load(ctx, opts)
			if err != nil {
				spinner.StopWithError(fmt.Sprintf("Read failed: %v", err))
				return err
			}
			tree, err := runner.BuildTree(ctx, doc, opts)
			if err != nil {
				spinner.StopWithError(fmt.Sprintf("Merge failed: %v", err))
				return err
			}
			spinner.Stop()

			if asJSON {
				out, err := openOutput(output)
				if err != nil {
					return err
				}
				defer out.Close()
				return outline.WriteJSON(tree, out)
			}

			printTree(tree, showIDs)
			printNewline()
			printStats(doc.EntryCount(), tree.NodeCount(), false)
			printNewline()
			printNextStep("Render", fmt.Sprintf("marginalia export %s", opts.Path))
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "source format (pdf, markdown, html, docx); detected from the extension if empty")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the tree as JSON")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write JSON to a file instead of stdout")
	cmd.Flags().BoolVar(&showIDs, "ids", false, "show node ids (useful for note move)")
	cmd.Flags().BoolVar(&noState, "no-state", false, "ignore stored annotations and moves")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the pipeline cache")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "bypass cached results and recompute")

	return cmd
}

// printTree writes an indented text rendering of the tree to stdout.
func printTree(t *outline.Tree, showIDs bool) {
	t.Walk(func(n *outline.Node, depth int) bool {
		if n.ID == outline.RootID {
			fmt.Println(treeRootStyle.Render(n.Title))
			return true
		}

		indent := treeGuideStyle.Render(strings.Repeat("  ", depth-1) + "· ")
		line := indent + styleNodeTitle(n).Render(n.Title)
		if n.Kind == outline.KindNote && n.Color != "" {
			line += " " + StyleDim.Render("["+n.Color+"]")
		}
		if showIDs {
			line += " " + StyleDim.Render(n.ID)
		}
		fmt.Println(line)
		return true
	})
}

func styleNodeTitle(n *outline.Node) lipgloss.Style {
	switch n.Kind {
	case outline.KindCustom:
		return treeCustomStyle
	case outline.KindNote:
		return treeNoteStyle
	default:
		return treeChapterStyle
	}
}

// nopCloser wraps an io.Writer with a no-op Close method.
// It is used to make os.Stdout compatible with io.WriteCloser.
type nopCloser struct{ io.Writer }

// Close implements io.Closer with a no-op.
func (nopCloser) Close() error { return nil }

// openOutput returns a WriteCloser for the given path.
// If path is empty, it returns os.Stdout wrapped in nopCloser.
// Otherwise, it creates the file at path, overwriting if it exists.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}
