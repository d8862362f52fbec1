package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pagefold/marginalia/pkg/pipeline"
	"github.com/pagefold/marginalia/pkg/render"
)

// layoutCommand creates the "layout" command.
func (c *CLI) layoutCommand() *cobra.Command {
	opts := pipeline.Options{}
	c.setCLIDefaults(&opts)

	var (
		noCache bool
		noState bool
		output  string
	)

	cmd := &cobra.Command{
		Use:   "layout <document>",
		Short: "Compute mind-map geometry and write it as JSON",
		Long: `Layout runs the pipeline through the geometry stage and writes the node
and edge positions as JSON. Embedding hosts consume this directly; the
export command goes one step further and draws it.`,
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

			spinner := newSpinnerWithContext(ctx, "Computing layout...")
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
			res, err := runner.ComputeLayout(ctx, tree, opts)
			if err != nil {
				spinner.StopWithError(fmt.Sprintf("Layout failed: %v", err))
				return err
			}
			spinner.Stop()

			data, err := render.RenderJSON(res,
				render.WithJSONTitle(tree.Root().Title),
				render.WithJSONStyle(opts.Style),
			)
			if err != nil {
				return fmt.Errorf("encode layout: %w", err)
			}

			outPath := output
			if outPath == "" {
				outPath = basePath(opts.Path) + ".layout.json"
			}
			if outPath == "-" {
				outPath = ""
			}
			out, err := openOutput(outPath)
			if err != nil {
				return err
			}
			defer out.Close()
			if _, err := out.Write(data); err != nil {
				return fmt.Errorf("write layout: %w", err)
			}
			if outPath == "" {
				return nil
			}

			printSuccess("Layout computed (%.0fx%.0f)", res.Width, res.Height)
			printFile(outPath)
			printStats(doc.EntryCount(), len(res.Nodes), false)
			printNewline()
			printNextStep("Render", fmt.Sprintf("marginalia export %s", opts.Path))
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "source format (pdf, markdown, html, docx); detected from the extension if empty")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (default <document>.layout.json, \"-\" for stdout)")
	cmd.Flags().Float64Var(&opts.Zoom, "zoom", opts.Zoom, "zoom factor baked into the geometry")
	cmd.Flags().Float64Var(&opts.ChapterWidth, "chapter-width", opts.ChapterWidth, "chapter box width in canvas units")
	cmd.Flags().Float64Var(&opts.NoteWidth, "note-width", opts.NoteWidth, "note box width in canvas units")
	cmd.Flags().Float64Var(&opts.FontSize, "font-size", opts.FontSize, "font size in canvas units")
	cmd.Flags().Float64Var(&opts.LineHeight, "line-height", opts.LineHeight, "line height in canvas units")
	cmd.Flags().StringSliceVar(&opts.Collapsed, "collapse", opts.Collapsed, "node ids to collapse (repeatable)")
	cmd.Flags().BoolVar(&noState, "no-state", false, "ignore stored annotations and moves")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the pipeline cache")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "bypass cached results and recompute")

	return cmd
}

// basePath strips the extension from a document path, keeping the directory.
func basePath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext)
}
