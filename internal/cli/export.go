package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pagefold/marginalia/pkg/pipeline"
)

// exportCommand creates the "export" command.
func (c *CLI) exportCommand() *cobra.Command {
	opts := pipeline.Options{}
	c.setCLIDefaults(&opts)

	var (
		noCache bool
		noState bool
		formats string
		output  string
	)

	cmd := &cobra.Command{
		Use:   "export <document>",
		Short: "Render the mind map to SVG, JSON, DOT, PNG, or PDF",
		Long: `Export runs the full pipeline and writes one file per requested format,
named after the document (thoreau.pdf becomes thoreau.svg).

PNG and PDF output need rsvg-convert on PATH (librsvg). SVG, JSON, and
DOT have no external dependencies.`,
		Example: `  marginalia export thoreau.pdf
  marginalia export thoreau.pdf -f svg,png --style dark
  marginalia export notes.md -f dot --detailed -o out/notes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts.Path = args[0]
			opts.Logger = loggerFromContext(ctx)
			if formats != "" {
				opts.Formats = parseFormats(formats)
			}
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			if err := pipeline.ValidateStyle(opts.Style); err != nil {
				return err
			}

			if !noState {
				c.mergeStoredState(ctx, &opts)
			}

			runner, err := c.newRunner(noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			spinner := newSpinnerWithContext(ctx, "Rendering...")
			spinner.Start()

			result, err := runner.Execute(ctx, opts)
			if err != nil {
				spinner.StopWithError(fmt.Sprintf("Export failed: %v", err))
				return err
			}
			spinner.Stop()

			base := output
			if base == "" {
				base = basePath(opts.Path)
			}

			names := make([]string, 0, len(result.Artifacts))
			for format := range result.Artifacts {
				names = append(names, format)
			}
			sort.Strings(names)

			printSuccess("Exported %s", result.Document.Title)
			for _, format := range names {
				path := base + "." + format
				if err := os.WriteFile(path, result.Artifacts[format], 0644); err != nil {
					return fmt.Errorf("write %s: %w", path, err)
				}
				printFile(path)
			}
			printStats(result.Stats.EntryCount, result.Stats.NodeCount, result.CacheInfo.RenderHit)
			printNewline()
			printNextStep("Preview", fmt.Sprintf("marginalia serve %s", opts.Path))
			return nil
		},
	}

	cmd.Flags().StringVarP(&formats, "format", "f", "", "comma-separated output formats: svg, json, dot, png, pdf (default svg)")
	cmd.Flags().StringVar(&opts.Style, "style", opts.Style, "color style: light or dark")
	cmd.Flags().StringVar(&opts.Title, "title", "", "override the document title")
	cmd.Flags().StringVar(&opts.Format, "source-format", "", "source format (pdf, markdown, html, docx); detected from the extension if empty")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output base path without extension (default next to the document)")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "include anchors in DOT output")
	cmd.Flags().Float64Var(&opts.Zoom, "zoom", opts.Zoom, "zoom factor baked into the geometry")
	cmd.Flags().StringSliceVar(&opts.Collapsed, "collapse", opts.Collapsed, "node ids to collapse (repeatable)")
	cmd.Flags().BoolVar(&noState, "no-state", false, "ignore stored annotations and moves")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the pipeline cache")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "bypass cached results and recompute")

	return cmd
}
