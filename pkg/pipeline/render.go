package pipeline

import (
	"fmt"

	"github.com/pagefold/marginalia/pkg/layout"
	"github.com/pagefold/marginalia/pkg/outline"
	"github.com/pagefold/marginalia/pkg/render"
)

// Render generates output artifacts in the requested formats. The tree is
// needed for the DOT formats, which draw the outline structure rather
// than the computed geometry.
func Render(t *outline.Tree, res *layout.Result, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}

	style, err := render.StyleByName(opts.Style)
	if err != nil {
		return nil, err
	}

	title := ""
	if t != nil {
		title = t.Root().Title
	}
	svgOpts := []render.SVGOption{render.WithStyle(style), render.WithTitle(title)}

	artifacts := make(map[string][]byte)
	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data = render.RenderSVG(res, svgOpts...)
		case FormatPNG:
			data, err = render.ToPNG(render.RenderSVG(res, svgOpts...), DefaultPNGScale)
		case FormatPDF:
			data, err = render.ToPDF(render.RenderSVG(res, svgOpts...))
		case FormatJSON:
			data, err = render.RenderJSON(res,
				render.WithJSONTitle(title),
				render.WithJSONStyle(opts.Style))
		case FormatDOT:
			if t == nil {
				return nil, fmt.Errorf("dot output requires the outline tree")
			}
			data = []byte(render.ToDOT(t, render.DOTOptions{Detailed: opts.Detailed}))
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}
