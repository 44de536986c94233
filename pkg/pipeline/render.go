package pipeline

import (
	"bytes"
	"context"
	"fmt"

	graphio "github.com/john-wilkinson/pym/pkg/io"
	"github.com/john-wilkinson/pym/pkg/render/nodelink"
)

// Format constants for graph exports.
const (
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatJSON = "json"
)

// ValidFormats is the set of supported export formats.
var ValidFormats = map[string]bool{
	FormatDOT:  true,
	FormatSVG:  true,
	FormatJSON: true,
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: dot, svg, json)", format)
	}
	return nil
}

// Render exports a resolution in the given format. JSON output includes
// the diagnostics; DOT and SVG show the graph only.
func Render(ctx context.Context, res *Resolution, format string, detailed bool) ([]byte, error) {
	if err := ValidateFormat(format); err != nil {
		return nil, err
	}
	switch format {
	case FormatJSON:
		var buf bytes.Buffer
		if err := graphio.WriteJSON(&buf, res.Graph, res.Diagnostics); err != nil {
			return nil, fmt.Errorf("render json: %w", err)
		}
		return buf.Bytes(), nil
	case FormatSVG:
		svg, err := nodelink.RenderSVG(ctx, nodelink.ToDOT(res.Graph.DAG(), nodelink.Options{Detailed: detailed}))
		if err != nil {
			return nil, fmt.Errorf("render svg: %w", err)
		}
		return svg, nil
	default:
		return []byte(nodelink.ToDOT(res.Graph.DAG(), nodelink.Options{Detailed: detailed})), nil
	}
}
