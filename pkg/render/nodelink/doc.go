// Package nodelink renders dependency graphs as node-link diagrams.
//
// Convert a graph to DOT, then optionally render it to SVG:
//
//	dot := nodelink.ToDOT(g.DAG(), nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// The generated DOT uses a top-to-bottom layout with rounded box nodes; the
// project node has a bold outline and edges that close a dependency cycle
// are dashed so cycles stay visible without breaking the layout.
//
// SVG rendering uses [github.com/goccy/go-graphviz], a WebAssembly build of
// Graphviz, so no external dot binary is needed.
package nodelink
