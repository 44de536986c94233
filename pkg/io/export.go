package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/john-wilkinson/pym/pkg/deps"
)

type graph struct {
	Root        string       `json:"root"`
	Nodes       []node       `json:"nodes"`
	Edges       []edge       `json:"edges"`
	Cycles      []edge       `json:"cycles,omitempty"`
	Diagnostics []diagnostic `json:"diagnostics,omitempty"`
}

type node struct {
	ID          string `json:"id"`
	Version     string `json:"version,omitempty"`
	Kind        string `json:"kind"`
	Source      string `json:"source,omitempty"`
	Row         int    `json:"row"`
	Synthesized bool   `json:"synthesized,omitempty"`
}

type edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type diagnostic struct {
	Kind      string `json:"kind"`
	Package   string `json:"package"`
	From      string `json:"from,omitempty"`
	Existing  string `json:"existing,omitempty"`
	Requested string `json:"requested,omitempty"`
	Error     string `json:"error,omitempty"`
	Fatal     bool   `json:"fatal,omitempty"`
}

// WriteJSON encodes a resolved graph and its diagnostics as JSON and writes
// it to w. Nodes appear in discovery order with the project first; edges in
// the order they were added.
func WriteJSON(w io.Writer, g *deps.Graph, diags deps.Diagnostics) error {
	out := graph{
		Root:  g.Root().Key,
		Nodes: make([]node, 0, g.Len()),
		Edges: make([]edge, 0, g.DAG().EdgeCount()),
	}

	for _, n := range g.Nodes() {
		out.Nodes = append(out.Nodes, node{
			ID:          n.Key,
			Version:     n.ResolvedVersion,
			Kind:        n.Specifier.Kind.String(),
			Source:      source(g, n),
			Row:         n.Depth,
			Synthesized: n.Synthesized,
		})
	}
	for _, e := range g.DAG().Edges() {
		out.Edges = append(out.Edges, edge{From: e.From, To: e.To})
	}
	for _, e := range g.Cycles() {
		out.Cycles = append(out.Cycles, edge{From: e.From, To: e.To})
	}
	for _, d := range diags {
		dd := diagnostic{
			Kind:      d.Kind.String(),
			Package:   d.Key,
			From:      d.From,
			Existing:  d.Existing,
			Requested: d.Requested,
			Fatal:     d.Fatal,
		}
		if d.Err != nil {
			dd.Error = d.Err.Error()
		}
		out.Diagnostics = append(out.Diagnostics, dd)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func source(g *deps.Graph, n *deps.PackageNode) string {
	if n == g.Root() {
		return ""
	}
	return n.Specifier.String()
}

// ExportJSON writes a resolved graph to a JSON file at path.
func ExportJSON(g *deps.Graph, diags deps.Diagnostics, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(f, g, diags); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
