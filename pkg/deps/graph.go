package deps

import (
	"github.com/john-wilkinson/pym/pkg/dag"
	"github.com/john-wilkinson/pym/pkg/manifest"
	"github.com/john-wilkinson/pym/pkg/specifier"
)

// RootKey is used as the identity key of a root manifest without a name.
const RootKey = "."

// Metadata keys set on graph nodes.
const (
	MetaVersion = "version"
	MetaKind    = "kind"
	MetaSource  = "source"
)

// PackageNode is one resolved package.
type PackageNode struct {
	Key             string              // Identity key
	Specifier       specifier.Specifier // Request that created the node
	ResolvedVersion string              // Concrete version or commit
	Manifest        *manifest.Manifest  // Package manifest, possibly synthesized
	Synthesized     bool                // Manifest was synthesized, not read
	StagingPath     string              // Fetched source tree
	Depth           int                 // BFS depth, 0 for the root
	Seq             int                 // Sequence number of the creating request
}

// Graph holds resolved packages keyed by identity. Nodes iterate in
// discovery order with the root first. A Graph is read-only once returned
// by [Builder.Build].
type Graph struct {
	root  *PackageNode
	nodes map[string]*PackageNode
	order []*PackageNode
	dag   *dag.DAG
}

func newGraph(root *PackageNode) *Graph {
	g := &Graph{
		nodes: make(map[string]*PackageNode),
		dag:   dag.New(nil),
	}
	g.add(root)
	g.root = root
	return g
}

func (g *Graph) add(n *PackageNode) {
	g.nodes[n.Key] = n
	g.order = append(g.order, n)
	_ = g.dag.AddNode(dag.Node{
		ID:  n.Key,
		Row: n.Depth,
		Meta: dag.Metadata{
			MetaVersion: n.ResolvedVersion,
			MetaKind:    n.Specifier.Kind.String(),
			MetaSource:  n.Specifier.String(),
		},
	})
}

func (g *Graph) link(from, to string) {
	_ = g.dag.AddEdge(dag.Edge{From: from, To: to})
}

// Root returns the project node. It is never installed.
func (g *Graph) Root() *PackageNode { return g.root }

// Node returns the node with the given identity key.
func (g *Graph) Node(key string) (*PackageNode, bool) {
	n, ok := g.nodes[key]
	return n, ok
}

// Nodes returns all nodes in discovery order, root first.
func (g *Graph) Nodes() []*PackageNode {
	out := make([]*PackageNode, len(g.order))
	copy(out, g.order)
	return out
}

// Packages returns the non-root nodes in discovery order.
func (g *Graph) Packages() []*PackageNode {
	out := make([]*PackageNode, 0, len(g.order)-1)
	for _, n := range g.order {
		if n != g.root {
			out = append(out, n)
		}
	}
	return out
}

// Len returns the number of nodes including the root.
func (g *Graph) Len() int { return len(g.order) }

// Dependencies returns the identity keys n depends on, in declaration order.
// Requests that failed to resolve have no edge.
func (g *Graph) Dependencies(key string) []string { return g.dag.Children(key) }

// Dependents returns the identity keys of the packages requiring key.
func (g *Graph) Dependents(key string) []string { return g.dag.Parents(key) }

// DAG exposes the edge structure for rendering and export.
func (g *Graph) DAG() *dag.DAG { return g.dag }

// Cycles returns the edges that close a dependency cycle.
func (g *Graph) Cycles() []dag.Edge { return g.dag.BackEdges() }
