// Package dag provides the ordered directed graph that holds resolved
// dependencies.
//
// # Overview
//
// Nodes are keyed by a unique ID (the package identity key) and remember the
// order in which they were added, which for pym is discovery order. Each
// node carries a Row, the breadth-first depth at which it was discovered,
// and a free-form [Metadata] map.
//
//	g := dag.New(nil)
//	g.AddNode(dag.Node{ID: "webapp", Row: 0})
//	g.AddNode(dag.Node{ID: "tornado", Row: 1})
//	g.AddEdge(dag.Edge{From: "webapp", To: "tornado"})
//
// # Cycles
//
// Despite the name, dependency graphs may contain cycles (A depends on B and
// B on A). They are stored as-is; [DAG.BackEdges] reports the edges that
// close each cycle using an iterative depth-first walk.
//
// # Concurrency
//
// DAG instances are not safe for concurrent use. The resolver builds a graph
// from a single goroutine and hands it over read-only afterwards.
package dag
