// Package io exports resolved dependency graphs as JSON.
//
// The document lists the project and every resolved package, the dependency
// edges between them, the edges that close a cycle, and any diagnostics
// collected while resolving:
//
//	{
//	  "root": "webapp",
//	  "nodes": [
//	    {"id": "webapp", "version": "0.1.0", "kind": "registry", "row": 0},
//	    {"id": "tornado", "version": "4.5.2", "kind": "registry", "source": "tornado@4.5.2", "row": 1}
//	  ],
//	  "edges": [
//	    {"from": "webapp", "to": "tornado"}
//	  ]
//	}
//
// Use [WriteJSON] for any io.Writer or [ExportJSON] to write a file. Output
// is deterministic for a given graph.
package io
