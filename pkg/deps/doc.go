// Package deps builds the resolved dependency graph of a project.
//
// # Overview
//
// [Builder.Build] takes the root manifest and walks its dependencies
// breadth-first. Every package is identified by its identity key (the
// lower-cased name with "_" folded to "-"); the first request for a key
// decides its resolution and later requests either reuse it or produce a
// [Conflict] diagnostic. Nothing is ever backtracked.
//
//	b := deps.NewBuilder(fetcher, deps.Options{Workers: 8})
//	g, diags, err := b.Build(ctx, rootManifest)
//
// # Concurrency
//
// Each BFS level is fetched concurrently on a bounded errgroup and joined
// before the next level starts. Requests carry sequence numbers assigned at
// enqueue time and results are applied in that order, so the graph, its node
// order and the diagnostics do not depend on which fetch finishes first.
//
// # Diagnostics
//
// Resolution problems are returned as [Diagnostics] rather than errors:
//
//   - [Conflict]: an incompatible request for an already resolved package.
//     Warning-class under [FirstWins], fatal under [Strict].
//   - [FetchFailed]: a source could not be fetched. Fatal for direct
//     dependencies of the root, a warning for transitive ones. A key that
//     failed is not fetched again.
//   - [DepthExceeded]: a package at [Options.MaxDepth] had dependencies
//     that were not followed.
//
// Build itself only fails for a missing root manifest or a cancelled
// context.
//
// # Cycles
//
// Cycles terminate through identity deduplication: the closing request finds
// the node already present and only adds an edge. [Graph.Cycles] reports the
// closing edges.
package deps
