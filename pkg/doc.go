// Package pkg provides the libraries behind pym, a project-local Python
// package manager.
//
// # Overview
//
// pym reads a project's pym.json, resolves its dependencies from the
// package index or from git repositories, and installs them into the
// project's pym_packages directory. The pkg directory is organized as:
//
//  1. [specifier], [manifest], [semver] - Input formats
//  2. [fetch], [integrations] - Package sources (index, archives, git)
//  3. [deps], [dag] - Dependency graph construction
//  4. [install], [loader] - Installation and import resolution
//  5. [pipeline] - Orchestration (resolve → install → render)
//  6. [cache], [config], [observability], [errors] - Infrastructure
//
// # Architecture
//
// The typical data flow through pym:
//
//	pym.json / specifiers
//	         ↓
//	    [deps] package (breadth-first resolution, one level at a time)
//	         ↓
//	    [fetch] package (stage archives and checkouts)
//	         ↓
//	    [install] package (copy staged trees into pym_packages)
//	         ↓
//	    [loader] package (map imports onto installed packages)
//
// A resolved graph can also be exported with [io] as JSON or rendered with
// [render/nodelink] as DOT or SVG.
//
// # Quick Start
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), pipeline.Options{}, logger)
//	defer runner.Close()
//
//	res, err := runner.Resolve(ctx, projectDir)
//	if err != nil {
//	    return err
//	}
//	report, err := runner.Install(ctx, projectDir, res)
package pkg
