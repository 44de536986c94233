// Package fetch materializes dependency sources into the staging area.
//
// # Overview
//
// The dependency graph builder depends only on the [SourceFetcher]
// interface. Two implementations back it:
//
//   - [Registry] resolves a version constraint against the package index,
//     downloads a pure Python wheel, verifies its checksum and unpacks it.
//   - [Git] clones a repository with the git executable, checks out the
//     requested ref and strips the .git directory.
//
// [Sources] composes both. Tests use the gomock double in the mocks
// subpackage.
//
// # Staging
//
// Every request maps to one directory under the staging root, named
// "<key>-<digest>" where the digest is an xxhash of the request. Content is
// written to a temporary sibling first and renamed into place, so a staging
// directory is either complete or absent.
//
// # Errors
//
// Failures carry [errors.Code] values: NOT_FOUND when the package or a
// matching release does not exist, NETWORK_ERROR for transport and clone
// failures, UNSUPPORTED_ARTIFACT when a release ships no pure wheel, and
// REF_NOT_FOUND when a git ref cannot be checked out.
package fetch
