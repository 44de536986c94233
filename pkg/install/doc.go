// Package install materializes a resolved dependency graph into the
// project's pym_packages directory.
//
// Each package lands in its own directory named by identity key, with a
// pym.json whose "resolved" field records the version or commit it came
// from. Installing a graph whose packages are already present at the same
// resolved version changes nothing.
//
// A package is first copied into a hidden temp sibling
// (".<key>-<uuid>.tmp"), then the previous copy is renamed aside, the temp
// directory renamed into place and the old copy removed. A crash leaves
// either the old or the new tree under the final name, never a partial one.
package install
