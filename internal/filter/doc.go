// Package filter implements the path filter of the analysis core.
//
// Decisions are pure functions of a slash-separated relative path and, for
// files, the size in bytes. Rules apply in priority order:
//
//  1. directory names in the denylist are excluded and pruned
//  2. extensions outside the allow-set, binary extensions and files above
//     the size ceiling are excluded
//  3. user ignore globs (doublestar syntax with gitignore-like anchoring)
//     exclude files and prune directories
//
// Content sniffing for binary files lives in the walker; LooksBinary is
// the shared heuristic.
package filter
