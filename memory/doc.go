// Package memory implements an agent's working set: the ordered mapping of
// referenced filename to project path that is re-read from the workspace
// immediately before every reasoning-service call.
//
// Insertion order is first-reference order; re-referencing a name keeps its
// original position. Content is never cached between refreshes.
package memory
