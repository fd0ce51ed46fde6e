// Package artifact contains concrete implementations of core.Workspace, the
// filesystem surface agents read and modify.
//
// The canonical Workspace interface lives in the core package so the tree,
// interpreter and engine never depend on a concrete backend. DiskStore roots
// all operations at a project directory on the local filesystem;
// InMemoryStore keeps a virtual tree for tests and dry runs.
//
// Paths handed to a store are project-relative and slash-separated. Paths
// that would escape the project root are rejected with ErrOutsideRoot.
package artifact
