// Package testutil contains helper builders used across tests to reduce
// boilerplate: a scripted per-agent reasoner and a tree builder over an
// in-memory workspace. They are not intended for production usage.
package testutil
