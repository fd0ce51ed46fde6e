// Package tree implements the agent arena: every agent record keyed by its
// canonical id, the single-owner parent/child relation, and the atomic
// validate-all-then-commit-all activation of children.
//
// Ids are canonical project-relative paths. The root coordinator is ""; a
// tester attached to agent P is "P#tester" and is not a filesystem child.
package tree
