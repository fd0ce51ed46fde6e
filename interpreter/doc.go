// Package interpreter validates and executes directives on behalf of one
// agent.
//
// Scope rules are checked before anything changes: Create, Delete,
// Delegate and folder Read targets must be direct children of the issuing
// agent's directory; file Read targets may be anywhere inside the project;
// Change and UpdateDoc only ever write the agent's personal file; Run
// commands must appear in the allow-list. Delegation is validated in full
// before any child is activated.
package interpreter
