// Package core provides the foundational domain types and collaborator
// interfaces shared by every agenttree package. It defines:
//
//   - Agent kinds and identity (Kind, AgentInfo) plus canonical path helpers
//   - Tasks and mailbox prompts (Task, Prompt)
//   - The error taxonomy (Error, Code) and recoverability rules
//   - Run events (Event) emitted by the orchestrator
//   - The reasoning-call budget (CallLimiter)
//   - External collaborators: Reasoner, Executor and Workspace
//
// The package keeps implementation concerns (persistence, scheduling, parsing)
// out of scope and exposes small interfaces so that tests and alternative
// backends can be plugged in without touching the orchestrator.
package core
