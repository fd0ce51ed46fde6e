// Package agent implements the Agent record: identity, ownership, the
// Inactive/Active state machine, the single in-flight task, the FIFO
// mailbox, the stall flag, memory and transcript.
//
// Agents never reference each other directly. Parent and child links are
// canonical paths resolved through the tree arena, which is also the only
// place that mutates the active-children set together with child state.
//
// Lifecycle:
//
//	Inactive --Activate(task)--> Active --Deactivate--> Inactive
//
// Activate fails while a task is held or the agent is already Active.
// Deactivate fails while any child is active and otherwise wipes the
// transcript, memory and task so the next lifetime starts blank.
package agent
