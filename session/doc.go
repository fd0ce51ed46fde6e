// Package session holds per-lifetime and per-run conversational state.
//
// Transcript is an agent's context: the ordered (prompts, response) pairs
// accumulated since its last activation. EventLog records the events a run
// produced, keyed by run id, for inspection after the run completes.
package session
