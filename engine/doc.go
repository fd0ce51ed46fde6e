// Package engine drives an agent tree to completion.
//
// The Engine runs one worker goroutine per active agent activation. Every
// worker loops over its agent's mailbox: it drains all pending prompts,
// builds the reasoning-service input through the flow pipeline, calls the
// reasoner once, parses exactly one directive and hands it to the
// interpreter. Prompts that arrive while a call is in flight queue up and
// are coalesced into the next turn in arrival order.
//
// # Turn Outcomes
//
//	Continue  the exchange is recorded and the directive's result is posted
//	          back to the agent's own mailbox as its next prompt
//	Wait      the exchange is recorded; the agent idles until a child
//	          finishes or an external prompt arrives
//	Finished  the agent deactivated; its result went to its parent
//	Terminal  the root coordinator finished and the run ends
//
// Recoverable errors (parse errors, scope and state violations, filesystem
// errors, disallowed commands) and reasoning-service failures are fed back
// to the agent as the result of its turn. A FatalBootstrapError, an
// exhausted call budget or a cancelled context ends the run.
//
// # Usage
//
//	tr, _ := tree.New(artifact.NewDiskStore(dir))
//	e := engine.New(tr, model.NewReasoner(m), func(o *engine.Options) {
//	    o.AllowList = allow
//	    o.Executor = tool.NewShellExecutor(dir)
//	    o.MaxModelCalls = 200
//	})
//	res, err := e.Run(ctx, "build a calculator")
//
// # Callbacks
//
// A CallbackManager exposes hooks around each turn (before_turn,
// after_turn), after executed directives (on_directive) and for fed-back
// errors (on_error, on_violation). Callbacks run on the agent's worker and
// must be safe for concurrent use across agents.
package engine
