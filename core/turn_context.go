package core

import "context"

type turnKey struct{}

// TurnInfo identifies the agent turn on whose behalf a collaborator is
// called. The orchestrator attaches it to the context handed to the
// Reasoner and Executor.
type TurnInfo struct {
	RunID string
	Agent AgentInfo
	// Generation is the agent's activation counter; Turn counts turns
	// within that activation starting at 1.
	Generation uint64
	Turn       int
}

// WithTurn returns a copy of ctx carrying info.
func WithTurn(ctx context.Context, info TurnInfo) context.Context {
	return context.WithValue(ctx, turnKey{}, info)
}

// TurnFrom extracts the TurnInfo attached by WithTurn.
func TurnFrom(ctx context.Context) (TurnInfo, bool) {
	info, ok := ctx.Value(turnKey{}).(TurnInfo)
	return info, ok
}
