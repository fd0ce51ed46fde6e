package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/agenttree/core"
	"github.com/hupe1980/agenttree/directive"
)

// CallbackType defines the lifecycle points where callbacks run.
//
// Available callback types:
//   - BeforeTurn/AfterTurn: around one agent turn
//   - OnDirective: after a directive executed successfully
//   - OnError: when a recoverable error is fed back to an agent
//   - OnViolation: when a directive caused a StateViolation
//
// Callbacks run synchronously on the agent's worker. Their errors are
// logged and never abort the turn.
type CallbackType string

const (
	// CallbackBeforeTurn is triggered after the pending prompts were drained
	// and before the reasoning service is called.
	CallbackBeforeTurn CallbackType = "before_turn"

	// CallbackAfterTurn is triggered once the turn's outcome was applied.
	CallbackAfterTurn CallbackType = "after_turn"

	// CallbackOnDirective is triggered after a directive executed.
	CallbackOnDirective CallbackType = "on_directive"

	// CallbackOnError is triggered when a recoverable error is fed back.
	CallbackOnError CallbackType = "on_error"

	// CallbackOnViolation is triggered when a directive caused a StateViolation.
	CallbackOnViolation CallbackType = "on_violation"
)

// CallbackContext carries the information available to a callback.
type CallbackContext struct {
	RunID string
	Agent core.AgentInfo

	// CallbackType indicates which callback type triggered this execution.
	CallbackType CallbackType

	// Prompts are the rendered pending prompts of the turn.
	Prompts []string
	// Response is the raw reasoning-service response, when one was received.
	Response string
	// Directive is the parsed directive, when parsing succeeded.
	Directive directive.Directive
	// Result is the rendered outcome fed back to the agent.
	Result string
	Err    error

	// Metadata provides extensible storage for custom callback data.
	Metadata map[string]any
}

// Callback defines the interface for execution lifecycle hooks.
type Callback interface {
	// Type returns the callback type this implementation handles.
	Type() CallbackType

	// Execute performs the callback logic with the provided context.
	Execute(ctx context.Context, callbackCtx *CallbackContext) error
}

// FunctionCallback wraps a function as a callback implementation.
//
// Example:
//
//	logDirectives := NewFunctionCallback(
//	    CallbackOnDirective,
//	    func(ctx context.Context, cc *CallbackContext) error {
//	        log.Printf("%s: %s", cc.Agent.Path, directive.Summary(cc.Directive))
//	        return nil
//	    },
//	)
type FunctionCallback struct {
	callbackType CallbackType
	fn           func(ctx context.Context, callbackCtx *CallbackContext) error
}

// NewFunctionCallback creates a new function-based callback.
func NewFunctionCallback(
	callbackType CallbackType,
	fn func(ctx context.Context, callbackCtx *CallbackContext) error,
) *FunctionCallback {
	return &FunctionCallback{
		callbackType: callbackType,
		fn:           fn,
	}
}

// Type returns the callback type this function handles.
func (c *FunctionCallback) Type() CallbackType {
	return c.callbackType
}

// Execute calls the wrapped function with the provided context.
func (c *FunctionCallback) Execute(ctx context.Context, callbackCtx *CallbackContext) error {
	return c.fn(ctx, callbackCtx)
}

// CallbackManager is the registry of callbacks by type. Many agent workers
// execute callbacks concurrently, so registration and execution are
// synchronized.
type CallbackManager struct {
	mu        sync.RWMutex
	callbacks map[CallbackType][]Callback
}

// NewCallbackManager creates a new callback manager instance.
func NewCallbackManager() *CallbackManager {
	return &CallbackManager{
		callbacks: make(map[CallbackType][]Callback),
	}
}

// RegisterCallback adds a callback; callbacks of one type run in
// registration order.
func (cm *CallbackManager) RegisterCallback(callback Callback) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	callbackType := callback.Type()
	cm.callbacks[callbackType] = append(cm.callbacks[callbackType], callback)
}

// ExecuteCallbacks runs every callback registered for callbackType. All
// callbacks run even if one fails; the first error is returned.
func (cm *CallbackManager) ExecuteCallbacks(
	ctx context.Context,
	callbackType CallbackType,
	callbackCtx *CallbackContext,
) error {
	cm.mu.RLock()
	callbacks := append([]Callback(nil), cm.callbacks[callbackType]...)
	cm.mu.RUnlock()

	callbackCtx.CallbackType = callbackType
	var first error
	for _, callback := range callbacks {
		if err := callback.Execute(ctx, callbackCtx); err != nil && first == nil {
			first = fmt.Errorf("%s callback: %w", callbackType, err)
		}
	}
	return first
}

// LoggingCallback forwards a one-line description of each callback
// execution to a logging function.
type LoggingCallback struct {
	callbackType CallbackType
	logger       func(message string)
}

// NewLoggingCallback creates a new logging callback.
func NewLoggingCallback(callbackType CallbackType, logger func(message string)) *LoggingCallback {
	return &LoggingCallback{
		callbackType: callbackType,
		logger:       logger,
	}
}

// Type returns the callback type this logger handles.
func (c *LoggingCallback) Type() CallbackType {
	return c.callbackType
}

// Execute logs the agent and, when present, the directive and error.
func (c *LoggingCallback) Execute(_ context.Context, callbackCtx *CallbackContext) error {
	if c.logger == nil {
		return nil
	}
	message := fmt.Sprintf("[%s] agent=%s", c.callbackType, core.DisplayPath(callbackCtx.Agent.Path))
	if callbackCtx.Directive != nil {
		message += " directive=" + directive.Summary(callbackCtx.Directive)
	}
	if callbackCtx.Err != nil {
		message += " error=" + callbackCtx.Err.Error()
	}
	c.logger(message)
	return nil
}
