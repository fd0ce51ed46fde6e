package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/agenttree/core"
)

// Step is one scripted reasoning-service reply. When Gate is set the reply
// is held back until the channel is closed.
type Step struct {
	Response string
	Err      error
	Gate     <-chan struct{}
}

// Call records one reasoning-service invocation.
type Call struct {
	Agent    string
	Turn     int
	Context  string
	Prompts  string
	Response string
}

// Script is a core.Reasoner replaying per-agent responses. The calling
// agent is taken from the turn information on the context.
// Example:
//
//	s := NewScript().On("", `DELEGATE PROMPT="build"`, "WAIT", `FINISH PROMPT="ok"`)
type Script struct {
	mu    sync.Mutex
	steps map[string][]Step
	calls []Call
}

var _ core.Reasoner = (*Script)(nil)

// NewScript creates an empty script.
func NewScript() *Script { return &Script{steps: map[string][]Step{}} }

// On appends plain responses for the agent at path (chainable).
func (s *Script) On(path string, responses ...string) *Script {
	for _, r := range responses {
		s.Then(path, Step{Response: r})
	}
	return s
}

// Then appends a step for the agent at path (chainable).
func (s *Script) Then(path string, st Step) *Script {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps[path] = append(s.steps[path], st)
	return s
}

// Call implements core.Reasoner.
func (s *Script) Call(ctx context.Context, contextText, prompts string) (string, error) {
	info, ok := core.TurnFrom(ctx)
	if !ok {
		return "", fmt.Errorf("script: no turn information on context")
	}
	path := info.Agent.Path

	s.mu.Lock()
	queue := s.steps[path]
	if len(queue) == 0 {
		s.mu.Unlock()
		return "", fmt.Errorf("script: no response left for %s", core.DisplayPath(path))
	}
	st := queue[0]
	s.steps[path] = queue[1:]
	s.mu.Unlock()

	if st.Gate != nil {
		select {
		case <-st.Gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	s.mu.Lock()
	s.calls = append(s.calls, Call{Agent: path, Turn: info.Turn, Context: contextText, Prompts: prompts, Response: st.Response})
	s.mu.Unlock()
	return st.Response, st.Err
}

// Calls returns every completed call in completion order.
func (s *Script) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsFor returns the completed calls of one agent.
func (s *Script) CallsFor(path string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Agent == path {
			out = append(out, c)
		}
	}
	return out
}

// Remaining returns the number of unused steps of the agent at path.
func (s *Script) Remaining(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.steps[path])
}
