package model

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hupe1980/agenttree/core"
)

// Request captures the normalized model input produced by the context builder:
// a "system" content carrying the rendered agent context followed by a
// "user" content carrying the numbered pending prompts.
type Request struct {
	Contents []core.Content `json:"contents"`
	Stream   bool           `json:"stream,omitempty"`
}

// NewRequest builds the two-message request for one reasoning call.
func NewRequest(contextText, prompts string) Request {
	var contents []core.Content
	if contextText != "" {
		contents = append(contents, core.NewTextContent("system", contextText))
	}
	contents = append(contents, core.NewTextContent("user", prompts))
	return Request{Contents: contents}
}

// System returns the concatenated text of all system contents.
func (r Request) System() string {
	var parts []string
	for _, c := range r.Contents {
		if c.Role == "system" {
			parts = append(parts, c.Text())
		}
	}
	return strings.Join(parts, "\n\n")
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a model.
type Response struct {
	ID           string       `json:"id"`
	Partial      bool         `json:"partial"`
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason"`
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"`
}

// Model is the minimal interface a reasoning backend implements.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// ErrEmptyResponse is returned when a model produced no text.
var ErrEmptyResponse = errors.New("model returned an empty response")

// NewReasoner adapts m to the core.Reasoner calling convention. Partial
// chunks are concatenated; a final chunk with text replaces them.
func NewReasoner(m Model) core.Reasoner {
	return core.ReasonerFunc(func(ctx context.Context, contextText, prompts string) (string, error) {
		return Collect(ctx, m, NewRequest(contextText, prompts))
	})
}

// Collect drives one Generate call to completion and returns the response text.
func Collect(ctx context.Context, m Model, req Request) (string, error) {
	respCh, errCh := m.Generate(ctx, req)
	var (
		partial strings.Builder
		final   string
		gotText bool
	)
	for respCh != nil || errCh != nil {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case resp, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			text := resp.Content.Text()
			if resp.Partial {
				partial.WriteString(text)
				continue
			}
			if text != "" {
				final, gotText = text, true
			}
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return "", fmt.Errorf("%s: %w", m.Info().Provider, err)
			}
		}
	}
	if !gotText {
		final = partial.String()
	}
	if strings.TrimSpace(final) == "" {
		return "", ErrEmptyResponse
	}
	return final, nil
}

// MockModel is a scripted in-memory Model useful for tests and examples.
// Responses are returned in registration order; once exhausted the fallback
// response (if any) is repeated, otherwise Generate fails.
type MockModel struct {
	info Info

	mu        sync.Mutex
	responses []string
	fallback  string
	requests  []Request
}

// NewMockModel constructs a MockModel.
func NewMockModel(name string, responses ...string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: "mock"},
		responses: append([]string(nil), responses...),
	}
}

// AddResponse appends a canned completion.
func (m *MockModel) AddResponse(response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, response)
}

// SetFallback sets the response used once the script is exhausted.
func (m *MockModel) SetFallback(response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = response
}

// Requests returns every request received so far.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

// Generate implements Model; streaming requests emit one partial chunk per rune.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	m.mu.Lock()
	m.requests = append(m.requests, req)
	var (
		full string
		ok   = true
	)
	switch {
	case len(m.responses) > 0:
		full, m.responses = m.responses[0], m.responses[1:]
	case m.fallback != "":
		full = m.fallback
	default:
		ok = false
	}
	m.mu.Unlock()

	go func() {
		defer close(respCh)
		defer close(errCh)
		if !ok {
			errCh <- fmt.Errorf("mock script exhausted")
			return
		}
		if req.Stream {
			for _, r := range full {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{Partial: true, Content: core.NewTextContent("assistant", string(r))}:
				}
			}
		}
		respCh <- Response{
			Content:      core.NewTextContent("assistant", full),
			FinishReason: "stop",
		}
	}()
	return respCh, errCh
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }
