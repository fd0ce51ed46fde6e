package session

import "sync"

// Exchange is one completed turn: the numbered pending prompts sent to the
// reasoning service, its raw response and the rendered outcome of
// interpreting that response (a result, or an error fed back to the agent).
type Exchange struct {
	Prompts  []string
	Response string
	Result   string
}

// Transcript is an append-only list of exchanges cleared on deactivation.
type Transcript struct {
	mu        sync.RWMutex
	exchanges []Exchange
}

// NewTranscript returns an empty transcript.
func NewTranscript() *Transcript { return &Transcript{} }

// Append records an exchange. The prompts slice is copied.
func (t *Transcript) Append(ex Exchange) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ex.Prompts = append([]string(nil), ex.Prompts...)
	t.exchanges = append(t.exchanges, ex)
}

// Exchanges returns a snapshot of the recorded exchanges.
func (t *Transcript) Exchanges() []Exchange {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Exchange, len(t.exchanges))
	copy(out, t.exchanges)
	return out
}

// Len returns the number of recorded exchanges.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.exchanges)
}

// Empty reports whether nothing has been recorded since the last Clear.
func (t *Transcript) Empty() bool { return t.Len() == 0 }

// Clear forgets every exchange.
func (t *Transcript) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.exchanges = nil
}
