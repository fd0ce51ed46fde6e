package agent

import (
	"sync"

	"github.com/hupe1980/agenttree/core"
)

// Mailbox is an unbounded FIFO prompt queue with a one-slot wake channel.
// Any number of producers may Post; one consumer drains. Posting never
// blocks, so parent and child can post to each other without deadlock.
type Mailbox struct {
	mu    sync.Mutex
	queue []core.Prompt
	ready chan struct{}
}

// NewMailbox returns an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{ready: make(chan struct{}, 1)}
}

// Post appends p and wakes the consumer.
func (m *Mailbox) Post(p core.Prompt) {
	m.mu.Lock()
	m.queue = append(m.queue, p)
	m.mu.Unlock()
	select {
	case m.ready <- struct{}{}:
	default:
	}
}

// Ready is signalled after a Post. A signal may be stale; consumers must
// re-check Len or Drain.
func (m *Mailbox) Ready() <-chan struct{} { return m.ready }

// Drain removes and returns every queued prompt in arrival order.
func (m *Mailbox) Drain() []core.Prompt {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.queue
	m.queue = nil
	return out
}

// Len returns the number of queued prompts.
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Peek returns a copy of the queued prompts without consuming them.
func (m *Mailbox) Peek() []core.Prompt {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.Prompt, len(m.queue))
	copy(out, m.queue)
	return out
}
