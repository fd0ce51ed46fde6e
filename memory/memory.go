package memory

import (
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/hupe1980/agenttree/core"
)

// Block is one refreshed memory entry. Err is set when the referenced file
// could not be read at refresh time (for example after a sibling deleted it).
type Block struct {
	Name    string
	Path    string
	Content string
	Err     error
}

// Memory is an ordered filename -> path mapping. It is safe for concurrent
// use; in practice only the owning agent's worker touches it.
type Memory struct {
	mu      sync.RWMutex
	entries *orderedmap.OrderedMap[string, string]
}

// New returns an empty memory.
func New() *Memory {
	return &Memory{entries: orderedmap.New[string, string]()}
}

// Add references path under name. Re-adding a name updates the path but
// keeps the original position. It reports whether name was new.
func (m *Memory) Add(name, path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries.Get(name); ok {
		m.entries.Set(name, path)
		return false
	}
	m.entries.Set(name, path)
	return true
}

// Contains reports whether name is referenced.
func (m *Memory) Contains(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.entries.Get(name)
	return ok
}

// Len returns the number of referenced files.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entries.Len()
}

// Names returns the referenced names in first-reference order.
func (m *Memory) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, m.entries.Len())
	for pair := m.entries.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

// Refresh re-reads every referenced file from ws and returns the snapshot
// in first-reference order. Read failures are recorded per block and do not
// abort the refresh.
func (m *Memory) Refresh(ws core.Workspace) []Block {
	m.mu.RLock()
	defer m.mu.RUnlock()
	blocks := make([]Block, 0, m.entries.Len())
	for pair := m.entries.Oldest(); pair != nil; pair = pair.Next() {
		b := Block{Name: pair.Key, Path: pair.Value}
		data, err := ws.ReadFile(pair.Value)
		if err != nil {
			b.Err = core.FileSystemError("read", pair.Value, err)
		} else {
			b.Content = string(data)
		}
		blocks = append(blocks, b)
	}
	return blocks
}

// Reset forgets every reference.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = orderedmap.New[string, string]()
}
