package artifact

import (
	"sort"
	"strings"
	"sync"

	"github.com/hupe1980/agenttree/core"
)

var _ core.Workspace = (*InMemoryStore)(nil)

type memNode struct {
	dir  bool
	data []byte
}

// InMemoryStore is an in-process Workspace useful for tests, examples and
// dry runs. It keeps a flat map of canonical path -> node guarded by an
// RWMutex. Data is copied on write and on retrieval so callers never alias
// internal buffers. The project root ("") always exists.
type InMemoryStore struct {
	mu    sync.RWMutex
	nodes map[string]*memNode
}

// NewInMemoryStore returns a store containing only the project root.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{nodes: map[string]*memNode{core.RootPath: {dir: true}}}
}

func canonical(p string) (string, error) {
	if !core.Within(p) {
		return "", ErrOutsideRoot
	}
	return core.CleanPath(p), nil
}

// parentDir checks that the parent of p exists and is a directory. Caller holds mu.
func (s *InMemoryStore) parentDir(p string) error {
	parent, ok := s.nodes[core.ParentPath(p)]
	if !ok {
		return ErrNotFound
	}
	if !parent.dir {
		return ErrNotDir
	}
	return nil
}

// ReadFile returns a copy of the file content.
func (s *InMemoryStore) ReadFile(p string) ([]byte, error) {
	p, err := canonical(p)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[p]
	if !ok {
		return nil, ErrNotFound
	}
	if n.dir {
		return nil, ErrIsDir
	}
	cp := make([]byte, len(n.data))
	copy(cp, n.data)
	return cp, nil
}

// WriteFile creates or replaces a file. The parent directory must exist.
func (s *InMemoryStore) WriteFile(p string, data []byte) error {
	p, err := canonical(p)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.nodes[p]; ok && n.dir {
		return ErrIsDir
	}
	if err := s.parentDir(p); err != nil {
		return err
	}
	s.nodes[p] = &memNode{data: append([]byte(nil), data...)}
	return nil
}

// CreateFile creates a new file and fails with ErrExists when p exists.
func (s *InMemoryStore) CreateFile(p string, data []byte) error {
	p, err := canonical(p)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nodes[p]; ok {
		return ErrExists
	}
	if err := s.parentDir(p); err != nil {
		return err
	}
	s.nodes[p] = &memNode{data: append([]byte(nil), data...)}
	return nil
}

// Mkdir creates p and any missing parents. Existing directories are fine.
func (s *InMemoryStore) Mkdir(p string) error {
	p, err := canonical(p)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var chain []string
	for cur := p; cur != core.RootPath; cur = core.ParentPath(cur) {
		chain = append(chain, cur)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		n, ok := s.nodes[chain[i]]
		if !ok {
			s.nodes[chain[i]] = &memNode{dir: true}
			continue
		}
		if !n.dir {
			return ErrNotDir
		}
	}
	return nil
}

// Remove deletes a file or a whole directory subtree. The root cannot be removed.
func (s *InMemoryStore) Remove(p string) error {
	p, err := canonical(p)
	if err != nil {
		return err
	}
	if p == core.RootPath {
		return ErrOutsideRoot
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[p]
	if !ok {
		return ErrNotFound
	}
	delete(s.nodes, p)
	if n.dir {
		prefix := p + "/"
		for k := range s.nodes {
			if strings.HasPrefix(k, prefix) {
				delete(s.nodes, k)
			}
		}
	}
	return nil
}

// Stat describes p.
func (s *InMemoryStore) Stat(p string) (core.Entry, error) {
	p, err := canonical(p)
	if err != nil {
		return core.Entry{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[p]
	if !ok {
		return core.Entry{}, ErrNotFound
	}
	return core.Entry{Name: core.BasePath(p), Dir: n.dir}, nil
}

// ReadDir lists the direct children of directory p sorted by name.
func (s *InMemoryStore) ReadDir(p string) ([]core.Entry, error) {
	p, err := canonical(p)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[p]
	if !ok {
		return nil, ErrNotFound
	}
	if !n.dir {
		return nil, ErrNotDir
	}
	entries := []core.Entry{}
	for k, child := range s.nodes {
		if k != core.RootPath && core.IsDirectChild(p, k) {
			entries = append(entries, core.Entry{Name: core.BasePath(k), Dir: child.dir})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Files returns a sorted snapshot of every file path in the store.
func (s *InMemoryStore) Files() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.nodes))
	for k, n := range s.nodes {
		if !n.dir {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
