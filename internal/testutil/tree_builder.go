package testutil

import (
	"testing"

	"github.com/hupe1980/agenttree/artifact"
	"github.com/hupe1980/agenttree/core"
	"github.com/hupe1980/agenttree/tool"
	"github.com/hupe1980/agenttree/tree"
)

// TreeBuilder constructs a tree over an in-memory workspace with fluent
// chaining.
// Example:
//
//	tr, ws := NewTreeBuilder().File("src/a.ts", "x").Command("npm test").Build(t)
type TreeBuilder struct {
	files    map[string]string
	order    []string
	commands []tool.Command
	opts     []func(o *tree.Options)
}

// NewTreeBuilder creates a builder with no files and an empty allow-list.
func NewTreeBuilder() *TreeBuilder {
	return &TreeBuilder{files: map[string]string{}}
}

// File seeds a workspace file (chainable). Parent folders are created.
func (b *TreeBuilder) File(path, content string) *TreeBuilder {
	if _, ok := b.files[path]; !ok {
		b.order = append(b.order, path)
	}
	b.files[path] = content
	return b
}

// Command adds an allow-listed command (chainable).
func (b *TreeBuilder) Command(cmd string) *TreeBuilder {
	b.commands = append(b.commands, tool.Command{Command: cmd})
	return b
}

// Option adds a tree option (chainable).
func (b *TreeBuilder) Option(fn func(o *tree.Options)) *TreeBuilder {
	b.opts = append(b.opts, fn)
	return b
}

// AllowList returns the allow-list built from the added commands.
func (b *TreeBuilder) AllowList() *tool.AllowList {
	return tool.MustAllowList(b.commands...)
}

// Build creates the workspace and the tree, failing the test on error.
func (b *TreeBuilder) Build(t testing.TB) (*tree.Tree, *artifact.InMemoryStore) {
	t.Helper()
	ws := artifact.NewInMemoryStore()
	for _, p := range b.order {
		if dir := core.ParentPath(p); dir != core.RootPath {
			if err := ws.Mkdir(dir); err != nil {
				t.Fatalf("mkdir %s: %v", dir, err)
			}
		}
		if err := ws.WriteFile(p, []byte(b.files[p])); err != nil {
			t.Fatalf("seed %s: %v", p, err)
		}
	}
	tr, err := tree.New(ws, b.opts...)
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	return tr, ws
}
