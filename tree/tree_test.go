package tree

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agenttree/artifact"
	"github.com/hupe1980/agenttree/core"
)

func newTree(t *testing.T) (*Tree, *artifact.InMemoryStore) {
	t.Helper()
	ws := artifact.NewInMemoryStore()
	tr, err := New(ws)
	require.NoError(t, err)
	return tr, ws
}

// activeManager returns a tree whose root delegated to an Active src manager.
func activeManager(t *testing.T) (*Tree, *artifact.InMemoryStore) {
	t.Helper()
	tr, ws := newTree(t)
	require.NoError(t, tr.ActivateRoot("build"))
	_, err := tr.Delegate(core.RootPath, []Request{{Path: "src", Kind: core.KindDirectoryManager, Prompt: "go"}})
	require.NoError(t, err)
	return tr, ws
}

func TestNew_CreatesRootDoc(t *testing.T) {
	_, ws := newTree(t)
	_, err := ws.Stat("README.md")
	assert.NoError(t, err)
}

func TestNew_RejectsNestedSourceDir(t *testing.T) {
	_, err := New(artifact.NewInMemoryStore(), func(o *Options) { o.SourceDir = "a/b" })
	assert.Error(t, err)
}

func TestNew_BootstrapFailureIsFatal(t *testing.T) {
	ws := artifact.NewInMemoryStore()
	require.NoError(t, ws.Mkdir("README.md"))
	_, err := New(ws)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrFatalBootstrap))
}

func TestNaming(t *testing.T) {
	tr, _ := newTree(t)
	assert.Equal(t, "src/src_README.md", PersonalFile(core.KindDirectoryManager, "src"))
	assert.Equal(t, "src/lib/lib_README.md", DocFile("src/lib"))
	assert.Equal(t, "src/calc.ts", PersonalFile(core.KindFileCoder, "src/calc.ts"))
	assert.Equal(t, "src/calc.ts#tester", TesterID("src/calc.ts"))
	assert.Equal(t, ".agenttree/scratch/src_calc.ts.scratch", tr.ScratchFile("src/calc.ts"))
	assert.Equal(t, ".agenttree/scratch/root.scratch", tr.ScratchFile(core.RootPath))
	assert.Equal(t, "README.md", tr.DocFileOf(core.RootPath))
}

func TestDelegate_CreatesAndActivates(t *testing.T) {
	tr, ws := activeManager(t)

	kids, err := tr.Delegate("src", []Request{{Path: "src/calculator.ts", Kind: core.KindFileCoder, Prompt: "Implement add/subtract"}})
	require.NoError(t, err)
	require.Len(t, kids, 1)

	coder := kids[0]
	assert.True(t, coder.IsActive())
	assert.Equal(t, 1, coder.Mailbox().Len())
	_, err = ws.Stat("src/calculator.ts")
	assert.NoError(t, err)
	_, err = ws.Stat("src/src_README.md")
	assert.NoError(t, err)

	mgr, _ := tr.Get("src")
	assert.Equal(t, []string{"src/calculator.ts"}, mgr.ActiveChildren())
}

func TestDelegate_ValidateAllThenCommitAll(t *testing.T) {
	tr, _ := activeManager(t)
	_, err := tr.Delegate("src", []Request{{Path: "src/b.ts", Kind: core.KindFileCoder, Prompt: "b"}})
	require.NoError(t, err)
	b, _ := tr.Get("src/b.ts")
	before := b.Mailbox().Len()

	_, err = tr.Delegate("src", []Request{
		{Path: "src/a.ts", Kind: core.KindFileCoder, Prompt: "a"},
		{Path: "src/b.ts", Kind: core.KindFileCoder, Prompt: "again"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrScope))
	assert.Contains(t, err.Error(), "child already active")

	_, exists := tr.Get("src/a.ts")
	assert.False(t, exists, "A must not be instantiated")
	assert.Equal(t, before, b.Mailbox().Len(), "B's mailbox must be untouched")
	task, _ := b.Task()
	assert.Equal(t, "b", task.Prompt)
}

func TestDelegate_RejectsNonChildrenAndDuplicates(t *testing.T) {
	tr, _ := activeManager(t)
	_, err := tr.Delegate("src", []Request{{Path: "src/x/y.ts", Kind: core.KindFileCoder}})
	assert.True(t, errors.Is(err, core.ErrScope))

	_, err = tr.Delegate("src", []Request{
		{Path: "src/a.ts", Kind: core.KindFileCoder},
		{Path: "src/a.ts", Kind: core.KindFileCoder},
	})
	assert.True(t, errors.Is(err, core.ErrScope))
	assert.Contains(t, err.Error(), "targeted twice")
}

func TestFinish_RoutesResultAndDeactivates(t *testing.T) {
	tr, _ := activeManager(t)
	mgr, _ := tr.Get("src")
	mgr.Mailbox().Drain()

	_, err := tr.Delegate("src", []Request{
		{Path: "src/a.ts", Kind: core.KindFileCoder, Prompt: "a"},
		{Path: "src/b.ts", Kind: core.KindFileCoder, Prompt: "b"},
	})
	require.NoError(t, err)

	// Manager cannot finish while children are active.
	_, err = tr.Finish("src", "too early")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrState))
	assert.True(t, mgr.IsActive())

	_, err = tr.Finish("src/b.ts", "b done")
	require.NoError(t, err)
	_, err = tr.Finish("src/a.ts", "a done")
	require.NoError(t, err)

	got := mgr.Mailbox().Drain()
	require.Len(t, got, 2)
	assert.Equal(t, "b done", got[0].Text)
	assert.Equal(t, "src/b.ts", got[0].From)
	assert.Equal(t, core.SourceResult, got[0].Source)
	assert.Equal(t, "a done", got[1].Text)

	a, _ := tr.Get("src/a.ts")
	assert.False(t, a.IsActive())
	_, hasTask := a.Task()
	assert.False(t, hasTask)

	isRoot, err := tr.Finish("src", "task complete")
	require.NoError(t, err)
	assert.False(t, isRoot)
	tr.Root().Mailbox().Drain()
	isRoot, err = tr.Finish(core.RootPath, "all done")
	require.NoError(t, err)
	assert.True(t, isRoot)
}

func TestFinish_RefusedWhileChildResultsUnread(t *testing.T) {
	tr, _ := activeManager(t)
	mgr, _ := tr.Get("src")
	mgr.Mailbox().Drain()

	_, err := tr.Delegate("src", []Request{{Path: "src/a.ts", Kind: core.KindFileCoder, Prompt: "a"}})
	require.NoError(t, err)
	active, unread := tr.Awaiting("src")
	assert.Equal(t, []string{"src/a.ts"}, active)
	assert.Zero(t, unread)

	_, err = tr.Finish("src/a.ts", "a done")
	require.NoError(t, err)
	active, unread = tr.Awaiting("src")
	assert.Empty(t, active)
	assert.Equal(t, 1, unread)

	_, err = tr.Finish("src", "src done")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnreadResults))
	assert.Contains(t, err.Error(), "1 from src/a.ts")
	assert.True(t, mgr.IsActive())
	require.Len(t, mgr.Mailbox().Peek(), 1, "the result stays queued")

	mgr.Mailbox().Drain()
	_, err = tr.Finish("src", "src done")
	require.NoError(t, err)
}

func TestSpawn_TesterLifecycle(t *testing.T) {
	tr, ws := activeManager(t)
	tester, err := tr.Spawn("src", "run the tests")
	require.NoError(t, err)
	assert.Equal(t, "src#tester", tester.Path())
	assert.Equal(t, "src", tester.Dir())
	_, err = ws.Stat(".agenttree/scratch/src.scratch")
	require.NoError(t, err)

	_, err = tr.Spawn("src", "again")
	assert.True(t, errors.Is(err, core.ErrScope))

	_, err = tr.Finish("src#tester", "all green")
	require.NoError(t, err)
	_, ok := tr.Get("src#tester")
	assert.False(t, ok)
	_, err = ws.Stat(".agenttree/scratch/src.scratch")
	assert.True(t, errors.Is(err, artifact.ErrNotFound))

	mgr, _ := tr.Get("src")
	assert.False(t, mgr.HasActiveChildren())
	assert.NotContains(t, mgr.Children(), "src#tester")
}

func TestForget_RefusesActiveSubtree(t *testing.T) {
	tr, _ := activeManager(t)
	_, err := tr.Delegate("src", []Request{{Path: "src/lib", Kind: core.KindDirectoryManager, Prompt: "x"}})
	require.NoError(t, err)

	assert.True(t, errors.Is(tr.CheckDeletable("src", "src/lib"), core.ErrScope))
	_, err = tr.Forget("src", "src/lib")
	assert.True(t, errors.Is(err, core.ErrScope))

	_, err = tr.Finish("src/lib", "done")
	require.NoError(t, err)
	n, err := tr.Forget("src", "src/lib")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	mgr, _ := tr.Get("src")
	assert.Empty(t, mgr.Children())
}

func TestSubmitAndBusy(t *testing.T) {
	tr, _ := newTree(t)
	assert.True(t, errors.Is(tr.Submit(core.RootPath, "hi"), core.ErrState))
	require.NoError(t, tr.ActivateRoot("build"))
	assert.True(t, tr.Busy())
	tr.Root().Mailbox().Drain()
	assert.False(t, tr.Busy())
	require.NoError(t, tr.Submit(core.RootPath, "more"))
	assert.True(t, tr.Busy())
}
