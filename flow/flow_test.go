package flow

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agenttree/agent"
	"github.com/hupe1980/agenttree/artifact"
	"github.com/hupe1980/agenttree/core"
	"github.com/hupe1980/agenttree/session"
	"github.com/hupe1980/agenttree/tool"
)

func newCoder(t *testing.T) (*agent.Agent, *artifact.InMemoryStore) {
	t.Helper()
	ws := artifact.NewInMemoryStore()
	require.NoError(t, ws.Mkdir("src"))
	a := agent.New("src/calc.ts", core.KindFileCoder, "src/calc.ts", agent.WithParent("src"))
	require.NoError(t, a.Activate(core.Task{Parent: "src", Prompt: "implement add"}))
	return a, ws
}

func newTestBuilder(ws core.Workspace) *Builder {
	return NewBuilder(func(o *Options) {
		o.Workspace = ws
		o.AllowList = tool.MustAllowList(tool.Command{Command: "npm test", Description: "run the test suite"})
	})
}

func TestBuild_FirstTurnOrder(t *testing.T) {
	a, ws := newCoder(t)
	require.NoError(t, ws.WriteFile("src/util.ts", []byte("export const one = 1")))
	a.Memory().Add("src/util.ts", "src/util.ts")

	req, err := newTestBuilder(ws).Build(a, []core.Prompt{
		core.NewPrompt("src", core.SourceTask, "implement add"),
	})
	require.NoError(t, err)

	ctx := req.Context()
	iInstr := strings.Index(ctx, "## Instructions")
	iCmds := strings.Index(ctx, "## Allowed commands")
	iMem := strings.Index(ctx, "## Memory")
	require.True(t, iInstr >= 0 && iCmds > iInstr && iMem > iCmds, ctx)
	assert.NotContains(t, ctx, "## History")

	assert.Contains(t, ctx, "You implement src/calc.ts.")
	assert.Contains(t, ctx, "- `npm test`: run the test suite")
	assert.Contains(t, ctx, "### src/util.ts\n```\nexport const one = 1\n```")
	assert.NotContains(t, ctx, "WAIT\n", "coders cannot wait")

	assert.Equal(t, "1. [task from src]\n   implement add", req.Prompts)
}

func TestBuild_LaterTurnsSkipInstructions(t *testing.T) {
	a, ws := newCoder(t)
	a.Transcript().Append(session.Exchange{
		Prompts:  []string{"[task from src]\nimplement add"},
		Response: `READ file "util.ts"`,
		Result:   "read src/util.ts (20 B) into memory",
	})

	req, err := newTestBuilder(ws).Build(a, []core.Prompt{
		core.NewPrompt(a.Path(), core.SourceResult, "read src/util.ts (20 B) into memory"),
		core.NewPrompt("src/calc.ts#tester", core.SourceResult, "add is fine"),
	})
	require.NoError(t, err)

	ctx := req.Context()
	assert.NotContains(t, ctx, "## Instructions")
	assert.NotContains(t, ctx, "## Allowed commands")
	assert.Contains(t, ctx, "### Turn 1\nPrompts:\n1. [task from src]\n   implement add\nYour response:\nREAD file \"util.ts\"")
	assert.NotContains(t, ctx, "20 B", "results are only shown as prompts")

	assert.Equal(t, "1. [result of your last directive]\n   read src/util.ts (20 B) into memory\n"+
		"2. [result from src/calc.ts#tester]\n   add is fine", req.Prompts)
}

func TestBuild_MemoryShowsFreshContentAndErrors(t *testing.T) {
	a, ws := newCoder(t)
	require.NoError(t, ws.WriteFile("src/a.ts", []byte("v1")))
	a.Memory().Add("src/a.ts", "src/a.ts")
	a.Memory().Add("src/gone.ts", "src/gone.ts")
	b := newTestBuilder(ws)
	pending := []core.Prompt{core.NewPrompt(core.UserSender, core.SourceExternal, "hi")}

	req, err := b.Build(a, pending)
	require.NoError(t, err)
	assert.Contains(t, req.Context(), "v1")
	assert.Contains(t, req.Context(), "### src/gone.ts\n(unavailable:")
	require.Len(t, req.Memory, 2)
	assert.True(t, errors.Is(req.Memory[1].Err, core.ErrFileSystem))

	require.NoError(t, ws.WriteFile("src/a.ts", []byte("v2")))
	req, err = b.Build(a, pending)
	require.NoError(t, err)
	assert.Contains(t, req.Context(), "v2")
	assert.NotContains(t, req.Context(), "v1")
	assert.Equal(t, "1. [external from user]\n   hi", req.Prompts)
}

func TestBuild_NoPendingPrompts(t *testing.T) {
	a, ws := newCoder(t)
	_, err := newTestBuilder(ws).Build(a, nil)
	assert.Error(t, err)
}

func TestInstructions_PerKind(t *testing.T) {
	root := agent.New(core.RootPath, core.KindRootCoordinator, "README.md", agent.AsRoot())
	text, err := Instructions(root, "")
	require.NoError(t, err)
	assert.Contains(t, text, "the root coordinator")
	assert.Contains(t, text, `- DELEGATE PROMPT="..."`)
	assert.NotContains(t, text, "CREATE")

	mgr := agent.New("src", core.KindDirectoryManager, "src/src_README.md", agent.WithParent(core.RootPath))
	text, err = Instructions(mgr, "")
	require.NoError(t, err)
	assert.Contains(t, text, "You manage the folder src.")
	assert.Contains(t, text, `- DELEGATE file "a.ts" PROMPT="...", folder "lib" PROMPT="..."`)

	tester := agent.New("src/calc.ts#tester", core.KindEphemeralTester, ".agenttree/scratch/src_calc.ts.scratch",
		agent.WithParent("src/calc.ts"), agent.WithDir("src"))
	text, err = Instructions(tester, "")
	require.NoError(t, err)
	assert.Contains(t, text, "spawned by src/calc.ts")
	assert.Contains(t, text, `- READ file "a.ts", file "b.ts"`)

	text, err = Instructions(tester, "custom {{.Kind}} at {{.Dir}}")
	require.NoError(t, err)
	assert.Equal(t, "custom ephemeral-tester at src", text)
}

func TestCommandTable_Empty(t *testing.T) {
	assert.Equal(t, "(no commands are allowed)", CommandTable(nil))
}
