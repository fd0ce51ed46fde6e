package tool

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agenttree/core"
)

func TestAllowList_ExactMatch(t *testing.T) {
	al := MustAllowList(
		Command{Command: "npm test", Description: "run the test suite"},
		Command{Command: "npm run build", Description: "compile"},
	)
	assert.Equal(t, 2, al.Len())

	c, ok := al.Lookup("  npm test ")
	require.True(t, ok)
	assert.Equal(t, "run the test suite", c.Description)

	assert.NoError(t, al.Check("npm test"))

	err := al.Check("npm test && rm -rf /")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrCommandNotAllowed))
	assert.True(t, core.IsRecoverable(err))
}

func TestAllowList_SuggestsCloseCommands(t *testing.T) {
	al := MustAllowList(Command{Command: "npm test"}, Command{Command: "go vet ./..."})
	err := al.Check("npmtest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `did you mean "npm test"`)
}

func TestAllowList_Rejects(t *testing.T) {
	_, err := NewAllowList(Command{Command: " "})
	assert.Error(t, err)
	_, err = NewAllowList(Command{Command: "a"}, Command{Command: "a "})
	assert.Error(t, err)

	var nilList *AllowList
	assert.Error(t, nilList.Check("anything"))
	assert.Nil(t, nilList.Commands())
}

func TestAllowList_CommandsIsCopy(t *testing.T) {
	al := MustAllowList(Command{Command: "make"})
	cmds := al.Commands()
	cmds[0].Command = "rm"
	_, ok := al.Lookup("make")
	assert.True(t, ok)
}

func TestShellExecutor_RunsAtRoot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "marker.txt"), []byte("here"), 0o644))

	var lines []string
	ex := NewShellExecutor(dir, func(o *ShellOptions) {
		o.OnOutput = func(_, stream, line string) { lines = append(lines, stream+":"+line) }
	})
	res, err := ex.Run(context.Background(), "cat marker.txt; echo oops 1>&2; exit 3")
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "here\n", res.Stdout)
	assert.Equal(t, "oops\n", res.Stderr)
	assert.Len(t, lines, 2)

	out := FormatResult("x", res)
	assert.Contains(t, out, "exit code: 3")
	assert.Contains(t, out, "stderr:\noops")
}

func TestShellExecutor_Truncates(t *testing.T) {
	ex := NewShellExecutor(t.TempDir(), func(o *ShellOptions) { o.MaxOutput = 10 })
	res, err := ex.Run(context.Background(), "printf '%0100d' 0")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Stdout, "0000000000\n[output truncated"))
}

func TestShellExecutor_Cancelled(t *testing.T) {
	ex := NewShellExecutor(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ex.Run(ctx, "sleep 5")
	require.Error(t, err)
	var te *ToolError
	assert.True(t, errors.As(err, &te))
}
