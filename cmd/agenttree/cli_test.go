package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agenttree/config"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestInitThenRun(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "", "init", dir, "--provider", "scripted")
	require.NoError(t, err)
	assert.Contains(t, out, config.FileName)
	assert.DirExists(t, filepath.Join(dir, "src"))

	_, err = execute(t, "", "init", dir)
	assert.Error(t, err, "init never overwrites a config")

	cfgPath := filepath.Join(dir, config.FileName)
	out, err = execute(t, "", "run", "--config", cfgPath, "--follow", "do", "nothing")
	require.NoError(t, err)
	assert.Contains(t, out, "[/] activated")
	assert.Contains(t, out, "[/] finished: nothing to do")
	assert.Contains(t, out, "1 turns, 1 model calls, 0 violations")
	assert.True(t, strings.HasSuffix(out, "nothing to do\n"))

	_, err = os.Stat(filepath.Join(dir, "README.md"))
	assert.NoError(t, err)
}

func TestRun_CallLimitIsReported(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Model.Provider = config.ProviderScripted
	cfg.Model.APIKeyEnv = ""
	cfg.Model.Script = []string{"WAIT"}
	cfgPath := filepath.Join(dir, config.FileName)
	require.NoError(t, config.Write(cfgPath, cfg))

	out, err := execute(t, "", "run", "--config", cfgPath, "--max-calls", "3", "loop")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "call budget exhausted")
	assert.Contains(t, out, "3 model calls")
}

func TestParse(t *testing.T) {
	out, err := execute(t, "", "parse", "--profile", "coder", `change content="x"`)
	require.NoError(t, err)
	assert.Equal(t, "CHANGE CONTENT=\"x\"\n", out)

	out, err = execute(t, `delegate file "a.ts" prompt="a", folder "lib" prompt="b"`, "parse", "-")
	require.NoError(t, err)
	assert.Equal(t, "DELEGATE file \"a.ts\" PROMPT=\"a\", folder \"lib\" PROMPT=\"b\"\n", out)

	_, err = execute(t, "", "parse", "--profile", "tester", "WAIT")
	assert.Error(t, err)

	_, err = execute(t, "", "parse", "--profile", "robot", "WAIT")
	assert.ErrorContains(t, err, "unknown agent kind")
}
