package agenttree

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agenttree/artifact"
	"github.com/hupe1980/agenttree/config"
	"github.com/hupe1980/agenttree/core"
	"github.com/hupe1980/agenttree/model"
)

func TestAgentTree_RunOnDisk(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Project.Root = dir
	cfg.Model.Provider = config.ProviderScripted
	cfg.Model.Script = []string{
		`UPDATE_README CONTENT="# Project\n"`,
		`FINISH PROMPT="nothing to build"`,
	}

	var events []core.Event
	at, err := New(context.Background(), func(o *Options) {
		o.Config = cfg
		o.OnEvent = func(ev core.Event) { events = append(events, ev) }
	})
	require.NoError(t, err)
	assert.Equal(t, "scripted", at.Model().Info().Name)

	res, err := at.Run(context.Background(), "describe the project")
	require.NoError(t, err)
	assert.Equal(t, "nothing to build", res.Output)
	assert.Equal(t, 2, res.ModelCalls)

	data, err := os.ReadFile(filepath.Join(dir, "README.md"))
	require.NoError(t, err)
	assert.Equal(t, "# Project\n", string(data))

	recorded := at.Events(res.RunID)
	assert.Equal(t, len(events), len(recorded))
	assert.Equal(t, core.EventRunFinished, recorded[len(recorded)-1].Type)
	assert.False(t, at.Tree().Root().IsActive())
}

func TestAgentTree_Overrides(t *testing.T) {
	ws := artifact.NewInMemoryStore()
	m := model.NewMockModel("fake", `FINISH PROMPT="ok"`)
	at, err := New(context.Background(), func(o *Options) {
		o.Workspace = ws
		o.Model = m
	})
	require.NoError(t, err)

	res, err := at.Run(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Output)
	_, err = ws.Stat("README.md")
	assert.NoError(t, err)
	require.Len(t, m.Requests(), 1)
	assert.Contains(t, m.Requests()[0].System(), "## Instructions")
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Project.SourceDir = ""
	_, err := New(context.Background(), func(o *Options) { o.Config = cfg })
	assert.ErrorContains(t, err, "project.source_dir")
}

func TestNewModel_Providers(t *testing.T) {
	cfg := config.Default()
	cfg.Model.APIKeyEnv = ""

	cfg.Model.Provider = config.ProviderAnthropic
	m, err := NewModel(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", m.Info().Provider)

	cfg.Model.Provider = config.ProviderOpenAI
	cfg.Model.Name = "gpt-4o-mini"
	m, err = NewModel(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "openai", m.Info().Provider)
	assert.Equal(t, "gpt-4o-mini", m.Info().Name)

	cfg.Model.Provider = "llama"
	_, err = NewModel(context.Background(), cfg)
	assert.Error(t, err)
}
