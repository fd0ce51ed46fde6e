package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/hupe1980/agenttree/core"
	"github.com/hupe1980/agenttree/model"
)

func TestBuildContents(t *testing.T) {
	contents := append(model.NewRequest("ctx", "1. go").Contents, core.NewTextContent("assistant", "WAIT"))
	out := buildContents(contents)
	require.Len(t, out, 2)
	assert.Equal(t, string(genai.RoleUser), out[0].Role)
	assert.Equal(t, "1. go", out[0].Parts[0].Text)
	assert.Equal(t, string(genai.RoleModel), out[1].Role)
}

func TestInfo(t *testing.T) {
	m := NewModelFromClient(nil)
	assert.Equal(t, model.Info{Name: "gemini-2.5-flash", Provider: "gemini"}, m.Info())
}
