package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTemplate(t *testing.T) {
	out, err := RenderTemplate("plain text", nil)
	require.NoError(t, err)
	assert.Equal(t, "plain text", out)

	out, err = RenderTemplate(`{{upper .Kind}} owns {{default "/" .Path}}; {{join ", " .Verbs}}`, map[string]any{
		"Kind":  "coder",
		"Path":  "",
		"Verbs": []string{"READ", "FINISH"},
	})
	require.NoError(t, err)
	assert.Equal(t, "CODER owns /; READ, FINISH", out)

	// no HTML escaping of directive quotes
	out, err = RenderTemplate(`{{.X}}`, map[string]any{"X": `CHANGE CONTENT="<a>"`})
	require.NoError(t, err)
	assert.Equal(t, `CHANGE CONTENT="<a>"`, out)

	_, err = RenderTemplate(`{{.Missing}}`, map[string]any{})
	assert.Error(t, err)
}
