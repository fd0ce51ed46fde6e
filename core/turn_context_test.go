package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTurnContext(t *testing.T) {
	_, ok := TurnFrom(context.Background())
	assert.False(t, ok)

	ctx := WithTurn(context.Background(), TurnInfo{
		RunID: "r1",
		Agent: AgentInfo{Path: "src", Kind: KindDirectoryManager, PersonalFile: "src/src_README.md"},
		Turn:  2,
	})
	info, ok := TurnFrom(ctx)
	assert.True(t, ok)
	assert.Equal(t, "src", info.Agent.Path)
	assert.Equal(t, 2, info.Turn)
}
