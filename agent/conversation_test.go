package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1316151417/agentcore/llm"
)

func TestConversationAppendOnly(t *testing.T) {
	conv := NewConversation()
	conv.Append(NewDirectiveTurn("do the thing"))
	conv.Append(NewUtteranceTurn("on it", []llm.ToolCall{{ID: "c1", Name: "bash"}}))
	conv.Append(NewObservationTurn([]ToolResult{{ID: "c1", Content: "ok"}}, ""))

	assert.Equal(t, 3, conv.Len())

	// Mutating the returned copy must not touch the conversation.
	turns := conv.Turns()
	turns[0] = NewDirectiveTurn("tampered")
	assert.Equal(t, "do the thing", conv.Turns()[0].Text())
}

func TestConversationMessages(t *testing.T) {
	conv := NewConversation()
	conv.Append(NewDirectiveTurn("hi"))
	conv.Append(NewUtteranceTurn("checking", []llm.ToolCall{{ID: "c1", Name: "bash"}}))
	conv.Append(NewObservationTurn([]ToolResult{{ID: "c1", Content: "out", IsError: true}}, "note"))

	msgs := conv.Messages()
	require.Len(t, msgs, 4)

	assert.Equal(t, llm.RoleUser, msgs[0].Role)
	assert.Equal(t, "hi", msgs[0].Text)

	assert.Equal(t, llm.RoleAssistant, msgs[1].Role)
	require.Len(t, msgs[1].ToolCalls, 1)

	assert.Equal(t, llm.RoleTool, msgs[2].Role)
	assert.Equal(t, "c1", msgs[2].ToolCallID)
	assert.True(t, msgs[2].IsError)

	// Note renders after the results so they stay adjacent to the
	// requesting utterance.
	assert.Equal(t, llm.RoleUser, msgs[3].Role)
	assert.Equal(t, "note", msgs[3].Text)
}

func TestConversationLastUtteranceText(t *testing.T) {
	conv := NewConversation()
	assert.Empty(t, conv.LastUtteranceText())
	conv.Append(NewDirectiveTurn("hi"))
	conv.Append(NewUtteranceTurn("first", nil))
	conv.Append(NewObservationTurn(nil, ""))
	conv.Append(NewUtteranceTurn("second", nil))
	assert.Equal(t, "second", conv.LastUtteranceText())
}
