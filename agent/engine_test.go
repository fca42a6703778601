package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1316151417/agentcore/llm"
)

// scriptedClient replays a fixed sequence of responses and records every
// request it receives.
type scriptedClient struct {
	responses []*llm.Response
	errs      []error
	requests  []llm.Request
}

func (c *scriptedClient) Complete(_ context.Context, req llm.Request) (*llm.Response, error) {
	i := len(c.requests)
	c.requests = append(c.requests, req)
	if i < len(c.errs) && c.errs[i] != nil {
		return nil, c.errs[i]
	}
	if i >= len(c.responses) {
		panic(fmt.Sprintf("scripted client exhausted after %d responses", len(c.responses)))
	}
	return c.responses[i], nil
}

func textResponse(text string) *llm.Response {
	return &llm.Response{Text: text, StopReason: "stop"}
}

func callResponse(text string, calls ...llm.ToolCall) *llm.Response {
	return &llm.Response{Text: text, ToolCalls: calls, StopReason: "tool_calls"}
}

func echoCapability(name string) Capability {
	return Capability{
		Name: name,
		Run: func(_ context.Context, raw json.RawMessage) (string, error) {
			return "ran " + name, nil
		},
	}
}

func TestEngineTerminatesWithoutInvocations(t *testing.T) {
	client := &scriptedClient{responses: []*llm.Response{textResponse("all done")}}
	conv := NewConversation()
	conv.Append(NewDirectiveTurn("hello"))

	engine := NewEngine(EngineConfig{Client: client, Model: "m", System: "sys", Conversation: conv})
	out, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "all done", out)
	assert.Len(t, client.requests, 1)

	// Directive + final utterance, no observation.
	turns := conv.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, TurnUtterance, turns[1].Kind)
}

func TestEngineExecutesInvocationsInOrder(t *testing.T) {
	var executed []string
	record := func(name string) Capability {
		return Capability{
			Name: name,
			Run: func(context.Context, json.RawMessage) (string, error) {
				executed = append(executed, name)
				return "ok " + name, nil
			},
		}
	}
	a, b := record("alpha"), record("beta")

	client := &scriptedClient{responses: []*llm.Response{
		callResponse("working",
			llm.ToolCall{ID: "call_2", Name: "beta"},
			llm.ToolCall{ID: "call_1", Name: "alpha"},
		),
		textResponse("done"),
	}}
	conv := NewConversation()
	conv.Append(NewDirectiveTurn("go"))

	engine := NewEngine(EngineConfig{
		Client: client, Model: "m", System: "sys",
		Capabilities: []*Capability{&a, &b},
		Conversation: conv,
	})
	_, err := engine.Run(context.Background())
	require.NoError(t, err)

	// Emitted order, not registration order.
	assert.Equal(t, []string{"beta", "alpha"}, executed)

	obs := conv.Turns()[2].Observation
	require.NotNil(t, obs)
	require.Len(t, obs.Results, 2)
	assert.Equal(t, "call_2", obs.Results[0].ID)
	assert.Equal(t, "ok beta", obs.Results[0].Content)
	assert.Equal(t, "call_1", obs.Results[1].ID)
	assert.Equal(t, "ok alpha", obs.Results[1].Content)
}

func TestEngineCapabilityFailureContinuesLoop(t *testing.T) {
	failing := Capability{
		Name: "flaky",
		Run: func(context.Context, json.RawMessage) (string, error) {
			return "", fmt.Errorf("disk on fire")
		},
	}
	client := &scriptedClient{responses: []*llm.Response{
		callResponse("", llm.ToolCall{ID: "c1", Name: "flaky"}),
		textResponse("recovered"),
	}}
	conv := NewConversation()
	conv.Append(NewDirectiveTurn("go"))

	engine := NewEngine(EngineConfig{
		Client: client, Model: "m", System: "sys",
		Capabilities: []*Capability{&failing},
		Conversation: conv,
	})
	out, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "recovered", out)

	obs := conv.Turns()[2].Observation
	require.Len(t, obs.Results, 1)
	assert.True(t, obs.Results[0].IsError)
	assert.Equal(t, "c1", obs.Results[0].ID)
	assert.Contains(t, obs.Results[0].Content, "disk on fire")
}

func TestEngineUnknownCapability(t *testing.T) {
	client := &scriptedClient{responses: []*llm.Response{
		callResponse("", llm.ToolCall{ID: "c1", Name: "launch_missiles"}),
		textResponse("ok"),
	}}
	conv := NewConversation()
	conv.Append(NewDirectiveTurn("go"))

	engine := NewEngine(EngineConfig{Client: client, Model: "m", System: "sys", Conversation: conv})
	_, err := engine.Run(context.Background())
	require.NoError(t, err)

	obs := conv.Turns()[2].Observation
	require.Len(t, obs.Results, 1)
	assert.True(t, obs.Results[0].IsError)
	assert.Contains(t, obs.Results[0].Content, "capability not found: launch_missiles")
}

func TestEngineModelFaultIsFatal(t *testing.T) {
	client := &scriptedClient{errs: []error{errors.New("connection refused")}}
	conv := NewConversation()
	conv.Append(NewDirectiveTurn("go"))

	engine := NewEngine(EngineConfig{Client: client, Model: "m", System: "sys", Conversation: conv})
	_, err := engine.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model invocation")
}

func TestEngineInjectsReminderNote(t *testing.T) {
	echo := echoCapability("bash")
	responses := make([]*llm.Response, 0, DefaultReminderThreshold+2)
	for i := 0; i < DefaultReminderThreshold+1; i++ {
		// Distinct arguments so the repetition detector stays quiet.
		responses = append(responses, callResponse("", llm.ToolCall{
			ID:        fmt.Sprintf("c%d", i),
			Name:      "bash",
			Arguments: json.RawMessage(fmt.Sprintf(`{"command":"step %d"}`, i)),
		}))
	}
	responses = append(responses, textResponse("done"))

	client := &scriptedClient{responses: responses}
	conv := NewConversation()
	conv.Append(NewDirectiveTurn("go"))

	engine := NewEngine(EngineConfig{
		Client: client, Model: "m", System: "sys",
		Capabilities: []*Capability{&echo},
		Conversation: conv,
		Reminder:     NewReminder(CapabilityTaskUpdate),
	})
	_, err := engine.Run(context.Background())
	require.NoError(t, err)

	var notes []string
	for _, turn := range conv.Turns() {
		if turn.Kind == TurnObservation && turn.Observation.Note != "" {
			notes = append(notes, turn.Observation.Note)
		}
	}
	require.Len(t, notes, 1)
	assert.Equal(t, ReminderText, notes[0])

	// The note rides in the observation after its tool results; the final
	// request must show it as a user message following the tool message.
	last := client.requests[len(client.requests)-1]
	msgs := last.Messages
	var noteIdx, resultIdx int
	for i, m := range msgs {
		if m.Role == llm.RoleUser && m.Text == ReminderText {
			noteIdx = i
		}
		if m.Role == llm.RoleTool && m.ToolCallID == fmt.Sprintf("c%d", DefaultReminderThreshold) {
			resultIdx = i
		}
	}
	assert.Greater(t, noteIdx, resultIdx)
}

func TestEngineAppendsKnowledgeWithoutMutatingHistory(t *testing.T) {
	knowledge := Capability{
		Name: "Skill",
		Run: func(context.Context, json.RawMessage) (string, error) {
			return "<skill-loaded name=\"pdf\">use the pdf tools</skill-loaded>", nil
		},
	}
	client := &scriptedClient{responses: []*llm.Response{
		callResponse("loading", llm.ToolCall{ID: "c1", Name: "Skill", Arguments: json.RawMessage(`{"skill":"pdf"}`)}),
		textResponse("done"),
	}}
	conv := NewConversation()
	conv.Append(NewDirectiveTurn("fill the form"))

	engine := NewEngine(EngineConfig{
		Client: client, Model: "m", System: "sys",
		Capabilities: []*Capability{&knowledge},
		Conversation: conv,
	})

	before := conv.Messages()
	_, err := engine.Run(context.Background())
	require.NoError(t, err)
	after := conv.Messages()

	// Every pre-existing message survives byte for byte; the payload only
	// appends.
	require.GreaterOrEqual(t, len(after), len(before))
	for i := range before {
		assert.Equal(t, before[i], after[i])
	}
	assert.Contains(t, after[len(after)-2].Text, "skill-loaded")
}
