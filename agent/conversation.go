package agent

import (
	"time"

	"github.com/1316151417/agentcore/llm"
)

// TurnKind discriminates between turn types.
type TurnKind string

const (
	TurnDirective   TurnKind = "directive"
	TurnUtterance   TurnKind = "utterance"
	TurnObservation TurnKind = "observation"
)

// ToolResult answers exactly one model-issued invocation. The ID echoes the
// invocation's correlation id. Content is bounded; oversized payloads are
// truncated with an explicit marker and the flag set.
type ToolResult struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	IsError   bool   `json:"is_error,omitempty"`
	Truncated bool   `json:"truncated,omitempty"`
}

// DirectiveTurn carries initiating text from the human (or, for sub-agents,
// the parent's detailed directive).
type DirectiveTurn struct {
	Text string `json:"text"`
}

// UtteranceTurn is one model response: optional text plus zero or more
// capability invocations. An utterance with no invocations terminates the
// owning loop.
type UtteranceTurn struct {
	Text        string         `json:"text"`
	Invocations []llm.ToolCall `json:"invocations,omitempty"`
}

// ObservationTurn collects the results of all invocations from the preceding
// utterance, plus an optional injected reminder note.
type ObservationTurn struct {
	Results []ToolResult `json:"results"`
	Note    string       `json:"note,omitempty"`
}

// Turn is a tagged variant: exactly one of the payload fields is set.
type Turn struct {
	Kind        TurnKind         `json:"kind"`
	Timestamp   time.Time        `json:"timestamp"`
	Directive   *DirectiveTurn   `json:"directive,omitempty"`
	Utterance   *UtteranceTurn   `json:"utterance,omitempty"`
	Observation *ObservationTurn `json:"observation,omitempty"`
}

// NewDirectiveTurn creates a Turn wrapping initiating text.
func NewDirectiveTurn(text string) Turn {
	return Turn{Kind: TurnDirective, Timestamp: time.Now(), Directive: &DirectiveTurn{Text: text}}
}

// NewUtteranceTurn creates a Turn wrapping a model response.
func NewUtteranceTurn(text string, invocations []llm.ToolCall) Turn {
	return Turn{Kind: TurnUtterance, Timestamp: time.Now(), Utterance: &UtteranceTurn{Text: text, Invocations: invocations}}
}

// NewObservationTurn creates a Turn wrapping capability results and an
// optional reminder note.
func NewObservationTurn(results []ToolResult, note string) Turn {
	return Turn{Kind: TurnObservation, Timestamp: time.Now(), Observation: &ObservationTurn{Results: results, Note: note}}
}

// Text returns the textual content of a turn regardless of kind.
func (t Turn) Text() string {
	switch t.Kind {
	case TurnDirective:
		if t.Directive != nil {
			return t.Directive.Text
		}
	case TurnUtterance:
		if t.Utterance != nil {
			return t.Utterance.Text
		}
	case TurnObservation:
		if t.Observation != nil {
			return t.Observation.Note
		}
	}
	return ""
}

// Conversation is an ordered, append-only sequence of turns owned by exactly
// one loop instance. Earlier turns are never mutated; dynamically discovered
// content (skills, reminders) is always appended, which keeps the prompt
// prefix byte-stable for provider-side caching.
type Conversation struct {
	turns []Turn
}

// NewConversation creates an empty conversation.
func NewConversation() *Conversation {
	return &Conversation{}
}

// Append adds a turn to the end of the conversation.
func (c *Conversation) Append(t Turn) {
	c.turns = append(c.turns, t)
}

// Len returns the number of turns.
func (c *Conversation) Len() int { return len(c.turns) }

// Turns returns a copy of the turn sequence for safe inspection.
func (c *Conversation) Turns() []Turn {
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// LastUtteranceText returns the text of the most recent utterance turn, or
// the empty string if there is none.
func (c *Conversation) LastUtteranceText() string {
	for i := len(c.turns) - 1; i >= 0; i-- {
		if c.turns[i].Kind == TurnUtterance && c.turns[i].Utterance != nil {
			return c.turns[i].Utterance.Text
		}
	}
	return ""
}

// Messages converts the turn history into wire messages. Observation notes
// are rendered after the tool results of their turn so that results stay
// adjacent to the utterance that requested them.
func (c *Conversation) Messages() []llm.Message {
	var messages []llm.Message
	for _, turn := range c.turns {
		switch turn.Kind {
		case TurnDirective:
			if turn.Directive != nil {
				messages = append(messages, llm.UserMessage(turn.Directive.Text))
			}
		case TurnUtterance:
			if turn.Utterance != nil {
				messages = append(messages, llm.AssistantMessage(turn.Utterance.Text, turn.Utterance.Invocations))
			}
		case TurnObservation:
			if turn.Observation != nil {
				for _, r := range turn.Observation.Results {
					messages = append(messages, llm.ToolMessage(r.ID, r.Content, r.IsError))
				}
				if turn.Observation.Note != "" {
					messages = append(messages, llm.UserMessage(turn.Observation.Note))
				}
			}
		}
	}
	return messages
}
