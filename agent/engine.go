package agent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/1316151417/agentcore/llm"
)

// EngineConfig assembles one loop instance. Conversation ownership transfers
// to the engine for the duration of Run.
type EngineConfig struct {
	Client       llm.Client
	Model        string
	System       string
	Capabilities []*Capability
	Conversation *Conversation
	Reminder     *Reminder // nil for sub-agent loops
	Emitter      *Emitter  // optional
	Logger       *zap.Logger
}

// Engine is the orchestration loop: it invokes the model with the system
// directive, the full conversation, and the capability subset, executes any
// requested invocations sequentially, appends the results as one observation
// turn, and repeats until the model stops requesting capabilities.
type Engine struct {
	client   llm.Client
	model    string
	system   string
	caps     []*Capability
	defs     []llm.ToolDefinition
	conv     *Conversation
	reminder *Reminder
	emitter  *Emitter
	logger   *zap.Logger
}

// NewEngine constructs an Engine from the config.
func NewEngine(cfg EngineConfig) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	conv := cfg.Conversation
	if conv == nil {
		conv = NewConversation()
	}
	defs := make([]llm.ToolDefinition, len(cfg.Capabilities))
	for i, c := range cfg.Capabilities {
		defs[i] = c.Definition()
	}
	return &Engine{
		client:   cfg.Client,
		model:    cfg.Model,
		system:   cfg.System,
		caps:     cfg.Capabilities,
		defs:     defs,
		conv:     conv,
		reminder: cfg.Reminder,
		emitter:  cfg.Emitter,
		logger:   logger,
	}
}

// Conversation returns the conversation owned by this engine.
func (e *Engine) Conversation() *Conversation { return e.conv }

// Run drives the loop to completion and returns the final utterance text.
// Capability failures of any kind are fed back as textual results and never
// stop the loop; only a fault in the model invocation itself is fatal and
// propagated.
func (e *Engine) Run(ctx context.Context) (string, error) {
	iteration := 0
	for {
		iteration++

		req := llm.Request{
			Model:    e.model,
			Messages: append([]llm.Message{llm.SystemMessage(e.system)}, e.conv.Messages()...),
			Tools:    e.defs,
		}

		resp, err := e.client.Complete(ctx, req)
		if err != nil {
			e.emitter.Emit(EventError, map[string]interface{}{"error": err.Error()})
			return "", fmt.Errorf("model invocation: %w", err)
		}

		e.conv.Append(NewUtteranceTurn(resp.Text, resp.ToolCalls))
		e.emitter.Emit(EventUtterance, map[string]interface{}{
			"text":        resp.Text,
			"invocations": len(resp.ToolCalls),
		})
		e.logger.Debug("model responded",
			zap.Int("iteration", iteration),
			zap.Int("invocations", len(resp.ToolCalls)),
			zap.Int("tokens", resp.Usage.TotalTokens))

		if len(resp.ToolCalls) == 0 {
			e.emitter.Emit(EventLoopDone, map[string]interface{}{"iterations": iteration})
			return resp.Text, nil
		}

		results := make([]ToolResult, len(resp.ToolCalls))
		names := make([]string, len(resp.ToolCalls))
		for i, call := range resp.ToolCalls {
			names[i] = call.Name
			results[i] = e.invoke(ctx, call)
		}

		var notes []string
		if e.reminder != nil {
			if note := e.reminder.Observe(names); note != "" {
				notes = append(notes, note)
				e.emitter.Emit(EventReminder, map[string]interface{}{"note": note})
			}
		}
		if DetectInvocationLoop(e.conv.Turns(), LoopDetectionWindow) {
			notes = append(notes, loopWarning)
			e.logger.Warn("repeating invocation pattern detected", zap.Int("window", LoopDetectionWindow))
		}

		e.conv.Append(NewObservationTurn(results, strings.Join(notes, "\n\n")))
	}
}

// lookup resolves a capability name against this loop's subset. The subset,
// not the full registry, is the resolution scope: capabilities withheld from
// this loop do not exist here.
func (e *Engine) lookup(name string) *Capability {
	for _, c := range e.caps {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// invoke executes a single invocation and converts every failure into a
// textual result echoing the invocation's correlation id.
func (e *Engine) invoke(ctx context.Context, call llm.ToolCall) ToolResult {
	e.emitter.Emit(EventCapabilityStart, map[string]interface{}{
		"name":    call.Name,
		"call_id": call.ID,
	})

	cap := e.lookup(call.Name)
	if cap == nil {
		msg := fmt.Sprintf("capability not found: %s", call.Name)
		e.emitter.Emit(EventCapabilityEnd, map[string]interface{}{"call_id": call.ID, "error": msg})
		return ToolResult{ID: call.ID, Content: msg, IsError: true}
	}

	output, err := cap.Run(ctx, call.Arguments)
	if err != nil {
		msg := fmt.Sprintf("Error: %v", err)
		e.logger.Debug("capability failed", zap.String("name", call.Name), zap.Error(err))
		e.emitter.Emit(EventCapabilityEnd, map[string]interface{}{"call_id": call.ID, "error": msg})
		return ToolResult{ID: call.ID, Content: msg, IsError: true}
	}

	bounded, truncated := Truncate(output, OutputBudget(call.Name))
	e.emitter.Emit(EventCapabilityEnd, map[string]interface{}{
		"call_id":   call.ID,
		"output":    output, // full output on the side channel
		"truncated": truncated,
	})
	return ToolResult{ID: call.ID, Content: bounded, Truncated: truncated}
}
