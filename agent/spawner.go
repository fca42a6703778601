package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/1316151417/agentcore/llm"
)

// CapabilitySpawn is the registered name of the sub-agent spawn capability.
const CapabilitySpawn = "Task"

// AgentSpec describes one spawnable agent type: what it is for, the standing
// instructions it runs under, and the capability subset it may use.
type AgentSpec struct {
	Name         string
	Description  string
	Directive    string
	Capabilities CapabilitySet
}

// DefaultAgentSpecs returns the built-in agent types.
func DefaultAgentSpecs() []AgentSpec {
	return []AgentSpec{
		{
			Name:        "explore",
			Description: "Read-only exploration: search and read files, run read-only commands, and summarize findings.",
			Directive: "You are an exploration agent. Investigate the codebase or filesystem to answer the " +
				"question you were given. You may run read-only shell commands and read files, but never " +
				"modify anything. Finish with a concise summary of what you found, citing file paths.",
			Capabilities: CapabilityNames("bash", "read_file"),
		},
		{
			Name:        "code",
			Description: "Implementation: write and edit files, run commands, and verify changes.",
			Directive: "You are a coding agent. Implement the requested change end to end: read the relevant " +
				"files first, make the edits, then verify your work. Finish with a summary of what you changed.",
			Capabilities: AllCapabilities(),
		},
		{
			Name:        "plan",
			Description: "Planning: investigate and produce a numbered implementation plan without changing anything.",
			Directive: "You are a planning agent. Investigate as needed, then produce a numbered, concrete " +
				"implementation plan. Do not modify any files.",
			Capabilities: CapabilityNames("bash", "read_file"),
		},
	}
}

// Spawner creates isolated sub-agent loops. Each spawn gets a fresh
// conversation seeded with a single directive turn; the parent sees only the
// sub-agent's final text, returned as one tool result. The specs map is
// populated during setup and read-only afterwards.
type Spawner struct {
	client  llm.Client
	model   string
	reg     *Registry
	specs   map[string]AgentSpec
	order   []string
	emitter *Emitter
	logger  *zap.Logger
	workdir string
}

// SpawnerConfig assembles a Spawner.
type SpawnerConfig struct {
	Client   llm.Client
	Model    string
	Registry *Registry
	Emitter  *Emitter
	Logger   *zap.Logger
	WorkDir  string
}

// NewSpawner creates a Spawner with the default agent types registered.
func NewSpawner(cfg SpawnerConfig) *Spawner {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Spawner{
		client:  cfg.Client,
		model:   cfg.Model,
		reg:     cfg.Registry,
		specs:   make(map[string]AgentSpec),
		emitter: cfg.Emitter,
		logger:  logger,
		workdir: cfg.WorkDir,
	}
	for _, spec := range DefaultAgentSpecs() {
		s.specs[spec.Name] = spec
		s.order = append(s.order, spec.Name)
	}
	return s
}

// RegisterSpec adds a custom agent type. Duplicate names are rejected; specs
// are immutable once registered.
func (s *Spawner) RegisterSpec(spec AgentSpec) error {
	if spec.Name == "" {
		return fmt.Errorf("agent spec name is required")
	}
	if _, exists := s.specs[spec.Name]; exists {
		return fmt.Errorf("agent type %q already registered", spec.Name)
	}
	s.specs[spec.Name] = spec
	s.order = append(s.order, spec.Name)
	return nil
}

// SpecNames returns the registered agent type names in registration order.
func (s *Spawner) SpecNames() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Spawn runs one sub-agent to completion and returns its final text. The
// sub-agent resolves invocations against a subset with every parent-only
// capability removed, so it cannot spawn further agents or load skills.
func (s *Spawner) Spawn(ctx context.Context, agentType, label, directive string) (string, error) {
	spec, ok := s.specs[agentType]
	if !ok {
		return "", fmt.Errorf("unknown agent type %q (available: %s)", agentType, strings.Join(s.order, ", "))
	}

	start := time.Now()
	s.emitter.Emit(EventSubagentStart, map[string]interface{}{
		"agent_type": agentType,
		"label":      label,
	})
	s.logger.Debug("spawning subagent", zap.String("type", agentType), zap.String("label", label))

	conv := NewConversation()
	conv.Append(NewDirectiveTurn(directive))

	engine := NewEngine(EngineConfig{
		Client:       s.client,
		Model:        s.model,
		System:       buildSubagentPrompt(s.workdir, spec),
		Capabilities: s.reg.SubagentSubset(spec.Capabilities),
		Conversation: conv,
		Emitter:      s.emitter,
		Logger:       s.logger,
	})

	text, err := engine.Run(ctx)

	invocations := 0
	for _, turn := range conv.Turns() {
		if turn.Kind == TurnObservation && turn.Observation != nil {
			invocations += len(turn.Observation.Results)
		}
	}
	s.emitter.Emit(EventSubagentEnd, map[string]interface{}{
		"agent_type":  agentType,
		"label":       label,
		"invocations": invocations,
		"elapsed":     time.Since(start).Round(time.Millisecond).String(),
		"failed":      err != nil,
	})

	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "(subagent returned no text)", nil
	}
	return text, nil
}

// Capability exposes Spawn through the invocation protocol. It is
// parent-only: sub-agents never see it.
func (s *Spawner) Capability() Capability {
	var types strings.Builder
	for _, name := range s.order {
		fmt.Fprintf(&types, "- %s: %s\n", name, s.specs[name].Description)
	}
	return Capability{
		Name: CapabilitySpawn,
		Description: "Delegate a self-contained task to a sub-agent. The sub-agent works in an " +
			"isolated conversation and returns only its final summary.\n\nAgent types:\n" + types.String(),
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"description": map[string]interface{}{
					"type":        "string",
					"description": "Short label for the task (3-5 words).",
				},
				"agent_type": map[string]interface{}{
					"type":        "string",
					"description": "Which agent type to spawn.",
				},
				"prompt": map[string]interface{}{
					"type":        "string",
					"description": "Complete, self-contained instructions for the sub-agent. It cannot see this conversation.",
				},
			},
			"required": []string{"description", "agent_type", "prompt"},
		},
		ParentOnly: true,
		Run: func(ctx context.Context, raw json.RawMessage) (string, error) {
			var args struct {
				Description string `json:"description"`
				AgentType   string `json:"agent_type"`
				Prompt      string `json:"prompt"`
			}
			if err := json.Unmarshal(raw, &args); err != nil {
				return "", fmt.Errorf("invalid arguments: %w", err)
			}
			if args.AgentType == "" {
				return "", fmt.Errorf("agent_type is required")
			}
			if args.Prompt == "" {
				return "", fmt.Errorf("prompt is required")
			}
			return s.Spawn(ctx, args.AgentType, args.Description, args.Prompt)
		},
	}
}
