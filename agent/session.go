package agent

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/1316151417/agentcore/llm"
	"github.com/1316151417/agentcore/skill"
)

// SessionConfig assembles a Session. Client and Model are required.
type SessionConfig struct {
	Client llm.Client
	Model  string

	// WorkDir is the workspace root; empty means the current directory.
	WorkDir string
	// SkillsDir is where SKILL.md files live; empty means WorkDir/skills.
	SkillsDir string

	Logger      *zap.Logger
	EventBuffer int
}

// Session is the host-facing entry point: one persistent top-level
// conversation plus the registry, task list, spawner, and event stream that
// serve it. Sub-agent conversations are created per spawn and discarded.
type Session struct {
	id       string
	client   llm.Client
	model    string
	system   string
	registry *Registry
	tasks    *TaskList
	conv     *Conversation
	emitter  *Emitter
	logger   *zap.Logger
}

// NewSession builds a ready-to-use session: workspace, skills, core
// capabilities, task list, and spawner, all wired into one registry.
func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("client is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ws, err := NewWorkspace(cfg.WorkDir)
	if err != nil {
		return nil, err
	}

	skillsDir := cfg.SkillsDir
	if skillsDir == "" {
		skillsDir = filepath.Join(ws.Root(), "skills")
	}
	skills, err := skill.Load(skillsDir)
	if err != nil {
		return nil, fmt.Errorf("loading skills: %w", err)
	}
	logger.Debug("skills loaded", zap.Int("count", skills.Len()))

	id := uuid.NewString()
	emitter := NewEmitter(id, cfg.EventBuffer)

	registry := NewRegistry()
	RegisterCoreCapabilities(registry, ws)

	tasks := NewTaskList()
	registry.Register(TaskListCapability(tasks))
	registry.Register(SkillCapability(skills))

	spawner := NewSpawner(SpawnerConfig{
		Client:   cfg.Client,
		Model:    cfg.Model,
		Registry: registry,
		Emitter:  emitter,
		Logger:   logger,
		WorkDir:  ws.Root(),
	})
	registry.Register(spawner.Capability())

	return &Session{
		id:       id,
		client:   cfg.Client,
		model:    cfg.Model,
		system:   BuildSystemPrompt(ws.Root(), skills, spawner),
		registry: registry,
		tasks:    tasks,
		conv:     NewConversation(),
		emitter:  emitter,
		logger:   logger,
	}, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Events returns the session's progress event stream.
func (s *Session) Events() <-chan Event { return s.emitter.Events() }

// Conversation returns the persistent top-level conversation.
func (s *Session) Conversation() *Conversation { return s.conv }

// Tasks returns the session task list.
func (s *Session) Tasks() *TaskList { return s.tasks }

// Registry returns the session's capability registry.
func (s *Session) Registry() *Registry { return s.registry }

// Submit appends input as a new directive and runs the top-level loop to
// completion, returning the final utterance. The task list and reminder reset
// per submission; the conversation persists across submissions.
func (s *Session) Submit(ctx context.Context, input string) (string, error) {
	s.tasks.Reset()
	s.conv.Append(NewDirectiveTurn(input))
	s.emitter.Emit(EventDirective, map[string]interface{}{"text": input})

	engine := NewEngine(EngineConfig{
		Client:       s.client,
		Model:        s.model,
		System:       s.system,
		Capabilities: s.registry.Subset(AllCapabilities()),
		Conversation: s.conv,
		Reminder:     NewReminder(CapabilityTaskUpdate),
		Emitter:      s.emitter,
		Logger:       s.logger,
	})
	return engine.Run(ctx)
}

// Close releases the session's event stream.
func (s *Session) Close() {
	s.emitter.Close()
}
