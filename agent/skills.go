package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/1316151417/agentcore/skill"
)

// CapabilitySkill is the registered name of the knowledge disclosure
// capability.
const CapabilitySkill = "Skill"

// SkillCapability exposes a skill library through the invocation protocol.
// The capability description carries only the one-line summaries; the full
// body of a skill enters the conversation as a tool result when the model
// asks for it, so earlier turns are never touched.
func SkillCapability(lib *skill.Library) Capability {
	return Capability{
		Name: CapabilitySkill,
		Description: "Load a skill: expert instructions for a specific kind of task. " +
			"Load a skill before starting work its description matches.\n\nAvailable skills:\n" +
			lib.Summaries(),
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"skill": map[string]interface{}{
					"type":        "string",
					"description": "Name of the skill to load.",
				},
			},
			"required": []string{"skill"},
		},
		ParentOnly: true,
		Run: func(_ context.Context, raw json.RawMessage) (string, error) {
			var args struct {
				Skill string `json:"skill"`
			}
			if err := json.Unmarshal(raw, &args); err != nil {
				return "", fmt.Errorf("invalid arguments: %w", err)
			}
			if args.Skill == "" {
				return "", fmt.Errorf("skill is required")
			}
			return lib.Render(args.Skill)
		},
	}
}
