package agent

import (
	"fmt"
	"strings"

	"github.com/1316151417/agentcore/skill"
)

// BuildSystemPrompt assembles the top-level agent's standing instructions:
// the work loop, the available skills (summaries only), the spawnable agent
// types, and the operating rules.
func BuildSystemPrompt(workdir string, skills *skill.Library, spawner *Spawner) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, `You are a capable assistant working in %s.

Work in a loop: plan what to do, act using your tools, observe the results, and repeat
until the task is complete. When it is, reply with a final summary and no tool calls.

`, workdir)

	sb.WriteString("Skills (load with the Skill tool before starting matching work):\n")
	sb.WriteString(skills.Summaries())
	sb.WriteString("\n\n")

	sb.WriteString("Sub-agents (delegate self-contained tasks with the Task tool):\n")
	for _, name := range spawner.SpecNames() {
		fmt.Fprintf(&sb, "- %s\n", name)
	}
	sb.WriteString("\n")

	sb.WriteString(`Rules:
- For multi-step work, keep a task list with TodoWrite: mark one task active at a time
  and update it as you finish each step.
- Prefer delegating large, self-contained investigations to sub-agents; give them
  complete instructions since they cannot see this conversation.
- Read files before editing them. Verify your changes.
- Stay inside the working directory.`)

	return sb.String()
}

// buildSubagentPrompt frames a sub-agent's standing instructions around its
// spec's directive.
func buildSubagentPrompt(workdir string, spec AgentSpec) string {
	return fmt.Sprintf(`You are the %s subagent working in %s.

%s

Complete the task and return a clear, concise summary. Your final reply is the only
thing the caller sees.`, spec.Name, workdir, spec.Directive)
}
