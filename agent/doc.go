// Package agent implements the orchestration core: a control loop that
// interleaves model inference with capability execution, a sub-agent spawner
// with isolated conversations and restricted capability sets, a constrained
// replace-whole-state task list, and a cadence reminder side channel.
//
// # Architecture
//
//   - Conversation: append-only turn sequence owned by exactly one loop.
//   - Registry: ordered, named capabilities with JSON argument schemas.
//   - Engine: the loop itself; runs until the model stops requesting
//     capabilities. Capability failures become textual results; only model
//     invocation faults are fatal.
//   - Spawner: runs a nested Engine over a fresh Conversation and returns a
//     single summary text to the parent.
//   - TaskList: validate-then-swap plan state with rendering.
//   - Reminder: advisory nudge injected when the task list goes stale.
//   - Session: owns the process-wide state (registry, skills, workspace) and
//     submits user directives to top-level loops.
//
// # Quick start
//
//	client, _ := llm.NewGollmClient("openai", "gpt-4o-mini")
//	sess, _ := agent.NewSession(agent.SessionConfig{Client: client, Model: "gpt-4o-mini"})
//	defer sess.Close()
//	answer, err := sess.Submit(ctx, "Refactor the parser package")
package agent
