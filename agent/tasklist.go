package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// MaxTaskItems caps the task list size. Updates exceeding it are rejected
// wholesale.
const MaxTaskItems = 20

// CapabilityTaskUpdate is the registered name of the task list capability;
// the cadence reminder tracks invocations of this name.
const CapabilityTaskUpdate = "TodoWrite"

// TaskStatus is the lifecycle state of one task item.
type TaskStatus string

const (
	StatusPending TaskStatus = "pending"
	StatusActive  TaskStatus = "active"
	StatusDone    TaskStatus = "done"
)

// TaskItem is one entry in the plan.
type TaskItem struct {
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	ActiveForm  string     `json:"active_form"`
}

// TaskList is the active agent's plan. There is no incremental patch
// operation: every update replaces the whole list, and only after the
// candidate validates. A failed update leaves the prior state untouched.
type TaskList struct {
	mu    sync.Mutex
	items []TaskItem
}

// NewTaskList creates an empty TaskList.
func NewTaskList() *TaskList {
	return &TaskList{}
}

// Replace validates candidate and, on success, atomically swaps it in and
// returns the rendered view. Validation failures are returned as errors and
// recovered by the loop as capability failures, never as faults.
func (l *TaskList) Replace(candidate []TaskItem) (string, error) {
	if len(candidate) > MaxTaskItems {
		return "", fmt.Errorf("too many tasks: %d (maximum %d)", len(candidate), MaxTaskItems)
	}

	validated := make([]TaskItem, 0, len(candidate))
	active := 0
	for i, item := range candidate {
		desc := strings.TrimSpace(item.Description)
		form := strings.TrimSpace(item.ActiveForm)
		status := TaskStatus(strings.ToLower(strings.TrimSpace(string(item.Status))))
		if status == "" {
			status = StatusPending
		}

		if desc == "" {
			return "", fmt.Errorf("item %d: description is required", i)
		}
		if form == "" {
			return "", fmt.Errorf("item %d: active_form is required", i)
		}
		switch status {
		case StatusPending, StatusActive, StatusDone:
		default:
			return "", fmt.Errorf("item %d: invalid status %q", i, item.Status)
		}
		if status == StatusActive {
			active++
		}

		validated = append(validated, TaskItem{Description: desc, Status: status, ActiveForm: form})
	}

	if active > 1 {
		return "", fmt.Errorf("only one task may be active at a time, got %d", active)
	}

	l.mu.Lock()
	l.items = validated
	l.mu.Unlock()

	return l.Render(), nil
}

// Items returns a copy of the current list.
func (l *TaskList) Items() []TaskItem {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]TaskItem, len(l.items))
	copy(out, l.items)
	return out
}

// Reset discards the current list. Called at the start of each top-level
// loop.
func (l *TaskList) Reset() {
	l.mu.Lock()
	l.items = nil
	l.mu.Unlock()
}

// Render produces the deterministic textual view: one status-marked line per
// item, a blank line, then a completion summary.
func (l *TaskList) Render() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.items) == 0 {
		return "No tasks."
	}

	var sb strings.Builder
	done := 0
	for _, item := range l.items {
		switch item.Status {
		case StatusDone:
			done++
			fmt.Fprintf(&sb, "[x] %s\n", item.Description)
		case StatusActive:
			fmt.Fprintf(&sb, "[>] %s <- %s\n", item.Description, item.ActiveForm)
		default:
			fmt.Fprintf(&sb, "[ ] %s\n", item.Description)
		}
	}
	fmt.Fprintf(&sb, "\n(%d/%d completed)", done, len(l.items))
	return sb.String()
}

// TaskListCapability exposes Replace as the TodoWrite capability.
func TaskListCapability(list *TaskList) Capability {
	return Capability{
		Name:        CapabilityTaskUpdate,
		Description: "Update the task list. Use it to plan multi-step work and track progress. The whole list is replaced on every call.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"items": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"description": map[string]interface{}{
								"type":        "string",
								"description": "What needs to be done.",
							},
							"status": map[string]interface{}{
								"type": "string",
								"enum": []string{"pending", "active", "done"},
							},
							"active_form": map[string]interface{}{
								"type":        "string",
								"description": "Present-tense form shown while the task is active.",
							},
						},
						"required": []string{"description", "status", "active_form"},
					},
				},
			},
			"required": []string{"items"},
		},
		Run: func(_ context.Context, raw json.RawMessage) (string, error) {
			var args struct {
				Items []TaskItem `json:"items"`
			}
			if err := json.Unmarshal(raw, &args); err != nil {
				return "", fmt.Errorf("invalid arguments: %w", err)
			}
			return list.Replace(args.Items)
		},
	}
}
