package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// RegisterCoreCapabilities wires the workspace's file and shell operations
// into the registry. These form the base capability set every agent type can
// draw from.
func RegisterCoreCapabilities(reg *Registry, ws *Workspace) {
	reg.Register(Capability{
		Name: "bash",
		Description: "Run a shell command in the workspace and return its combined output. " +
			"Non-zero exit codes are reported in the output.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"command": map[string]interface{}{
					"type":        "string",
					"description": "The shell command to run.",
				},
				"timeout": map[string]interface{}{
					"type":        "integer",
					"description": "Optional timeout in seconds.",
				},
			},
			"required": []string{"command"},
		},
		Run: func(ctx context.Context, raw json.RawMessage) (string, error) {
			args, err := ParseArguments(raw)
			if err != nil {
				return "", err
			}
			command, ok := StringArg(args, "command")
			if !ok {
				return "", fmt.Errorf("command is required")
			}
			timeout := time.Duration(0)
			if secs, ok := IntArg(args, "timeout"); ok {
				timeout = time.Duration(secs) * time.Second
			}
			return ws.Exec(ctx, command, timeout)
		},
	})

	reg.Register(Capability{
		Name:        "read_file",
		Description: "Read a file from the workspace. Optionally limit to the first N lines.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Path to the file, relative to the workspace root.",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Optional maximum number of lines to return.",
				},
			},
			"required": []string{"path"},
		},
		Run: func(_ context.Context, raw json.RawMessage) (string, error) {
			args, err := ParseArguments(raw)
			if err != nil {
				return "", err
			}
			path, ok := StringArg(args, "path")
			if !ok {
				return "", fmt.Errorf("path is required")
			}
			limit, _ := IntArg(args, "limit")
			return ws.ReadFile(path, limit)
		},
	})

	reg.Register(Capability{
		Name:        "write_file",
		Description: "Write content to a file in the workspace, creating parent directories as needed.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Path to the file, relative to the workspace root.",
				},
				"content": map[string]interface{}{
					"type":        "string",
					"description": "Full content to write.",
				},
			},
			"required": []string{"path", "content"},
		},
		Run: func(_ context.Context, raw json.RawMessage) (string, error) {
			args, err := ParseArguments(raw)
			if err != nil {
				return "", err
			}
			path, ok := StringArg(args, "path")
			if !ok {
				return "", fmt.Errorf("path is required")
			}
			content, ok := StringArg(args, "content")
			if !ok {
				return "", fmt.Errorf("content is required")
			}
			if err := ws.WriteFile(path, content); err != nil {
				return "", err
			}
			return fmt.Sprintf("Wrote %d bytes to %s", len(content), path), nil
		},
	})

	reg.Register(Capability{
		Name: "edit_file",
		Description: "Replace the first occurrence of old_text with new_text in a file. " +
			"old_text must match the file exactly.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Path to the file, relative to the workspace root.",
				},
				"old_text": map[string]interface{}{
					"type":        "string",
					"description": "Exact text to replace.",
				},
				"new_text": map[string]interface{}{
					"type":        "string",
					"description": "Replacement text.",
				},
			},
			"required": []string{"path", "old_text", "new_text"},
		},
		Run: func(_ context.Context, raw json.RawMessage) (string, error) {
			args, err := ParseArguments(raw)
			if err != nil {
				return "", err
			}
			path, ok := StringArg(args, "path")
			if !ok {
				return "", fmt.Errorf("path is required")
			}
			oldText, ok := StringArg(args, "old_text")
			if !ok {
				return "", fmt.Errorf("old_text is required")
			}
			newText, ok := StringArg(args, "new_text")
			if !ok {
				return "", fmt.Errorf("new_text is required")
			}
			if err := ws.EditFile(path, oldText, newText); err != nil {
				return "", err
			}
			return fmt.Sprintf("Edited %s", path), nil
		},
	})
}
