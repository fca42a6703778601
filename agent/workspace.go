package agent

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

// DefaultExecTimeout bounds shell commands that do not ask for their own
// timeout.
const DefaultExecTimeout = 60 * time.Second

// MaxExecTimeout caps the timeout a command may request.
const MaxExecTimeout = 10 * time.Minute

// blockedCommands are substring-matched against shell commands before
// execution. The screen is a guardrail against the obvious disasters, not a
// security boundary.
var blockedCommands = []string{
	"rm -rf /",
	"sudo",
	"shutdown",
	"reboot",
}

// Workspace confines file and shell access to a single root directory. Every
// path from the model is resolved and checked against the root before use.
type Workspace struct {
	root string
}

// NewWorkspace creates a Workspace rooted at dir. An empty dir means the
// current working directory.
func NewWorkspace(dir string) (*Workspace, error) {
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving workspace root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("creating workspace root: %w", err)
	}
	return &Workspace{root: abs}, nil
}

// Root returns the absolute workspace root.
func (w *Workspace) Root() string { return w.root }

// Resolve maps a model-supplied path to an absolute path inside the root.
// Relative paths are resolved against the root; any path escaping it is
// rejected.
func (w *Workspace) Resolve(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path is required")
	}
	p := path
	if !filepath.IsAbs(p) {
		p = filepath.Join(w.root, p)
	}
	p = filepath.Clean(p)
	if p != w.root && !strings.HasPrefix(p, w.root+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s is outside the workspace", path)
	}
	return p, nil
}

// ReadFile returns the file's contents. A positive limit bounds the read to
// the first limit lines.
func (w *Workspace) ReadFile(path string, limit int) (string, error) {
	abs, err := w.Resolve(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return "", err
	}
	content := string(data)
	if limit > 0 {
		lines := strings.SplitAfter(content, "\n")
		if len(lines) > limit {
			content = strings.Join(lines[:limit], "") +
				fmt.Sprintf("\n[... showing first %d of %d lines ...]", limit, len(lines))
		}
	}
	return content, nil
}

// WriteFile writes content to path, creating parent directories as needed.
func (w *Workspace) WriteFile(path, content string) error {
	abs, err := w.Resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return err
	}
	return os.WriteFile(abs, []byte(content), 0o644)
}

// EditFile replaces the first occurrence of oldText in the file with newText.
// It is an error if oldText does not occur.
func (w *Workspace) EditFile(path, oldText, newText string) error {
	abs, err := w.Resolve(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return err
	}
	content := string(data)
	if !strings.Contains(content, oldText) {
		return fmt.Errorf("old_text not found in %s", path)
	}
	updated := strings.Replace(content, oldText, newText, 1)
	return os.WriteFile(abs, []byte(updated), 0o644)
}

// Exec runs a shell command in the workspace root with combined output. The
// command runs in its own process group so a timeout kills the whole tree.
// Non-zero exit is reported in the output, not as an error: the model needs
// to see failures, not have them swallowed.
func (w *Workspace) Exec(ctx context.Context, command string, timeout time.Duration) (string, error) {
	if strings.TrimSpace(command) == "" {
		return "", fmt.Errorf("command is required")
	}
	for _, blocked := range blockedCommands {
		if strings.Contains(command, blocked) {
			return "", fmt.Errorf("command blocked for safety: contains %q", blocked)
		}
	}
	if timeout <= 0 {
		timeout = DefaultExecTimeout
	}
	if timeout > MaxExecTimeout {
		timeout = MaxExecTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "bash", "-c", command)
	cmd.Dir = w.root
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		// Negative pid signals the process group.
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}

	out, err := cmd.CombinedOutput()
	output := strings.TrimRight(string(out), "\n")

	if ctx.Err() == context.DeadlineExceeded {
		if output != "" {
			output += "\n"
		}
		return output + fmt.Sprintf("[command timed out after %s]", timeout), nil
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if output == "" {
				output = "(no output)"
			}
			return output + fmt.Sprintf("\n[exit code: %d]", exitErr.ExitCode()), nil
		}
		return "", fmt.Errorf("running command: %w", err)
	}

	if output == "" {
		return "(no output)", nil
	}
	return output, nil
}
