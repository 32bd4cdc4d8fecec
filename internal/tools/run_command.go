package tools

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/gmsas95/agentcord/internal/security"
)

const commandDefaultTimeout = 30

// RunCommandTool executes a shell command on the host. Disabled unless the
// deployment opts in, and every command passes the shell guard first.
type RunCommandTool struct {
	guard          *security.ShellGuard
	enabled        bool
	defaultTimeout int
}

func NewRunCommandTool(guard *security.ShellGuard, enabled bool, defaultTimeout int) *RunCommandTool {
	if guard == nil {
		guard = security.NewShellGuard()
	}
	if defaultTimeout <= 0 {
		defaultTimeout = commandDefaultTimeout
	}
	return &RunCommandTool{guard: guard, enabled: enabled, defaultTimeout: defaultTimeout}
}

func (t *RunCommandTool) Name() string { return "run_command" }

func (t *RunCommandTool) Description() string {
	return "Executes a shell command on the machine and returns the output. Use this to run system commands, check file contents, or perform system operations."
}

func (t *RunCommandTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"command": map[string]any{
				"type":        "string",
				"description": "The shell command to execute on the machine",
				"minLength":   1,
				"maxLength":   1000,
			},
			"timeout": map[string]any{
				"type":        "integer",
				"description": "Maximum execution time in seconds (1-60, default 30)",
				"minimum":     1,
				"maximum":     60,
			},
		},
		"required":             []string{"command"},
		"additionalProperties": false,
	}
}

func (t *RunCommandTool) CanUse(tc *Context) bool { return t.enabled }

func (t *RunCommandTool) Execute(ctx context.Context, tc *Context, args map[string]any) (Result, error) {
	command := argString(args, "command")
	timeout := time.Duration(clamp(argInt(args, "timeout", t.defaultTimeout), 1, 60)) * time.Second

	if err := t.guard.ValidateCommand(command); err != nil {
		return failure("Command rejected: " + err.Error()), nil
	}

	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, "sh", "-c", command)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	exitCode := 0
	timedOut := cmdCtx.Err() == context.DeadlineExceeded
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else if timedOut {
			exitCode = -1
		} else {
			return failure("Failed to execute command: " + err.Error()), nil
		}
	}

	stderrText := strings.TrimSpace(stderr.String())
	if timedOut {
		stderrText = fmt.Sprintf("Command timed out after %s", timeout)
	}

	return success(map[string]any{
		"command":  command,
		"exitCode": exitCode,
		"stdout":   strings.TrimSpace(stdout.String()),
		"stderr":   stderrText,
		"timedOut": timedOut,
	}), nil
}
