package cmdutil

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/kballard/go-shellquote"
)

// Runner executes external commands. It exists so callers that shell out to
// the container runtime can swap in a test double.
type Runner interface {
	Run(ctx context.Context, argv ...string) ([]byte, error)
}

// ExecRunner runs commands on the host with an optional per-command timeout.
type ExecRunner struct {
	// Timeout bounds each invocation. Zero means no timeout.
	Timeout time.Duration
}

// Run executes argv[0] with the remaining arguments and returns stdout.
// Stderr is attached to the returned error via exec.ExitError.
func (r ExecRunner) Run(ctx context.Context, argv ...string) ([]byte, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && len(exitErr.Stderr) > 0 {
			return out, fmt.Errorf("%s: %w: %s", argv[0], err, exitErr.Stderr)
		}
		return out, fmt.Errorf("%s: %w", argv[0], err)
	}
	return out, nil
}

// SplitCommand parses a shell-quoted command string into argv parts.
// Configuration stores the runtime command as a single string so operators
// can point at alternatives like "podman --remote".
func SplitCommand(command string) ([]string, error) {
	parts, err := shellquote.Split(command)
	if err != nil {
		return nil, fmt.Errorf("parse command string: %w", err)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty command string")
	}
	return parts, nil
}
