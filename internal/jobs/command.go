package jobs

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	logx "autoflow/pkg/logx"
)

// CommandRunner executes an external command described by job metadata:
//
//	metadata:
//	  command: "/usr/local/bin/sync-leads"
//	  args: ["--source", "webforms"]
//	  dir: "/var/lib/autoflow"   # optional
//
// It is the daemon's stand-in for domain job bodies that live outside this
// process.
type CommandRunner struct {
	Log logx.Logger

	// Timeout bounds one invocation. Default 1 minute.
	Timeout time.Duration
}

const defaultCommandTimeout = time.Minute

func (r CommandRunner) Run(ctx context.Context, meta map[string]any) error {
	name, _ := meta["command"].(string)
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("metadata.command is required")
	}

	var args []string
	if raw, ok := meta["args"].([]any); ok {
		args = make([]string, 0, len(raw))
		for _, a := range raw {
			args = append(args, fmt.Sprint(a))
		}
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = defaultCommandTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	if dir, ok := meta["dir"].(string); ok && strings.TrimSpace(dir) != "" {
		cmd.Dir = dir
	}

	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("command %q: %w (output: %s)", name, err, truncate(string(out), 500))
	}
	if !r.Log.IsZero() {
		r.Log.Debug("command finished", logx.String("command", name), logx.Int("output_bytes", len(out)))
	}
	return nil
}

func truncate(s string, maxN int) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxN {
		return s
	}
	return s[:maxN] + "..."
}
