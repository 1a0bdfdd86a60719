package local

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"k8s.io/klog/v2"

	domain "github.com/bryanwahyu/repo-audit/internal/domain/analysis"
)

// Runner executes tools directly on the host.
type Runner struct {
	// DefaultTimeout applies when a Command carries no timeout. Zero means none.
	DefaultTimeout time.Duration
}

func NewRunner(defaultTimeout time.Duration) *Runner {
	return &Runner{DefaultTimeout: defaultTimeout}
}

// Run starts cmd, waits for it and returns the merged, trimmed output.
// A non-zero exit is still StatusOK: linters exit non-zero when they find
// issues. Launch errors, deadlines and cancellation become text.
func (r *Runner) Run(ctx context.Context, cmd domain.Command) domain.RunResult {
	start := time.Now()

	timeout := cmd.Timeout
	if timeout == 0 {
		timeout = r.DefaultTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.WaitDelay = 5 * time.Second

	out, err := c.CombinedOutput()
	res := domain.RunResult{
		Output:     strings.TrimSpace(string(out)),
		Status:     domain.StatusOK,
		DurationMS: time.Since(start).Milliseconds(),
	}
	if err == nil {
		return res
	}

	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		res.Status = domain.StatusTimeout
		res.ExitCode = -1
		res.Output = appendLine(res.Output, fmt.Sprintf("%s timed out after %s", cmd.Name, timeout))
	case ctx.Err() != nil:
		res.Status = domain.StatusFailed
		res.ExitCode = -1
		res.Output = appendLine(res.Output, fmt.Sprintf("%s canceled: %v", cmd.Name, ctx.Err()))
	default:
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			res.ExitCode = ee.ExitCode()
			break
		}
		res.ExitCode = -1
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, exec.ErrDot) {
			res.Status = domain.StatusUnavailable
		} else {
			res.Status = domain.StatusFailed
		}
		res.Output = appendLine(res.Output, err.Error())
	}

	klog.V(2).Infof("tool %s finished: status=%s exit=%d duration=%dms", cmd.Name, res.Status, res.ExitCode, res.DurationMS)
	return res
}

func appendLine(s, line string) string {
	if s == "" {
		return line
	}
	return s + "\n" + line
}
