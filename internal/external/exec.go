package external

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// command is one process invocation.
type command struct {
	Name    string
	Args    []string
	WorkDir string
	Timeout time.Duration
}

type execResult struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Duration time.Duration
}

var errTimeout = errors.New("timed out")

// run executes cmd and captures its output. A non-zero exit status is not an
// error; only failures to start or finish the process are.
func run(ctx context.Context, cmd command) (*execResult, error) {
	if cmd.Name == "" {
		return nil, errors.New("command is required")
	}
	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...) // #nosec G204 -- command comes from user configuration
	c.Dir = cmd.WorkDir
	c.WaitDelay = time.Second
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	start := time.Now()
	err := c.Run()
	res := &execResult{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(start),
	}
	if err == nil {
		return res, nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return res, fmt.Errorf("%w after %v", errTimeout, cmd.Timeout)
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return res, ctx.Err()
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	return res, fmt.Errorf("command execution failed: %w", err)
}

func binaryExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
