package external

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Subprocess runs a validator binary as
//
//	<Command> <Args...> <path> [--toolchain <v>] [--project <p>]
//
// and decodes a JSON list of records from its stdout, either a bare array
// or {"diagnostics": [...]}.
type Subprocess struct {
	Command string
	Args    []string
	WorkDir string

	// Bootstrap builds the validator. It runs at most once per Subprocess,
	// and only when Command cannot be found.
	Bootstrap        []string
	BootstrapTimeout time.Duration

	Timeout       time.Duration
	SetupExitCode int

	Logger *zap.Logger

	once         sync.Once
	bootstrapErr error
}

var _ Validator = (*Subprocess)(nil)

func (s *Subprocess) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// Validate runs the validator on path. Every failure to obtain records is an
// *UnavailableError.
func (s *Subprocess) Validate(ctx context.Context, path string, opts Options) ([]Record, error) {
	if s.Command == "" {
		return nil, unavailable(nil, "no validator command configured")
	}
	if err := s.ensureBinary(ctx); err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = s.Timeout
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	setupCode := s.SetupExitCode
	if setupCode == 0 {
		setupCode = DefaultSetupExitCode
	}

	args := append(append([]string(nil), s.Args...), path)
	if opts.ToolchainVersion != "" {
		args = append(args, "--toolchain", opts.ToolchainVersion)
	}
	if opts.ProjectPath != "" {
		args = append(args, "--project", opts.ProjectPath)
	}

	log := s.logger().With(zap.String("command", s.Command), zap.String("file", path))
	log.Debug("running external validator", zap.Strings("args", args), zap.Duration("timeout", timeout))

	res, err := run(ctx, command{Name: s.Command, Args: args, WorkDir: s.WorkDir, Timeout: timeout})
	if err != nil {
		if errors.Is(err, errTimeout) {
			return nil, unavailable(err, "validator timed out")
		}
		return nil, unavailable(err, "validator could not run")
	}
	log.Debug("external validator finished", zap.Int("exit", res.ExitCode), zap.Duration("elapsed", res.Duration))

	if res.ExitCode == setupCode {
		reason := strings.TrimSpace(string(res.Stderr))
		if reason == "" {
			reason = fmt.Sprintf("exit status %d", res.ExitCode)
		}
		return nil, unavailable(nil, "validator setup problem: %s", firstLine(reason))
	}

	records, err := ParseRecords(res.Stdout)
	if err != nil {
		return nil, unavailable(err, "unparsable validator output")
	}
	return records, nil
}

func (s *Subprocess) ensureBinary(ctx context.Context) error {
	if binaryExists(s.Command) {
		return nil
	}
	if len(s.Bootstrap) == 0 {
		return unavailable(nil, "validator %q not found", s.Command)
	}
	s.once.Do(func() {
		s.logger().Info("building external validator (first run)", zap.Strings("bootstrap", s.Bootstrap))
		res, err := run(ctx, command{
			Name:    s.Bootstrap[0],
			Args:    s.Bootstrap[1:],
			WorkDir: s.WorkDir,
			Timeout: s.BootstrapTimeout,
		})
		switch {
		case err != nil:
			s.bootstrapErr = unavailable(err, "validator build failed")
		case res.ExitCode != 0:
			s.bootstrapErr = unavailable(nil, "validator build failed: exit status %d: %s",
				res.ExitCode, firstLine(strings.TrimSpace(string(res.Stderr))))
		}
	})
	if s.bootstrapErr != nil {
		return s.bootstrapErr
	}
	if !binaryExists(s.Command) {
		return unavailable(nil, "validator %q not found after build", s.Command)
	}
	return nil
}

// ParseRecords decodes validator stdout. Empty output means no records.
func ParseRecords(out []byte) ([]Record, error) {
	out = bytes.TrimSpace(out)
	if len(out) == 0 {
		return nil, nil
	}
	if out[0] == '[' {
		var records []Record
		if err := json.Unmarshal(out, &records); err != nil {
			return nil, err
		}
		return records, nil
	}
	var wrapped struct {
		Diagnostics *[]Record `json:"diagnostics"`
	}
	if err := json.Unmarshal(out, &wrapped); err != nil {
		return nil, err
	}
	if wrapped.Diagnostics == nil {
		return nil, errors.New(`missing "diagnostics" field`)
	}
	return *wrapped.Diagnostics, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
