package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"portlint/internal/analyzer"
	"portlint/internal/external"
)

type externalSettings struct {
	enabled       bool
	command       string
	args          []string
	bootstrap     []string
	timeout       time.Duration
	toolchain     string
	project       string
	setupExitCode int
	workDir       string
}

func readExternalSettings(cmd *cobra.Command, cfg *projectConfig) (externalSettings, error) {
	f := cmd.Flags()
	var s externalSettings

	s.enabled, _ = f.GetBool("external")
	if !f.Changed("external") && cfg != nil {
		s.enabled = cfg.External.Enabled
	}
	s.command, _ = f.GetString("external-cmd")
	if !f.Changed("external-cmd") && cfg.isSet("external", "command") {
		s.command = cfg.resolveCommand(cfg.External.Command)
	}
	s.toolchain, _ = f.GetString("toolchain")
	if !f.Changed("toolchain") && cfg.isSet("external", "toolchain") {
		s.toolchain = cfg.External.Toolchain
	}
	s.project, _ = f.GetString("project")
	if !f.Changed("project") && cfg.isSet("external", "project") {
		s.project = cfg.resolve(cfg.External.Project)
	}
	s.timeout, _ = f.GetDuration("external-timeout")
	if s.timeout < 0 {
		return s, &analyzer.UsageError{Msg: "--external-timeout must be >= 0"}
	}
	if !f.Changed("external-timeout") {
		s.timeout = cfg.externalTimeout()
	}
	if cfg != nil {
		s.args = cfg.External.Args
		s.bootstrap = cfg.External.Bootstrap
		s.setupExitCode = cfg.External.SetupExitCode
		s.workDir = cfg.Dir()
	}
	if s.enabled && s.command == "" {
		return s, &analyzer.UsageError{Msg: "external validation needs a command (--external-cmd or [external] command)"}
	}
	return s, nil
}

func (s externalSettings) validator(logger *zap.Logger) *external.Subprocess {
	return &external.Subprocess{
		Command:       s.command,
		Args:          s.args,
		WorkDir:       s.workDir,
		Bootstrap:     s.bootstrap,
		Timeout:       s.timeout,
		SetupExitCode: s.setupExitCode,
		Logger:        logger.Named("external"),
	}
}

// runExternal runs the compiler-level validator on every path and writes its
// section of the report. A validator that cannot run is reported as skipped
// and never fails the run. It returns whether any record is an error.
func runExternal(ctx context.Context, w io.Writer, logger *zap.Logger, s externalSettings, paths []string, headers bool) (bool, error) {
	if _, err := fmt.Fprintln(w, "\n== external validator =="); err != nil {
		return false, err
	}
	v := s.validator(logger)
	opts := external.Options{
		ToolchainVersion: s.toolchain,
		ProjectPath:      s.project,
		Timeout:          s.timeout,
	}

	hasErrors := false
	for _, path := range paths {
		if headers {
			if _, err := fmt.Fprintf(w, "%s:\n", path); err != nil {
				return false, err
			}
		}
		records, err := v.Validate(ctx, path, opts)
		if err != nil {
			var ue *external.UnavailableError
			if !errors.As(err, &ue) {
				return false, err
			}
			logger.Warn("external validator unavailable", zap.String("file", path), zap.Error(err))
			if _, err := fmt.Fprintf(w, "external validator skipped: %s\n", ue.Reason); err != nil {
				return false, err
			}
			// a setup problem applies to every file alike
			break
		}
		if err := external.WriteText(w, records); err != nil {
			return false, err
		}
		errs, _ := external.Counts(records)
		hasErrors = hasErrors || errs > 0
	}
	return hasErrors, nil
}
