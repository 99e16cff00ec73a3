package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"portlint/internal/analyzer"
	"portlint/internal/logging"
	"portlint/internal/version"
)

// exitError carries a process exit status that has already been reported.
type exitError struct{ code int }

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// newRootCmd builds the command tree. The root command itself is the check.
func newRootCmd() *cobra.Command {
	root := newCheckCmd()
	root.Version = version.Version
	root.SilenceUsage = true
	root.SilenceErrors = true

	root.AddCommand(newFixCmd())
	root.AddCommand(newCatalogCmd())
	root.AddCommand(newRulesCmd())
	root.AddCommand(newCacheCmd())
	root.AddCommand(newVersionCmd())

	pf := root.PersistentFlags()
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.Bool("timings", false, "show timing information on stderr")
	pf.Int("max-diagnostics", 0, "maximum number of diagnostics per file (0 = unlimited)")
	pf.String("config", "", "path to portlint.toml (default: search upward from the input)")
	pf.String("log-level", "warn", "log level ("+logging.LevelNames+")")
	pf.String("trace", "", "write a trace to this file (\"-\" for stderr)")
	pf.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	pf.String("trace-format", "auto", "trace format (auto|text|ndjson)")
	pf.String("cpu-profile", "", "write a CPU profile to this file")
	pf.String("mem-profile", "", "write a heap profile to this file on exit")
	return root
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and maps the outcome to an exit status:
// 0 clean or warnings only, 1 at least one error finding, 2 usage or I/O
// failure.
func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return exitCode(root.Execute(), stderr)
}

func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	// usage errors, unreadable inputs and cobra flag errors all land here
	fmt.Fprintf(stderr, "portlint: %v\n", err)
	return 2
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// useColor resolves --color against the writer the output goes to.
func useColor(cmd *cobra.Command, w io.Writer) (bool, error) {
	mode, err := cmd.Flags().GetString("color")
	if err != nil {
		return false, err
	}
	switch mode {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "auto", "":
		return isTerminal(w), nil
	}
	return false, &analyzer.UsageError{Msg: fmt.Sprintf("invalid --color value %q (expected auto|on|off)", mode)}
}
