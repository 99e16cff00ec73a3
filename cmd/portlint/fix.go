package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"portlint/internal/analyzer"
	"portlint/internal/diag"
	"portlint/internal/fix"
)

func newFixCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fix [flags] <file.cs|directory>",
		Short: "Apply suggested port renames",
		Long: `Run the checks, list the fixes they suggest, and apply them according to
the chosen strategy. Comparison accessors and fixed multi-input slots are
renamed in place; void-result findings have no automatic fix.`,
		Args: cobra.ExactArgs(1),
		RunE: runFix,
	}
	cmd.Flags().Bool("all", false, "apply all safe fixes")
	cmd.Flags().Bool("once", false, "apply the first available fix (default)")
	cmd.Flags().String("id", "", "apply fix with a specific identifier")
	cmd.Flags().Bool("dry-run", false, "report what would change without writing files")
	cmd.Flags().Bool("list", false, "list available fixes and exit")
	cmd.Flags().StringArray("catalog", nil, "extra catalog overlay (TOML or YAML, repeatable)")
	return cmd
}

func runFix(cmd *cobra.Command, args []string) error {
	targetPath := args[0]
	flags := cmd.Flags()

	applyAll, _ := flags.GetBool("all")
	applyOnce, _ := flags.GetBool("once")
	targetID, _ := flags.GetString("id")
	dryRun, _ := flags.GetBool("dry-run")
	list, _ := flags.GetBool("list")
	catalogs, _ := flags.GetStringArray("catalog")

	if targetID != "" && (applyAll || applyOnce) {
		return &analyzer.UsageError{Msg: "--id cannot be combined with --all or --once"}
	}
	if applyAll && applyOnce {
		return &analyzer.UsageError{Msg: "--all and --once are mutually exclusive"}
	}

	mode := fix.ApplyModeOnce
	if targetID != "" {
		mode = fix.ApplyModeID
	} else if applyAll {
		mode = fix.ApplyModeAll
	}

	env, err := prepareRun(cmd, targetPath, catalogs, false)
	if err != nil {
		return err
	}
	defer env.close()

	var res *analyzer.Result
	if isDirectory(targetPath) {
		res, err = analyzer.AnalyzeDir(cmd.Context(), targetPath, env.analyzerOptions(), 0)
	} else {
		res, err = analyzer.AnalyzeFile(cmd.Context(), targetPath, env.analyzerOptions())
	}
	if err != nil {
		return err
	}

	var diagnostics []diag.Diagnostic
	for _, f := range res.Files {
		diagnostics = append(diagnostics, f.Bag.Items()...)
	}

	out := cmd.OutOrStdout()
	if list {
		return listFixes(out, res, diagnostics)
	}
	applied, applyErr := fix.Apply(res.FileSet, diagnostics, fix.ApplyOptions{
		Mode:     mode,
		TargetID: targetID,
		DryRun:   dryRun,
	})
	return handleApplyResult(out, applied, applyErr, dryRun)
}

func listFixes(out io.Writer, res *analyzer.Result, diagnostics []diag.Diagnostic) error {
	candidates, _ := fix.Candidates(res.FileSet, diagnostics)
	if len(candidates) == 0 {
		_, err := fmt.Fprintln(out, "No fixes available.")
		return err
	}
	for _, c := range candidates {
		if _, err := fmt.Fprintf(out, "%s\n  %s (%s) at %s:%d\n", c.ID, c.Title, c.Applicability, c.Path, c.Line); err != nil {
			return err
		}
	}
	return nil
}

func handleApplyResult(out io.Writer, res *fix.ApplyResult, applyErr error, dryRun bool) error {
	if res == nil {
		return applyErr
	}
	verb := "Applied"
	if dryRun {
		verb = "Would apply"
	}

	if len(res.Applied) > 0 {
		fmt.Fprintf(out, "%s %d fix(es):\n", verb, len(res.Applied))
		for _, item := range res.Applied {
			location := item.PrimaryPath
			if location == "" {
				location = "(unknown location)"
			}
			fmt.Fprintf(out, "  %s [%s] at %s (%d edits, %s)\n",
				item.Title, item.ID, location, item.EditCount, item.Applicability)
		}
	}

	if len(res.FileChanges) > 0 {
		if dryRun {
			fmt.Fprintln(out, "Files that would change:")
		} else {
			fmt.Fprintln(out, "Updated files:")
		}
		for _, change := range res.FileChanges {
			fmt.Fprintf(out, "  %s (%d edits)\n", change.Path, change.EditCount)
		}
	}

	if len(res.Skipped) > 0 {
		fmt.Fprintln(out, "Skipped fixes:")
		for _, skip := range res.Skipped {
			id := skip.ID
			if id == "" {
				id = "(unnamed)"
			}
			if skip.Title != "" {
				fmt.Fprintf(out, "  %s [%s]: %s\n", skip.Title, id, skip.Reason)
			} else {
				fmt.Fprintf(out, "  [%s]: %s\n", id, skip.Reason)
			}
		}
	}

	if applyErr != nil {
		if errors.Is(applyErr, fix.ErrNoFixes) && len(res.Applied) == 0 {
			_, err := fmt.Fprintln(out, "No applicable fixes found.")
			return err
		}
		return applyErr
	}
	return nil
}
