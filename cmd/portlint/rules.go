package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"portlint/internal/rules"
)

func newRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the checks in the order they run",
		Long: `List the checks in the order they run.

Accessors inside // and /* */ comments are ignored, so commented-out graph
code is never reported.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := prepareRun(cmd, ".", nil, false)
			if err != nil {
				return err
			}
			defer env.close()

			out := cmd.OutOrStdout()
			for _, info := range rules.Describe(rules.Default(env.catalog)) {
				if _, err := fmt.Fprintf(out, "%s  %-20s %s\n", info.Code.ID(), info.Name, info.Doc); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
