package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"portlint/internal/dcache"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the result cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "dir",
		Short: "Print the cache directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := dcache.Open("portlint")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), c.Dir())
			return err
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clean",
		Short: "Remove every cached result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := dcache.Open("portlint")
			if err != nil {
				return err
			}
			if err := c.DropAll(); err != nil {
				return fmt.Errorf("failed to clear %q: %w", c.Dir(), err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "removed cached results in %s\n", c.Dir())
			return err
		},
	})
	return cmd
}
