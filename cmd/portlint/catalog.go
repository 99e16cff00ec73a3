package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"portlint/internal/analyzer"
	"portlint/internal/catalog"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog [flags] [project-dir]",
		Short: "Show the effective port catalog",
		Long: `Print the catalog the checks run with: the built-in tables merged with
the system, user and project overlays and any --catalog files.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCatalog,
	}
	cmd.Flags().String("format", "text", "output format (text|toml|yaml)")
	cmd.Flags().StringArray("catalog", nil, "extra catalog overlay (TOML or YAML, repeatable)")
	return cmd
}

func runCatalog(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	format, _ := cmd.Flags().GetString("format")
	catalogs, _ := cmd.Flags().GetStringArray("catalog")

	env, err := prepareRun(cmd, dir, catalogs, false)
	if err != nil {
		return err
	}
	defer env.close()

	out := cmd.OutOrStdout()
	switch strings.ToLower(format) {
	case "text", "":
		return writeCatalogText(out, env.catalog)
	case "toml":
		return env.catalog.WriteTOML(out)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(env.catalog.Snapshot()); err != nil {
			return err
		}
		return enc.Close()
	}
	return &analyzer.UsageError{Msg: fmt.Sprintf("unsupported format %q (must be text, toml or yaml)", format)}
}

func writeCatalogText(w io.Writer, cat *catalog.Catalog) error {
	var b strings.Builder
	b.WriteString("sources:\n")
	for _, src := range cat.Sources() {
		fmt.Fprintf(&b, "  %s\n", src)
	}
	fmt.Fprintf(&b, "digest: %s\n\n", cat.Digest())

	entries := cat.Entries()
	familyWidth, keyWidth := 0, 0
	for _, e := range entries {
		familyWidth = max(familyWidth, runewidth.StringWidth(string(e.Family)))
		keyWidth = max(keyWidth, runewidth.StringWidth(e.Key))
	}
	for _, e := range entries {
		fmt.Fprintf(&b, "%s  %s  %s\n",
			runewidth.FillRight(string(e.Family), familyWidth),
			runewidth.FillRight(e.Key, keyWidth),
			describeEntry(e))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func describeEntry(e catalog.Entry) string {
	switch e.Family {
	case catalog.FamilyComparison:
		if len(e.Values) == 2 {
			return fmt.Sprintf("%s -> %s", e.Values[0], e.Values[1])
		}
	case catalog.FamilyMultiInput:
		return "slots " + strings.Join(e.Values, ", ")
	}
	return strings.Join(e.Values, ", ")
}
