package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"portlint/internal/analyzer"
	"portlint/internal/catalog"
	"portlint/internal/dcache"
	"portlint/internal/diag"
	"portlint/internal/diagfmt"
	"portlint/internal/external"
	"portlint/internal/logging"
	"portlint/internal/observ"
	"portlint/internal/rules"
	"portlint/internal/trace"
	"portlint/internal/version"
)

const informationURI = "https://docs.unity3d.com/Packages/com.unity.visualscripting@latest"

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "portlint [flags] <file.cs|directory>",
		Short: "Check generated Visual Scripting C# for illegal port accessors",
		Long: `portlint scans C# that builds Unity Visual Scripting graphs and reports
port accessors that compile but silently break the graph when it is loaded:
legacy comparison ports, result ports on void operations, and fixed input
slots on multi-input nodes.`,
		Args: func(_ *cobra.Command, args []string) error {
			switch len(args) {
			case 0:
				return &analyzer.UsageError{Msg: "missing input path (usage: portlint <file.cs|directory>)"}
			case 1:
				return nil
			}
			return &analyzer.UsageError{Msg: fmt.Sprintf("expected one input path, got %d", len(args))}
		},
		RunE: runCheck,
	}

	f := cmd.Flags()
	f.String("format", "text", "output format ("+diagfmt.FormatNames+")")
	f.Bool("sort", false, "sort diagnostics by position instead of rule order")
	f.String("path-mode", "auto", "how to print file paths (auto|absolute|relative|basename)")
	f.Int("jobs", 0, "max parallel files for directories (0=auto)")
	f.StringArray("catalog", nil, "extra catalog overlay (TOML or YAML, repeatable)")
	f.Bool("cache", false, "reuse results for unchanged files")
	f.String("ui", "auto", "progress UI for directories (auto|on|off)")
	f.Bool("with-notes", false, "include notes")
	f.Bool("suggest", false, "include fix suggestions")
	f.Bool("preview", false, "include fix previews (pretty and json)")

	f.Bool("external", false, "also run the external compiler validator")
	f.String("external-cmd", "", "external validator command")
	f.String("toolchain", external.DefaultToolchain, "toolchain version passed to the external validator")
	f.String("project", "", "project path passed to the external validator")
	f.Duration("external-timeout", 0, "external validator timeout (0 = default)")
	return cmd
}

type checkOptions struct {
	format    diagfmt.Format
	sort      bool
	pathMode  diagfmt.PathMode
	jobs      int
	ui        uiMode
	withNotes bool
	suggest   bool
	preview   bool
	color     bool
	timings   bool
	external  externalSettings
}

// runEnv is the state shared by commands that analyze files.
type runEnv struct {
	cfg     *projectConfig
	logger  *zap.Logger
	catalog *catalog.Catalog
	cache   *dcache.Cache
	timer   *observ.Timer
	maxDiag int
	cleanup func()
}

func (e *runEnv) close() {
	if e != nil && e.cleanup != nil {
		e.cleanup()
	}
}

func (e *runEnv) analyzerOptions() analyzer.Options {
	return analyzer.Options{
		Catalog:        e.catalog,
		MaxDiagnostics: e.maxDiag,
		Cache:          e.cache,
		ToolVersion:    version.Version,
		Timer:          e.timer,
		Logger:         e.logger,
	}
}

// prepareRun loads the config, sets up logging and tracing, and builds the
// effective catalog for input.
func prepareRun(cmd *cobra.Command, input string, extraCatalogs []string, wantCache bool) (*runEnv, error) {
	flags := cmd.Flags()
	configPath, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := resolveConfig(configPath, input)
	if err != nil {
		return nil, &analyzer.UsageError{Msg: err.Error()}
	}

	logLevel, err := flags.GetString("log-level")
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(logLevel, cmd.ErrOrStderr())
	if err != nil {
		return nil, &analyzer.UsageError{Msg: err.Error()}
	}
	if cfg != nil {
		logger.Debug("loaded config", zap.String("path", cfg.path))
	}

	cleanupTrace, err := setupTracing(cmd)
	if err != nil {
		return nil, &analyzer.UsageError{Msg: err.Error()}
	}
	cleanupProf, err := setupProfiling(cmd)
	if err != nil {
		cleanupTrace()
		return nil, err
	}
	env := &runEnv{cfg: cfg, logger: logger}
	env.cleanup = func() {
		cleanupProf()
		cleanupTrace()
		_ = logger.Sync()
	}

	timings, err := flags.GetBool("timings")
	if err != nil {
		env.close()
		return nil, err
	}
	if timings {
		env.timer = observ.NewTimer()
	}

	env.maxDiag, err = flags.GetInt("max-diagnostics")
	if err != nil {
		env.close()
		return nil, err
	}
	if !flags.Changed("max-diagnostics") && cfg.isSet("output", "max_diagnostics") {
		env.maxDiag = cfg.Output.MaxDiagnostics
	}

	projectRoot := cfg.Dir()
	if projectRoot == "" {
		projectRoot = inputDir(input)
	}
	overlays := append(cfg.overlayPaths(), extraCatalogs...)
	idx := env.timer.Begin("catalog")
	env.catalog, err = catalog.LoadFull(projectRoot, overlays)
	env.timer.End(idx, "")
	if err != nil {
		env.close()
		return nil, &analyzer.UsageError{Msg: err.Error()}
	}
	logger.Debug("catalog ready",
		zap.Strings("sources", env.catalog.Sources()),
		zap.String("digest", env.catalog.Digest()))

	if wantCache || (cfg != nil && cfg.Cache.Enabled) {
		cache, err := dcache.Open("portlint")
		if err != nil {
			logger.Warn("result cache disabled", zap.Error(err))
		} else {
			env.cache = cache
		}
	}
	return env, nil
}

// inputDir is the directory an input path lives in.
func inputDir(input string) string {
	if info, err := os.Stat(input); err == nil && info.IsDir() {
		return input
	}
	return filepath.Dir(input)
}

func readCheckOptions(cmd *cobra.Command, cfg *projectConfig) (checkOptions, error) {
	var opts checkOptions
	f := cmd.Flags()

	formatStr, _ := f.GetString("format")
	if !f.Changed("format") && cfg.isSet("output", "format") {
		formatStr = cfg.Output.Format
	}
	format, err := diagfmt.ParseFormat(formatStr)
	if err != nil {
		return opts, &analyzer.UsageError{Msg: err.Error()}
	}
	opts.format = format

	pathModeStr, _ := f.GetString("path-mode")
	if !f.Changed("path-mode") && cfg.isSet("output", "path_mode") {
		pathModeStr = cfg.Output.PathMode
	}
	if opts.pathMode, err = diagfmt.ParsePathMode(pathModeStr); err != nil {
		return opts, &analyzer.UsageError{Msg: err.Error()}
	}

	opts.sort, _ = f.GetBool("sort")
	if !f.Changed("sort") && cfg.isSet("output", "sort") {
		opts.sort = cfg.Output.Sort
	}

	uiStr, _ := f.GetString("ui")
	if opts.ui, err = readUIMode(uiStr); err != nil {
		return opts, &analyzer.UsageError{Msg: err.Error()}
	}
	opts.jobs, _ = f.GetInt("jobs")
	if opts.jobs < 0 {
		return opts, &analyzer.UsageError{Msg: "--jobs must be >= 0"}
	}
	opts.withNotes, _ = f.GetBool("with-notes")
	opts.suggest, _ = f.GetBool("suggest")
	opts.preview, _ = f.GetBool("preview")
	opts.timings, _ = f.GetBool("timings")

	if opts.color, err = useColor(cmd, cmd.OutOrStdout()); err != nil {
		return opts, err
	}
	if opts.external, err = readExternalSettings(cmd, cfg); err != nil {
		return opts, err
	}
	return opts, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	input := args[0]
	if _, err := os.Stat(input); err != nil {
		if os.IsNotExist(err) {
			return &analyzer.UsageError{Path: input, Msg: "no such file or directory"}
		}
		return &analyzer.IOFailure{Path: input, Err: err}
	}

	catalogs, err := cmd.Flags().GetStringArray("catalog")
	if err != nil {
		return err
	}
	wantCache, err := cmd.Flags().GetBool("cache")
	if err != nil {
		return err
	}
	env, err := prepareRun(cmd, input, catalogs, wantCache)
	if err != nil {
		return err
	}
	defer env.close()

	opts, err := readCheckOptions(cmd, env.cfg)
	if err != nil {
		return err
	}

	ctx, span := trace.Start(cmd.Context(), trace.ScopeDriver, "check")

	res, isDir, err := analyzeInput(ctx, cmd, input, env, opts)
	if err != nil {
		span.End(err.Error())
		return err
	}
	span.WithExtra("files", strconv.Itoa(len(res.Files))).
		WithExtra("errors", strconv.Itoa(res.Count(diag.SevError))).
		End("")

	if opts.sort {
		for _, f := range res.Files {
			f.Bag.Sort()
		}
	}

	files := make([]diagfmt.File, 0, len(res.Files))
	for _, f := range res.Files {
		files = append(files, diagfmt.File{Path: f.Path, ID: f.FileID, Bag: f.Bag})
	}
	out := cmd.OutOrStdout()
	idx := env.timer.Begin("render")
	err = render(out, files, res, env, opts, isDir, os.Args)
	env.timer.End(idx, opts.format.String())
	if err != nil {
		return err
	}

	failed := res.HasErrors()
	if opts.external.enabled {
		extOut := out
		if opts.format == diagfmt.FormatJSON || opts.format == diagfmt.FormatSARIF {
			extOut = cmd.ErrOrStderr()
		}
		paths := make([]string, 0, len(res.Files))
		for _, f := range res.Files {
			paths = append(paths, f.Path)
		}
		extErrors, err := runExternal(ctx, extOut, env.logger, opts.external, paths, isDir)
		if err != nil {
			return err
		}
		failed = failed || extErrors
	}

	if opts.timings && env.timer != nil {
		fmt.Fprint(cmd.ErrOrStderr(), env.timer.Summary())
	}
	if failed {
		return &exitError{code: 1}
	}
	return nil
}

// analyzeInput runs the analyzer on a file or a directory, drawing progress
// on stderr for directories when the UI is enabled.
func analyzeInput(ctx context.Context, cmd *cobra.Command, input string, env *runEnv, opts checkOptions) (*analyzer.Result, bool, error) {
	aopts := env.analyzerOptions()
	if !isDirectory(input) {
		res, err := analyzer.AnalyzeFile(ctx, input, aopts)
		return res, false, err
	}

	started := time.Now()
	defer func() {
		env.logger.Debug("directory analyzed", zap.String("dir", input), zap.Duration("elapsed", time.Since(started)))
	}()

	stderr := cmd.ErrOrStderr()
	if !shouldUseTUI(opts.ui, stderr) {
		res, err := analyzer.AnalyzeDir(ctx, input, aopts, opts.jobs)
		return res, true, err
	}
	files, err := analyzer.Discover(input)
	if err != nil {
		return nil, true, &analyzer.IOFailure{Path: input, Err: err}
	}
	res, err := runWithUI("portlint", files, stderr, func(sink analyzer.ProgressSink) (*analyzer.Result, error) {
		aopts.Progress = sink
		return analyzer.AnalyzeDir(ctx, input, aopts, opts.jobs)
	})
	return res, true, err
}

func isDirectory(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func render(w io.Writer, files []diagfmt.File, res *analyzer.Result, env *runEnv, opts checkOptions, isDir bool, argv []string) error {
	switch opts.format {
	case diagfmt.FormatShort:
		return diagfmt.Short(w, files, res.FileSet, opts.withNotes)
	case diagfmt.FormatPretty:
		return diagfmt.Pretty(w, files, res.FileSet, diagfmt.PrettyOpts{
			Color:       opts.color,
			PathMode:    opts.pathMode,
			ShowNotes:   opts.withNotes,
			ShowFixes:   opts.suggest,
			ShowPreview: opts.preview,
		})
	case diagfmt.FormatJSON:
		return diagfmt.JSON(w, files, res.FileSet, diagfmt.JSONOpts{
			PathMode:        opts.pathMode,
			IncludeNotes:    opts.withNotes,
			IncludeFixes:    opts.suggest,
			IncludePreviews: opts.preview,
		})
	case diagfmt.FormatSARIF:
		return diagfmt.Sarif(w, files, res.FileSet, diagfmt.SarifRunMeta{
			ToolName:       "portlint",
			ToolVersion:    version.Version,
			InformationURI: informationURI,
			InvocationArgs: argv,
			Rules:          ruleMeta(env.catalog),
		})
	}
	return diagfmt.Text(w, files, res.FileSet, diagfmt.TextOpts{Headers: isDir, PathMode: opts.pathMode})
}

// ruleMeta lists the registered rules plus the load-failure code.
func ruleMeta(cat *catalog.Catalog) []diagfmt.RuleMeta {
	infos := rules.Describe(rules.Default(cat))
	out := make([]diagfmt.RuleMeta, 0, len(infos)+1)
	for _, info := range infos {
		out = append(out, diagfmt.RuleMeta{
			ID:    info.Code.ID(),
			Name:  info.Name,
			Short: info.Code.Title(),
			Help:  info.Doc,
		})
	}
	out = append(out, diagfmt.RuleMeta{
		ID:    diag.IOLoadFileError.ID(),
		Name:  "load-failure",
		Short: diag.IOLoadFileError.Title(),
		Help:  "The file could not be read or decoded.",
	})
	return out
}
