// Package analyzer drives the rules over files: it loads sources, masks
// comments once, runs every rule in registration order and collects the
// diagnostics.
package analyzer

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"portlint/internal/catalog"
	"portlint/internal/dcache"
	"portlint/internal/diag"
	"portlint/internal/observ"
	"portlint/internal/rules"
	"portlint/internal/scan"
	"portlint/internal/source"
	"portlint/internal/trace"
)

// Options configure a run. Zero values pick the built-in catalog and rules.
type Options struct {
	Catalog        *catalog.Catalog
	Rules          []rules.Rule
	MaxDiagnostics int // per file, 0 = unlimited
	BaseDir        string

	Cache       *dcache.Cache
	ToolVersion string

	Timer    *observ.Timer
	Logger   *zap.Logger
	Progress ProgressSink

	catalogDigest string
}

func (o Options) withDefaults() Options {
	if o.Catalog == nil {
		o.Catalog = catalog.Default()
	}
	if o.Rules == nil {
		o.Rules = rules.Default(o.Catalog)
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Cache != nil && o.catalogDigest == "" {
		o.catalogDigest = o.Catalog.Digest()
	}
	return o
}

// FileResult is the outcome for one file.
type FileResult struct {
	Path   string
	FileID source.FileID
	Bag    *diag.Bag
	Cached bool
}

// Result holds every analyzed file, sorted by path, sharing one FileSet.
type Result struct {
	FileSet *source.FileSet
	Files   []FileResult
}

// Count sums diagnostics of sev across files, including those over the limit.
func (r *Result) Count(sev diag.Severity) int {
	n := 0
	for _, f := range r.Files {
		n += f.Bag.Total(sev)
	}
	return n
}

// HasErrors reports whether any file has an Error diagnostic.
func (r *Result) HasErrors() bool {
	return r.Count(diag.SevError) > 0
}

// Analyze runs rs over file and returns the diagnostics in rule
// registration order, then discovery order. It does no I/O and never
// modifies file.
func Analyze(file *source.File, rs []rules.Rule) []diag.Diagnostic {
	return analyze(context.Background(), file, rs, nil)
}

func analyze(ctx context.Context, file *source.File, rs []rules.Rule, timer *observ.Timer) []diag.Diagnostic {
	if file == nil {
		return nil
	}
	maskIdx := timer.Begin("mask")
	text := scan.Mask(file.Content)
	timer.End(maskIdx, file.Path)

	var out []diag.Diagnostic
	for _, r := range rs {
		_, span := trace.Start(ctx, trace.ScopeRule, "rule:"+r.Name())
		idx := timer.Begin("rule:" + r.Name())
		before := len(out)
		r.Check(&rules.Pass{
			File:     file,
			Text:     text,
			Reporter: diag.SliceReporter{Items: &out},
		})
		found := len(out) - before
		timer.End(idx, "")
		span.WithExtra("findings", strconv.Itoa(found)).End("")
	}
	return out
}

// AnalyzeSource analyzes in-memory content registered as a virtual file.
func AnalyzeSource(ctx context.Context, name string, content []byte, opts Options) *Result {
	opts = opts.withDefaults()
	fs := source.NewFileSetWithBase(opts.BaseDir)
	id := fs.AddVirtual(name, content)
	fr := analyzeLoaded(ctx, fs, id, opts)
	return &Result{FileSet: fs, Files: []FileResult{fr}}
}

// analyzeLoaded runs the rules on a file already in fs, going through the
// cache when one is configured.
func analyzeLoaded(ctx context.Context, fs *source.FileSet, id source.FileID, opts Options) FileResult {
	file := fs.Get(id)
	bag := diag.NewBag(opts.MaxDiagnostics)
	res := FileResult{Path: file.Path, FileID: id, Bag: bag}

	ctx, span := trace.StartFile(ctx, file.Path)
	defer func() {
		span.WithExtra("diagnostics", strconv.Itoa(bag.Len())).
			WithExtra("cached", strconv.FormatBool(res.Cached)).
			End("")
	}()

	var key dcache.Digest
	if opts.Cache != nil {
		key = dcache.Key(file.Hash, opts.catalogDigest, opts.ToolVersion)
		var payload dcache.Payload
		hit, err := opts.Cache.Get(key, &payload)
		switch {
		case err != nil:
			opts.Logger.Warn("cache read failed", zap.String("file", file.Path), zap.Error(err))
		case hit:
			opts.Logger.Debug("cache hit", zap.String("file", file.Path), zap.Stringer("key", key))
			for _, d := range payload.Restore(id) {
				bag.Add(d)
			}
			res.Cached = true
			return res
		default:
			opts.Logger.Debug("cache miss", zap.String("file", file.Path))
		}
	}

	diags := analyze(ctx, file, opts.Rules, opts.Timer)
	for _, d := range diags {
		bag.Add(d)
	}

	if opts.Cache != nil {
		if err := opts.Cache.Put(key, dcache.FromDiagnostics(file.Path, diags)); err != nil {
			opts.Logger.Warn("cache write failed", zap.String("file", file.Path), zap.Error(err))
		}
	}
	return res
}
