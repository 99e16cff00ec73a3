package analyzer

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"time"

	"go.uber.org/zap"

	"portlint/internal/source"
	"portlint/internal/trace"
)

// AnalyzeFile analyzes one file on disk.
//
// A missing path or a directory is a *UsageError; a file that cannot be read
// or decoded is an *IOFailure. Findings are never errors.
func AnalyzeFile(ctx context.Context, path string, opts Options) (*Result, error) {
	if path == "" {
		return nil, &UsageError{Msg: "missing input path"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &UsageError{Path: path, Msg: "file not found"}
		}
		return nil, &IOFailure{Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, &UsageError{Path: path, Msg: "is a directory"}
	}

	opts = opts.withDefaults()
	fset := source.NewFileSetWithBase(opts.BaseDir)

	emit(opts.Progress, Event{File: path, Stage: StageLoad, Status: StatusWorking})
	started := time.Now()
	id, err := loadFile(ctx, fset, path, opts)
	if err != nil {
		emit(opts.Progress, Event{File: path, Stage: StageLoad, Status: StatusError, Err: err, Elapsed: time.Since(started)})
		return nil, err
	}

	emit(opts.Progress, Event{File: path, Stage: StageAnalyze, Status: StatusWorking})
	fr := analyzeLoaded(ctx, fset, id, opts)
	fr.Path = path
	emit(opts.Progress, Event{
		File:     path,
		Stage:    StageAnalyze,
		Status:   StatusDone,
		Elapsed:  time.Since(started),
		Findings: fr.Bag.Len(),
		Cached:   fr.Cached,
	})
	return &Result{FileSet: fset, Files: []FileResult{fr}}, nil
}

func loadFile(ctx context.Context, fset *source.FileSet, path string, opts Options) (source.FileID, error) {
	idx := opts.Timer.Begin("load")
	id, err := fset.Load(path)
	opts.Timer.End(idx, path)
	if err != nil {
		trace.Point(ctx, trace.ScopeFile, "load:"+path, err.Error())
		opts.Logger.Debug("load failed", zap.String("file", path), zap.Error(err))
		return 0, &IOFailure{Path: path, Err: err}
	}
	return id, nil
}
