package analyzer

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"portlint/internal/diag"
	"portlint/internal/source"
)

// Extension of the files a directory run picks up.
const Extension = ".cs"

// Discover lists every *.cs file under dir, sorted. Hidden directories are
// skipped.
func Discover(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), Extension) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// Сортируем для детерминированного порядка
	sort.Strings(files)
	return files, nil
}

// AnalyzeDir analyzes every *.cs file under dir with up to jobs workers
// (0 = GOMAXPROCS). Files that cannot be loaded get a VS-IO-001 diagnostic
// instead of failing the run. Results are sorted by path.
func AnalyzeDir(ctx context.Context, dir string, opts Options, jobs int) (*Result, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &UsageError{Path: dir, Msg: "directory not found"}
		}
		return nil, &IOFailure{Path: dir, Err: err}
	}
	if !info.IsDir() {
		return nil, &UsageError{Path: dir, Msg: "not a directory"}
	}

	files, err := Discover(dir)
	if err != nil {
		return nil, &IOFailure{Path: dir, Err: err}
	}

	opts = opts.withDefaults()
	if opts.BaseDir == "" {
		opts.BaseDir = dir
	}
	fset := source.NewFileSetWithBase(opts.BaseDir)
	result := &Result{FileSet: fset, Files: make([]FileResult, len(files))}
	if len(files) == 0 {
		return result, nil
	}
	opts.Logger.Info("analyzing directory", zap.String("dir", dir), zap.Int("files", len(files)))

	for _, path := range files {
		emit(opts.Progress, Event{File: path, Stage: StageLoad, Status: StatusQueued})
	}

	// FileSet is not safe for concurrent writes: load everything first,
	// then analyze in parallel.
	ids := make([]source.FileID, len(files))
	loadErrs := make([]error, len(files))
	for i, path := range files {
		id, err := loadFile(ctx, fset, path, opts)
		if err != nil {
			// placeholder so the I/O diagnostic renders with the right path
			id = fset.Add(path, nil, 0)
			loadErrs[i] = err
		}
		ids[i] = id
	}

	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))

	for i, path := range files {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			started := time.Now()
			if loadErrs[i] != nil {
				bag := diag.NewBag(opts.MaxDiagnostics)
				bag.Add(diag.NewError(diag.IOLoadFileError, source.Span{File: ids[i]}, loadErrs[i].Error()))
				result.Files[i] = FileResult{Path: path, FileID: ids[i], Bag: bag}
				emit(opts.Progress, Event{File: path, Stage: StageLoad, Status: StatusError, Err: loadErrs[i]})
				return nil
			}

			emit(opts.Progress, Event{File: path, Stage: StageAnalyze, Status: StatusWorking})
			// индекс i уникален для горутины, мьютекс не нужен
			fr := analyzeLoaded(gctx, fset, ids[i], opts)
			fr.Path = path
			result.Files[i] = fr
			emit(opts.Progress, Event{
				File:     path,
				Stage:    StageAnalyze,
				Status:   StatusDone,
				Elapsed:  time.Since(started),
				Findings: fr.Bag.Len(),
				Cached:   fr.Cached,
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}
