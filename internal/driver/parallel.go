package driver

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"capsule/internal/diag"
	"capsule/internal/hir"
	"capsule/internal/observ"
	"capsule/internal/project"
	"capsule/internal/source"
	"capsule/internal/trace"
)

// SourceExt is the extension of fixture files.
const SourceExt = ".cap"

type DiagnoseDirOptions struct {
	DiagnoseOptions
	// Jobs of zero means GOMAXPROCS.
	Jobs int
	// Cache may be nil.
	Cache *DiskCache
}

// DiagnoseDirResult is the outcome for one file of a directory run. Result
// is nil when the entry came from the cache or the file failed to load.
type DiagnoseDirResult struct {
	Path         string
	FileID       source.FileID
	Bag          *diag.Bag
	Result       *DiagnoseResult
	Environments []hir.EnvironmentView
	Cached       bool
	Timing       *observ.Report
}

// ListSourceFiles returns every *.cap file under dir, sorted.
func ListSourceFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, SourceExt) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// DiagnoseDir runs the pipeline over every source file of dir in
// parallel. Files are loaded up front into one FileSet that workers only
// read; each worker owns its builder and bag.
func DiagnoseDir(ctx context.Context, dir string, opts *DiagnoseDirOptions) (*source.FileSet, []DiagnoseDirResult, error) {
	if opts == nil {
		opts = &DiagnoseDirOptions{}
	}
	files, err := ListSourceFiles(dir)
	if err != nil {
		return nil, nil, err
	}
	fileSet := source.NewFileSetWithBase(dir)
	if len(files) == 0 {
		return fileSet, nil, nil
	}

	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeDriver, "diagnose_dir", trace.CurrentSpan(ctx).SpanID)
	defer span.End("")
	ctx = trace.WithSpan(ctx, span)

	fileIDs := make(map[string]source.FileID, len(files))
	loadErrors := make(map[string]error)
	for _, path := range files {
		id, loadErr := fileSet.Load(path)
		if loadErr != nil {
			loadErrors[path] = loadErr
			continue
		}
		fileIDs[path] = id
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	maxDiags := opts.MaxDiagnostics
	if maxDiags <= 0 {
		maxDiags = DefaultMaxDiagnostics
	}

	// each goroutine writes only its own slot
	results := make([]DiagnoseDirResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if loadErr, failed := loadErrors[path]; failed {
				bag := diag.NewBag(maxDiags)
				bag.Add(diag.NewError(diag.IOLoadFileError, source.Span{}, "failed to load "+path+": "+loadErr.Error()))
				results[i] = DiagnoseDirResult{Path: path, Bag: bag}
				notify(opts.PhaseObserver, path, bag)
				return nil
			}
			results[i] = diagnoseOne(gctx, fileSet, fileIDs[path], path, opts)
			notify(opts.PhaseObserver, path, results[i].Bag)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fileSet, nil, err
	}
	span.WithExtra("files", strconv.Itoa(len(files)))
	return fileSet, results, nil
}

func diagnoseOne(ctx context.Context, fileSet *source.FileSet, id source.FileID, path string, opts *DiagnoseDirOptions) DiagnoseDirResult {
	file := fileSet.Get(id)
	out := DiagnoseDirResult{Path: path, FileID: id}

	// timing runs skip the cache so every phase is measured
	useCache := opts.Cache != nil && !opts.EnableTimings
	var key project.Digest
	if useCache {
		key = CacheKey(file, &opts.DiagnoseOptions)
		var payload DiskPayload
		if hit, err := opts.Cache.Get(key, &payload); err == nil && hit && payload.ContentHash == file.Hash {
			bag := diag.NewBag(max(len(payload.Diagnostics), 1))
			for _, d := range payload.Restore(id) {
				bag.Add(d)
			}
			out.Bag = bag
			out.Environments = payload.Environments
			out.Cached = true
			trace.Point(trace.FromContext(ctx), trace.ScopeFile, "cache_hit", path, trace.CurrentSpan(ctx).SpanID)
			return out
		}
	}

	res := DiagnoseFile(ctx, fileSet, id, &opts.DiagnoseOptions)
	out.Bag = res.Bag
	out.Result = res
	out.Timing = res.Timing
	if res.Module != nil {
		out.Environments = res.Module.View(res.Builder)
	}
	if useCache {
		// a failed write only costs the next run a recompute
		_ = opts.Cache.Put(key, payloadFor(res, out.Environments)) //nolint:errcheck
	}
	return out
}

func notify(observer PhaseObserver, path string, bag *diag.Bag) {
	if observer == nil {
		return
	}
	status := FileDone
	if bag.HasErrors() {
		status = FileFailed
	}
	observer(PhaseEvent{File: filepath.ToSlash(filepath.Clean(path)), Status: status})
}
