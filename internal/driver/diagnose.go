package driver

import (
	"context"
	"fmt"
	"time"

	"capsule/internal/ast"
	"capsule/internal/diag"
	"capsule/internal/hir"
	"capsule/internal/lexer"
	"capsule/internal/observ"
	"capsule/internal/parser"
	"capsule/internal/project"
	"capsule/internal/sema"
	"capsule/internal/source"
	"capsule/internal/symbols"
	"capsule/internal/trace"

	"fortio.org/safecast"
)

// DiagnoseStage bounds how far the pipeline runs.
type DiagnoseStage string

const (
	DiagnoseStageTokenize DiagnoseStage = "tokenize"
	DiagnoseStageSyntax   DiagnoseStage = "syntax"
	// DiagnoseStageSema resolves names, analyzes captures and validates.
	DiagnoseStageSema DiagnoseStage = "sema"
	// DiagnoseStageAll also desugars closures into environments.
	DiagnoseStageAll DiagnoseStage = "all"
)

// DefaultMaxDiagnostics applies when DiagnoseOptions.MaxDiagnostics is not
// positive.
const DefaultMaxDiagnostics = 100

type DiagnoseOptions struct {
	Stage            DiagnoseStage
	MaxDiagnostics   int
	IgnoreWarnings   bool
	WarningsAsErrors bool
	EnableTimings    bool
	Analysis         project.Analysis
	PhaseObserver    PhaseObserver
}

func (o *DiagnoseOptions) semaOptions(r diag.Reporter) sema.Options {
	return sema.Options{
		Reporter:       r,
		MoveKeepsTrait: o.Analysis.MoveKeepsTrait,
		StrictAliasing: o.Analysis.StrictAliasing,
	}
}

// DiagnoseResult holds every artefact the run produced. Fields past the
// requested stage are nil; Module is also nil when the front end reported
// errors.
type DiagnoseResult struct {
	FileSet  *source.FileSet
	File     *source.File
	FileID   ast.FileID
	Bag      *diag.Bag
	Builder  *ast.Builder
	Symbols  *symbols.Result
	Analysis *sema.Result
	Module   *hir.Module
	Timing   *observ.Report
}

// Diagnose runs the pipeline over path up to stage.
func Diagnose(ctx context.Context, path string, stage DiagnoseStage, maxDiagnostics int) (*DiagnoseResult, error) {
	return DiagnoseWithOptions(ctx, path, &DiagnoseOptions{
		Stage:          stage,
		MaxDiagnostics: maxDiagnostics,
	})
}

// DiagnoseWithOptions loads path and runs the pipeline with opts.
func DiagnoseWithOptions(ctx context.Context, path string, opts *DiagnoseOptions) (*DiagnoseResult, error) {
	fs := source.NewFileSet()
	fileID, err := fs.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return DiagnoseFile(ctx, fs, fileID, opts), nil
}

// DiagnoseFile runs the pipeline over a file already in fs.
func DiagnoseFile(ctx context.Context, fs *source.FileSet, fileID source.FileID, opts *DiagnoseOptions) *DiagnoseResult {
	if opts == nil {
		opts = &DiagnoseOptions{}
	}
	stage := opts.Stage
	if stage == "" {
		stage = DiagnoseStageAll
	}
	file := fs.Get(fileID)
	p := newPhases(ctx, file.Path, opts)
	defer p.close()

	maxDiags := opts.MaxDiagnostics
	if maxDiags <= 0 {
		maxDiags = DefaultMaxDiagnostics
	}
	bag := diag.NewBag(maxDiags)
	reporter := diag.BagReporter{Bag: bag}
	res := &DiagnoseResult{FileSet: fs, File: file, Bag: bag}

	idx := p.begin("tokenize")
	tokens := diagnoseTokenize(file, reporter)
	p.end(idx, fmt.Sprintf("tokens=%d", tokens))

	if stage != DiagnoseStageTokenize {
		idx = p.begin("parse")
		res.Builder, res.FileID = diagnoseParse(file, reporter, maxDiags)
		note := ""
		if f := res.Builder.Files.Get(res.FileID); f != nil {
			note = fmt.Sprintf("items=%d", len(f.Items))
		}
		p.end(idx, note)
	}

	if stage == DiagnoseStageSema || stage == DiagnoseStageAll {
		idx = p.begin("resolve")
		res.Symbols = symbols.ResolveFile(res.Builder, res.FileID, symbols.ResolveOptions{Reporter: reporter})
		p.end(idx, fmt.Sprintf("bindings=%d", len(res.Symbols.Bindings)-1))
		frontEndOK := !bag.HasErrors()

		idx = p.begin("analyze")
		semaOpts := opts.semaOptions(diag.NewDedupReporter(reporter))
		res.Analysis = sema.Analyze(res.Symbols, semaOpts)
		for i := range res.Analysis.Closures {
			c := &res.Analysis.Closures[i]
			trace.Point(p.tracer, trace.ScopeClosure, "closure:"+c.Name, c.Trait.String(), p.fileSpan.ID())
		}
		p.end(idx, fmt.Sprintf("closures=%d", len(res.Analysis.Closures)))

		if stage == DiagnoseStageAll && frontEndOK {
			idx = p.begin("desugar")
			res.Module = hir.Desugar(res.Builder, res.Symbols, res.Analysis)
			p.end(idx, fmt.Sprintf("environments=%d", len(res.Module.Environments)))
		}

		idx = p.begin("validate")
		violations := res.Analysis.Validate(semaOpts)
		p.end(idx, fmt.Sprintf("violations=%d", len(violations)))
	}

	if opts.IgnoreWarnings {
		bag.Filter(func(d diag.Diagnostic) bool {
			return d.Severity != diag.SevWarning && d.Severity != diag.SevInfo
		})
	}
	if opts.WarningsAsErrors {
		bag.Transform(func(d diag.Diagnostic) diag.Diagnostic {
			if d.Severity == diag.SevWarning {
				d.Severity = diag.SevError
			}
			return d
		})
	}
	bag.Sort()

	if p.timer != nil {
		report := p.timer.Report()
		res.Timing = &report
		appendTimingDiagnostic(bag, timingPayload{
			Kind:    "file",
			Path:    file.Path,
			TotalMS: report.TotalMS,
			Phases:  report.Phases,
		})
	}
	return res
}

// phases drives the timer, the trace spans and the observer of one file
// from a single begin/end pair.
type phases struct {
	path     string
	timer    *observ.Timer
	tracer   trace.Tracer
	fileSpan *trace.Span
	open     []openPhase
	observer PhaseObserver
}

type openPhase struct {
	name  string
	start time.Time
	span  *trace.Span
}

func newPhases(ctx context.Context, path string, opts *DiagnoseOptions) *phases {
	p := &phases{path: path, observer: opts.PhaseObserver, tracer: trace.FromContext(ctx)}
	if opts.EnableTimings {
		p.timer = observ.NewTimer()
	}
	p.fileSpan = trace.Begin(p.tracer, trace.ScopeFile, "file:"+path, trace.CurrentSpan(ctx).SpanID)
	return p
}

func (p *phases) begin(name string) int {
	p.open = append(p.open, openPhase{
		name:  name,
		start: time.Now(),
		span:  trace.Begin(p.tracer, trace.ScopePass, name, p.fileSpan.ID()),
	})
	if p.timer != nil {
		p.timer.Begin(name)
	}
	if p.observer != nil {
		p.observer(PhaseEvent{File: p.path, Name: name, Status: PhaseStart})
	}
	return len(p.open) - 1
}

func (p *phases) end(idx int, note string) {
	ph := p.open[idx]
	ph.span.End(note)
	if p.timer != nil {
		p.timer.End(idx, note)
	}
	if p.observer != nil {
		p.observer(PhaseEvent{File: p.path, Name: ph.name, Status: PhaseEnd, Elapsed: time.Since(ph.start)})
	}
}

func (p *phases) close() {
	p.fileSpan.End(fmt.Sprintf("phases=%d", len(p.open)))
}

// diagnoseTokenize lexes the whole file so lexical errors are reported once.
func diagnoseTokenize(file *source.File, r diag.Reporter) int {
	lx := lexer.New(file, lexer.Options{Reporter: r})
	return len(lx.All())
}

// diagnoseParse relexes without a reporter; lexical errors are already in
// the bag.
func diagnoseParse(file *source.File, r diag.Reporter, maxDiagnostics int) (*ast.Builder, ast.FileID) {
	builder := ast.NewBuilder(ast.Hints{}, nil)
	maxErrors, err := safecast.Conv[uint](maxDiagnostics)
	if err != nil {
		maxErrors = 0
	}
	result := parser.ParseFile(lexer.New(file, lexer.Options{}), builder, parser.Options{
		Reporter:  r,
		MaxErrors: maxErrors,
	})
	return builder, result.File
}
