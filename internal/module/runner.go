// Package module drives the checks: it groups input paths into Odoo modules,
// loads every manifest and runs the file-type checkers of each module, modules
// in parallel.
package module

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"ocahooks/internal/checker"
	"ocahooks/internal/diag"
	"ocahooks/internal/fix"
	"ocahooks/internal/manifest"
	"ocahooks/internal/msgctl"
	"ocahooks/internal/observ"
	"ocahooks/internal/trace"
)

// Runner checks a set of paths.
type Runner struct {
	Jobs    int // 0 means GOMAXPROCS
	Control msgctl.Control
	Autofix bool
	// Out receives warnings and skip notices; nil discards them.
	Out      io.Writer
	Progress ProgressSink
	Timer    *observ.Timer
	// Getenv resolves the version env; nil means os.Getenv.
	Getenv func(string) string
}

// Result is the merged outcome of a run.
type Result struct {
	Findings []diag.Finding
	Modules  int
	Dropped  []string
	Fixes    fix.ApplyResult
	// Panicked is set when at least one check crashed.
	Panicked bool
}

// ExitCode is 0 for a clean run and 1 when something was found or a check
// crashed.
func (r *Result) ExitCode() int {
	if r == nil || (len(r.Findings) == 0 && !r.Panicked) {
		return 0
	}
	return 1
}

// Run discovers the modules of paths and checks them. The error is only
// about cancellation: problems in the checked files are findings.
func (r *Runner) Run(ctx context.Context, paths []string) (*Result, error) {
	ctx, span := trace.StartSpan(ctx, trace.ScopeRun, "check")
	defer span.End("")

	out := r.Out
	if out == nil {
		out = io.Discard
	}
	out = &lockedWriter{w: out}
	sink := r.Progress
	if sink == nil {
		sink = nopSink{}
	}
	getenv := r.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	phase := r.Timer.Begin("discover")
	groups, dropped := Discover(paths, NewCache(0))
	r.Timer.End(phase, fmt.Sprintf("%d module(s)", len(groups)))
	for _, p := range dropped {
		fmt.Fprintf(out, "WARNING: %s is not part of an Odoo module, skipped\n", p)
		trace.Point(ctx, trace.ScopeRun, "dropped", p)
	}
	for _, g := range groups {
		sink.OnEvent(Event{Module: shortManifest(g), Stage: StageDiscover, Status: StatusQueued})
	}

	result := &Result{Modules: len(groups), Dropped: dropped}
	if len(groups) == 0 {
		return result, nil
	}

	// Настраиваем параллелизм
	jobs := r.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	editor := fix.NewEditor(out)

	// Результаты (индексы уникальны для каждой горутины, мьютекс не нужен)
	outcomes := make([]Outcome, len(groups))

	phase = r.Timer.Begin("checks")
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(groups)))
	for i, group := range groups {
		g.Go(func() error {
			// Проверка отмены
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			outcomes[i] = r.checkModule(gctx, group, checker.Context{
				Control: r.Control,
				Autofix: r.Autofix,
				Warn:    out,
				Editor:  editor,
			}, sink, getenv)
			return nil
		})
	}
	err := g.Wait()
	r.Timer.End(phase, "")
	if err != nil {
		return nil, err
	}

	merged := diag.NewBag(0)
	for _, o := range outcomes {
		merged.Merge(o.Findings)
		result.Panicked = result.Panicked || o.Panicked
	}
	result.Findings = merged.Items()
	result.Fixes = editor.Result()
	return result, nil
}

func (r *Runner) checkModule(ctx context.Context, g Group, base checker.Context, sink ProgressSink, getenv func(string) string) Outcome {
	name := shortManifest(g)
	ctx = trace.WithModule(ctx, filepath.Base(filepath.Dir(g.Manifest)))
	ctx, span := trace.StartSpan(ctx, trace.ScopeModule, "module")
	start := time.Now()

	sink.OnEvent(Event{Module: name, Stage: StageManifest, Status: StatusWorking})
	rec, err := manifest.Load(ctx, g.Manifest, g.Root)
	r.Timer.Add("manifest", time.Since(start))
	if err != nil {
		fmt.Fprintf(base.Warn, "WARNING: %v\n", err)
		sink.OnEvent(Event{Module: name, Stage: StageDone, Status: StatusError, Err: err, Elapsed: time.Since(start)})
		span.End(err.Error())
		return Outcome{Findings: diag.NewBag(0)}
	}

	version, ok := manifest.ResolveVersion(rec.Version, getenv)
	if !ok {
		trace.Point(ctx, trace.ScopeModule, "version", fmt.Sprintf("no valid version for %s, using %s", rec.ShortPath(), version))
	}
	base.Module = rec.Name
	base.Version = version

	sink.OnEvent(Event{Module: name, Stage: StageCheck, Status: StatusWorking})
	m := &Checker{Record: rec, Changed: g.Changed, Ctx: &base}
	out := m.Run(ctx)

	status := StatusDone
	if out.Panicked {
		status = StatusError
	}
	sink.OnEvent(Event{Module: name, Stage: StageDone, Status: status, Elapsed: time.Since(start)})
	span.End(fmt.Sprintf("%d finding(s)", out.Findings.Len()))
	return out
}

func shortManifest(g Group) string {
	rec := manifest.Record{Root: g.Root}
	return rec.Short(g.Manifest)
}

// lockedWriter serializes the writes of parallel modules so warning lines do
// not interleave.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
