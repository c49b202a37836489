package module

import (
	"context"
	"fmt"
	"runtime/debug"

	"ocahooks/internal/checker"
	"ocahooks/internal/checker/csvcheck"
	"ocahooks/internal/checker/pocheck"
	"ocahooks/internal/checker/pycheck"
	"ocahooks/internal/checker/xmlcheck"
	"ocahooks/internal/diag"
	"ocahooks/internal/manifest"
	"ocahooks/internal/msgctl"
	"ocahooks/internal/trace"
)

// Checker runs the file-type checkers of one module. Ctx.Reporter is ignored:
// Run collects into its own bag.
type Checker struct {
	Record  *manifest.Record
	Changed []string
	Ctx     *checker.Context
}

// Outcome is what one module run produced.
type Outcome struct {
	Findings *diag.Bag
	Skipped  []msgctl.Skip
	// Panicked is set when a check was turned into a module-checker-error.
	Panicked bool
}

// fileChecker is one checker of a module, built over the shared context.
type fileChecker struct {
	name string
	run  func(m *Checker, cctx *checker.Context, guard checker.Guard) []msgctl.Skip
}

// fileCheckers run in that order on every module.
var fileCheckers = []fileChecker{
	{"pycheck", func(m *Checker, cctx *checker.Context, guard checker.Guard) []msgctl.Skip {
		return pycheck.New(cctx, m.Record, m.Changed).Run(m.Record.Installable, guard)
	}},
	{"xmlcheck", func(m *Checker, cctx *checker.Context, guard checker.Guard) []msgctl.Skip {
		return xmlcheck.New(cctx, m.refs("xml")).Run(m.Record.Installable, guard)
	}},
	{"csvcheck", func(m *Checker, cctx *checker.Context, guard checker.Guard) []msgctl.Skip {
		return csvcheck.New(cctx, m.refs("csv")).Run(m.Record.Installable, guard)
	}},
	{"pocheck", func(m *Checker, cctx *checker.Context, guard checker.Guard) []msgctl.Skip {
		return pocheck.New(cctx, m.refs("po", "pot")).Run(m.Record.Installable, guard)
	}},
}

// Run executes pycheck, xmlcheck, csvcheck and pocheck in that order, drops
// the findings the control disables and sorts the rest. Crash reports are
// never dropped.
func (m *Checker) Run(ctx context.Context) Outcome {
	bag := diag.NewBag(0)
	cctx := *m.Ctx
	cctx.Reporter = diag.BagReporter{Bag: bag}
	cctx.Ctx = ctx

	out := Outcome{Findings: bag}
	guard := recoverGuard(ctx, bag, m.Record.ShortPath(), func() { out.Panicked = true })

	var skipped []msgctl.Skip
	for _, fc := range fileCheckers {
		guard(fc.name, func() {
			skipped = append(skipped, fc.run(m, &cctx, guard)...)
		})
	}
	out.Skipped = skipped
	m.notice(skipped)

	control := m.Ctx.Control
	bag.Filter(func(f diag.Finding) bool {
		return f.Code == diag.ModuleCheckerError || control.Allow(f)
	})
	bag.Sort()
	return out
}

// refs lists the referenced files with one of exts. A module that is not
// installable does not get its files parsed.
func (m *Checker) refs(exts ...string) []manifest.ReferencedFile {
	if !m.Record.Installable {
		return nil
	}
	return m.Record.Referenced(exts...)
}

// notice prints one line per check skipped for a module that cannot be
// installed. Only a malformed manifest counts as an error.
func (m *Checker) notice(skipped []msgctl.Skip) {
	if m.Ctx.Warn == nil {
		return
	}
	if m.Record.MissingInit {
		fmt.Fprintf(m.Ctx.Warn, "The path %s does not have __init__.py file\n", m.Record.ShortPath())
	}
	for _, s := range skipped {
		if s.Reason != msgctl.SkipNotInstallable {
			continue
		}
		if m.Record.Err != "" {
			fmt.Fprintf(m.Ctx.Warn, "Skipped check '%s' for '%s' with error: '%s'\n", s.Name, m.Record.ShortPath(), m.Record.Err)
		} else {
			fmt.Fprintf(m.Ctx.Warn, "Skipped check '%s' for '%s' is not installable\n", s.Name, m.Record.ShortPath())
		}
	}
}

// recoverGuard turns a panic of one check into a module-checker-error at
// anchor and lets the module continue with the next check.
func recoverGuard(ctx context.Context, bag *diag.Bag, anchor string, onPanic func()) checker.Guard {
	return func(name string, fn func()) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if onPanic != nil {
				onPanic()
			}
			bag.Add(diag.New(diag.ModuleCheckerError, anchor, 1, fmt.Sprintf("Unexpected error in %s: %v", name, v)))
			trace.Point(ctx, trace.ScopeCheck, "panic", fmt.Sprintf("%s: %v\n%s", name, v, debug.Stack()))
		}()
		fn()
	}
}
