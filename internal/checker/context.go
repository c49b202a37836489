// Package checker holds what every file-type checker shares: the reporter,
// the enable/disable control, the autofix editor and the warning sink.
package checker

import (
	"context"
	"fmt"
	"io"

	"ocahooks/internal/diag"
	"ocahooks/internal/fix"
	"ocahooks/internal/manifest"
	"ocahooks/internal/msgctl"
	"ocahooks/internal/trace"
)

// AutofixSuffix is appended to fixable findings when autofix is off.
const AutofixSuffix = " (has autofix)"

// Context is the per-module state handed to checkers. It is not safe for
// concurrent use: one module is checked by one goroutine.
type Context struct {
	Reporter diag.Reporter
	Control  msgctl.Control
	Module   string
	Version  manifest.Version
	Autofix  bool
	Warn     io.Writer
	Editor   *fix.Editor

	// Ctx carries the tracer and the current span.
	Ctx context.Context
}

// Report returns a builder for the finding or nil when the code is disabled
// globally or by one of the extra sets. Builders are nil-safe, so callers may
// chain and Emit unconditionally.
func (c *Context) Report(code diag.Code, path string, line int, msg string, disabled ...msgctl.Set) *diag.ReportBuilder {
	if c == nil || c.Reporter == nil {
		return nil
	}
	if !c.Control.Enabled(code, disabled...) {
		return nil
	}
	if code.Fixable() && !c.Autofix {
		msg += AutofixSuffix
	}
	return diag.Build(c.Reporter, code, path, line, msg)
}

// Enabled reports whether code would be reported under the extra sets.
func (c *Context) Enabled(code diag.Code, disabled ...msgctl.Set) bool {
	return c.Control.Enabled(code, disabled...)
}

// Fixing reports whether an autofix for code should be attempted.
func (c *Context) Fixing(code diag.Code, disabled ...msgctl.Set) bool {
	return c.Autofix && c.Editor != nil && code.Fixable() && c.Enabled(code, disabled...)
}

// Warnf prints a warning line and records it as a trace point.
func (c *Context) Warnf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if c.Warn != nil {
		fmt.Fprintf(c.Warn, "WARNING: %s\n", msg)
	}
	trace.Point(c.context(), trace.ScopeCheck, "warning", msg)
}

// Span starts a check span under the module span.
func (c *Context) Span(scope trace.Scope, name string) (context.Context, *trace.Span) {
	return trace.StartSpan(c.context(), scope, name)
}

func (c *Context) context() context.Context {
	if c.Ctx == nil {
		return context.Background()
	}
	return c.Ctx
}

// Context returns the context for blocking calls such as parsing.
func (c *Context) Context() context.Context {
	return c.context()
}

// Target builds the fix target for a referenced file.
func Target(f manifest.ReferencedFile, line int) fix.Target {
	return fix.Target{Path: f.Filename, Short: f.Short, Line: line}
}
