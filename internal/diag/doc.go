// Package diag defines the finding model shared by every checker.
//
// # Purpose
//
//   - Provide deterministic data structures (Finding, Position, Code) that
//     capture rule violations produced by the XML, CSV, PO, manifest and
//     Python checkers.
//   - Offer light-weight utilities (Reporter, Bag) that let rules emit
//     findings without coupling to storage, filtering or formatting.
//
// # Data model
//
// Finding is the central record:
//
//   - Code – stable string identifier (see codes.go), the unit of
//     enable/disable filtering.
//   - Message – human oriented text.
//   - Path/Line/Column – repo-relative location, -1 when unknown.
//   - Info – optional remediation hint.
//   - Extra – the other occurrences of duplicate-style findings, in
//     collection order.
//
// Findings are values; With* helpers return modified copies so a finding
// is never mutated after it has been reported.
//
// # Emitting findings
//
// Rules call Build(r, code, path, line, msg) and chain WithInfo/WithExtra
// before Emit, or call Reporter.Report directly. BagReporter aggregates into
// a Bag which supports sorting, deduplication, filtering and grouping by
// code. FilterReporter applies a predicate (the enable/disable resolver in
// practice) at emit time.
//
// Rendering lives in internal/report; autofix lives in internal/fix.
package diag
