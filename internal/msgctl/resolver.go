// Package msgctl decides which checks run and which findings survive.
//
// Two levels are applied: the descriptor filter (Active) skips whole check
// methods before they are invoked, and IsEnabled filters every emitted
// finding, including node- and file-local disables coming from XML comments.
package msgctl

import (
	"ocahooks/internal/diag"
)

// IsEnabled reports whether code fires given the enable set, the disable set and
// a node/file-local extra disable set. First match wins:
//
//  1. code in extra            -> false
//  2. enable non-empty         -> code in enable
//  3. disable non-empty        -> code not in disable
//  4. otherwise                -> true
func IsEnabled(code string, enable, disable, extra Set) bool {
	if extra.Has(code) {
		return false
	}
	if enable.Len() > 0 {
		return enable.Has(code)
	}
	if disable.Len() > 0 {
		return !disable.Has(code)
	}
	return true
}

// Control carries the global enable/disable sets of one run.
type Control struct {
	Enable  Set
	Disable Set
}

// Enabled applies IsEnabled with the union of the given extra sets.
func (c Control) Enabled(code diag.Code, extra ...Set) bool {
	var merged Set
	switch len(extra) {
	case 0:
	case 1:
		merged = extra[0]
	default:
		merged = extra[0].Union(extra[1:]...)
	}
	return IsEnabled(string(code), c.Enable, c.Disable, merged)
}

// AnyEnabled reports whether a check declaring codes should run at all, that
// is whether IsEnabled holds for at least one of them without extras. An empty
// code list is always enabled.
func (c Control) AnyEnabled(codes []diag.Code) bool {
	if len(codes) == 0 {
		return true
	}
	for _, code := range codes {
		if IsEnabled(string(code), c.Enable, c.Disable, nil) {
			return true
		}
	}
	return false
}

// Allow is a diag.FilterReporter predicate bound to c.
func (c Control) Allow(f diag.Finding) bool {
	return c.Enabled(f.Code)
}
