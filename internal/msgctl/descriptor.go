package msgctl

import (
	"ocahooks/internal/diag"
)

// Descriptor is one entry of a checker's static check table.
// Order of the table is the order of execution, and therefore the order of
// emitted findings.
type Descriptor[T any] struct {
	Name             string
	Codes            []diag.Code
	NeedsInstallable bool
	Run              func(T)
}

// Skip explains why a descriptor was filtered out.
type Skip struct {
	Name   string
	Reason SkipReason
}

type SkipReason uint8

const (
	SkipNotEnabled SkipReason = iota + 1
	SkipNotInstallable
)

func (r SkipReason) String() string {
	switch r {
	case SkipNotEnabled:
		return "not enabled"
	case SkipNotInstallable:
		return "not installable"
	default:
		return "unknown"
	}
}

// Active filters descs: a descriptor is dropped when none of its codes survive
// the control, or when it needs an installable module and the module is not.
func Active[T any](descs []Descriptor[T], ctl Control, installable bool) ([]Descriptor[T], []Skip) {
	out := make([]Descriptor[T], 0, len(descs))
	var skipped []Skip
	for _, d := range descs {
		if !ctl.AnyEnabled(d.Codes) {
			skipped = append(skipped, Skip{Name: d.Name, Reason: SkipNotEnabled})
			continue
		}
		if d.NeedsInstallable && !installable {
			skipped = append(skipped, Skip{Name: d.Name, Reason: SkipNotInstallable})
			continue
		}
		out = append(out, d)
	}
	return out, skipped
}
