package checker

import (
	"ocahooks/internal/msgctl"
	"ocahooks/internal/trace"
)

// Guard wraps the execution of one check; the module runner uses it to turn
// panics into findings. A nil Guard calls fn directly.
type Guard func(name string, fn func())

// RunActive executes the descriptors that survive the control in table order,
// each inside a check span, and returns the skipped ones.
func RunActive[T any](c *Context, descs []msgctl.Descriptor[T], target T, installable bool, guard Guard) []msgctl.Skip {
	active, skipped := msgctl.Active(descs, c.Control, installable)
	for _, d := range active {
		run := func() { d.Run(target) }
		_, span := c.Span(trace.ScopeCheck, d.Name)
		if guard != nil {
			guard(d.Name, run)
		} else {
			run()
		}
		span.End("")
	}
	return skipped
}
