package diag

type dedupKey struct {
	code Code
	path string
	line int
	col  int
	msg  string
}

// DedupReporter wraps another Reporter and suppresses duplicate findings
// with the same code, location and message.
type DedupReporter struct {
	next Reporter
	seen map[dedupKey]struct{}
}

// NewDedupReporter returns a Reporter that filters out duplicates while
// forwarding unique findings to the provided reporter.
func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{
		next: next,
		seen: make(map[dedupKey]struct{}),
	}
}

func (r *DedupReporter) Report(f Finding) {
	if r == nil {
		return
	}
	key := dedupKey{
		code: f.Code,
		path: f.Path,
		line: f.Line,
		col:  f.Column,
		msg:  f.Message,
	}
	if _, ok := r.seen[key]; ok {
		return
	}
	r.seen[key] = struct{}{}
	if r.next != nil {
		r.next.Report(f)
	}
}
