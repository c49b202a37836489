package diag

// Reporter: минимальный контракт получения находок от правил.
// Реализации: BagReporter (кладёт в Bag), FilterReporter, DedupReporter, NopReporter.
type Reporter interface {
	Report(f Finding)
}

// ReportBuilder accumulates finding details before emitting to Reporter.
type ReportBuilder struct {
	reporter Reporter
	finding  Finding
	emitted  bool
}

// Build constructs a builder bound to Reporter.
func Build(r Reporter, code Code, path string, line int, msg string) *ReportBuilder {
	return &ReportBuilder{
		reporter: r,
		finding:  New(code, path, line, msg),
	}
}

// WithInfo sets the remediation hint.
func (b *ReportBuilder) WithInfo(info string) *ReportBuilder {
	if b == nil {
		return nil
	}
	b.finding = b.finding.WithInfo(info)
	return b
}

// WithColumn sets the 1-based column.
func (b *ReportBuilder) WithColumn(col int) *ReportBuilder {
	if b == nil {
		return nil
	}
	b.finding = b.finding.WithColumn(col)
	return b
}

// WithExtra appends other occurrences.
func (b *ReportBuilder) WithExtra(pos ...Position) *ReportBuilder {
	if b == nil {
		return nil
	}
	b.finding = b.finding.WithExtra(pos...)
	return b
}

// Emit sends the finding to underlying reporter exactly once.
func (b *ReportBuilder) Emit() {
	if b == nil || b.emitted {
		return
	}
	if b.reporter != nil {
		b.reporter.Report(b.finding)
	}
	b.emitted = true
}

// Finding returns accumulated finding without emitting.
func (b *ReportBuilder) Finding() Finding {
	if b == nil {
		return Finding{}
	}
	return b.finding
}

// BagReporter: адаптер, который пишет в *Bag.
type BagReporter struct{ Bag *Bag }

func (r BagReporter) Report(f Finding) {
	if r.Bag == nil {
		return
	}
	r.Bag.Add(f)
}

// FilterReporter forwards only findings accepted by Allow.
type FilterReporter struct {
	Next  Reporter
	Allow func(Finding) bool
}

func (r FilterReporter) Report(f Finding) {
	if r.Next == nil {
		return
	}
	if r.Allow != nil && !r.Allow(f) {
		return
	}
	r.Next.Report(f)
}

// NopReporter drops everything.
type NopReporter struct{}

func (NopReporter) Report(Finding) {}
