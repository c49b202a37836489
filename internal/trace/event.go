package trace

import "time"

// Kind represents the type of trace event.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint
	KindHeartbeat
)

func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	case KindHeartbeat:
		return "heartbeat"
	default:
		return "unknown"
	}
}

// Scope is the granularity of an event; lower values are coarser.
type Scope uint8

const (
	ScopeRun    Scope = iota + 1 // whole invocation
	ScopeModule                  // one Odoo module
	ScopeCheck                   // one check method
	ScopeFile                    // one parsed or rewritten file
)

func (s Scope) String() string {
	switch s {
	case ScopeRun:
		return "run"
	case ScopeModule:
		return "module"
	case ScopeCheck:
		return "check"
	case ScopeFile:
		return "file"
	default:
		return "unknown"
	}
}

// Event is a single trace record.
type Event struct {
	Time     time.Time
	Seq      uint64
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64 // 0 for roots
	GID      uint64
	Name     string // "check", "module", "check_xml_records"
	Module   string // set under WithModule
	Detail   string
	Extra    map[string]string
}
