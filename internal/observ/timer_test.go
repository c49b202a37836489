package observ

import (
	"strings"
	"testing"
	"time"
)

func TestAddAccumulates(t *testing.T) {
	tm := NewTimer()
	idx := tm.Begin("discover")
	tm.End(idx, "2 modules")
	tm.Add("manifest", 3*time.Millisecond)
	tm.Add("manifest", 2*time.Millisecond)

	r := tm.Report()
	if len(r.Phases) != 2 {
		t.Fatalf("phases = %+v", r.Phases)
	}
	m := r.Phases[1]
	if m.Name != "manifest" || m.Count != 2 || m.DurationMS != 5 {
		t.Fatalf("manifest phase = %+v", m)
	}
	// accumulated phases stay out of the total
	if r.TotalMS != r.Phases[0].DurationMS {
		t.Fatalf("total %.3f, discover %.3f", r.TotalMS, r.Phases[0].DurationMS)
	}
	s := tm.Summary()
	if !strings.Contains(s, "x2") || !strings.Contains(s, "// 2 modules") {
		t.Fatalf("summary:\n%s", s)
	}
}

func TestNilTimer(t *testing.T) {
	var tm *Timer
	tm.End(tm.Begin("x"), "")
	tm.Add("y", time.Second)
	if r := tm.Report(); len(r.Phases) != 0 {
		t.Fatalf("nil timer reported %+v", r)
	}
}
