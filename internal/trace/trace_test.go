package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestLevelShouldEmit(t *testing.T) {
	tests := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeRun, false},
		{LevelError, ScopeRun, true},
		{LevelError, ScopeModule, false},
		{LevelPhase, ScopeModule, true},
		{LevelPhase, ScopeCheck, false},
		{LevelDetail, ScopeCheck, true},
		{LevelDetail, ScopeFile, false},
		{LevelDebug, ScopeFile, true},
	}
	for _, tt := range tests {
		if got := tt.level.ShouldEmit(tt.scope); got != tt.want {
			t.Errorf("%s.ShouldEmit(%s) = %v, want %v", tt.level, tt.scope, got, tt.want)
		}
	}
}

func TestStartSpanNestsUnderContext(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDetail, FormatNDJSON)
	ctx := WithTracer(context.Background(), tr)

	ctx, run := StartSpan(ctx, ScopeRun, "run")
	mctx, mod := StartSpan(ctx, ScopeModule, "module:sale")
	Point(mctx, ScopeCheck, "warning", "something odd")
	_, file := StartSpan(mctx, ScopeFile, "file:a.xml")
	file.End("")
	mod.End("")
	run.End("")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	// файловый span отфильтрован уровнем detail
	if len(lines) != 5 {
		t.Fatalf("expected 5 events, got %d:\n%s", len(lines), buf.String())
	}
	var events []jsonEvent
	for _, l := range lines {
		var ev jsonEvent
		if err := json.Unmarshal([]byte(l), &ev); err != nil {
			t.Fatalf("bad ndjson line %q: %v", l, err)
		}
		events = append(events, ev)
	}
	if events[1].ParentID != events[0].SpanID {
		t.Fatalf("module span parent = %d, want %d", events[1].ParentID, events[0].SpanID)
	}
	if events[2].Kind != "point" || events[2].ParentID != events[1].SpanID {
		t.Fatalf("point event = %+v", events[2])
	}
}

func TestRingDumpAfterWrap(t *testing.T) {
	var stream bytes.Buffer
	tr, err := New(Config{Level: LevelDebug, Mode: ModeBoth, Output: &stream, RingSize: 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, name := range []string{"a", "b", "c"} {
		Begin(tr, ScopeCheck, name, 0)
	}
	ring := Ring(tr)
	if ring == nil {
		t.Fatalf("Ring did not find the ring tracer")
	}
	var buf bytes.Buffer
	if err := ring.Dump(&buf, FormatText, ""); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "→ a") || !strings.Contains(out, "→ b") || !strings.Contains(out, "→ c") {
		t.Fatalf("unexpected dump:\n%s", out)
	}
	if n := strings.Count(stream.String(), "\n"); n != 3 {
		t.Fatalf("stream got %d events, want 3", n)
	}
}

func TestModuleTagging(t *testing.T) {
	ring := NewRingTracer(16, LevelDetail)
	ctx := WithTracer(context.Background(), ring)
	Point(ctx, ScopeRun, "dropped", "x.txt")
	for _, name := range []string{"sale", "stock"} {
		mctx := WithModule(ctx, name)
		if ModuleOf(mctx) != name {
			t.Fatalf("ModuleOf = %q", ModuleOf(mctx))
		}
		_, span := StartSpan(mctx, ScopeModule, "module")
		if ModulesInFlight() != 1 {
			t.Fatalf("in flight = %d", ModulesInFlight())
		}
		Point(mctx, ScopeCheck, "warning", name+" warning")
		span.End("")
	}
	if ModulesInFlight() != 0 {
		t.Fatalf("in flight after end = %d", ModulesInFlight())
	}

	var buf bytes.Buffer
	if err := ring.Dump(&buf, FormatText, "stock"); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "@sale") || !strings.Contains(out, "→ module @stock") || !strings.Contains(out, "dropped (x.txt)") {
		t.Fatalf("unexpected dump:\n%s", out)
	}
}

func TestHeartbeatStop(t *testing.T) {
	ring := NewRingTracer(8, LevelError)
	stop := StartHeartbeat(ring, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	stop()
	stop()
	n := len(ring.Snapshot())
	if n == 0 {
		t.Fatalf("no heartbeat recorded")
	}
	time.Sleep(5 * time.Millisecond)
	if len(ring.Snapshot()) != n {
		t.Fatalf("heartbeat kept running after stop")
	}
	if StartHeartbeat(Nop, time.Millisecond) == nil {
		t.Fatalf("expected a callable stop for a disabled tracer")
	}
}

func TestNewOffIsNop(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if tr.Enabled() {
		t.Fatalf("off tracer must be disabled")
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
