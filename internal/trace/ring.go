package trace

import (
	"io"
	"sync"
)

// RingTracer keeps the last events in memory. It is dumped when a check
// panics, so the events leading to the failure are visible.
type RingTracer struct {
	mu      sync.Mutex
	buf     []Event
	written uint64 // events ever stored
	level   Level
}

// NewRingTracer keeps up to size events, 4096 when size is not positive.
func NewRingTracer(size int, level Level) *RingTracer {
	if size <= 0 {
		size = 4096
	}
	return &RingTracer{buf: make([]Event, size), level: level}
}

// Emit stores ev, overwriting the oldest event once the ring is full.
func (t *RingTracer) Emit(ev *Event) {
	if ev.Kind != KindHeartbeat && !t.level.ShouldEmit(ev.Scope) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	slot := &t.buf[t.written%uint64(len(t.buf))]
	*slot = *ev
	slot.Seq = NextSeq()
	t.written++
}

// Snapshot copies the stored events, oldest first.
func (t *RingTracer) Snapshot() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	size := uint64(len(t.buf))
	n := min(t.written, size)
	out := make([]Event, 0, n)
	for i := t.written - n; i < t.written; i++ {
		out = append(out, t.buf[i%size])
	}
	return out
}

// Dump writes the events of Snapshot. With module set, only the events of
// that module and the ones outside of any module are written.
func (t *RingTracer) Dump(w io.Writer, format Format, module string) error {
	for _, ev := range t.Snapshot() {
		if module != "" && ev.Module != "" && ev.Module != module {
			continue
		}
		if _, err := w.Write(FormatEvent(&ev, format)); err != nil {
			return err
		}
	}
	return nil
}

func (t *RingTracer) Flush() error { return nil }

func (t *RingTracer) Close() error { return nil }

func (t *RingTracer) Level() Level { return t.level }

func (t *RingTracer) Enabled() bool { return t.level > LevelOff }
