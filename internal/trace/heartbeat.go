package trace

import (
	"fmt"
	"sync"
	"time"
)

// StartHeartbeat emits a liveness event every interval until the returned
// stop function is called. The event tells how many modules are still being
// checked; a count that stays put points at a stuck check.
func StartHeartbeat(t Tracer, interval time.Duration) (stop func()) {
	if t == nil || !t.Enabled() || interval <= 0 {
		return func() {}
	}
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for beat := 1; ; beat++ {
			select {
			case <-done:
				return
			case now := <-ticker.C:
				t.Emit(&Event{
					Time:   now,
					Kind:   KindHeartbeat,
					Scope:  ScopeRun,
					GID:    goroutineID(),
					Name:   "heartbeat",
					Detail: fmt.Sprintf("#%d, %d module(s) in flight", beat, ModulesInFlight()),
				})
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			wg.Wait()
		})
	}
}
