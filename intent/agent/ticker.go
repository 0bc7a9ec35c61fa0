package agent

import (
	"sync"
	"time"
)

// periodicTask runs fn every interval until stopped. Start and Stop are
// idempotent and its lifecycle is tied 1:1 to the armed state of the
// sub-behavior that owns it.
type periodicTask struct {
	interval time.Duration
	fn       func()

	mu   sync.Mutex
	stop chan struct{}
}

func newPeriodicTask(interval time.Duration, fn func()) *periodicTask {
	return &periodicTask{interval: interval, fn: fn}
}

func (t *periodicTask) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stop != nil {
		return
	}
	stop := make(chan struct{})
	t.stop = stop

	go func() {
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				t.fn()
			}
		}
	}()
}

func (t *periodicTask) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stop == nil {
		return
	}
	close(t.stop)
	t.stop = nil
}
