// internal/poller/runner.go
package poller

import (
	"context"
	"time"
)

// Run starts the ticker loop. One goroutine per inverter. Cycles never
// overlap: a slow cycle delays the next tick's work, it does not stack.
// onCycle, if non-nil, sees every result; the loop ends with ctx.
func (s *Scheduler) Run(ctx context.Context, onCycle func(CycleResult)) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	// first cycle immediately so startup is observable without waiting
	// out a full interval
	emit(onCycle, s.PollOnce(ctx))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			emit(onCycle, s.PollOnce(ctx))
		}
	}
}

func emit(onCycle func(CycleResult), res CycleResult) {
	if onCycle != nil {
		onCycle(res)
	}
}
