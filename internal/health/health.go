// internal/health/health.go
package health

import "time"

// State of one inverter's polling pipeline.
type State uint8

const (
	// Unknown is the boot state before the first cycle completes.
	Unknown State = iota
	// OK means the last cycle read every configured group.
	OK
	// Degraded means the last cycle lost at least one group but not all.
	Degraded
	// Outage means every group has failed for at least the configured
	// number of consecutive cycles.
	Outage
)

func (s State) String() string {
	switch s {
	case Unknown:
		return "unknown"
	case OK:
		return "ok"
	case Degraded:
		return "degraded"
	case Outage:
		return "outage"
	default:
		return "invalid"
	}
}

// Snapshot is the scheduler-owned view of one inverter's recent cycles.
// It carries no logic beyond folding in cycle outcomes.
type Snapshot struct {
	State            State
	ConsecutiveFails int // cycles in a row where every group failed
	LastCycleAt      time.Time
	LastError        string
}

// Observe folds one cycle outcome into the snapshot and reports whether
// the sustained-outage threshold was crossed by exactly this cycle. The
// escalation fires once; any cycle with a surviving group re-arms it.
func (s *Snapshot) Observe(at time.Time, succeeded, failed, threshold int, lastErr error) bool {
	s.LastCycleAt = at
	if lastErr != nil {
		s.LastError = lastErr.Error()
	}

	switch {
	case failed == 0:
		s.State = OK
		s.ConsecutiveFails = 0
		s.LastError = ""
		return false
	case succeeded > 0:
		s.State = Degraded
		s.ConsecutiveFails = 0
		return false
	default:
		s.ConsecutiveFails++
		if threshold > 0 && s.ConsecutiveFails >= threshold {
			s.State = Outage
		}
		return threshold > 0 && s.ConsecutiveFails == threshold
	}
}
