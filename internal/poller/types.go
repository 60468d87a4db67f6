// internal/poller/types.go
package poller

import (
	"context"
	"time"

	"github.com/tamzrod/inverter-mqtt/internal/health"
	"github.com/tamzrod/inverter-mqtt/internal/registry"
	"github.com/tamzrod/inverter-mqtt/internal/telemetry"
)

// Reader abstracts the register transport the scheduler polls through.
// The scheduler depends on geometry only: start and count in, raw
// big-endian register bytes out.
type Reader interface {
	ReadRegisters(ctx context.Context, start, count uint16) ([]byte, error)
}

// Config is the minimal runtime config the scheduler needs.
type Config struct {
	Inverter string
	Interval time.Duration

	// Groups selects register groups from the catalogue. Empty means
	// every group.
	Groups []string

	// MaxReadRegisters caps registers per wire request; group spans
	// wider than this are split into consecutive reads.
	MaxReadRegisters uint16

	Retries      int           // total attempts per group, minimum 1
	Backoff      time.Duration // grows linearly with the attempt number
	OutageCycles int           // consecutive all-failed cycles before escalation
}

// readSpan is one wire request within a group.
type readSpan struct {
	start uint16
	count uint16
	defs  []registry.Definition
}

// groupPlan is a group's pre-resolved read geometry. Plans are computed
// once at construction so cycles never consult the catalogue.
type groupPlan struct {
	name  string
	spans []readSpan
}

// CycleResult is the outcome of one poll cycle.
type CycleResult struct {
	At    time.Time
	Batch telemetry.Batch

	// Failed lists groups that exhausted every attempt, in plan order.
	Failed []string

	Health health.Snapshot

	// Outage is true for exactly the cycle that crossed the sustained
	// outage threshold.
	Outage bool
}

// Degraded reports whether the cycle lost at least one group.
func (r CycleResult) Degraded() bool { return len(r.Failed) > 0 }
