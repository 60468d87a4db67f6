// internal/poller/poller.go
package poller

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/tamzrod/inverter-mqtt/internal/compute"
	"github.com/tamzrod/inverter-mqtt/internal/decode"
	"github.com/tamzrod/inverter-mqtt/internal/health"
	"github.com/tamzrod/inverter-mqtt/internal/obs"
	"github.com/tamzrod/inverter-mqtt/internal/registry"
	"github.com/tamzrod/inverter-mqtt/internal/sink"
	"github.com/tamzrod/inverter-mqtt/internal/telemetry"
)

// Scheduler is a dumb, clock-driven poller for one inverter. Each cycle
// reads the configured groups, decodes what survived, and publishes the
// partial or full batch. Retry policy lives here and nowhere else.
type Scheduler struct {
	cfg    Config
	reader Reader
	snk    sink.Sink
	engine *compute.Engine

	plans  []groupPlan
	health health.Snapshot
}

// New creates a scheduler with immutable config and pre-resolved read
// geometry. Group resolution failures are fatal: the process must not
// start with a group it cannot poll.
func New(cfg Config, reader Reader, reg *registry.Map, snk sink.Sink, engine *compute.Engine) (*Scheduler, error) {
	if cfg.Inverter == "" {
		return nil, errors.New("poller: inverter name required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if reader == nil {
		return nil, errors.New("poller: reader required")
	}
	if cfg.Retries < 1 {
		cfg.Retries = 1
	}
	if cfg.MaxReadRegisters == 0 || cfg.MaxReadRegisters > 125 {
		cfg.MaxReadRegisters = 125
	}

	groups := cfg.Groups
	if len(groups) == 0 {
		groups = reg.Groups()
	}
	plans := make([]groupPlan, 0, len(groups))
	for _, name := range groups {
		defs, err := reg.Group(name)
		if err != nil {
			return nil, err
		}
		plans = append(plans, groupPlan{
			name:  name,
			spans: splitSpans(defs, cfg.MaxReadRegisters),
		})
	}

	if snk == nil {
		snk = sink.Discard{}
	}

	obs.Init()
	return &Scheduler{
		cfg:    cfg,
		reader: reader,
		snk:    snk,
		engine: engine,
		plans:  plans,
	}, nil
}

// Health returns the snapshot after the most recent cycle.
func (s *Scheduler) Health() health.Snapshot { return s.health }

// PollOnce performs exactly one poll cycle. Groups fail independently:
// a failed group is dropped from the batch, the rest still publish.
func (s *Scheduler) PollOnce(ctx context.Context) CycleResult {
	started := time.Now()
	res := CycleResult{At: started}
	batch := telemetry.Batch{Inverter: s.cfg.Inverter, At: started}

	var lastErr error
	for _, plan := range s.plans {
		values, err := s.readGroup(ctx, plan, started)
		if err != nil {
			lastErr = err
			res.Failed = append(res.Failed, plan.name)
			obs.GroupFailures.WithLabelValues(s.cfg.Inverter, plan.name).Inc()
			log.Printf("poller: %s: group %s failed: %v", s.cfg.Inverter, plan.name, err)
			continue
		}
		batch.Values = append(batch.Values, values...)
	}

	succeeded := len(s.plans) - len(res.Failed)
	if succeeded > 0 {
		if s.engine != nil {
			s.engine.Eval(&batch)
		}
		res.Batch = batch
		if err := s.snk.Publish(ctx, batch); err != nil {
			// delivery is best-effort; the cycle's read outcome stands
			obs.PublishFailures.WithLabelValues(s.cfg.Inverter).Inc()
			log.Printf("poller: %s: publish failed: %v", s.cfg.Inverter, err)
		}
	}

	res.Outage = s.health.Observe(started, succeeded, len(res.Failed), s.cfg.OutageCycles, lastErr)
	res.Health = s.health

	obs.CyclesTotal.WithLabelValues(s.cfg.Inverter).Inc()
	if res.Degraded() {
		obs.CyclesDegraded.WithLabelValues(s.cfg.Inverter).Inc()
	}
	obs.CycleDuration.WithLabelValues(s.cfg.Inverter).Observe(time.Since(started).Seconds())
	obs.HealthState.WithLabelValues(s.cfg.Inverter).Set(float64(s.health.State))
	obs.LastCycleTimestamp.WithLabelValues(s.cfg.Inverter).Set(float64(started.Unix()))
	return res
}

// readGroup reads and decodes one group. The whole group retries as a
// unit; decode errors are internal invariant violations and are never
// retried.
func (s *Scheduler) readGroup(ctx context.Context, plan groupPlan, at time.Time) ([]telemetry.Value, error) {
	payloads := make([][]byte, len(plan.spans))

	var lastErr error
attempts:
	for attempt := 1; attempt <= s.cfg.Retries; attempt++ {
		if attempt > 1 {
			obs.ReadRetries.WithLabelValues(s.cfg.Inverter, plan.name).Inc()
			if err := sleep(ctx, s.cfg.Backoff*time.Duration(attempt-1)); err != nil {
				return nil, err
			}
		}

		for i, span := range plan.spans {
			payload, err := s.reader.ReadRegisters(ctx, span.start, span.count)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				lastErr = err
				continue attempts
			}
			payloads[i] = payload
		}
		lastErr = nil
		break
	}
	if lastErr != nil {
		return nil, fmt.Errorf("after %d attempts: %w", s.cfg.Retries, lastErr)
	}

	var values []telemetry.Value
	for i, span := range plan.spans {
		vs, err := decode.Registers(span.defs, span.start, payloads[i], at)
		if err != nil {
			return nil, err
		}
		values = append(values, vs...)
	}
	return values, nil
}

// splitSpans packs a group's definitions into wire requests of at most
// max registers each. Definitions never straddle a request boundary;
// holes between definitions are read and ignored, which keeps request
// count low for sparse groups.
func splitSpans(defs []registry.Definition, max uint16) []readSpan {
	sorted := make([]registry.Definition, len(defs))
	copy(sorted, defs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Address < sorted[j].Address })

	var spans []readSpan
	var cur *readSpan

	for _, d := range sorted {
		end := d.End()
		if cur != nil && uint32(end)-uint32(cur.start)+1 <= uint32(max) {
			cur.defs = append(cur.defs, d)
			if need := end - cur.start + 1; need > cur.count {
				cur.count = need
			}
			continue
		}
		spans = append(spans, readSpan{
			start: d.Address,
			count: end - d.Address + 1,
			defs:  []registry.Definition{d},
		})
		cur = &spans[len(spans)-1]
	}
	return spans
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
