// internal/poller/poller_test.go
package poller

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/tamzrod/inverter-mqtt/internal/registry"
	"github.com/tamzrod/inverter-mqtt/internal/sink"
	"github.com/tamzrod/inverter-mqtt/internal/telemetry"
)

// fakeReader serves registers whose raw value equals their address and
// fails the first `failures` calls with err.
type fakeReader struct {
	failures int
	err      error
	calls    int
}

func (f *fakeReader) ReadRegisters(_ context.Context, start, count uint16) ([]byte, error) {
	f.calls++
	if f.failures > 0 {
		f.failures--
		return nil, f.err
	}
	payload := make([]byte, 2*count)
	for i := uint16(0); i < count; i++ {
		binary.BigEndian.PutUint16(payload[2*i:], start+i)
	}
	return payload, nil
}

type fakeSink struct {
	batches []telemetry.Batch
	err     error
}

func (f *fakeSink) Publish(_ context.Context, b telemetry.Batch) error {
	f.batches = append(f.batches, b)
	return f.err
}

func testMap(t *testing.T) *registry.Map {
	t.Helper()
	m, err := registry.New("string", map[string][]registry.Definition{
		"pv": {
			{Name: "pv1_voltage", Address: 0x0326, Length: 1, Kind: registry.Unsigned, Scale: 0.1, Unit: "V"},
			{Name: "pv1_current", Address: 0x0327, Length: 1, Kind: registry.Unsigned, Scale: 0.1, Unit: "A"},
		},
		"energy": {
			{Name: "total_energy", Address: 0x0304, Length: 2, Kind: registry.Unsigned, Scale: 0.1, Unit: "kWh", LowWordFirst: true},
		},
	})
	if err != nil {
		t.Fatalf("registry.New() err=%v", err)
	}
	return m
}

func testConfig() Config {
	return Config{
		Inverter:     "garage",
		Interval:     time.Minute,
		Groups:       []string{"pv", "energy"},
		Retries:      3,
		Backoff:      time.Millisecond,
		OutageCycles: 5,
	}
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestPollOnce_FullBatch(t *testing.T) {
	snk := &fakeSink{}
	s, err := New(testConfig(), &fakeReader{}, testMap(t), snk, nil)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	res := s.PollOnce(context.Background())
	if res.Degraded() || res.Outage {
		t.Fatalf("clean cycle reported %+v", res)
	}
	if len(snk.batches) != 1 {
		t.Fatalf("published %d batches, want 1", len(snk.batches))
	}

	got := map[string]float64{}
	for _, v := range res.Batch.Values {
		got[v.Name] = v.Value
	}
	// pv1_voltage: register 0x0326 holds 0x0326 = 806 raw, scaled by 0.1
	if !near(got["pv1_voltage"], 80.6) {
		t.Errorf("pv1_voltage = %v, want 80.6", got["pv1_voltage"])
	}
	// total_energy: low word first, 0x0305<<16 | 0x0304 = 50660100 raw
	if !near(got["total_energy"], 5066010.0) {
		t.Errorf("total_energy = %v, want 5066010.0", got["total_energy"])
	}
}

func TestPollOnce_RetrySucceedsWithinBudget(t *testing.T) {
	snk := &fakeSink{}
	// the first group's first two attempts fail; its third succeeds
	reader := &fakeReader{failures: 2, err: errors.New("timeout")}
	s, err := New(testConfig(), reader, testMap(t), snk, nil)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	res := s.PollOnce(context.Background())
	if res.Degraded() {
		t.Fatalf("expected full batch after retries, failed groups: %v", res.Failed)
	}
	if len(res.Batch.Values) != 3 {
		t.Fatalf("values = %d, want 3", len(res.Batch.Values))
	}
	if res.Health.State.String() != "ok" {
		t.Fatalf("health = %v, want ok", res.Health.State)
	}
}

func TestPollOnce_PartialBatch(t *testing.T) {
	cfg := testConfig()
	cfg.Retries = 1
	snk := &fakeSink{}
	// single attempt, one failure: first group lost, second reads fine
	reader := &fakeReader{failures: 1, err: errors.New("timeout")}
	s, err := New(cfg, reader, testMap(t), snk, nil)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	res := s.PollOnce(context.Background())
	if !res.Degraded() || len(res.Failed) != 1 || res.Failed[0] != "pv" {
		t.Fatalf("failed groups = %v, want [pv]", res.Failed)
	}
	if len(snk.batches) != 1 {
		t.Fatalf("partial batch must still publish, got %d", len(snk.batches))
	}
	if len(res.Batch.Values) != 1 || res.Batch.Values[0].Name != "total_energy" {
		t.Fatalf("batch = %+v, want total_energy only", res.Batch.Values)
	}
}

func TestPollOnce_OutageFiresOnce(t *testing.T) {
	cfg := testConfig()
	cfg.Retries = 1
	reader := &fakeReader{failures: 1 << 20, err: errors.New("connection refused")}
	s, err := New(cfg, reader, testMap(t), &fakeSink{}, nil)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	outages := 0
	for cycle := 0; cycle < 8; cycle++ {
		res := s.PollOnce(context.Background())
		if res.Outage {
			outages++
			if cycle != 4 {
				t.Fatalf("outage on cycle %d, want cycle 4", cycle)
			}
		}
	}
	if outages != 1 {
		t.Fatalf("outage fired %d times, want exactly once", outages)
	}
}

func TestPollOnce_PublishFailureDoesNotFailCycle(t *testing.T) {
	snk := &fakeSink{err: sink.ErrPublishFailed}
	s, err := New(testConfig(), &fakeReader{}, testMap(t), snk, nil)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	res := s.PollOnce(context.Background())
	if res.Degraded() || res.Outage {
		t.Fatalf("publish failure must not degrade the cycle: %+v", res)
	}
}

func TestPollOnce_CancelDuringBackoff(t *testing.T) {
	cfg := testConfig()
	cfg.Backoff = time.Hour
	reader := &fakeReader{failures: 1 << 20, err: errors.New("timeout")}
	s, err := New(cfg, reader, testMap(t), &fakeSink{}, nil)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan CycleResult, 1)
	go func() { done <- s.PollOnce(ctx) }()

	select {
	case res := <-done:
		if !res.Degraded() {
			t.Fatalf("cancelled cycle must report its failed groups: %+v", res)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("PollOnce did not honor cancellation during backoff")
	}
}

func TestSplitSpans(t *testing.T) {
	defs := make([]registry.Definition, 300)
	for i := range defs {
		defs[i] = registry.Definition{
			Name: "r", Address: uint16(i), Length: 1, Kind: registry.Unsigned, Scale: 1,
		}
	}

	spans := splitSpans(defs, 125)
	want := []struct{ start, count uint16 }{
		{0, 125}, {125, 125}, {250, 50},
	}
	if len(spans) != len(want) {
		t.Fatalf("spans = %d, want %d", len(spans), len(want))
	}
	for i, w := range want {
		if spans[i].start != w.start || spans[i].count != w.count {
			t.Errorf("span %d = {%d %d}, want {%d %d}",
				i, spans[i].start, spans[i].count, w.start, w.count)
		}
	}
	if len(spans[2].defs) != 50 {
		t.Fatalf("last span carries %d defs, want 50", len(spans[2].defs))
	}
}

func TestSplitSpans_SparseGroupSingleRead(t *testing.T) {
	defs := []registry.Definition{
		{Name: "a", Address: 0x0296, Length: 1, Kind: registry.Unsigned, Scale: 1},
		{Name: "b", Address: 0x02A0, Length: 1, Kind: registry.Unsigned, Scale: 1},
	}
	spans := splitSpans(defs, 125)
	if len(spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(spans))
	}
	if spans[0].start != 0x0296 || spans[0].count != 11 {
		t.Fatalf("span = {0x%04x %d}, want {0x0296 11}", spans[0].start, spans[0].count)
	}
}

func TestRun_StopsWithContext(t *testing.T) {
	cfg := testConfig()
	cfg.Interval = 10 * time.Millisecond
	s, err := New(cfg, &fakeReader{}, testMap(t), &fakeSink{}, nil)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cycles := make(chan struct{}, 64)
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, func(CycleResult) { cycles <- struct{}{} })
	}()

	time.Sleep(60 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run() err=%v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on cancellation")
	}
	if len(cycles) < 2 {
		t.Fatalf("cycles = %d, want at least 2", len(cycles))
	}
}
