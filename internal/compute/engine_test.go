// internal/compute/engine_test.go
package compute

import (
	"testing"
	"time"

	"github.com/tamzrod/inverter-mqtt/internal/telemetry"
)

func batch(values ...telemetry.Value) telemetry.Batch {
	return telemetry.Batch{
		Inverter: "garage",
		At:       time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		Values:   values,
	}
}

func TestEval_DerivedMetric(t *testing.T) {
	e, err := New(map[string]string{
		"pv1_power": `m["pv1_voltage"] * m["pv1_current"]`,
	})
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	b := batch(
		telemetry.Value{Name: "pv1_voltage", Value: 230.5},
		telemetry.Value{Name: "pv1_current", Value: 2.0},
	)
	e.Eval(&b)

	if len(b.Values) != 3 {
		t.Fatalf("values = %d, want 3", len(b.Values))
	}
	got := b.Values[2]
	if got.Name != "pv1_power" || got.Value != 461.0 {
		t.Fatalf("derived = %+v, want pv1_power 461", got)
	}
	if !got.At.Equal(b.At) {
		t.Fatalf("derived timestamp = %v, want batch time", got.At)
	}
}

func TestEval_MissingInputSkipped(t *testing.T) {
	e, err := New(map[string]string{
		"broken": `m["no_such_metric"] * 2`,
		"fine":   `m["x"] + 1`,
	})
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	b := batch(telemetry.Value{Name: "x", Value: 1})
	e.Eval(&b)

	// NaN result is dropped, the healthy expression survives
	if len(b.Values) != 2 {
		t.Fatalf("values = %d, want 2", len(b.Values))
	}
	if b.Values[1].Name != "fine" || b.Values[1].Value != 2 {
		t.Fatalf("got %+v, want fine=2", b.Values[1])
	}
}

func TestNew_CompileErrorAtStartup(t *testing.T) {
	if _, err := New(map[string]string{"bad": `m[`}); err == nil {
		t.Fatal("expected compile error")
	}
}

func TestReload_KeepsOldSetOnFailure(t *testing.T) {
	e, err := New(map[string]string{"double": `m["x"] * 2`})
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	if err := e.Reload(map[string]string{"broken": `(((`}); err == nil {
		t.Fatal("expected reload compile error")
	}

	b := batch(telemetry.Value{Name: "x", Value: 3})
	e.Eval(&b)
	if len(b.Values) != 2 || b.Values[1].Value != 6 {
		t.Fatalf("old expression set lost: %+v", b.Values)
	}

	if err := e.Reload(map[string]string{"triple": `m["x"] * 3`}); err != nil {
		t.Fatalf("Reload() err=%v", err)
	}
	b = batch(telemetry.Value{Name: "x", Value: 3})
	e.Eval(&b)
	if len(b.Values) != 2 || b.Values[1].Name != "triple" || b.Values[1].Value != 9 {
		t.Fatalf("new expression set not applied: %+v", b.Values)
	}
}

func TestEval_EmptySetIsNoop(t *testing.T) {
	e, err := New(nil)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	b := batch(telemetry.Value{Name: "x", Value: 1})
	e.Eval(&b)
	if len(b.Values) != 1 {
		t.Fatalf("values = %d, want 1", len(b.Values))
	}
}
