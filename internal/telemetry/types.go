// internal/telemetry/types.go
package telemetry

import "time"

// Value is one decoded measurement produced by a poll cycle.
type Value struct {
	Name  string    `json:"name"`
	Value float64   `json:"value"`
	Unit  string    `json:"unit,omitempty"`
	Topic string    `json:"-"` // topic suffix for the MQTT sink
	At    time.Time `json:"at"`
}

// Batch is the ordered set of values from one poll cycle.
// It is handed to the sink as a unit: either the whole batch (or the
// surviving groups of a degraded cycle) is delivered, or nothing is.
type Batch struct {
	Inverter string    `json:"inverter"`
	At       time.Time `json:"at"`
	Values   []Value   `json:"values"`
}
