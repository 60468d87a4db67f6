// internal/poller/builder.go
package poller

import (
	"fmt"
	"time"

	"github.com/tamzrod/inverter-mqtt/internal/compute"
	cfg "github.com/tamzrod/inverter-mqtt/internal/config"
	"github.com/tamzrod/inverter-mqtt/internal/protocol"
	"github.com/tamzrod/inverter-mqtt/internal/registry"
	"github.com/tamzrod/inverter-mqtt/internal/sink"
	"github.com/tamzrod/inverter-mqtt/internal/transport"
	"github.com/tamzrod/inverter-mqtt/internal/transport/modbustcp"
)

// Build constructs a scheduler for one inverter and wires its transport
// lifecycle. The compute engine is returned separately so config reloads
// can swap expression sets on a running scheduler.
func Build(inv cfg.InverterConfig, snk sink.Sink) (*Scheduler, *compute.Engine, func() error, error) {
	reg, err := registry.Builtin(inv.Family)
	if err != nil {
		return nil, nil, nil, err
	}
	if inv.RegisterOverlay != "" {
		if reg, err = registry.LoadOverlay(reg, inv.RegisterOverlay); err != nil {
			return nil, nil, nil, err
		}
	}

	engine, err := compute.New(inv.Computed)
	if err != nil {
		return nil, nil, nil, err
	}

	timeout := time.Duration(inv.Poll.TimeoutMs) * time.Millisecond

	var reader Reader
	var closer func() error
	switch inv.Mode {
	case "logger":
		codec := &protocol.Codec{
			Serial: inv.LoggerSerial,
			Unit:   inv.UnitID,
			Limit:  uint16(inv.Poll.MaxReadRegisters),
		}
		r := transport.NewLoggerReader(codec, transport.New(inv.Endpoint, timeout, timeout))
		reader, closer = r, r.Close
	case "modbustcp":
		c, err := modbustcp.New(modbustcp.Config{
			Endpoint: inv.Endpoint,
			UnitID:   inv.UnitID,
			Timeout:  timeout,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		reader, closer = c, c.Close
	default:
		return nil, nil, nil, fmt.Errorf("poller: inverter %q: unknown mode %q", inv.Name, inv.Mode)
	}

	s, err := New(
		Config{
			Inverter:         inv.Name,
			Interval:         time.Duration(inv.Poll.IntervalMs) * time.Millisecond,
			Groups:           inv.Groups,
			MaxReadRegisters: uint16(inv.Poll.MaxReadRegisters),
			Retries:          inv.Poll.Retries,
			Backoff:          time.Duration(inv.Poll.BackoffMs) * time.Millisecond,
			OutageCycles:     inv.Poll.OutageCycles,
		},
		reader, reg, snk, engine,
	)
	if err != nil {
		closer()
		return nil, nil, nil, err
	}
	return s, engine, closer, nil
}
