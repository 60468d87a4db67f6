// internal/config/validate.go
package config

import (
	"fmt"
)

var validFamilies = map[string]bool{
	"string": true,
	"micro":  true,
	"hybrid": true,
}

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if len(cfg.Inverters) == 0 {
		return fmt.Errorf("at least one inverter is required")
	}

	// ------------------------------------------------------------
	// GLOBAL SURFACES
	// ------------------------------------------------------------

	if cfg.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker is required")
	}
	if cfg.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", cfg.MQTT.QoS)
	}

	switch cfg.Archive.Driver {
	case "", "file", "postgres", "mysql":
	default:
		return fmt.Errorf("archive.driver %q is not supported", cfg.Archive.Driver)
	}
	if cfg.Archive.Driver == "file" && cfg.Archive.Path == "" {
		return fmt.Errorf("archive.driver=file requires archive.path")
	}
	if (cfg.Archive.Driver == "postgres" || cfg.Archive.Driver == "mysql") && cfg.Archive.DSN == "" {
		return fmt.Errorf("archive.driver=%s requires archive.dsn", cfg.Archive.Driver)
	}

	// ------------------------------------------------------------
	// PER-INVERTER VALIDATION
	// ------------------------------------------------------------

	names := make(map[string]bool)

	for _, inv := range cfg.Inverters {
		if inv.Name == "" {
			return fmt.Errorf("inverter name is required")
		}
		if names[inv.Name] {
			return fmt.Errorf("inverter %q: duplicate name", inv.Name)
		}
		names[inv.Name] = true

		if !validFamilies[inv.Family] {
			return fmt.Errorf("inverter %q: unknown family %q", inv.Name, inv.Family)
		}
		if inv.Endpoint == "" {
			return fmt.Errorf("inverter %q: endpoint is required", inv.Name)
		}

		switch inv.Mode {
		case "", "logger":
			if inv.LoggerSerial == 0 {
				return fmt.Errorf("inverter %q: logger mode requires logger_serial", inv.Name)
			}
		case "modbustcp":
			// plain Modbus TCP carries no logger framing; serial is unused
		default:
			return fmt.Errorf("inverter %q: unknown mode %q", inv.Name, inv.Mode)
		}

		p := inv.Poll
		if p.IntervalMs < 0 || p.TimeoutMs < 0 || p.BackoffMs < 0 {
			return fmt.Errorf("inverter %q: poll durations must not be negative", inv.Name)
		}
		if p.Retries < 0 || p.OutageCycles < 0 {
			return fmt.Errorf("inverter %q: poll counts must not be negative", inv.Name)
		}
		if p.MaxReadRegisters < 0 || p.MaxReadRegisters > 125 {
			return fmt.Errorf("inverter %q: max_read_registers must be within 1..125", inv.Name)
		}
	}

	return nil
}
