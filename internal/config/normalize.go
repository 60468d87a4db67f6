// internal/config/normalize.go
package config

// Normalize applies post-validation defaults.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "inverter-mqtt"
	}
	if cfg.Metrics.Enabled && cfg.Metrics.Listen == "" {
		cfg.Metrics.Listen = ":9100"
	}

	for i := range cfg.Inverters {
		inv := &cfg.Inverters[i]

		if inv.Mode == "" {
			inv.Mode = "logger"
		}
		if inv.UnitID == 0 {
			inv.UnitID = 1
		}

		p := &inv.Poll
		if p.IntervalMs == 0 {
			p.IntervalMs = 60000
		}
		if p.TimeoutMs == 0 {
			p.TimeoutMs = 10000
		}
		if p.MaxReadRegisters == 0 {
			p.MaxReadRegisters = 125
		}
		if p.Retries == 0 {
			p.Retries = 3
		}
		if p.BackoffMs == 0 {
			p.BackoffMs = 500
		}
		if p.OutageCycles == 0 {
			p.OutageCycles = 5
		}
	}
}
