// internal/config/config.go
package config

type Config struct {
	MQTT      MQTTConfig       `mapstructure:"mqtt"`
	Metrics   MetricsConfig    `mapstructure:"metrics"`
	Archive   ArchiveConfig    `mapstructure:"archive"`
	Inverters []InverterConfig `mapstructure:"inverters"`
}

// ---- MQTT ----

type MQTTConfig struct {
	Broker            string `mapstructure:"broker"`
	ClientID          string `mapstructure:"client_id"`
	Username          string `mapstructure:"username"`
	Password          string `mapstructure:"password"`
	Prefix            string `mapstructure:"prefix"`
	QoS               uint8  `mapstructure:"qos"`
	SuppressUnchanged bool   `mapstructure:"suppress_unchanged"`
}

// ---- OBSERVABILITY ----

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
}

// ---- ARCHIVE ----

type ArchiveConfig struct {
	Driver string `mapstructure:"driver"` // "", file, postgres, mysql
	Path   string `mapstructure:"path"`
	DSN    string `mapstructure:"dsn"`
}

// ---- INVERTER ----

type InverterConfig struct {
	Name   string `mapstructure:"name"`
	Family string `mapstructure:"family"` // string, micro, hybrid
	Mode   string `mapstructure:"mode"`   // logger, modbustcp

	Endpoint     string `mapstructure:"endpoint"`
	LoggerSerial uint32 `mapstructure:"logger_serial"` // logger mode only
	UnitID       uint8  `mapstructure:"unit_id"`

	// Groups selects register groups from the family catalogue.
	// Empty means all groups.
	Groups []string `mapstructure:"groups"`

	// RegisterOverlay points at a YAML file of extra or replacement
	// register definitions layered over the family catalogue.
	RegisterOverlay string `mapstructure:"register_overlay"`

	// Computed maps derived metric names to expressions evaluated
	// against each decoded batch.
	Computed map[string]string `mapstructure:"computed"`

	Poll PollConfig `mapstructure:"poll"`
}

// ---- POLL ----

type PollConfig struct {
	IntervalMs       int `mapstructure:"interval_ms"`
	TimeoutMs        int `mapstructure:"timeout_ms"`
	MaxReadRegisters int `mapstructure:"max_read_registers"`
	Retries          int `mapstructure:"retries"` // total attempts per group
	BackoffMs        int `mapstructure:"backoff_ms"`
	OutageCycles     int `mapstructure:"outage_cycles"`
}
