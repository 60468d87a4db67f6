// internal/registry/deye_micro.go
package registry

// Register catalogue for Deye microinverters (SUN600/800/1000/2000G3).
// The daily counters on these units reset with the logger, not at
// midnight; the micro "production" group is the one typically polled.
var microGroups = map[string][]Definition{
	"micro": {
		{Name: "pv1_voltage", Address: 0x006D, Length: 1, Kind: Unsigned, Scale: 0.1, Unit: "V"},
		{Name: "pv1_current", Address: 0x006E, Length: 1, Kind: Unsigned, Scale: 0.1, Unit: "A"},
		{Name: "pv2_voltage", Address: 0x006F, Length: 1, Kind: Unsigned, Scale: 0.1, Unit: "V"},
		{Name: "pv2_current", Address: 0x0070, Length: 1, Kind: Unsigned, Scale: 0.1, Unit: "A"},
		{Name: "pv3_voltage", Address: 0x0071, Length: 1, Kind: Unsigned, Scale: 0.1, Unit: "V"},
		{Name: "pv3_current", Address: 0x0072, Length: 1, Kind: Unsigned, Scale: 0.1, Unit: "A"},
		{Name: "pv4_voltage", Address: 0x0073, Length: 1, Kind: Unsigned, Scale: 0.1, Unit: "V"},
		{Name: "pv4_current", Address: 0x0074, Length: 1, Kind: Unsigned, Scale: 0.1, Unit: "A"},
	},
	"production": {
		{Name: "daily_energy", Address: 0x003C, Length: 1, Kind: Unsigned, Scale: 0.1, Unit: "kWh"},
		{Name: "total_energy", Address: 0x003F, Length: 2, Kind: Unsigned, Scale: 0.1, Unit: "kWh", LowWordFirst: true},
		{Name: "pv1_daily_energy", Address: 0x0041, Length: 1, Kind: Unsigned, Scale: 0.1, Unit: "kWh"},
		{Name: "pv2_daily_energy", Address: 0x0042, Length: 1, Kind: Unsigned, Scale: 0.1, Unit: "kWh"},
		{Name: "operating_power", Address: 0x0056, Length: 1, Kind: Unsigned, Scale: 0.1, Unit: "W"},
		{Name: "radiator_temp", Address: 0x005A, Length: 1, Kind: Signed, Scale: 0.1, Offset: -10, Unit: "°C"},
	},
}
