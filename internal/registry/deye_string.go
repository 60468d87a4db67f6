// internal/registry/deye_string.go
package registry

// Register catalogue for Deye three-phase string inverters (SUN-xK-G03
// series). Addresses follow the vendor's Modbus map for the 0x02xx/0x03xx
// input register block.
var stringGroups = map[string][]Definition{
	"string": {
		{Name: "pv1_voltage", Address: 0x0326, Length: 1, Kind: Unsigned, Scale: 0.1, Unit: "V"},
		{Name: "pv1_current", Address: 0x0327, Length: 1, Kind: Unsigned, Scale: 0.1, Unit: "A"},
		{Name: "pv2_voltage", Address: 0x0328, Length: 1, Kind: Unsigned, Scale: 0.1, Unit: "V"},
		{Name: "pv2_current", Address: 0x0329, Length: 1, Kind: Unsigned, Scale: 0.1, Unit: "A"},
		{Name: "pv3_voltage", Address: 0x032A, Length: 1, Kind: Unsigned, Scale: 0.1, Unit: "V"},
		{Name: "pv3_current", Address: 0x032B, Length: 1, Kind: Unsigned, Scale: 0.1, Unit: "A"},
		{Name: "pv4_voltage", Address: 0x032C, Length: 1, Kind: Unsigned, Scale: 0.1, Unit: "V"},
		{Name: "pv4_current", Address: 0x032D, Length: 1, Kind: Unsigned, Scale: 0.1, Unit: "A"},
	},
	"ac": {
		{Name: "ac_l1_voltage", Address: 0x0296, Length: 1, Kind: Unsigned, Scale: 0.1, Unit: "V"},
		{Name: "ac_l2_voltage", Address: 0x0297, Length: 1, Kind: Unsigned, Scale: 0.1, Unit: "V"},
		{Name: "ac_l3_voltage", Address: 0x0298, Length: 1, Kind: Unsigned, Scale: 0.1, Unit: "V"},
		{Name: "ac_l1_current", Address: 0x0299, Length: 1, Kind: Unsigned, Scale: 0.1, Unit: "A"},
		{Name: "ac_l2_current", Address: 0x029A, Length: 1, Kind: Unsigned, Scale: 0.1, Unit: "A"},
		{Name: "ac_l3_current", Address: 0x029B, Length: 1, Kind: Unsigned, Scale: 0.1, Unit: "A"},
		{Name: "ac_frequency", Address: 0x029C, Length: 1, Kind: Unsigned, Scale: 0.01, Unit: "Hz"},
		{Name: "active_power", Address: 0x02A0, Length: 2, Kind: Signed, Scale: 0.1, Unit: "W", LowWordFirst: true},
	},
	"production": {
		{Name: "daily_energy", Address: 0x0302, Length: 1, Kind: Unsigned, Scale: 0.1, Unit: "kWh"},
		{Name: "total_energy", Address: 0x0304, Length: 2, Kind: Unsigned, Scale: 0.1, Unit: "kWh", LowWordFirst: true},
		{Name: "radiator_temp", Address: 0x030A, Length: 1, Kind: Signed, Scale: 0.01, Offset: -10, Unit: "°C"},
		{Name: "alert_flags", Address: 0x030C, Length: 2, Kind: Bitflags, Unit: ""},
	},
}
