// internal/registry/definition.go
package registry

// Kind selects how a register value is interpreted.
// The set is closed: one decode path per kind, no dynamic dispatch.
type Kind uint8

const (
	// Unsigned is a plain unsigned integer.
	Unsigned Kind = iota
	// Signed is a two's-complement integer.
	Signed
	// SignedMagnitude stores the sign in the most significant bit and the
	// magnitude in the remaining bits. Deye uses this for bidirectional
	// power and current readings.
	SignedMagnitude
	// Bitflags passes the raw bit pattern through without scaling.
	Bitflags
)

func (k Kind) String() string {
	switch k {
	case Unsigned:
		return "unsigned"
	case Signed:
		return "signed"
	case SignedMagnitude:
		return "signed_magnitude"
	case Bitflags:
		return "bitflags"
	default:
		return "unknown"
	}
}

// Definition describes one metric held in inverter registers.
// Definitions are immutable after the Map is built.
type Definition struct {
	Name    string
	Address uint16 // absolute register address, no implicit chaining
	Length  uint16 // registers: 1 (16-bit) or 2 (32-bit)
	Kind    Kind
	Scale   float64 // multiplier applied to the raw value
	Offset  float64 // addend applied after scaling
	Unit    string
	Topic   string // MQTT topic suffix; Name when empty

	// LowWordFirst selects the word order of 32-bit values. Registers are
	// always big-endian on the wire; Deye transmits most 32-bit totals
	// low word first.
	LowWordFirst bool
}

// End is the last register address covered by the definition.
func (d Definition) End() uint16 {
	return d.Address + d.Length - 1
}

// TopicSuffix is the MQTT topic suffix for this metric.
func (d Definition) TopicSuffix() string {
	if d.Topic != "" {
		return d.Topic
	}
	return d.Name
}

// Span is the inclusive register range covering all definitions,
// returned as (start, count). Count is zero for an empty slice.
func Span(defs []Definition) (uint16, uint16) {
	if len(defs) == 0 {
		return 0, 0
	}
	start, end := defs[0].Address, defs[0].End()
	for _, d := range defs[1:] {
		if d.Address < start {
			start = d.Address
		}
		if d.End() > end {
			end = d.End()
		}
	}
	return start, end - start + 1
}
