// internal/decode/decoder.go
package decode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/tamzrod/inverter-mqtt/internal/registry"
	"github.com/tamzrod/inverter-mqtt/internal/telemetry"
)

// ErrOffsetOutOfRange reports a definition whose registers fall outside
// the payload. With a validated catalogue and request-aligned payloads
// this is unreachable; it marks an internal invariant violation, not a
// transient condition, and must not be retried.
var ErrOffsetOutOfRange = errors.New("decode: register offset outside payload")

// Registers decodes a payload of registers start..start+len/2-1 into one
// value per definition. Decoding is pure and order-independent: no
// definition's interpretation depends on another's value or on any
// earlier cycle.
func Registers(defs []registry.Definition, start uint16, payload []byte, at time.Time) ([]telemetry.Value, error) {
	out := make([]telemetry.Value, 0, len(defs))
	for _, def := range defs {
		v, err := value(def, start, payload)
		if err != nil {
			return nil, err
		}
		out = append(out, telemetry.Value{
			Name:  def.Name,
			Value: v,
			Unit:  def.Unit,
			Topic: def.TopicSuffix(),
			At:    at,
		})
	}
	return out, nil
}

func value(def registry.Definition, start uint16, payload []byte) (float64, error) {
	if def.Address < start {
		return 0, fmt.Errorf("%w: %s at 0x%04x precedes request start 0x%04x",
			ErrOffsetOutOfRange, def.Name, def.Address, start)
	}
	off := int(def.Address-start) * 2
	n := int(def.Length) * 2
	if off+n > len(payload) {
		return 0, fmt.Errorf("%w: %s needs bytes %d..%d of a %d byte payload",
			ErrOffsetOutOfRange, def.Name, off, off+n-1, len(payload))
	}

	words := payload[off : off+n]
	var raw uint32
	switch def.Length {
	case 1:
		raw = uint32(binary.BigEndian.Uint16(words))
	case 2:
		hi := binary.BigEndian.Uint16(words[0:2])
		lo := binary.BigEndian.Uint16(words[2:4])
		if def.LowWordFirst {
			hi, lo = lo, hi
		}
		raw = uint32(hi)<<16 | uint32(lo)
	}

	switch def.Kind {
	case registry.Bitflags:
		// raw bit pattern, no scaling
		return float64(raw), nil
	case registry.Unsigned:
		return float64(raw)*def.Scale + def.Offset, nil
	case registry.Signed:
		if def.Length == 1 {
			return float64(int16(raw))*def.Scale + def.Offset, nil
		}
		return float64(int32(raw))*def.Scale + def.Offset, nil
	case registry.SignedMagnitude:
		signBit := uint32(1) << (16*uint(def.Length) - 1)
		mag := float64(raw &^ signBit)
		if raw&signBit != 0 {
			mag = -mag
		}
		return mag*def.Scale + def.Offset, nil
	default:
		return 0, fmt.Errorf("decode: %s has unknown kind %d", def.Name, def.Kind)
	}
}
