// internal/protocol/frame.go
//
// Solarman V5 logger framing. The logger wraps a Modbus RTU PDU in its
// own envelope:
//
//	request  = A5 | len(LE16) | 1045(LE16) | seq(LE16) | serial(LE32) |
//	           02 0000 00000000 00000000 00000000 |
//	           [unit 03 addr(BE16) count(BE16) crc(LE16)] | sum | 15
//	response = A5 | len | 1015 | seq | serial |
//	           frametype status t1(LE32) t2 t3 |
//	           [unit 03 bytecount data... crc] | sum | 15
//
// Header fields are little-endian; register values inside the Modbus
// payload are big-endian. Both integrity markers (the additive V5 byte
// sum and the inner CRC16) must be reproduced exactly.
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	startByte = 0xA5
	endByte   = 0x15

	ctrlRequest  = 0x4510
	ctrlResponse = 0x1510

	frameTypeInverter = 0x02
	fcReadHolding     = 0x03

	// HeaderLen is the V5 header size preceding the payload.
	HeaderLen = 11

	// payload preludes before the embedded Modbus frame
	requestPreludeLen  = 15 // frame type + sensor type + 3 x uint32
	responsePreludeLen = 14 // frame type + status + 3 x uint32

	// MaxReadRegisters is the Modbus bound on registers per read request.
	MaxReadRegisters = 125

	// MaxFrameLen bounds a plausible response frame; anything larger is a
	// corrupt length field, not a real payload.
	MaxFrameLen = HeaderLen + responsePreludeLen + 5 + 2*MaxReadRegisters + 2
)

// Codec builds request frames and validates response frames for one
// inverter logger. The zero Unit addresses the conventional unit 1.
type Codec struct {
	Serial uint32 // logger serial number, echoed in every response
	Unit   byte   // Modbus unit id behind the logger
	Limit  uint16 // per-request register limit; MaxReadRegisters when zero
}

// ReadResult is the payload of a validated response, with the register
// count echoed by the frame so callers can cross-check it against the
// original request.
type ReadResult struct {
	Count   int    // registers present in Payload
	Payload []byte // 2 bytes per register, big-endian
}

func (c *Codec) unit() byte {
	if c.Unit == 0 {
		return 1
	}
	return c.Unit
}

func (c *Codec) limit() uint16 {
	if c.Limit == 0 || c.Limit > MaxReadRegisters {
		return MaxReadRegisters
	}
	return c.Limit
}

// EncodeRead frames a read-holding-registers request for count registers
// starting at start.
func (c *Codec) EncodeRead(seq uint16, start, count uint16) ([]byte, error) {
	if count == 0 {
		return nil, errors.New("protocol: zero-length read")
	}
	if count > c.limit() {
		return nil, fmt.Errorf("%w: %d registers, limit %d", ErrRequestTooLarge, count, c.limit())
	}

	rtu := make([]byte, 8)
	rtu[0] = c.unit()
	rtu[1] = fcReadHolding
	binary.BigEndian.PutUint16(rtu[2:4], start)
	binary.BigEndian.PutUint16(rtu[4:6], count)
	crc := CRC16(rtu[:6])
	rtu[6] = byte(crc)
	rtu[7] = byte(crc >> 8)

	payloadLen := requestPreludeLen + len(rtu)
	frame := make([]byte, 0, HeaderLen+payloadLen+2)
	frame = append(frame, startByte)
	frame = le16(frame, uint16(payloadLen))
	frame = le16(frame, ctrlRequest)
	frame = le16(frame, seq)
	frame = le32(frame, c.Serial)
	frame = append(frame, frameTypeInverter, 0x00, 0x00) // frame type, sensor type
	frame = append(frame, make([]byte, 12)...)           // working/poweron/offset times
	frame = append(frame, rtu...)
	frame = append(frame, checksum(frame[1:]), endByte)
	return frame, nil
}

// DecodeRead validates a raw response against the request identified by
// seq and returns the register payload. Any integrity mismatch fails the
// whole frame; nothing is decoded from a corrupt frame.
func (c *Codec) DecodeRead(seq uint16, raw []byte) (*ReadResult, error) {
	// minimal response: header + prelude + RTU(unit, fc, bytecount, crc) + sum + end
	const minLen = HeaderLen + responsePreludeLen + 5 + 2
	if len(raw) < minLen {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrFrameTruncated, len(raw), minLen)
	}
	if raw[0] != startByte {
		return nil, fmt.Errorf("%w: bad start byte 0x%02x", ErrFrameCorrupt, raw[0])
	}
	if raw[len(raw)-1] != endByte {
		return nil, fmt.Errorf("%w: bad end byte 0x%02x", ErrFrameCorrupt, raw[len(raw)-1])
	}

	length := int(binary.LittleEndian.Uint16(raw[1:3]))
	switch got := len(raw) - HeaderLen - 2; {
	case length > got:
		return nil, fmt.Errorf("%w: header claims %d payload bytes, frame carries %d", ErrFrameTruncated, length, got)
	case length < got:
		return nil, fmt.Errorf("%w: header claims %d payload bytes, frame carries %d", ErrFrameCorrupt, length, got)
	}

	if ctrl := binary.LittleEndian.Uint16(raw[3:5]); ctrl != ctrlResponse {
		return nil, fmt.Errorf("%w: control code 0x%04x", ErrFrameCorrupt, ctrl)
	}
	if got := binary.LittleEndian.Uint16(raw[5:7]); got != seq {
		return nil, fmt.Errorf("%w: sequence %d, expected %d", ErrFrameCorrupt, got, seq)
	}
	if serial := binary.LittleEndian.Uint32(raw[7:11]); c.Serial != 0 && serial != c.Serial {
		return nil, fmt.Errorf("%w: logger serial %d, expected %d", ErrFrameCorrupt, serial, c.Serial)
	}
	if sum := checksum(raw[1 : len(raw)-2]); sum != raw[len(raw)-2] {
		return nil, fmt.Errorf("%w: checksum 0x%02x, computed 0x%02x", ErrFrameCorrupt, raw[len(raw)-2], sum)
	}

	rtu := raw[HeaderLen+responsePreludeLen : len(raw)-2]
	if len(rtu) < 5 {
		return nil, fmt.Errorf("%w: embedded frame of %d bytes", ErrFrameCorrupt, len(rtu))
	}
	crc := CRC16(rtu[:len(rtu)-2])
	if rtu[len(rtu)-2] != byte(crc) || rtu[len(rtu)-1] != byte(crc>>8) {
		return nil, fmt.Errorf("%w: register CRC mismatch", ErrFrameCorrupt)
	}
	if rtu[0] != c.unit() {
		return nil, fmt.Errorf("%w: unit %d, expected %d", ErrFrameCorrupt, rtu[0], c.unit())
	}

	fc := rtu[1]
	if fc&0x80 != 0 {
		return nil, fmt.Errorf("%w: code 0x%02x", ErrDeviceException, rtu[2])
	}
	if fc != fcReadHolding {
		return nil, fmt.Errorf("%w: function 0x%02x, expected 0x%02x", ErrFrameCorrupt, fc, fcReadHolding)
	}

	data := rtu[3 : len(rtu)-2]
	byteCount := int(rtu[2])
	if byteCount != len(data) || byteCount%2 != 0 {
		return nil, fmt.Errorf("%w: byte count %d for %d data bytes", ErrFrameCorrupt, byteCount, len(data))
	}

	return &ReadResult{Count: byteCount / 2, Payload: data}, nil
}

// EncodeReadResponse builds the logger's response frame carrying regs.
// Inverse of DecodeRead; used by tests standing in for the logger.
func (c *Codec) EncodeReadResponse(seq uint16, regs []uint16) []byte {
	data := make([]byte, 2*len(regs))
	for i, r := range regs {
		binary.BigEndian.PutUint16(data[2*i:], r)
	}

	rtu := make([]byte, 0, 5+len(data))
	rtu = append(rtu, c.unit(), fcReadHolding, byte(len(data)))
	rtu = append(rtu, data...)
	crc := CRC16(rtu)
	rtu = append(rtu, byte(crc), byte(crc>>8))

	payloadLen := responsePreludeLen + len(rtu)
	frame := make([]byte, 0, HeaderLen+payloadLen+2)
	frame = append(frame, startByte)
	frame = le16(frame, uint16(payloadLen))
	frame = le16(frame, ctrlResponse)
	frame = le16(frame, seq)
	frame = le32(frame, c.Serial)
	frame = append(frame, frameTypeInverter, 0x01) // frame type, status: live data
	frame = append(frame, make([]byte, 12)...)
	frame = append(frame, rtu...)
	frame = append(frame, checksum(frame[1:]), endByte)
	return frame
}

// PayloadLen reads the payload length field from a frame header. The
// transport uses it to size the remainder of a response read.
func PayloadLen(header []byte) int {
	return int(binary.LittleEndian.Uint16(header[1:3]))
}

func le16(b []byte, v uint16) []byte {
	return append(b, byte(v), byte(v>>8))
}

func le32(b []byte, v uint32) []byte {
	return append(b, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}
