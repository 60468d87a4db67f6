// internal/protocol/errors.go
package protocol

import "errors"

var (
	// ErrRequestTooLarge reports a read exceeding the per-request register
	// limit. This is a caller error, not a wire condition.
	ErrRequestTooLarge = errors.New("protocol: request exceeds register limit")

	// ErrFrameTruncated reports fewer bytes than the minimal frame.
	ErrFrameTruncated = errors.New("protocol: frame truncated")

	// ErrFrameCorrupt reports a framing or integrity mismatch. A corrupt
	// frame must never be partially decoded.
	ErrFrameCorrupt = errors.New("protocol: frame corrupt")

	// ErrDeviceException reports a well-formed Modbus exception response
	// from the inverter.
	ErrDeviceException = errors.New("protocol: device exception")
)
