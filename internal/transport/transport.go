// internal/transport/transport.go
package transport

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/tamzrod/inverter-mqtt/internal/protocol"
)

var (
	// ErrConnectFailed reports that the logger connection could not be
	// established. Retry policy belongs to the scheduler, not here.
	ErrConnectFailed = errors.New("transport: connect failed")

	// ErrResponseTimeout reports that the logger did not answer within
	// the deadline. The connection is torn down so stale bytes cannot
	// bleed into the next request.
	ErrResponseTimeout = errors.New("transport: response timeout")
)

// State of the logger connection.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Sending
	AwaitingResponse
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Sending:
		return "sending"
	case AwaitingResponse:
		return "awaiting_response"
	default:
		return "invalid"
	}
}

// Conn owns the TCP connection to one inverter logger. The wire protocol
// is strictly request/response with no multiplexing, so requests are
// serialized; any transport error drops back to Disconnected and the next
// request reconnects.
type Conn struct {
	addr        string
	dialTimeout time.Duration
	timeout     time.Duration

	mu    sync.Mutex
	conn  net.Conn
	state State
}

// New creates a disconnected Conn. The first Request dials lazily.
func New(addr string, dialTimeout, timeout time.Duration) *Conn {
	return &Conn{
		addr:        addr,
		dialTimeout: dialTimeout,
		timeout:     timeout,
		state:       Disconnected,
	}
}

// State reports the connection state.
func (t *Conn) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Request sends one encoded frame and returns the raw response frame.
// Every network wait carries a deadline; there is no unbounded block.
func (t *Conn) Request(ctx context.Context, frame []byte) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		t.state = Connecting
		d := net.Dialer{Timeout: t.dialTimeout}
		conn, err := d.DialContext(ctx, "tcp", t.addr)
		if err != nil {
			t.state = Disconnected
			return nil, fmt.Errorf("%w: %s: %v", ErrConnectFailed, t.addr, err)
		}
		t.conn = conn
		t.state = Connected
	}

	deadline := time.Now().Add(t.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := t.conn.SetDeadline(deadline); err != nil {
		return nil, t.fail(err)
	}

	t.state = Sending
	if _, err := t.conn.Write(frame); err != nil {
		return nil, t.fail(err)
	}

	t.state = AwaitingResponse
	header := make([]byte, protocol.HeaderLen)
	if _, err := io.ReadFull(t.conn, header); err != nil {
		return nil, t.fail(err)
	}

	// The header's length field sizes the rest of the frame.
	rest := protocol.PayloadLen(header) + 2 // payload + checksum + end byte
	if protocol.HeaderLen+rest > protocol.MaxFrameLen {
		return nil, t.fail(fmt.Errorf("%w: implausible payload length %d", protocol.ErrFrameCorrupt, rest-2))
	}
	raw := make([]byte, protocol.HeaderLen+rest)
	copy(raw, header)
	if _, err := io.ReadFull(t.conn, raw[protocol.HeaderLen:]); err != nil {
		return nil, t.fail(err)
	}

	t.state = Connected
	return raw, nil
}

// fail tears the connection down and classifies timeouts. Must be called
// with the mutex held.
func (t *Conn) fail(err error) error {
	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
	}
	t.state = Disconnected

	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return fmt.Errorf("%w: %v", ErrResponseTimeout, err)
	}
	return err
}

// Close drops the connection if one is open.
func (t *Conn) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state = Disconnected
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}

// LoggerReader couples the frame codec with the logger connection and
// exposes plain register reads to the scheduler.
type LoggerReader struct {
	codec *protocol.Codec
	conn  *Conn
	seq   uint16
}

// NewLoggerReader wires a codec to a connection. The starting sequence
// number is randomized (best effort) so restarts do not collide with
// responses still in flight on the logger side.
func NewLoggerReader(codec *protocol.Codec, conn *Conn) *LoggerReader {
	r := &LoggerReader{codec: codec, conn: conn}
	var b [2]byte
	if _, err := rand.Read(b[:]); err == nil {
		r.seq = binary.BigEndian.Uint16(b[:])
	}
	return r
}

// ReadRegisters reads count registers starting at start and returns their
// raw big-endian bytes. The decoded register count is cross-checked
// against the request to catch logger-side address confusion.
func (r *LoggerReader) ReadRegisters(ctx context.Context, start, count uint16) ([]byte, error) {
	r.seq++
	frame, err := r.codec.EncodeRead(r.seq, start, count)
	if err != nil {
		return nil, err
	}

	raw, err := r.conn.Request(ctx, frame)
	if err != nil {
		return nil, err
	}

	res, err := r.codec.DecodeRead(r.seq, raw)
	if err != nil {
		return nil, err
	}
	if res.Count != int(count) {
		return nil, fmt.Errorf("%w: %d registers in response, requested %d",
			protocol.ErrFrameCorrupt, res.Count, count)
	}
	return res.Payload, nil
}

// Close drops the underlying connection.
func (r *LoggerReader) Close() error {
	return r.conn.Close()
}
