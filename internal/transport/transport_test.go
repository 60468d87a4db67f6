// internal/transport/transport_test.go
package transport

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/tamzrod/inverter-mqtt/internal/protocol"
)

// fakeLogger accepts one connection at a time and answers every request
// with the registers produced by respond. A nil respond swallows requests
// without answering.
func fakeLogger(t *testing.T, codec *protocol.Codec, respond func(start, count uint16) []uint16) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer conn.Close()
				for {
					header := make([]byte, protocol.HeaderLen)
					if _, err := io.ReadFull(conn, header); err != nil {
						return
					}
					rest := make([]byte, protocol.PayloadLen(header)+2)
					if _, err := io.ReadFull(conn, rest); err != nil {
						return
					}
					if respond == nil {
						continue
					}

					seq := binary.LittleEndian.Uint16(header[5:7])
					// start/count sit in the embedded request PDU
					rtu := rest[15 : len(rest)-2]
					start := binary.BigEndian.Uint16(rtu[2:4])
					count := binary.BigEndian.Uint16(rtu[4:6])
					conn.Write(codec.EncodeReadResponse(seq, respond(start, count)))
				}
			}(conn)
		}
	}()

	return ln.Addr().String()
}

func TestLoggerReader_ReadRegisters(t *testing.T) {
	codec := &protocol.Codec{Serial: 1700001234, Unit: 1}
	addr := fakeLogger(t, codec, func(start, count uint16) []uint16 {
		regs := make([]uint16, count)
		for i := range regs {
			regs[i] = start + uint16(i)
		}
		return regs
	})

	conn := New(addr, time.Second, time.Second)
	r := NewLoggerReader(codec, conn)
	defer r.Close()

	payload, err := r.ReadRegisters(context.Background(), 0x0326, 4)
	if err != nil {
		t.Fatalf("ReadRegisters() err=%v", err)
	}
	if len(payload) != 8 {
		t.Fatalf("payload length = %d, want 8", len(payload))
	}
	for i := 0; i < 4; i++ {
		if got := binary.BigEndian.Uint16(payload[2*i:]); got != 0x0326+uint16(i) {
			t.Errorf("register %d = 0x%04x", i, got)
		}
	}
	if conn.State() != Connected {
		t.Fatalf("state = %v, want connected", conn.State())
	}
}

func TestLoggerReader_CountMismatch(t *testing.T) {
	codec := &protocol.Codec{Serial: 42}
	addr := fakeLogger(t, codec, func(start, count uint16) []uint16 {
		return make([]uint16, count-1) // one register short
	})

	r := NewLoggerReader(codec, New(addr, time.Second, time.Second))
	defer r.Close()

	if _, err := r.ReadRegisters(context.Background(), 0, 4); !errors.Is(err, protocol.ErrFrameCorrupt) {
		t.Fatalf("expected ErrFrameCorrupt, got %v", err)
	}
}

func TestRequest_Timeout(t *testing.T) {
	codec := &protocol.Codec{Serial: 42}
	addr := fakeLogger(t, codec, nil) // never answers

	conn := New(addr, time.Second, 50*time.Millisecond)
	frame, err := codec.EncodeRead(1, 0, 1)
	if err != nil {
		t.Fatalf("EncodeRead() err=%v", err)
	}

	if _, err := conn.Request(context.Background(), frame); !errors.Is(err, ErrResponseTimeout) {
		t.Fatalf("expected ErrResponseTimeout, got %v", err)
	}
	// connection must be torn down so no stale bytes leak forward
	if conn.State() != Disconnected {
		t.Fatalf("state after timeout = %v, want disconnected", conn.State())
	}
}

func TestRequest_ConnectFailed(t *testing.T) {
	// grab a port and close it so nothing listens there
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	conn := New(addr, 200*time.Millisecond, 200*time.Millisecond)
	if _, err := conn.Request(context.Background(), []byte{0x00}); !errors.Is(err, ErrConnectFailed) {
		t.Fatalf("expected ErrConnectFailed, got %v", err)
	}
	if conn.State() != Disconnected {
		t.Fatalf("state = %v, want disconnected", conn.State())
	}
}

func TestRequest_ReconnectsAfterTimeout(t *testing.T) {
	codec := &protocol.Codec{Serial: 42}

	addr := fakeLogger(t, codec, nil)

	// First request times out against the silent logger; repointing the
	// torn-down Conn at an answering logger must dial fresh.
	conn := New(addr, time.Second, 50*time.Millisecond)
	frame, _ := codec.EncodeRead(1, 0, 1)
	if _, err := conn.Request(context.Background(), frame); !errors.Is(err, ErrResponseTimeout) {
		t.Fatalf("expected ErrResponseTimeout, got %v", err)
	}

	answering := fakeLogger(t, codec, func(start, count uint16) []uint16 {
		return make([]uint16, count)
	})
	conn.addr = answering

	frame, _ = codec.EncodeRead(2, 0, 1)
	if _, err := conn.Request(context.Background(), frame); err != nil {
		t.Fatalf("Request after reconnect err=%v", err)
	}
	if conn.State() != Connected {
		t.Fatalf("state = %v, want connected", conn.State())
	}
}
