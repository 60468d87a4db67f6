// internal/transport/modbustcp/client.go
package modbustcp

import (
	"context"
	"errors"
	"time"

	"github.com/goburrow/modbus"
)

// Client reads registers from inverters that expose plain Modbus TCP,
// without the logger framing. It satisfies the scheduler's Reader.
type Client struct {
	handler *modbus.TCPClientHandler
	client  modbus.Client
}

// Config is minimal transport config.
type Config struct {
	Endpoint string
	UnitID   byte
	Timeout  time.Duration
}

// New creates a lazily-connecting Modbus TCP client.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("modbustcp: endpoint required")
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout
	h.SlaveId = cfg.UnitID
	if h.SlaveId == 0 {
		h.SlaveId = 1
	}

	return &Client{handler: h, client: modbus.NewClient(h)}, nil
}

// ReadRegisters reads count holding registers starting at start. The
// handler owns connection lifecycle and deadlines; cancellation is
// bounded by the configured timeout.
func (c *Client) ReadRegisters(_ context.Context, start, count uint16) ([]byte, error) {
	return c.client.ReadHoldingRegisters(start, count)
}

// Close closes the TCP connection if one is open.
func (c *Client) Close() error {
	return c.handler.Close()
}
