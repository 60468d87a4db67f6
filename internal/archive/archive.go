// internal/archive/archive.go
package archive

import (
	"context"
	"fmt"

	"github.com/tamzrod/inverter-mqtt/internal/sink"
	"github.com/tamzrod/inverter-mqtt/internal/telemetry"
)

// Backend stores batches durably. Implementations must tolerate being
// handed the same batch twice; the poller does not deduplicate on its
// side of a crash.
type Backend interface {
	Store(ctx context.Context, batch telemetry.Batch) error
	Close() error
}

// Config selects and parameterizes the archive backend.
type Config struct {
	Driver string // "", "file", "postgres", "mysql"
	Path   string // file backend
	DSN    string // database backends
}

// Manager adapts a Backend to the sink interface so archived storage
// rides the same publish path as MQTT.
type Manager struct {
	backend Backend
}

// New opens the configured backend. A zero Driver yields a disabled
// manager whose Publish is a no-op.
func New(cfg Config) (*Manager, error) {
	switch cfg.Driver {
	case "":
		return &Manager{}, nil
	case "file":
		b, err := newFileBackend(cfg.Path)
		if err != nil {
			return nil, err
		}
		return &Manager{backend: b}, nil
	case "postgres":
		b, err := newPostgresBackend(cfg.DSN)
		if err != nil {
			return nil, err
		}
		return &Manager{backend: b}, nil
	case "mysql":
		b, err := newMySQLBackend(cfg.DSN)
		if err != nil {
			return nil, err
		}
		return &Manager{backend: b}, nil
	default:
		return nil, fmt.Errorf("archive: unknown driver %q", cfg.Driver)
	}
}

// Enabled reports whether batches are actually stored.
func (m *Manager) Enabled() bool { return m.backend != nil }

// Publish stores the batch, satisfying sink.Sink.
func (m *Manager) Publish(ctx context.Context, batch telemetry.Batch) error {
	if m.backend == nil {
		return nil
	}
	if err := m.backend.Store(ctx, batch); err != nil {
		return fmt.Errorf("%w: archive: %v", sink.ErrPublishFailed, err)
	}
	return nil
}

func (m *Manager) Close() error {
	if m.backend == nil {
		return nil
	}
	return m.backend.Close()
}
