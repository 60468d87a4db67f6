// internal/sink/sink.go
package sink

import (
	"context"
	"errors"

	"github.com/tamzrod/inverter-mqtt/internal/telemetry"
)

// ErrPublishFailed wraps any downstream delivery failure. Publishing is
// best-effort: the poll cycle that produced the batch is never failed or
// retried on account of it.
var ErrPublishFailed = errors.New("sink: publish failed")

// Sink receives decoded telemetry batches.
type Sink interface {
	Publish(ctx context.Context, batch telemetry.Batch) error
}

// Multi fans one batch out to several sinks. Every sink sees the batch;
// the first error is returned after all have been attempted.
type Multi []Sink

func (m Multi) Publish(ctx context.Context, batch telemetry.Batch) error {
	var first error
	for _, s := range m {
		if err := s.Publish(ctx, batch); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Discard drops every batch. Used when no output is configured.
type Discard struct{}

func (Discard) Publish(context.Context, telemetry.Batch) error { return nil }
