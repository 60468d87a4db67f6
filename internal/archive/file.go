// internal/archive/file.go
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/tamzrod/inverter-mqtt/internal/telemetry"
)

// fileBackend appends one JSON document per batch. Lines are complete
// batches, so a reader can tail the file without framing state.
type fileBackend struct {
	mu sync.Mutex
	f  *os.File
}

func newFileBackend(path string) (*fileBackend, error) {
	if path == "" {
		return nil, fmt.Errorf("archive: file driver requires a path")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("archive: open %s: %w", path, err)
	}
	return &fileBackend{f: f}, nil
}

func (b *fileBackend) Store(_ context.Context, batch telemetry.Batch) error {
	line, err := json.Marshal(batch)
	if err != nil {
		return err
	}
	line = append(line, '\n')

	b.mu.Lock()
	defer b.mu.Unlock()
	_, err = b.f.Write(line)
	return err
}

func (b *fileBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.f.Close()
}
