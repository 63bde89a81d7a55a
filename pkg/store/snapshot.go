package store

import (
	"context"
	"errors"
	"sync"
)

// ErrNoSnapshot is returned by Load when nothing has been saved yet.
var ErrNoSnapshot = errors.New("store: no snapshot")

// Snapshotter persists the engine's serialized state. The engine
// treats the backend as an atomic blob store: each Save replaces the
// previous snapshot entirely.
type Snapshotter interface {
	Save(ctx context.Context, state []byte) error
	Load(ctx context.Context) ([]byte, error)
}

// MemorySnapshotter keeps the snapshot in memory. Used in tests and by
// the demo binary.
type MemorySnapshotter struct {
	mu    sync.RWMutex
	state []byte
}

// NewMemorySnapshotter creates an empty snapshotter.
func NewMemorySnapshotter() *MemorySnapshotter {
	return &MemorySnapshotter{}
}

func (m *MemorySnapshotter) Save(_ context.Context, state []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = append([]byte(nil), state...)
	return nil
}

func (m *MemorySnapshotter) Load(_ context.Context) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state == nil {
		return nil, ErrNoSnapshot
	}
	return append([]byte(nil), m.state...), nil
}
