package storage

import (
	"context"
	"sync"

	"github.com/illarion/dehook/internal/settings"
)

// Memory keeps the aggregate in process memory. Writes store the encoded
// form so callers cannot alias the stored record.
type Memory struct {
	mu   sync.Mutex
	data []byte
}

// NewMemory returns an empty in-memory store
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Initialize(_ context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data != nil {
		return false, nil
	}
	data, err := encode(settings.Default())
	if err != nil {
		return false, err
	}
	m.data = data
	return true, nil
}

func (m *Memory) Read(_ context.Context) (*settings.AppSettings, error) {
	m.mu.Lock()
	data := m.data
	m.mu.Unlock()
	if data == nil {
		return settings.Default(), nil
	}
	return decode(data)
}

func (m *Memory) Write(_ context.Context, s *settings.AppSettings) error {
	data, err := encode(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data = data
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }
