package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/illarion/dehook/internal/settings"
)

// Drivers accepted by Open
const (
	DriverBolt     = "bolt"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

var (
	ErrUnknownDriver = errors.New("unknown storage driver")
	ErrCorrupt       = errors.New("stored settings are corrupt")
)

// Store is the single read and write path for the settings aggregate
type Store interface {
	// Read returns the stored aggregate, or the defaults if none was written
	Read(ctx context.Context) (*settings.AppSettings, error)
	// Write replaces the stored aggregate atomically
	Write(ctx context.Context, s *settings.AppSettings) error
	// Initialize prepares the backend and seeds the defaults when the key
	// is absent. It reports whether seeding happened.
	Initialize(ctx context.Context) (bool, error)
	Close() error
}

// Options selects and configures a backend
type Options struct {
	Driver string
	Path   string // bolt database file
	DSN    string // postgres connection string
}

// Open opens the backend named by opts.Driver
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case DriverBolt, "":
		return OpenBolt(opts.Path)
	case DriverPostgres:
		return OpenPostgres(ctx, opts.DSN)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
	}
}

func encode(s *settings.AppSettings) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode settings: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*settings.AppSettings, error) {
	s := settings.Default()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return s, nil
}
