// Package cache provides blob stores used to persist the vector index
// artifacts across restarts.
package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNoCache reports that an artifact is absent or unreadable. Callers
// treat it as "no cache" and rebuild, never as a fatal error.
var ErrNoCache = errors.New("cache: artifact not found")

// Store is a blob store keyed by artifact name.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	// Get wraps ErrNoCache when the key is absent or unreadable.
	Get(ctx context.Context, key string) ([]byte, error)
}

type DirConfig struct {
	Path string
}

// Dir stores blobs as files under one directory. Writes go to a temp
// file in the same directory followed by an atomic rename, so a crashed
// write never leaves a loadable-but-corrupt artifact.
type Dir struct {
	config DirConfig
}

func NewDir(config DirConfig) (*Dir, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("cache dir path is required")
	}
	if err := os.MkdirAll(config.Path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	return &Dir{config: config}, nil
}

func (d *Dir) Put(_ context.Context, key string, data []byte) error {
	target := filepath.Join(d.config.Path, key)

	tmp, err := os.CreateTemp(d.config.Path, key+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write artifact %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close artifact %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("failed to publish artifact %s: %w", key, err)
	}
	return nil
}

func (d *Dir) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(d.config.Path, key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoCache, key)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrNoCache, key, err)
	}
	return data, nil
}
