package config

import (
	"fmt"

	"github.com/wricardo/partyroom/game/storage"
)

// Storage backends
const (
	StorageFile   = "file"
	StorageMemory = "memory"
)

func (c *Config) validateStorage() error {
	switch c.Storage {
	case StorageFile:
		if c.DataDir == "" {
			return fmt.Errorf("data_dir is required for file storage")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("storage must be %q or %q", StorageFile, StorageMemory)
	}
	return nil
}

// BuildStore creates the configured durable store
func (c *Config) BuildStore() (storage.Store, error) {
	switch c.Storage {
	case StorageMemory:
		return storage.NewMemoryStore(), nil
	case StorageFile, "":
		store, err := storage.NewFileStore(c.DataDir)
		if err != nil {
			return nil, fmt.Errorf("creating file store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage %q", c.Storage)
	}
}
