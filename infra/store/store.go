// Package store persists the completed-field registry between runs.
package store

import (
	"fmt"

	"github.com/kilianp07/skyplan/core/registry"
)

// Config selects the registry backend.
type Config struct {
	// Backend is one of "csv", "sqlite" or "memory".
	Backend string `json:"backend" yaml:"backend"`
	Path    string `json:"path" yaml:"path"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "csv"
	}
	if c.Path == "" && c.Backend == "csv" {
		c.Path = "completed.csv"
	}
	if c.Path == "" && c.Backend == "sqlite" {
		c.Path = "skyplan.db"
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch c.Backend {
	case "csv", "sqlite":
		if c.Path == "" {
			return fmt.Errorf("store.path is required for backend %q", c.Backend)
		}
	case "memory":
	default:
		return fmt.Errorf("unknown store backend %q", c.Backend)
	}
	return nil
}

// Open returns the configured registry store.
func Open(c Config) (registry.Store, error) {
	switch c.Backend {
	case "csv":
		return NewCSVStore(c.Path), nil
	case "sqlite":
		return NewSQLiteStore(c.Path)
	case "memory":
		return &MemoryStore{}, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", c.Backend)
	}
}
