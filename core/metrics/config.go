package metrics

import (
	"fmt"
	"slices"

	"github.com/kilianp07/skyplan/core/factory"
)

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks" yaml:"sinks"`
	// PromPort starts the /metrics endpoint when set, e.g. ":9090".
	PromPort string `json:"prom_port" yaml:"prom_port"`
}

// Validate rejects sink types nobody registered.
func (c Config) Validate() error {
	known := SinkTypes()
	for i, s := range c.Sinks {
		if !slices.Contains(known, s.Type) {
			return fmt.Errorf("sink %d: unknown type %q (known: %v)", i, s.Type, known)
		}
	}
	return nil
}
