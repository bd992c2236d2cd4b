package config

import "fmt"

// InputsConfig locates the input tables.
type InputsConfig struct {
	Fields  string `json:"fields"`
	Windows string `json:"windows"`
	// Completed lists extra completed-field tables merged into the registry.
	Completed []string `json:"completed"`
}

// OutputConfig controls plan artifacts.
type OutputConfig struct {
	// Dir receives one JSON file per chunk.
	Dir string `json:"dir"`
	// CSV optionally writes every scheduled record to a single file.
	CSV string `json:"csv"`
}

// SetDefaults applies sane defaults.
func (c *OutputConfig) SetDefaults() {
	if c.Dir == "" {
		c.Dir = "plans"
	}
}

// Validate checks mandatory fields.
func (c OutputConfig) Validate() error {
	if c.Dir == "" {
		return fmt.Errorf("dir is required")
	}
	return nil
}

// APIConfig exposes the plan log over HTTP when Addr is set.
type APIConfig struct {
	Addr  string `json:"addr"`
	Token string `json:"token"`
}
