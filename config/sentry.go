package config

import "fmt"

// SentryConfig defines settings for Sentry error monitoring. Monitoring is
// off while DSN is empty.
type SentryConfig struct {
	DSN              string            `json:"dsn" yaml:"dsn"`
	Environment      string            `json:"environment" yaml:"environment"`
	TracesSampleRate float64           `json:"traces_sample_rate" yaml:"traces_sample_rate"`
	Release          string            `json:"release" yaml:"release"`
	ServerName       string            `json:"server_name" yaml:"server_name"`
	Tags             map[string]string `json:"tags" yaml:"tags"`
}

// SetDefaults names the environment after the survey when unset.
func (c *SentryConfig) SetDefaults() {
	if c.Environment == "" {
		c.Environment = "survey"
	}
}

func (c SentryConfig) Validate() error {
	if c.TracesSampleRate < 0 || c.TracesSampleRate > 1 {
		return fmt.Errorf("traces_sample_rate must be within [0,1], got %g", c.TracesSampleRate)
	}
	return nil
}
