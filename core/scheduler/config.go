package scheduler

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines the cost model and planning parameters.
//
// The cost of a candidate is
//
//	airmass_weight*airmass + slew_weight*slewDeg + stale_weight*hoursVisible
//	  - priority_weight*priority + tiling_weight*tiling
//
// and the lowest cost wins. Every weight but stale_weight must be
// non-negative. stale_weight is signed: a positive value penalizes fields
// that have been up for a long time tonight, a negative value rewards them
// so that fields about to set are taken before they are lost. The
// calibration default is -0.5, a reward.
type Config struct {
	AirmassWeight float64 `json:"airmass_weight" yaml:"airmass_weight"`
	SlewWeight    float64 `json:"slew_weight" yaml:"slew_weight"`
	// StaleWeight multiplies the hours since the field was first seen
	// visible tonight. Negative values turn the penalty into a reward.
	StaleWeight    float64 `json:"stale_weight" yaml:"stale_weight"`
	PriorityWeight float64 `json:"priority_weight" yaml:"priority_weight"`
	TilingWeight   float64 `json:"tiling_weight" yaml:"tiling_weight"`
	// Tolerance below which two costs are considered equal.
	Tolerance float64 `json:"tolerance" yaml:"tolerance"`

	SlewRateDegPerSec       float64 `json:"slew_rate_deg_per_sec" yaml:"slew_rate_deg_per_sec"`
	SlewPenaltySeconds      float64 `json:"slew_penalty_seconds" yaml:"slew_penalty_seconds"`
	SlewPenaltyThresholdDeg float64 `json:"slew_penalty_threshold_deg" yaml:"slew_penalty_threshold_deg"`
	SlewMemoryMinutes       float64 `json:"slew_memory_minutes" yaml:"slew_memory_minutes"`

	ChunkMinutes int `json:"chunk_minutes" yaml:"chunk_minutes"`
	// SingleVisit keys fields by ID only, so each ID is observed once
	// regardless of its tiling.
	SingleVisit bool   `json:"single_visit" yaml:"single_visit"`
	FilePrefix  string `json:"file_prefix" yaml:"file_prefix"`
}

// DefaultConfig returns the calibration defaults.
func DefaultConfig() Config {
	var c Config
	c.SetDefaults()
	return c
}

// SetDefaults fills unset values. A cost model with every weight at zero
// receives the calibration weights.
func (c *Config) SetDefaults() {
	if c.AirmassWeight == 0 && c.SlewWeight == 0 && c.StaleWeight == 0 && c.PriorityWeight == 0 && c.TilingWeight == 0 {
		c.AirmassWeight = 10
		c.SlewWeight = 0.05
		c.StaleWeight = -0.5
		c.PriorityWeight = 1
	}
	if c.Tolerance == 0 {
		c.Tolerance = 1e-9
	}
	if c.SlewRateDegPerSec == 0 {
		c.SlewRateDegPerSec = 1
	}
	if c.SlewPenaltySeconds == 0 {
		c.SlewPenaltySeconds = 30
	}
	if c.SlewPenaltyThresholdDeg == 0 {
		c.SlewPenaltyThresholdDeg = 5
	}
	if c.SlewMemoryMinutes == 0 {
		c.SlewMemoryMinutes = 30
	}
	if c.FilePrefix == "" {
		c.FilePrefix = "plan"
	}
}

// Validate checks the parameters.
func (c Config) Validate() error {
	for name, w := range map[string]float64{
		"airmass_weight":  c.AirmassWeight,
		"slew_weight":     c.SlewWeight,
		"stale_weight":    c.StaleWeight,
		"priority_weight": c.PriorityWeight,
		"tiling_weight":   c.TilingWeight,
	} {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("%s must be finite", name)
		}
	}
	if c.AirmassWeight < 0 || c.SlewWeight < 0 || c.PriorityWeight < 0 || c.TilingWeight < 0 {
		return fmt.Errorf("airmass, slew, priority and tiling weights must be non-negative")
	}
	if c.Tolerance < 0 {
		return fmt.Errorf("tolerance must be non-negative")
	}
	if c.SlewRateDegPerSec <= 0 {
		return fmt.Errorf("slew_rate_deg_per_sec must be positive")
	}
	if c.SlewPenaltySeconds < 0 || c.SlewPenaltyThresholdDeg < 0 || c.SlewMemoryMinutes < 0 {
		return fmt.Errorf("slew penalty and memory must be non-negative")
	}
	if c.ChunkMinutes < 0 {
		return fmt.Errorf("chunk_minutes must be non-negative")
	}
	if strings.ContainsAny(c.FilePrefix, `/\`) {
		return fmt.Errorf("file_prefix must not contain path separators")
	}
	return nil
}

// AllowRevisits reports whether the same ID may be observed once per tiling.
func (c Config) AllowRevisits() bool { return !c.SingleVisit }

// Chunk returns the chunk granularity, zero meaning one chunk per window.
func (c Config) Chunk() time.Duration { return time.Duration(c.ChunkMinutes) * time.Minute }

func (c Config) slewPenalty() time.Duration {
	return time.Duration(c.SlewPenaltySeconds * float64(time.Second))
}

func (c Config) slewMemory() time.Duration {
	return time.Duration(c.SlewMemoryMinutes * float64(time.Minute))
}

// LoadConfig loads Config from a JSON or YAML file and applies defaults.
func LoadConfig(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	ext := strings.ToLower(filepath.Ext(path))
	var cfg Config
	switch ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cfg)
	case ".json":
		err = json.Unmarshal(b, &cfg)
	default:
		return Config{}, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err != nil {
		return Config{}, err
	}
	cfg.SetDefaults()
	return cfg, cfg.Validate()
}

// DecodeConfig reads from r to decode a Config and applies defaults.
func DecodeConfig(r io.Reader, format string) (Config, error) {
	var cfg Config
	switch strings.ToLower(format) {
	case "yaml", "yml":
		dec := yaml.NewDecoder(r)
		if err := dec.Decode(&cfg); err != nil {
			return cfg, err
		}
	case "json":
		dec := json.NewDecoder(r)
		if err := dec.Decode(&cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported format: %s", format)
	}
	cfg.SetDefaults()
	return cfg, cfg.Validate()
}
