package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/skyplan/core/metrics"
	"github.com/kilianp07/skyplan/core/planlog"
	"github.com/kilianp07/skyplan/core/scheduler"
	"github.com/kilianp07/skyplan/infra/exposuredb"
	"github.com/kilianp07/skyplan/infra/logger"
	_ "github.com/kilianp07/skyplan/infra/metrics" // registers prometheus and influx sinks
	"github.com/kilianp07/skyplan/infra/mqtt"
	"github.com/kilianp07/skyplan/infra/store"
)

// Config is the full skyplan configuration.
type Config struct {
	Site       SiteConfig        `json:"site"`
	Scheduler  scheduler.Config  `json:"scheduler"`
	Inputs     InputsConfig      `json:"inputs"`
	Output     OutputConfig      `json:"output"`
	Store      store.Config      `json:"store"`
	PlanLog    planlog.Config    `json:"plan_log"`
	Metrics    metrics.Config    `json:"metrics"`
	MQTT       mqtt.Config       `json:"mqtt"`
	ExposureDB exposuredb.Config `json:"exposure_db"`
	Sentry     SentryConfig      `json:"sentry"`
	Log        logger.Config     `json:"log"`
	API        APIConfig         `json:"api"`
}

// Load reads the configuration file at path, applies K_ prefixed
// environment overrides, fills defaults and validates every section.
// An empty path loads defaults and environment overrides only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.Site.SetDefaults()
	c.Scheduler.SetDefaults()
	c.Output.SetDefaults()
	c.Store.SetDefaults()
	c.PlanLog.SetDefaults()
	c.ExposureDB.SetDefaults()
	c.Log.SetDefaults()
	c.Sentry.SetDefaults()
	if c.MQTT.Enabled() {
		c.MQTT.SetDefaults()
	}
}

// Validate checks every section and reports the first failure.
func (c Config) Validate() error {
	checks := []struct {
		section string
		fn      func() error
	}{
		{"site", c.Site.Validate},
		{"scheduler", c.Scheduler.Validate},
		{"output", c.Output.Validate},
		{"store", c.Store.Validate},
		{"plan_log", c.PlanLog.Validate},
		{"exposure_db", c.ExposureDB.Validate},
		{"log", c.Log.Validate},
		{"mqtt", c.MQTT.Validate},
		{"metrics", c.Metrics.Validate},
		{"sentry", c.Sentry.Validate},
	}
	for _, ch := range checks {
		if err := ch.fn(); err != nil {
			return fmt.Errorf("config %s: %w", ch.section, err)
		}
	}
	return nil
}
