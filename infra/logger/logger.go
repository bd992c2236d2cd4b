package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	corelogger "github.com/kilianp07/skyplan/core/logger"
)

// Alias the core interface for convenience.
// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any)         {}
func (NopLogger) Debugw(string, map[string]any) {}
func (NopLogger) Infof(string, ...any)          {}
func (NopLogger) Warnf(string, ...any)          {}
func (NopLogger) Errorf(string, ...any)         {}

// Config selects the log level and destination.
type Config struct {
	// Level is one of trace, debug, info, warn, error.
	Level string `json:"level"`
	// File writes logs to a rotated file instead of stdout when set.
	File       string `json:"file"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	// Console prints human readable lines, as does APP_ENV=dev.
	Console bool `json:"console"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.MaxSizeMB == 0 {
		c.MaxSizeMB = 50
	}
}

// Validate checks the level name.
func (c Config) Validate() error {
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Level)); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	return nil
}

var (
	outMu   sync.RWMutex
	out     io.Writer = os.Stdout
	console bool
)

// Setup applies cfg process wide. Loggers created afterwards use the
// configured destination.
func Setup(cfg Config) error {
	cfg.SetDefaults()
	lvl, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	zerolog.SetGlobalLevel(lvl)
	outMu.Lock()
	defer outMu.Unlock()
	console = cfg.Console || strings.ToLower(os.Getenv("APP_ENV")) == "dev"
	if cfg.File != "" {
		out = &lumberjack.Logger{Filename: cfg.File, MaxSize: cfg.MaxSizeMB, MaxBackups: cfg.MaxBackups}
	} else {
		out = os.Stdout
	}
	return nil
}

func output() (io.Writer, bool) {
	outMu.RLock()
	defer outMu.RUnlock()
	return out, console
}

// New returns a Logger tagged with the given component.
func New(component string) Logger {
	return NewZerologLogger(component)
}
