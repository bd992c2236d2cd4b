// Package planlog keeps an append-only history of every chunk emitted by a
// planning run.
package planlog

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/skyplan/core/model"
)

// LogRecord captures one emitted chunk.
type LogRecord struct {
	Timestamp time.Time    `json:"timestamp"`
	RunID     string       `json:"run_id"`
	Nite      string       `json:"nite"`
	Chunk     model.Chunk  `json:"chunk"`
	Summary   ChunkSummary `json:"summary"`
}

// ChunkSummary condenses a chunk for quick inspection.
type ChunkSummary struct {
	Observations int      `json:"observations"`
	FieldIDs     []string `json:"field_ids"`
	Interrupted  bool     `json:"interrupted,omitempty"`
}

// NewLogRecord builds the record of a chunk.
func NewLogRecord(ts time.Time, runID, nite string, c model.Chunk, interrupted bool) LogRecord {
	ids := make([]string, len(c.Records))
	for i, r := range c.Records {
		ids[i] = r.Key().String()
	}
	return LogRecord{
		Timestamp: ts,
		RunID:     runID,
		Nite:      nite,
		Chunk:     c,
		Summary:   ChunkSummary{Observations: len(c.Records), FieldIDs: ids, Interrupted: interrupted},
	}
}

// LogQuery defines filters for retrieving records.
type LogQuery struct {
	Start   time.Time
	End     time.Time
	Nite    string
	RunID   string
	FieldID string
}

func (q LogQuery) match(r LogRecord) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.Nite != "" && r.Nite != q.Nite {
		return false
	}
	if q.RunID != "" && r.RunID != q.RunID {
		return false
	}
	if q.FieldID != "" {
		for _, rec := range r.Chunk.Records {
			if rec.FieldID == q.FieldID {
				return true
			}
		}
		return false
	}
	return true
}

// LogStore persists LogRecords and supports querying.
type LogStore interface {
	Append(ctx context.Context, rec LogRecord) error
	Query(ctx context.Context, q LogQuery) ([]LogRecord, error)
	Close() error
}

// Config selects and tunes the store backend.
type Config struct {
	// Backend selects the log store type: "jsonl", "sqlite" or "none".
	Backend    string `json:"backend"`
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "jsonl"
	}
	if c.Path == "" {
		c.Path = "plan.log"
	}
	if c.MaxSizeMB == 0 {
		c.MaxSizeMB = 10
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	switch c.Backend {
	case "jsonl", "sqlite", "none":
	default:
		return fmt.Errorf("unknown plan log backend %s", c.Backend)
	}
	if c.Backend != "none" && c.Path == "" {
		return fmt.Errorf("plan log path is required")
	}
	return nil
}

// Open creates the configured store. The "none" backend returns nil.
func Open(c Config) (LogStore, error) {
	switch c.Backend {
	case "jsonl":
		return NewRotatingJSONLStore(c.Path, c.MaxSizeMB, c.MaxBackups, c.MaxAgeDays)
	case "sqlite":
		return NewSQLiteStore(c.Path)
	case "none":
		return nil, nil
	}
	return nil, fmt.Errorf("unknown plan log backend %s", c.Backend)
}
