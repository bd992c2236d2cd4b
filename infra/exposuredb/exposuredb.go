// Package exposuredb seeds the completed registry from the telescope
// exposure database.
package exposuredb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kilianp07/skyplan/core/model"
	"github.com/kilianp07/skyplan/core/registry"
)

// Config holds the exposure database connection.
type Config struct {
	URL    string `json:"url" yaml:"url"`
	PropID string `json:"propid" yaml:"propid"`
	// Limit caps the number of rows read; zero reads everything.
	Limit int `json:"limit" yaml:"limit"`
}

// Enabled reports whether a database URL is configured.
func (c Config) Enabled() bool { return c.URL != "" }

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.PropID == "" {
		c.PropID = "2016A-0366"
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Limit < 0 {
		return fmt.Errorf("exposure_db.limit must be >= 0")
	}
	if c.Enabled() && strings.TrimSpace(c.PropID) == "" {
		return fmt.Errorf("exposure_db.propid is required")
	}
	return nil
}

// Rows is the subset of pgx.Rows used by Source.
type Rows interface {
	Close()
	Err() error
	Next() bool
	Scan(dest ...any) error
}

// Querier runs a query and returns its rows.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
}

type poolQuerier struct{ pool *pgxpool.Pool }

func (p poolQuerier) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	return p.pool.Query(ctx, sql, args...)
}

// Source reads exposures of one proposal.
type Source struct {
	q      Querier
	propID string
	limit  int
	close  func()
}

// Open connects to the database described by cfg.
func Open(ctx context.Context, cfg Config) (*Source, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("exposure db: %w", err)
	}
	pcfg.MaxConnLifetime = 5 * time.Minute
	pcfg.MaxConnIdleTime = 1 * time.Minute
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("exposure db: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("exposure db ping: %w", err)
	}
	s := NewSource(poolQuerier{pool}, cfg.PropID, cfg.Limit)
	s.close = pool.Close
	return s, nil
}

// NewSource wraps an existing querier.
func NewSource(q Querier, propID string, limit int) *Source {
	return &Source{q: q, propID: propID, limit: limit}
}

func (s *Source) query() (string, []any) {
	sql := `SELECT object, telra, teldec, utc_beg
        FROM exposure WHERE propid = $1 ORDER BY utc_beg`
	args := []any{s.propID}
	if s.limit > 0 {
		sql += " LIMIT $2"
		args = append(args, s.limit)
	}
	return sql, args
}

// Load returns one registry entry per exposure. Exposures carry no tiling,
// so every entry is recorded as the first tiling.
func (s *Source) Load(ctx context.Context) ([]registry.Entry, error) {
	sql, args := s.query()
	rows, err := s.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query exposures: %w", err)
	}
	defer rows.Close()
	var out []registry.Entry
	for rows.Next() {
		var (
			object  string
			ra, dec float64
			at      time.Time
		)
		if err := rows.Scan(&object, &ra, &dec, &at); err != nil {
			return nil, fmt.Errorf("scan exposure: %w", err)
		}
		out = append(out, registry.Entry{
			Key:        model.FieldKey{ID: strings.TrimSpace(object), Tiling: 1},
			ObservedAt: at.UTC(),
			RA:         ra,
			Dec:        dec,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Close releases the connection pool.
func (s *Source) Close() {
	if s.close != nil {
		s.close()
	}
}
