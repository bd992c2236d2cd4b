package store

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/skyplan/core/model"
	"github.com/kilianp07/skyplan/core/registry"
)

// SQLiteStore persists completed fields in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS completed_fields (
        field_id TEXT NOT NULL,
        tiling INTEGER NOT NULL,
        observed INTEGER NOT NULL,
        ra REAL,
        dec REAL,
        PRIMARY KEY(field_id, tiling)
    );`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Load returns every completed field ordered by observation time.
func (s *SQLiteStore) Load(ctx context.Context) ([]registry.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT field_id, tiling, observed, ra, dec
        FROM completed_fields ORDER BY observed, field_id, tiling`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []registry.Entry
	for rows.Next() {
		var (
			id      string
			tiling  int
			ts      int64
			ra, dec sql.NullFloat64
		)
		if err := rows.Scan(&id, &tiling, &ts, &ra, &dec); err != nil {
			return nil, err
		}
		res = append(res, registry.Entry{
			Key:        model.FieldKey{ID: id, Tiling: tiling},
			ObservedAt: time.Unix(0, ts).UTC(),
			RA:         ra.Float64,
			Dec:        dec.Float64,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Save upserts entries in one transaction. The earliest observation of a key wins.
func (s *SQLiteStore) Save(ctx context.Context, entries []registry.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO completed_fields (field_id, tiling, observed, ra, dec)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(field_id, tiling) DO UPDATE SET
            observed = MIN(observed, excluded.observed)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer func() { _ = stmt.Close() }()
	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.Key.ID, e.Key.Tiling, e.ObservedAt.UnixNano(), e.RA, e.Dec); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
