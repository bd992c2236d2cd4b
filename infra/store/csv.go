package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kilianp07/skyplan/core/registry"
)

// CSVStore keeps the registry in a CSV file. A missing file is an empty
// registry. Saves replace the file atomically.
type CSVStore struct {
	path string
}

// NewCSVStore returns a store backed by path.
func NewCSVStore(path string) *CSVStore { return &CSVStore{path: path} }

// Path returns the backing file.
func (s *CSVStore) Path() string { return s.path }

// Load reads every entry from the file.
func (s *CSVStore) Load(ctx context.Context) ([]registry.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	entries, err := registry.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	return entries, nil
}

// Save writes entries to a temporary file and renames it over the target.
func (s *CSVStore) Save(ctx context.Context, entries []registry.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if err := registry.WriteCSV(tmp, entries); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// Close is a no-op.
func (s *CSVStore) Close() error { return nil }

// MemoryStore keeps entries in memory. Useful for dry runs.
type MemoryStore struct {
	entries []registry.Entry
}

// Load returns a copy of the saved entries.
func (m *MemoryStore) Load(context.Context) ([]registry.Entry, error) {
	return append([]registry.Entry(nil), m.entries...), nil
}

// Save replaces the stored entries.
func (m *MemoryStore) Save(_ context.Context, entries []registry.Entry) error {
	m.entries = append([]registry.Entry(nil), entries...)
	return nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }
