package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/skyplan/core/model"
	"github.com/kilianp07/skyplan/core/registry"
)

func sampleEntries() []registry.Entry {
	at := time.Date(2016, 2, 11, 1, 0, 0, 0, time.UTC)
	return []registry.Entry{
		{Key: model.FieldKey{ID: "f1", Tiling: 1}, ObservedAt: at, RA: 120.5, Dec: -30},
		{Key: model.FieldKey{ID: "f2", Tiling: 1}, ObservedAt: at.Add(2 * time.Minute), RA: 121, Dec: -31.25},
	}
}

func TestCSVStore_MissingFileIsEmpty(t *testing.T) {
	s := NewCSVStore(filepath.Join(t.TempDir(), "none.csv"))
	entries, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCSVStore_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "completed.csv")
	s := NewCSVStore(path)
	require.NoError(t, s.Save(context.Background(), sampleEntries()))

	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sampleEntries(), got)

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches, "temporary files left behind")
}

func TestCSVStore_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,observed_utc\nf1,yesterday\n"), 0o644))
	_, err := NewCSVStore(path).Load(context.Background())
	assert.Error(t, err)
}

func TestSQLiteStore_SaveLoad(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "reg.db"))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleEntries()))
	later := sampleEntries()[0]
	later.ObservedAt = later.ObservedAt.Add(24 * time.Hour)
	require.NoError(t, s.Save(ctx, []registry.Entry{later}))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleEntries(), got)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		name    string
		cfg     Config
		want    any
		wantErr bool
	}{
		{"csv default", Config{Path: filepath.Join(dir, "c.csv")}, &CSVStore{}, false},
		{"sqlite", Config{Backend: "sqlite", Path: filepath.Join(dir, "s.db")}, &SQLiteStore{}, false},
		{"memory", Config{Backend: "memory"}, &MemoryStore{}, false},
		{"unknown", Config{Backend: "redis"}, nil, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.SetDefaults()
			if tc.wantErr {
				assert.Error(t, tc.cfg.Validate())
				_, err := Open(tc.cfg)
				assert.Error(t, err)
				return
			}
			require.NoError(t, tc.cfg.Validate())
			s, err := Open(tc.cfg)
			require.NoError(t, err)
			defer func() { _ = s.Close() }()
			assert.IsType(t, tc.want, s)
		})
	}
}

func TestMemoryStore_SeedsRegistry(t *testing.T) {
	m := &MemoryStore{}
	require.NoError(t, m.Save(context.Background(), sampleEntries()))
	entries, err := m.Load(context.Background())
	require.NoError(t, err)
	reg := registry.New(true)
	assert.Equal(t, 2, reg.Seed(entries))
	assert.True(t, reg.Has(model.FieldKey{ID: "f2", Tiling: 1}))
}
