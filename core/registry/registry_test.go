package registry

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/skyplan/core/model"
)

var t0 = time.Date(2016, 2, 11, 3, 0, 0, 0, time.UTC)

func TestAddIsIdempotent(t *testing.T) {
	r := New(true)
	k := model.FieldKey{ID: "f1", Tiling: 1}
	assert.True(t, r.Add(Entry{Key: k, ObservedAt: t0}))
	assert.False(t, r.Add(Entry{Key: k, ObservedAt: t0.Add(time.Hour)}))
	assert.Equal(t, 1, r.Len())
	e, ok := r.Latest()
	require.True(t, ok)
	assert.Equal(t, t0, e.ObservedAt)
}

func TestRevisitPolicy(t *testing.T) {
	withRevisits := New(true)
	withRevisits.Add(Entry{Key: model.FieldKey{ID: "f1", Tiling: 1}, ObservedAt: t0})
	assert.False(t, withRevisits.Has(model.FieldKey{ID: "f1", Tiling: 2}))
	assert.True(t, withRevisits.Add(Entry{Key: model.FieldKey{ID: "f1", Tiling: 2}, ObservedAt: t0}))

	strict := New(false)
	strict.Add(Entry{Key: model.FieldKey{ID: "f1", Tiling: 1}, ObservedAt: t0})
	assert.True(t, strict.Has(model.FieldKey{ID: "f1", Tiling: 2}))
	assert.False(t, strict.Add(Entry{Key: model.FieldKey{ID: "f1", Tiling: 2}, ObservedAt: t0}))
}

func TestSeedOrdersByTime(t *testing.T) {
	r := New(true)
	n := r.Seed([]Entry{
		{Key: model.FieldKey{ID: "b"}, ObservedAt: t0.Add(time.Hour)},
		{Key: model.FieldKey{ID: "a"}, ObservedAt: t0},
		{Key: model.FieldKey{ID: "a"}, ObservedAt: t0.Add(2 * time.Hour)},
	})
	assert.Equal(t, 2, n)
	got := r.Entries()
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Key.ID)
	latest, _ := r.Latest()
	assert.Equal(t, "b", latest.Key.ID)
}

func TestSnapshotIsDetached(t *testing.T) {
	r := New(true)
	r.Add(Entry{Key: model.FieldKey{ID: "a"}, ObservedAt: t0})
	snap := r.Snapshot()
	r.Add(Entry{Key: model.FieldKey{ID: "b"}, ObservedAt: t0})
	assert.Equal(t, 1, snap.Len())
	assert.True(t, snap.Has(model.FieldKey{ID: "a"}))
	assert.False(t, snap.Has(model.FieldKey{ID: "b"}))
}

func TestConcurrentReaders(t *testing.T) {
	r := New(true)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = r.Snapshot().Len()
			}
		}()
	}
	for j := 0; j < 100; j++ {
		r.Add(Entry{Key: model.FieldKey{ID: "f", Tiling: j}, ObservedAt: t0})
	}
	wg.Wait()
	assert.Equal(t, 100, r.Len())
}

func TestCSVRoundTrip(t *testing.T) {
	in := []Entry{
		{Key: model.FieldKey{ID: "f1", Tiling: 1}, ObservedAt: t0, RA: 10.5, Dec: -70},
		{Key: model.FieldKey{ID: "f2", Tiling: 2}, ObservedAt: t0.Add(90 * time.Second)},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, in))
	out, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestReadCSVMinimalAndErrors(t *testing.T) {
	out, err := ReadCSV(strings.NewReader("id,observed_utc\nf1,2016-02-11T03:00:00Z\n"))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, model.FieldKey{ID: "f1"}, out[0].Key)

	_, err = ReadCSV(strings.NewReader("id\nf1\n"))
	assert.Error(t, err)
	_, err = ReadCSV(strings.NewReader("id,observed_utc\nf1,yesterday\n"))
	assert.Error(t, err)
	out, err = ReadCSV(strings.NewReader(""))
	assert.NoError(t, err)
	assert.Empty(t, out)
}
