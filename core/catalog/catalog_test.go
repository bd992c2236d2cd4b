package catalog

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/skyplan/core/astro"
	"github.com/kilianp07/skyplan/core/model"
	"github.com/kilianp07/skyplan/core/registry"
)

var now = time.Date(2016, 2, 11, 3, 0, 0, 0, time.UTC)

func field(id string, ra, dec float64, tiling int) model.Field {
	return model.Field{ID: id, RA: ra, Dec: dec, Filter: "g", Priority: 1, Exposure: 90 * time.Second, Tiling: tiling}
}

func TestLoadRejectsMalformedRows(t *testing.T) {
	cases := []struct {
		name string
		f    model.Field
	}{
		{"empty id", field("", 10, -30, 1)},
		{"ra out of range", field("a", 360, -30, 1)},
		{"dec out of range", field("a", 10, -91, 1)},
		{"negative tiling", field("a", 10, -30, -1)},
		{"zero exposure", func() model.Field { f := field("a", 10, -30, 1); f.Exposure = 0; return f }()},
		{"negative priority", func() model.Field { f := field("a", 10, -30, 1); f.Priority = -1; return f }()},
		{"empty filter", func() model.Field { f := field("a", 10, -30, 1); f.Filter = ""; return f }()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load([]model.Field{field("ok", 1, -30, 1), tc.f}, Options{AllowRevisits: true})
			require.Error(t, err)
			assert.True(t, errors.Is(err, model.ErrMalformedCatalog))
			var me *model.MalformedCatalogError
			require.True(t, errors.As(err, &me))
			assert.Equal(t, 2, me.Row)
		})
	}
}

func TestDuplicateKeysDependOnRevisitPolicy(t *testing.T) {
	rows := []model.Field{field("a", 10, -30, 1), field("a", 10, -30, 2)}
	_, err := Load(rows, Options{AllowRevisits: true})
	assert.NoError(t, err)
	_, err = Load(rows, Options{AllowRevisits: false})
	assert.ErrorIs(t, err, model.ErrMalformedCatalog)
	_, err = Load([]model.Field{rows[0], rows[0]}, Options{AllowRevisits: true})
	assert.ErrorIs(t, err, model.ErrMalformedCatalog)
}

func TestVisibleCandidates(t *testing.T) {
	site := astro.CTIO()
	ra, dec := site.Zenith(now)
	opposite := ra + 180
	if opposite >= 360 {
		opposite -= 360
	}
	cat, err := Load([]model.Field{
		field("zenith", ra, dec, 1),
		field("below", opposite, 0, 1),
		field("done", ra, dec, 2),
	}, Options{Site: site, AllowRevisits: true})
	require.NoError(t, err)

	reg := registry.New(true)
	reg.Add(registry.Entry{Key: model.FieldKey{ID: "done", Tiling: 2}, ObservedAt: now})

	got := cat.VisibleCandidates(now, reg)
	require.Len(t, got, 1)
	assert.Equal(t, "zenith", got[0].Field.ID)
	assert.InDelta(t, 1.0, got[0].Visibility.Airmass, 1e-6)
	assert.True(t, got[0].Visibility.OK)
}

func TestMarkCompleteIsIdempotent(t *testing.T) {
	cat, err := Load([]model.Field{field("a", 10, -30, 1)}, Options{AllowRevisits: true})
	require.NoError(t, err)
	k := model.FieldKey{ID: "a", Tiling: 1}
	assert.True(t, cat.MarkComplete(k, now))
	assert.True(t, cat.MarkComplete(k, now.Add(time.Hour)))
	at, ok := cat.CompletedAt(k)
	require.True(t, ok)
	assert.Equal(t, now, at)
	f, _ := cat.Get(k)
	assert.True(t, f.Completed())
	assert.False(t, cat.MarkComplete(model.FieldKey{ID: "zz"}, now))
	assert.Equal(t, 0, cat.Pending(nil))
	assert.Equal(t, 1, cat.Len())
}

func TestPendingSkipsUnreachable(t *testing.T) {
	cat, err := Load([]model.Field{
		field("south", 10, -60, 1),
		field("north", 10, 70, 1),
		field("seen", 20, -30, 1),
	}, Options{AllowRevisits: true})
	require.NoError(t, err)
	reg := registry.New(true)
	reg.Add(registry.Entry{Key: model.FieldKey{ID: "seen", Tiling: 1}, ObservedAt: now})
	assert.Equal(t, 1, cat.Pending(reg))
	assert.Equal(t, 90*time.Second, cat.MinExposure())
}

func TestReadCSV(t *testing.T) {
	in := `id,ra,dec,filter,priority,exposure,tiling,hex
# comment
f1,10.5,-30,g,1,90,1,42
f2,11,-31,r,0.5,120.5,2,
`
	fields, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, 42, fields[0].Hex)
	assert.Equal(t, 90*time.Second, fields[0].Exposure)
	assert.Equal(t, 120500*time.Millisecond, fields[1].Exposure)
	assert.Equal(t, "r", fields[1].Filter)

	_, err = ReadCSV(strings.NewReader("id,ra,dec\nf1,1,2\n"))
	assert.ErrorIs(t, err, model.ErrMalformedCatalog)
	_, err = ReadCSV(strings.NewReader("id,ra,dec,filter,priority,exposure,tiling\nf1,x,2,g,1,90,1\n"))
	assert.ErrorIs(t, err, model.ErrMalformedCatalog)
}

func TestPendingDuringCountsOnlyFieldsVisibleInCoverage(t *testing.T) {
	site := astro.CTIO()
	ra, _ := site.Zenith(now)
	opposite := ra + 180
	if opposite >= 360 {
		opposite -= 360
	}
	cat, err := Load([]model.Field{
		field("overhead", ra, -30, 1),
		field("opposite", opposite, -30, 1),
		field("north", ra, 70, 1),
	}, Options{Site: site, AllowRevisits: true})
	require.NoError(t, err)
	assert.Equal(t, 2, cat.Pending(nil))

	cov := astro.NewCoverage(site.Lon)
	assert.Equal(t, 0, cat.PendingDuring(cov, nil))

	cov.Add(now, now.Add(time.Hour))
	assert.Equal(t, 1, cat.PendingDuring(cov, nil))

	reg := registry.New(true)
	reg.Add(registry.Entry{Key: model.FieldKey{ID: "overhead", Tiling: 1}, ObservedAt: now})
	assert.Equal(t, 0, cat.PendingDuring(cov, reg))

	cov.Add(now, now.Add(24*time.Hour))
	assert.Equal(t, 2, cat.PendingDuring(cov, nil))
}
