package calendar

import (
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/skyplan/core/astro"
	"github.com/kilianp07/skyplan/core/model"
)

func at(day, hour, min int) time.Time {
	return time.Date(2016, 2, day, hour, min, 0, 0, time.UTC)
}

func sample() []model.ObservationWindow {
	return []model.ObservationWindow{
		{Start: at(12, 0, 30), Stop: at(12, 5, 0), Tag: "first"},
		{Start: at(11, 0, 30), Stop: at(11, 3, 0)},
		{Start: at(11, 5, 0), Stop: at(11, 9, 0)},
	}
}

func TestNewDerivesNitesAndOrders(t *testing.T) {
	cal, err := New(sample(), astro.CTIO())
	require.NoError(t, err)
	assert.Equal(t, 3, cal.Len())
	assert.Equal(t, []string{"20160210", "20160211"}, slices.Collect(cal.Nights(time.Time{}, time.Time{})))
	ws := cal.WindowsFor("20160210")
	require.Len(t, ws, 2)
	assert.True(t, ws[0].Stop.Before(ws[1].Start))
	assert.Empty(t, cal.WindowsFor("20990101"))
}

func TestNightsIsRestartableAndBounded(t *testing.T) {
	cal, err := New(sample(), nil)
	require.NoError(t, err)
	seq := cal.Nights(at(12, 0, 0), time.Time{})
	assert.Equal(t, []string{"20160211"}, slices.Collect(seq))
	assert.Equal(t, []string{"20160211"}, slices.Collect(seq))
	assert.Empty(t, slices.Collect(cal.Nights(at(20, 0, 0), at(21, 0, 0))))

	count := 0
	for range cal.Nights(time.Time{}, time.Time{}) {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestNewRejectsMalformedWindows(t *testing.T) {
	bad := []model.ObservationWindow{{Start: at(11, 3, 0), Stop: at(11, 1, 0)}}
	_, err := New(bad, nil)
	assert.True(t, errors.Is(err, model.ErrMalformedCalendar))

	overlap := []model.ObservationWindow{
		{Start: at(11, 0, 30), Stop: at(11, 3, 0)},
		{Start: at(11, 2, 0), Stop: at(11, 4, 0)},
	}
	_, err = New(overlap, nil)
	var me *model.MalformedCalendarError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, "20160210", me.Nite)
}

func TestNewRejectsInterleavedNites(t *testing.T) {
	interleaved := []model.ObservationWindow{
		{Nite: "20160210", Start: at(11, 0, 30), Stop: at(11, 1, 0)},
		{Nite: "20160211", Start: at(11, 2, 0), Stop: at(11, 3, 0)},
		{Nite: "20160210", Start: at(11, 4, 0), Stop: at(11, 5, 0)},
	}
	_, err := New(interleaved, nil)
	var me *model.MalformedCalendarError
	require.True(t, errors.As(err, &me))
	assert.True(t, errors.Is(err, model.ErrMalformedCalendar))
	assert.Equal(t, "20160210", me.Nite)
	assert.Equal(t, 2, me.Index)

	// Consecutive windows of one nite remain valid.
	_, err = New(interleaved[:2], nil)
	assert.NoError(t, err)
}

func TestContains(t *testing.T) {
	cal, err := New(sample(), nil)
	require.NoError(t, err)
	assert.True(t, cal.Contains(at(11, 1, 0)))
	assert.False(t, cal.Contains(at(11, 4, 0)))
	assert.True(t, cal.Contains(at(11, 9, 0)))
	assert.False(t, cal.Contains(at(13, 0, 0)))
	first, last := cal.Span()
	assert.Equal(t, at(11, 0, 30), first)
	assert.Equal(t, at(12, 5, 0), last)
}

func TestReadCSV(t *testing.T) {
	in := `nite,start,stop,tag
20160210,2016/02/11 00:30:00,2016/02/11 09:00:00,full
,2016-02-12T00:30:00Z,2016-02-12T05:00:00Z,
`
	ws, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, ws, 2)
	assert.Equal(t, "full", ws[0].Tag)
	assert.Equal(t, at(11, 0, 30), ws[0].Start)
	assert.Equal(t, "", ws[1].Nite)

	cal, err := New(ws, nil)
	require.NoError(t, err)
	assert.Len(t, cal.WindowsFor("20160211"), 1)

	_, err = ReadCSV(strings.NewReader("start,stop\nnow,later\n"))
	assert.ErrorIs(t, err, model.ErrMalformedCalendar)
	_, err = ReadCSV(strings.NewReader("nite,tag\n"))
	assert.ErrorIs(t, err, model.ErrMalformedCalendar)
}
