// Package calendar exposes the observable windows of each nite.
package calendar

import (
	"iter"
	"sort"
	"time"

	"github.com/kilianp07/skyplan/core/astro"
	"github.com/kilianp07/skyplan/core/model"
)

// Calendar is an immutable, chronologically ordered set of windows grouped
// by nite.
type Calendar struct {
	site    *astro.Site
	windows []model.ObservationWindow
	nites   []string
	byNite  map[string][]model.ObservationWindow
}

// New validates and indexes the windows. Missing nites are derived from
// the window start using the site's nite convention.
func New(windows []model.ObservationWindow, site *astro.Site) (*Calendar, error) {
	if site == nil {
		site = astro.CTIO()
	}
	ws := make([]model.ObservationWindow, len(windows))
	copy(ws, windows)
	for i := range ws {
		if !ws[i].Stop.After(ws[i].Start) {
			return nil, &model.MalformedCalendarError{Index: i, Nite: ws[i].Nite, Reason: "stop not after start"}
		}
		ws[i].Start, ws[i].Stop = ws[i].Start.UTC(), ws[i].Stop.UTC()
		if ws[i].Nite == "" {
			ws[i].Nite = site.Nite(ws[i].Start)
		}
	}
	sort.SliceStable(ws, func(i, j int) bool { return ws[i].Start.Before(ws[j].Start) })

	c := &Calendar{site: site, windows: ws, byNite: make(map[string][]model.ObservationWindow)}
	for i, w := range ws {
		prev, seen := c.byNite[w.Nite]
		if seen && c.nites[len(c.nites)-1] != w.Nite {
			return nil, &model.MalformedCalendarError{Index: i, Nite: w.Nite, Reason: "windows of another nite in between"}
		}
		if seen && prev[len(prev)-1].Stop.After(w.Start) {
			return nil, &model.MalformedCalendarError{Index: i, Nite: w.Nite, Reason: "overlaps previous window"}
		}
		if !seen {
			if n := len(c.nites); n > 0 && c.nites[n-1] > w.Nite {
				return nil, &model.MalformedCalendarError{Index: i, Nite: w.Nite, Reason: "nite out of chronological order"}
			}
			c.nites = append(c.nites, w.Nite)
		}
		c.byNite[w.Nite] = append(prev, w)
	}
	return c, nil
}

// Site returns the site the calendar was built for.
func (c *Calendar) Site() *astro.Site { return c.site }

// Len returns the number of windows.
func (c *Calendar) Len() int { return len(c.windows) }

// Nights yields, in order, the nites with at least one window intersecting
// [start, end]. Zero bounds are unbounded. The sequence can be ranged over
// any number of times.
func (c *Calendar) Nights(start, end time.Time) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, nite := range c.nites {
			if !c.intersects(nite, start, end) {
				continue
			}
			if !yield(nite) {
				return
			}
		}
	}
}

func (c *Calendar) intersects(nite string, start, end time.Time) bool {
	for _, w := range c.byNite[nite] {
		if _, ok := w.Clip(start, end); ok {
			return true
		}
	}
	return false
}

// WindowsFor returns the windows of a nite in chronological order.
func (c *Calendar) WindowsFor(nite string) []model.ObservationWindow {
	ws := c.byNite[nite]
	out := make([]model.ObservationWindow, len(ws))
	copy(out, ws)
	return out
}

// Contains reports whether t falls inside any window.
func (c *Calendar) Contains(t time.Time) bool {
	i := sort.Search(len(c.windows), func(i int) bool { return c.windows[i].Stop.After(t) || c.windows[i].Stop.Equal(t) })
	return i < len(c.windows) && c.windows[i].Contains(t)
}

// Span returns the first start and last stop of the calendar.
func (c *Calendar) Span() (time.Time, time.Time) {
	if len(c.windows) == 0 {
		return time.Time{}, time.Time{}
	}
	last := c.windows[0].Stop
	for _, w := range c.windows {
		if w.Stop.After(last) {
			last = w.Stop
		}
	}
	return c.windows[0].Start, last
}
