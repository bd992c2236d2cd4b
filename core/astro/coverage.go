package astro

import (
	"sort"
	"time"
)

// siderealRate is the advance of sidereal time in degrees per solar hour.
const siderealRate = 360.98564736629 / 24

// Coverage is a union of local sidereal time arcs, kept as sorted disjoint
// spans within [0, 360]. A field with right ascension ra is visible during
// the covered time when some covered sidereal time puts it within its
// maximum hour angle.
type Coverage struct {
	lon   float64
	spans [][2]float64
}

// NewCoverage returns an empty coverage for a site at longitude lon.
func NewCoverage(lon float64) *Coverage { return &Coverage{lon: lon} }

// Add covers the sidereal times swept between start and stop.
func (c *Coverage) Add(start, stop time.Time) {
	if !stop.After(start) {
		return
	}
	c.addArc(LST(start, c.lon), stop.Sub(start).Hours()*siderealRate)
}

func (c *Coverage) addArc(from, length float64) {
	if length >= 360 {
		c.spans = [][2]float64{{0, 360}}
		return
	}
	c.spans = append(c.spans, split(from, length)...)
	c.merge()
}

// split turns an arc into at most two spans within [0, 360].
func split(from, length float64) [][2]float64 {
	from = normalize(from)
	if to := from + length; to <= 360 {
		return [][2]float64{{from, to}}
	}
	return [][2]float64{{from, 360}, {0, from + length - 360}}
}

func (c *Coverage) merge() {
	sort.Slice(c.spans, func(i, j int) bool { return c.spans[i][0] < c.spans[j][0] })
	out := c.spans[:0]
	for _, s := range c.spans {
		if n := len(out); n > 0 && s[0] <= out[n-1][1] {
			if s[1] > out[n-1][1] {
				out[n-1][1] = s[1]
			}
			continue
		}
		out = append(out, s)
	}
	c.spans = out
}

// Union adds every span of o.
func (c *Coverage) Union(o *Coverage) {
	if o == nil || len(o.spans) == 0 {
		return
	}
	c.spans = append(c.spans, o.spans...)
	c.merge()
}

// Clone returns an independent copy.
func (c *Coverage) Clone() *Coverage {
	return &Coverage{lon: c.lon, spans: append([][2]float64(nil), c.spans...)}
}

// Empty reports whether no sidereal time is covered.
func (c *Coverage) Empty() bool { return len(c.spans) == 0 }

// Full reports whether every sidereal time is covered.
func (c *Coverage) Full() bool {
	return len(c.spans) == 1 && c.spans[0][0] <= 0 && c.spans[0][1] >= 360
}

// Reaches reports whether some covered sidereal time lies within maxHA
// degrees of ra, i.e. whether a field at ra with that hour angle bound
// is visible at some covered instant.
func (c *Coverage) Reaches(ra, maxHA float64) bool {
	if len(c.spans) == 0 {
		return false
	}
	if maxHA >= 180 || c.Full() {
		return true
	}
	for _, a := range split(ra-maxHA, 2*maxHA) {
		for _, s := range c.spans {
			if a[0] <= s[1] && s[0] <= a[1] {
				return true
			}
		}
	}
	return false
}
