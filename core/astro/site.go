package astro

import (
	"fmt"
	"math"
	"time"
)

// HourAngleBuffer keeps pointings away from the mechanical hour angle limit.
const HourAngleBuffer = 1.25

// Site describes an observatory and its pointing constraints.
type Site struct {
	Name          string
	Lat           float64       // degrees, north positive
	Lon           float64       // degrees, east positive
	Elevation     float64       // meters
	UTCOffset     time.Duration // offset of local civil time used for nite keys
	MinAltitude   float64       // degrees
	MaxAirmass    float64
	SouthernReach float64 // fields at or below this declination are skipped
	Limits        *Limits // optional declination dependent limits
}

// CTIO returns the Blanco telescope site with its default limits.
func CTIO() *Site {
	lim, err := NewLimits(BlancoLimits(), HourAngleBuffer)
	if err != nil {
		panic(fmt.Sprintf("blanco limits: %v", err))
	}
	return &Site{
		Name:          "CTIO",
		Lat:           -30.169661,
		Lon:           -70.806525,
		Elevation:     2207,
		UTCOffset:     -4 * time.Hour,
		MinAltitude:   30,
		MaxAirmass:    2.0,
		SouthernReach: -90,
		Limits:        lim,
	}
}

// Validate checks that the site is usable.
func (s *Site) Validate() error {
	if s.Lat < -90 || s.Lat > 90 {
		return fmt.Errorf("latitude out of range: %v", s.Lat)
	}
	if s.Lon < -180 || s.Lon > 360 {
		return fmt.Errorf("longitude out of range: %v", s.Lon)
	}
	if s.MaxAirmass < 1 {
		return fmt.Errorf("max airmass must be >= 1, got %v", s.MaxAirmass)
	}
	return nil
}

// Zenith returns the equatorial coordinates of the zenith at t.
func (s *Site) Zenith(t time.Time) (ra, dec float64) {
	return LST(t, s.Lon), s.Lat
}

// HourAngle returns the hour angle of ra at t in degrees within (-180,180].
func (s *Site) HourAngle(t time.Time, ra float64) float64 {
	return wrap180(LST(t, s.Lon) - ra)
}

// Altitude returns the altitude in degrees of (ra, dec) at t.
func (s *Site) Altitude(t time.Time, ra, dec float64) float64 {
	return s.altitude(s.HourAngle(t, ra), dec)
}

func (s *Site) altitude(haDeg, dec float64) float64 {
	ha := haDeg * deg2rad
	lat, d := s.Lat*deg2rad, dec*deg2rad
	sinAlt := math.Sin(d)*math.Sin(lat) + math.Cos(d)*math.Cos(lat)*math.Cos(ha)
	return math.Asin(math.Max(-1, math.Min(1, sinAlt))) * rad2deg
}

// Airmass returns the airmass of (ra, dec) at t.
func (s *Site) Airmass(t time.Time, ra, dec float64) float64 {
	return AirmassFromAltitude(s.Altitude(t, ra, dec))
}

// Visibility is the instantaneous observability of a position.
type Visibility struct {
	Airmass   float64
	Altitude  float64
	HourAngle float64
	OK        bool
}

// Visibility evaluates every site constraint for (ra, dec) at t.
func (s *Site) Visibility(t time.Time, ra, dec float64) Visibility {
	return s.visibility(s.HourAngle(t, ra), dec)
}

func (s *Site) visibility(ha, dec float64) Visibility {
	v := Visibility{HourAngle: ha, Altitude: s.altitude(ha, dec)}
	v.Airmass = AirmassFromAltitude(v.Altitude)
	v.OK = dec > s.SouthernReach && v.Altitude >= s.MinAltitude && v.Airmass <= s.MaxAirmass
	if v.OK && s.Limits != nil {
		v.OK = math.Abs(v.HourAngle) < s.Limits.HourAngle(dec) && v.Airmass < s.Limits.Airmass(dec)
	}
	return v
}

// Reachable reports whether a field at dec ever satisfies the static
// constraints, i.e. when transiting the meridian.
func (s *Site) Reachable(dec float64) bool {
	if dec <= s.SouthernReach {
		return false
	}
	if s.Limits != nil && !s.Limits.Covers(dec) {
		return false
	}
	return 90-math.Abs(dec-s.Lat) >= s.MinAltitude
}

// MaxHourAngle returns the largest absolute hour angle at which a field at
// dec is visible. Visibility shrinks monotonically away from the meridian,
// so the bound is found by bisection. ok is false when the field is never
// visible.
func (s *Site) MaxHourAngle(dec float64) (ha float64, ok bool) {
	if !s.visibility(0, dec).OK {
		return 0, false
	}
	if s.visibility(180, dec).OK {
		return 180, true
	}
	lo, hi := 0.0, 180.0
	for hi-lo > 1e-6 {
		mid := (lo + hi) / 2
		if s.visibility(mid, dec).OK {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo, true
}

// Nite returns the nite key of t: the local date of the noon preceding t.
func (s *Site) Nite(t time.Time) string {
	local := t.UTC().Add(s.UTCOffset)
	if local.Hour() < 12 {
		local = local.AddDate(0, 0, -1)
	}
	return local.Format(NiteLayout)
}

// NiteLayout formats nite keys.
const NiteLayout = "20060102"

// NiteStart returns noon local time of the nite, expressed in UTC.
func (s *Site) NiteStart(nite string) (time.Time, error) {
	d, err := time.Parse(NiteLayout, nite)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse nite %q: %w", nite, err)
	}
	return d.Add(12 * time.Hour).Add(-s.UTCOffset), nil
}
