package astro

import (
	"math"
	"time"
)

const (
	unixEpochJD = 2440587.5
	j2000JD     = 2451545.0
	secondsDay  = 86400.0
)

// JulianDate returns the Julian date of t.
func JulianDate(t time.Time) float64 {
	return unixEpochJD + float64(t.UnixNano())/1e9/secondsDay
}

// GMST returns the Greenwich mean sidereal time of t in degrees within [0,360).
func GMST(t time.Time) float64 {
	d := JulianDate(t) - j2000JD
	c := d / 36525.0
	gmst := 280.46061837 + 360.98564736629*d + 0.000387933*c*c - c*c*c/38710000.0
	return normalize(gmst)
}

// LST returns the local mean sidereal time in degrees for an east-positive
// longitude.
func LST(t time.Time, lonDeg float64) float64 {
	return normalize(GMST(t) + lonDeg)
}

func normalize(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// wrap180 maps an angle to (-180,180].
func wrap180(deg float64) float64 {
	deg = normalize(deg)
	if deg > 180 {
		deg -= 360
	}
	return deg
}
