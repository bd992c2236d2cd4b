package astro

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	deg2rad = math.Pi / 180
	rad2deg = 180 / math.Pi
)

// unitVector converts equatorial coordinates in degrees to a unit vector.
func unitVector(ra, dec float64) r3.Vec {
	a, d := ra*deg2rad, dec*deg2rad
	return r3.Vec{X: math.Cos(d) * math.Cos(a), Y: math.Cos(d) * math.Sin(a), Z: math.Sin(d)}
}

// Separation returns the great-circle distance in degrees between two sky
// positions.
func Separation(ra1, dec1, ra2, dec2 float64) float64 {
	p, q := unitVector(ra1, dec1), unitVector(ra2, dec2)
	return math.Atan2(r3.Norm(r3.Cross(p, q)), r3.Dot(p, q)) * rad2deg
}

// AirmassFromAltitude returns the plane-parallel airmass (secant of the
// zenith angle). Positions at or below the horizon return +Inf.
func AirmassFromAltitude(alt float64) float64 {
	if alt <= 0 {
		return math.Inf(1)
	}
	return 1 / math.Sin(alt*deg2rad)
}
