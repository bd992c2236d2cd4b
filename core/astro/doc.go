// Package astro provides the positional astronomy needed to decide whether a
// survey field can be observed: sidereal time, hour angle, altitude, airmass,
// angular separation and the telescope pointing limits of a site.
//
// Accuracy targets scheduling decisions (arcminute level). Precession,
// nutation and refraction are ignored.
package astro
