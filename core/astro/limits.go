package astro

import (
	"fmt"

	"gonum.org/v1/gonum/interp"
)

// LimitPoint is one row of a declination-dependent pointing limit table.
type LimitPoint struct {
	Dec       float64 `json:"dec"`
	HourAngle float64 `json:"hour_angle"` // maximum |HA| in degrees
	Airmass   float64 `json:"airmass"`    // maximum airmass
}

// Limits interpolates hour angle and airmass limits as a function of
// declination. Declinations outside the table are not observable.
type Limits struct {
	minDec, maxDec float64
	buffer         float64
	ha             interp.PiecewiseLinear
	airmass        interp.PiecewiseLinear
}

// NewLimits fits the table. Rows must be sorted by strictly increasing
// declination. buffer is subtracted from every hour angle limit.
func NewLimits(rows []LimitPoint, buffer float64) (*Limits, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("limit table needs at least 2 rows, got %d", len(rows))
	}
	decs := make([]float64, len(rows))
	has := make([]float64, len(rows))
	ams := make([]float64, len(rows))
	for i, r := range rows {
		if i > 0 && r.Dec <= rows[i-1].Dec {
			return nil, fmt.Errorf("limit table not sorted at row %d (dec %.2f)", i, r.Dec)
		}
		if r.HourAngle <= 0 || r.Airmass < 1 {
			return nil, fmt.Errorf("invalid limits at dec %.2f", r.Dec)
		}
		decs[i], has[i], ams[i] = r.Dec, r.HourAngle, r.Airmass
	}
	l := &Limits{minDec: decs[0], maxDec: decs[len(decs)-1], buffer: buffer}
	if err := l.ha.Fit(decs, has); err != nil {
		return nil, err
	}
	if err := l.airmass.Fit(decs, ams); err != nil {
		return nil, err
	}
	return l, nil
}

// Covers reports whether dec lies inside the table.
func (l *Limits) Covers(dec float64) bool { return dec >= l.minDec && dec <= l.maxDec }

// HourAngle returns the buffered hour angle limit, or -1 outside the table.
func (l *Limits) HourAngle(dec float64) float64 {
	if !l.Covers(dec) {
		return -1
	}
	return l.ha.Predict(dec) - l.buffer
}

// Airmass returns the airmass limit, or -1 outside the table.
func (l *Limits) Airmass(dec float64) float64 {
	if !l.Covers(dec) {
		return -1
	}
	return l.airmass.Predict(dec)
}

// BlancoLimits approximates the Blanco 4m hour angle and airmass envelope.
// Other sites supply their own rows to NewLimits.
func BlancoLimits() []LimitPoint {
	return []LimitPoint{
		{Dec: -90, HourAngle: 180, Airmass: 2.0},
		{Dec: -80, HourAngle: 120, Airmass: 2.0},
		{Dec: -70, HourAngle: 90, Airmass: 2.0},
		{Dec: -60, HourAngle: 80, Airmass: 2.0},
		{Dec: -40, HourAngle: 78.75, Airmass: 2.0},
		{Dec: -20, HourAngle: 78.75, Airmass: 2.0},
		{Dec: 0, HourAngle: 70, Airmass: 1.9},
		{Dec: 15, HourAngle: 60, Airmass: 1.8},
		{Dec: 30, HourAngle: 45, Airmass: 1.8},
	}
}
