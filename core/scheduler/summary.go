package scheduler

import (
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/skyplan/core/model"
)

// Summary condenses the records of a night.
type Summary struct {
	Observations int     `json:"observations"`
	MeanAirmass  float64 `json:"mean_airmass"`
	MaxAirmass   float64 `json:"max_airmass"`
	MeanSlewDeg  float64 `json:"mean_slew_deg"`
	StdSlewDeg   float64 `json:"std_slew_deg"`
	// ExposureWeightedAirmass weights each airmass by its exposure time.
	ExposureWeightedAirmass float64 `json:"exposure_weighted_airmass"`
}

// Summarize computes airmass and slew statistics of a night.
func Summarize(n model.NightPlan) Summary {
	var airmass, slew, weights []float64
	for _, c := range n.Chunks {
		for _, r := range c.Records {
			airmass = append(airmass, r.Airmass)
			slew = append(slew, r.SlewDeg)
			weights = append(weights, r.Exposure.Seconds())
		}
	}
	s := Summary{Observations: len(airmass)}
	if s.Observations == 0 {
		return s
	}
	s.MeanAirmass = stat.Mean(airmass, nil)
	s.ExposureWeightedAirmass = stat.Mean(airmass, weights)
	s.MeanSlewDeg = stat.Mean(slew, nil)
	if len(slew) > 1 {
		s.StdSlewDeg = stat.StdDev(slew, nil)
	}
	for _, a := range airmass {
		if a > s.MaxAirmass {
			s.MaxAirmass = a
		}
	}
	return s
}
