package scheduler

import (
	"math"
	"testing"
	"time"

	"github.com/kilianp07/skyplan/core/model"
)

func TestSummarize(t *testing.T) {
	n := model.NightPlan{Nite: "20160210", Chunks: []model.Chunk{
		{Seq: 1, Records: []model.Record{
			{Airmass: 1.0, SlewDeg: 0, Exposure: 90 * time.Second},
			{Airmass: 1.4, SlewDeg: 2, Exposure: 270 * time.Second},
		}},
		{Seq: 2},
	}}
	s := Summarize(n)
	if s.Observations != 2 || math.Abs(s.MeanAirmass-1.2) > 1e-12 || s.MaxAirmass != 1.4 {
		t.Fatalf("bad summary %+v", s)
	}
	if math.Abs(s.ExposureWeightedAirmass-1.3) > 1e-12 {
		t.Fatalf("bad weighted airmass %v", s.ExposureWeightedAirmass)
	}
	if math.Abs(s.MeanSlewDeg-1) > 1e-12 || math.Abs(s.StdSlewDeg-math.Sqrt2) > 1e-12 {
		t.Fatalf("bad slew stats %+v", s)
	}
	if got := Summarize(model.NightPlan{}); got.Observations != 0 || got.StdSlewDeg != 0 {
		t.Fatalf("empty night should be zero %+v", got)
	}
}
