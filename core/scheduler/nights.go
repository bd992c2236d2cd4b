package scheduler

import (
	"iter"

	"github.com/kilianp07/skyplan/core/astro"
	"github.com/kilianp07/skyplan/core/model"
)

type niteWindows struct {
	nite    string
	windows []model.ObservationWindow
}

// nights yields the nites selected by p with the windows to plan.
func (s *Scheduler) nights(p Params) iter.Seq2[string, []model.ObservationWindow] {
	return func(yield func(string, []model.ObservationWindow) bool) {
		found := false
		for nite := range s.cal.Nights(p.Start, p.End) {
			windows := s.cal.WindowsFor(nite)
			if p.Mode == ModeBounded {
				clipped := windows[:0]
				for _, w := range windows {
					if c, ok := w.Clip(p.Start, p.End); ok {
						clipped = append(clipped, c)
					}
				}
				windows = clipped
			}
			if len(windows) == 0 {
				continue
			}
			found = true
			if !yield(nite, windows) {
				return
			}
		}
		if found || p.Mode != ModeBounded || p.Clip || p.Start.IsZero() || p.End.IsZero() {
			return
		}
		nite := s.cal.Site().Nite(p.Start)
		s.log.Warnf("slice %s-%s outside nominal observing windows, planning ad hoc", stamp(p.Start), stamp(p.End))
		yield(nite, []model.ObservationWindow{{Nite: nite, Start: p.Start, Stop: p.End}})
	}
}

// reach returns, for each nite of run, the sidereal coverage of its windows
// and of every later one.
func (s *Scheduler) reach(run []niteWindows) []*astro.Coverage {
	out := make([]*astro.Coverage, len(run))
	cov := astro.NewCoverage(s.cat.Site().Lon)
	for i := len(run) - 1; i >= 0; i-- {
		for _, w := range run[i].windows {
			cov.Add(w.Start, w.Stop)
		}
		out[i] = cov.Clone()
	}
	return out
}
