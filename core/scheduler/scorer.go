package scheduler

import (
	"math"
	"sort"
	"time"

	"github.com/kilianp07/skyplan/core/astro"
	"github.com/kilianp07/skyplan/core/catalog"
	"github.com/kilianp07/skyplan/core/model"
)

// Pointing is where the telescope was left after an exposure.
type Pointing struct {
	RA, Dec float64
	At      time.Time
}

// Scored is a ranked candidate with its slew.
type Scored struct {
	Candidate catalog.Candidate
	Cost      float64
	SlewDeg   float64
	SlewTime  time.Duration
}

// Scorer ranks candidates by weighted cost. It remembers when each field
// was first seen visible during the current night.
type Scorer struct {
	cfg   Config
	since map[model.FieldKey]time.Time
}

// NewScorer returns a scorer for the given configuration.
func NewScorer(cfg Config) *Scorer {
	return &Scorer{cfg: cfg, since: make(map[model.FieldKey]time.Time)}
}

// ResetNight forgets visibility history.
func (s *Scorer) ResetNight() { clear(s.since) }

// Slew returns the angular distance from the previous pointing and the time
// needed to cover it. A pointing older than the slew memory counts as none.
func (s *Scorer) Slew(from *Pointing, now time.Time, ra, dec float64) (float64, time.Duration) {
	if from == nil || now.Sub(from.At) > s.cfg.slewMemory() {
		return 0, 0
	}
	deg := astro.Separation(from.RA, from.Dec, ra, dec)
	d := time.Duration(deg / s.cfg.SlewRateDegPerSec * float64(time.Second))
	if deg > s.cfg.SlewPenaltyThresholdDeg {
		d += s.cfg.slewPenalty()
	}
	return deg, d
}

// Cost evaluates the weighted cost of a candidate.
func (s *Scorer) Cost(c catalog.Candidate, slewDeg float64, visible time.Duration) float64 {
	return s.cfg.AirmassWeight*c.Visibility.Airmass +
		s.cfg.SlewWeight*slewDeg +
		s.cfg.StaleWeight*visible.Hours() -
		s.cfg.PriorityWeight*c.Field.Priority +
		s.cfg.TilingWeight*float64(c.Field.Tiling)
}

// Rank returns the lowest-cost candidate. Costs within the tolerance are
// broken by distance to the meridian, then ID, then tiling. The result does
// not depend on the order of cands.
func (s *Scorer) Rank(cands []catalog.Candidate, now time.Time, from *Pointing) (Scored, bool) {
	if len(cands) == 0 {
		return Scored{}, false
	}
	sorted := make([]catalog.Candidate, len(cands))
	copy(sorted, cands)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Field.Key().Less(sorted[j].Field.Key()) })

	var best Scored
	found := false
	for _, c := range sorted {
		k := c.Field.Key()
		first, ok := s.since[k]
		if !ok {
			first = now
			s.since[k] = now
		}
		deg, d := s.Slew(from, now, c.Field.RA, c.Field.Dec)
		sc := Scored{Candidate: c, Cost: s.Cost(c, deg, now.Sub(first)), SlewDeg: deg, SlewTime: d}
		if !found || s.better(sc, best) {
			best, found = sc, true
		}
	}
	return best, found
}

func (s *Scorer) better(a, b Scored) bool {
	if diff := a.Cost - b.Cost; math.Abs(diff) > s.cfg.Tolerance {
		return diff < 0
	}
	ha, hb := math.Abs(a.Candidate.Visibility.HourAngle), math.Abs(b.Candidate.Visibility.HourAngle)
	if ha != hb {
		return ha < hb
	}
	return a.Candidate.Field.Key().Less(b.Candidate.Field.Key())
}
