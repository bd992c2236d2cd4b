package scheduler

import (
	"context"
	"sort"
	"time"

	"github.com/kilianp07/skyplan/core/catalog"
	"github.com/kilianp07/skyplan/core/events"
	"github.com/kilianp07/skyplan/core/metrics"
	"github.com/kilianp07/skyplan/core/model"
	"github.com/kilianp07/skyplan/core/registry"
)

type nightState int

const (
	stateAwaitingWindow nightState = iota
	stateSelecting
	stateWindowClosed
	stateNightDone
)

func (s nightState) String() string {
	switch s {
	case stateAwaitingWindow:
		return "awaiting_window"
	case stateSelecting:
		return "selecting"
	case stateWindowClosed:
		return "window_closed"
	case stateNightDone:
		return "night_done"
	default:
		return "unknown"
	}
}

// segment is a planning interval: a whole window, or a slice of it when a
// chunk granularity is set. parent indexes the owning window.
type segment struct {
	window model.ObservationWindow
	parent int
}

func segments(windows []model.ObservationWindow, chunk time.Duration) []segment {
	var out []segment
	for i, w := range windows {
		if chunk <= 0 {
			out = append(out, segment{window: w, parent: i})
			continue
		}
		for start := w.Start; start.Before(w.Stop); start = start.Add(chunk) {
			sub := w
			sub.Start = start
			if end := start.Add(chunk); end.Before(w.Stop) {
				sub.Stop = end
			}
			out = append(out, segment{window: sub, parent: i})
		}
	}
	return out
}

// nightRun carries the state of one nite.
type nightRun struct {
	s        *Scheduler
	nite     string
	windows  []model.ObservationWindow
	segs     []segment
	next     int
	earliest time.Time

	plan        model.NightPlan
	parent      int
	pending     []model.Chunk
	seg         segment
	records     []model.Record
	current     time.Time
	from        *Pointing
	group       *hexGroup
	interrupted bool
}

// hexGroup is the sky cell and tiling of the last selection. Its other
// exposures follow back to back without a new slew.
type hexGroup struct {
	hex    int
	tiling int
}

// planNight runs the per-night state machine. The boolean reports whether
// the context was cancelled at a suspension point.
func (s *Scheduler) planNight(ctx context.Context, nite string, windows []model.ObservationWindow, earliest time.Time, chunk time.Duration) (model.NightPlan, bool) {
	r := &nightRun{
		s:        s,
		nite:     nite,
		windows:  windows,
		segs:     segments(windows, chunk),
		earliest: earliest,
		plan:     model.NightPlan{Nite: nite, Chunks: []model.Chunk{}},
		parent:   -1,
	}
	s.scorer.ResetNight()
	state := stateAwaitingWindow
	for state != stateNightDone {
		switch state {
		case stateAwaitingWindow:
			state = r.openSegment()
		case stateSelecting:
			state = r.step(ctx)
		case stateWindowClosed:
			r.pending = append(r.pending, model.Chunk{Window: r.seg.window, Records: r.records})
			if r.interrupted {
				r.flush()
				state = stateNightDone
			} else {
				state = stateAwaitingWindow
			}
		}
	}
	s.log.Debugw("night planned", map[string]any{
		"nite":         nite,
		"chunks":       len(r.plan.Chunks),
		"observations": r.plan.Observations(),
		"interrupted":  r.interrupted,
	})
	return r.plan, r.interrupted
}

func (r *nightRun) openSegment() nightState {
	if r.next == len(r.segs) {
		r.flush()
		return stateNightDone
	}
	r.seg = r.segs[r.next]
	r.next++
	if r.seg.parent != r.parent {
		r.flush()
		r.parent = r.seg.parent
		r.from = nil
		r.group = nil
	}
	r.current = latest(r.seg.window.Start, r.earliest, r.current)
	r.records = nil
	return stateSelecting
}

// step selects at most one field at the current time. After a field with a
// sky cell, the remaining exposures of that cell and tiling come first.
func (r *nightRun) step(ctx context.Context) nightState {
	if err := r.s.pacer.Wait(ctx, r.current); err != nil {
		r.s.log.Warnf("nite %s interrupted at %s: %v", r.nite, r.current.Format(time.RFC3339), err)
		r.interrupted = true
		return stateWindowClosed
	}
	rec, n, ok := r.s.selectSibling(r.seg.window, r.current, r.group)
	if !ok {
		r.group = nil
		rec, n, ok = r.s.selectNext(r.seg.window, r.current, r.from)
	}
	if !ok {
		return stateWindowClosed
	}
	if f, found := r.s.cat.Get(rec.Key()); found && f.Hex != 0 {
		r.group = &hexGroup{hex: f.Hex, tiling: f.Tiling}
	}
	r.records = append(r.records, rec)
	r.current = rec.End()
	r.from = &Pointing{RA: rec.RA, Dec: rec.Dec, At: rec.End()}
	r.s.commit(r.nite, r.seg.window, rec, n)
	return stateSelecting
}

// flush emits the chunks of the current parent window. Empty slices are
// dropped unless the whole window produced nothing.
func (r *nightRun) flush() {
	if r.parent < 0 {
		return
	}
	var keep []model.Chunk
	for _, c := range r.pending {
		if !c.Empty() {
			keep = append(keep, c)
		}
	}
	if len(keep) == 0 {
		keep = []model.Chunk{{Window: r.windows[r.parent]}}
	}
	for _, c := range keep {
		c.Seq = len(r.plan.Chunks) + 1
		if c.Records == nil {
			c.Records = []model.Record{}
		}
		r.plan.Chunks = append(r.plan.Chunks, c)
		r.s.closeChunk(r.nite, c)
	}
	r.pending = nil
	r.parent = -1
}

// selectNext picks the best field that fits before the window stop. It also
// returns the number of visible candidates considered.
func (s *Scheduler) selectNext(w model.ObservationWindow, current time.Time, from *Pointing) (model.Record, int, bool) {
	minExp := s.cat.MinExposure()
	if minExp <= 0 || current.Add(minExp).After(w.Stop) {
		return model.Record{}, 0, false
	}
	visible := s.cat.VisibleCandidates(current, s.reg)
	fit := make([]catalog.Candidate, 0, len(visible))
	for _, c := range visible {
		_, slew := s.scorer.Slew(from, current, c.Field.RA, c.Field.Dec)
		if current.Add(slew).Add(c.Field.Exposure).After(w.Stop) {
			continue
		}
		fit = append(fit, c)
	}
	best, ok := s.scorer.Rank(fit, current, from)
	if !ok {
		return model.Record{}, len(visible), false
	}
	return newRecord(best.Candidate, current, best), len(visible), true
}

// selectSibling returns the next exposure of group that is visible at
// current and fits before the window stop, taken in filter then ID order.
// The telescope is already on the cell, so no slew is charged.
func (s *Scheduler) selectSibling(w model.ObservationWindow, current time.Time, g *hexGroup) (model.Record, int, bool) {
	if g == nil {
		return model.Record{}, 0, false
	}
	visible := s.cat.VisibleCandidates(current, s.reg)
	var same []catalog.Candidate
	for _, c := range visible {
		f := c.Field
		if f.Hex != g.hex || f.Tiling != g.tiling || current.Add(f.Exposure).After(w.Stop) {
			continue
		}
		same = append(same, c)
	}
	if len(same) == 0 {
		return model.Record{}, len(visible), false
	}
	sort.Slice(same, func(i, j int) bool {
		a, b := same[i].Field, same[j].Field
		if a.Filter != b.Filter {
			return a.Filter < b.Filter
		}
		return a.Key().Less(b.Key())
	})
	c := same[0]
	return newRecord(c, current, Scored{Candidate: c, Cost: s.scorer.Cost(c, 0, 0)}), len(visible), true
}

func newRecord(c catalog.Candidate, current time.Time, sc Scored) model.Record {
	f, v := c.Field, c.Visibility
	return model.Record{
		FieldID:   f.ID,
		Tiling:    f.Tiling,
		Filter:    f.Filter,
		RA:        f.RA,
		Dec:       f.Dec,
		Time:      current.Add(sc.SlewTime),
		Exposure:  f.Exposure,
		Airmass:   v.Airmass,
		Altitude:  v.Altitude,
		HourAngle: v.HourAngle,
		SlewDeg:   sc.SlewDeg,
		SlewTime:  sc.SlewTime,
		Cost:      sc.Cost,
	}
}

// commit marks the field complete and reports the observation.
func (s *Scheduler) commit(nite string, w model.ObservationWindow, rec model.Record, candidates int) {
	s.reg.Add(registry.Entry{Key: rec.Key(), ObservedAt: rec.Time, RA: rec.RA, Dec: rec.Dec})
	s.cat.MarkComplete(rec.Key(), rec.Time)
	if s.bus != nil {
		s.bus.Publish(events.ObservationScheduled{Nite: nite, Window: w, Record: rec, Candidates: candidates})
	}
	if err := s.sink.RecordObservation(metrics.ObservationEvent{Nite: nite, Tag: w.Tag, Record: rec, Candidates: candidates}); err != nil {
		s.log.Errorf("record observation %s: %v", rec.Key(), err)
	}
	s.log.Debugf("%s %s airmass=%.2f slew=%.2f", rec.Time.Format(time.RFC3339), rec.Key(), rec.Airmass, rec.SlewDeg)
}

func (s *Scheduler) closeChunk(nite string, c model.Chunk) {
	if s.bus != nil {
		s.bus.Publish(events.ChunkPlanned{Nite: nite, Chunk: c})
	}
	if rec, ok := s.sink.(metrics.ChunkRecorder); ok {
		ev := metrics.ChunkEvent{
			Nite:         nite,
			Seq:          c.Seq,
			Tag:          c.Window.Tag,
			Observations: len(c.Records),
			Open:         c.Window.Duration(),
			Busy:         busy(c),
		}
		if err := rec.RecordChunk(ev); err != nil {
			s.log.Errorf("record chunk %s/%d: %v", nite, c.Seq, err)
		}
	}
}

func busy(c model.Chunk) time.Duration {
	var d time.Duration
	for _, r := range c.Records {
		d += r.SlewTime + r.Exposure
	}
	return d
}

func latest(ts ...time.Time) time.Time {
	var out time.Time
	for _, t := range ts {
		if t.After(out) {
			out = t
		}
	}
	return out
}
