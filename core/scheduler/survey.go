package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/skyplan/core/calendar"
	"github.com/kilianp07/skyplan/core/catalog"
	"github.com/kilianp07/skyplan/core/events"
	"github.com/kilianp07/skyplan/core/logger"
	"github.com/kilianp07/skyplan/core/metrics"
	"github.com/kilianp07/skyplan/core/model"
	"github.com/kilianp07/skyplan/core/planlog"
	"github.com/kilianp07/skyplan/core/publish"
	"github.com/kilianp07/skyplan/core/registry"
	"github.com/kilianp07/skyplan/internal/eventbus"
)

// ErrUnknownNite is returned when a nite has no window in the calendar.
var ErrUnknownNite = errors.New("nite not in calendar")

// Mode selects how the run interval is applied to the calendar.
type Mode int

const (
	// ModeFull plans every nite intersecting the interval, windows whole.
	ModeFull Mode = iota
	// ModeBounded clips windows to the interval.
	ModeBounded
)

func (m Mode) String() string {
	switch m {
	case ModeFull:
		return "full"
	case ModeBounded:
		return "bounded"
	default:
		return "unknown"
	}
}

// ParseMode parses "full" or "bounded".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "full":
		return ModeFull, nil
	case "bounded":
		return ModeBounded, nil
	}
	return ModeFull, fmt.Errorf("unknown mode %q", s)
}

// Params are the run parameters of ScheduleSurvey. Zero Start or End leave
// the interval open on that side.
type Params struct {
	Start time.Time
	End   time.Time
	Chunk time.Duration
	Mode  Mode
	// Clip restricts a bounded run to calendar windows. Without it a slice
	// outside every window is planned as an ad-hoc window.
	Clip bool
}

// Scheduler plans the survey. It owns the registry for the duration of a
// run and is not safe for concurrent runs.
type Scheduler struct {
	cfg    Config
	cat    *catalog.Catalog
	cal    *calendar.Calendar
	reg    *registry.Registry
	scorer *Scorer
	pacer  Pacer
	sink   metrics.MetricsSink
	bus    eventbus.EventBus
	log    logger.Logger
	plans  planlog.LogStore
	pub    publish.Publisher
	now    func() time.Time
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithPacer sets the suspension point used between selections.
func WithPacer(p Pacer) Option { return func(s *Scheduler) { s.pacer = p } }

// WithSink sets the metrics sink.
func WithSink(m metrics.MetricsSink) Option { return func(s *Scheduler) { s.sink = m } }

// WithBus publishes scheduling events on b.
func WithBus(b eventbus.EventBus) Option { return func(s *Scheduler) { s.bus = b } }

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option { return func(s *Scheduler) { s.log = l } }

// WithPlanLog appends every emitted chunk to store.
func WithPlanLog(store planlog.LogStore) Option { return func(s *Scheduler) { s.plans = store } }

// WithPublisher announces every planned night through p.
func WithPublisher(p publish.Publisher) Option { return func(s *Scheduler) { s.pub = p } }

// New builds a Scheduler. cfg is completed with defaults and validated.
func New(cat *catalog.Catalog, cal *calendar.Calendar, reg *registry.Registry, cfg Config, opts ...Option) (*Scheduler, error) {
	if cat == nil || cal == nil || reg == nil {
		return nil, errors.New("catalog, calendar and registry are required")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("scheduler config: %w", err)
	}
	if reg.Revisits() != cfg.AllowRevisits() {
		return nil, fmt.Errorf("registry revisit policy (%v) does not match config (%v)", reg.Revisits(), cfg.AllowRevisits())
	}
	s := &Scheduler{
		cfg:    cfg,
		cat:    cat,
		cal:    cal,
		reg:    reg,
		scorer: NewScorer(cfg),
		pacer:  SimulatedPacer{},
		sink:   metrics.NopSink{},
		log:    logger.Nop{},
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	s.log = logger.OrNop(s.log)
	if s.sink == nil {
		s.sink = metrics.NopSink{}
	}
	if s.pacer == nil {
		s.pacer = SimulatedPacer{}
	}
	return s, nil
}

// Config returns the effective configuration.
func (s *Scheduler) Config() Config { return s.cfg }

// Registry returns the registry updated by the scheduler.
func (s *Scheduler) Registry() *registry.Registry { return s.reg }

// ScheduleSurvey plans every nite selected by p. Before each nite it checks
// that some incomplete field is visible during that nite or a later one of
// the run; otherwise the plan built so far is returned with an error
// matching model.ErrSurveyExhausted.
// Cancellation returns the partial plan flagged Interrupted and no error.
func (s *Scheduler) ScheduleSurvey(ctx context.Context, p Params) (model.SurveyPlan, error) {
	if !p.Start.IsZero() && !p.End.IsZero() && !p.End.After(p.Start) {
		return model.SurveyPlan{}, fmt.Errorf("end %s not after start %s", p.End.Format(time.RFC3339), p.Start.Format(time.RFC3339))
	}
	if p.Chunk < 0 {
		return model.SurveyPlan{}, fmt.Errorf("negative chunk %s", p.Chunk)
	}
	began := s.now()
	runID := uuid.NewString()
	s.syncCatalog()
	s.log.Infof("run %s: mode=%s start=%s end=%s chunk=%s completed=%d", runID, p.Mode, stamp(p.Start), stamp(p.End), p.Chunk, s.reg.Len())

	plan := model.SurveyPlan{Nights: []model.NightPlan{}}
	var runErr error
	var run []niteWindows
	for nite, windows := range s.nights(p) {
		run = append(run, niteWindows{nite: nite, windows: windows})
	}
	reach := s.reach(run)
	for i, n := range run {
		nite, windows := n.nite, n.windows
		if ctx.Err() != nil {
			plan.Interrupted = true
			break
		}
		// Fields that never rise during the remaining windows cannot keep
		// the survey going.
		if s.cat.PendingDuring(reach[i], s.reg) == 0 {
			runErr = &model.ExhaustedError{Nite: nite, Completed: s.reg.Len()}
			s.log.Warnf("run %s: %v", runID, runErr)
			if s.bus != nil {
				s.bus.Publish(events.SurveyExhausted{Nite: nite, Completed: s.reg.Len()})
			}
			break
		}
		np, interrupted := s.planNight(ctx, nite, windows, s.earliest(p), p.Chunk)
		plan.Nights = append(plan.Nights, np)
		s.nightDone(ctx, runID, np, interrupted)
		if interrupted {
			plan.Interrupted = true
			break
		}
	}

	total := len(plan.Records())
	if rec, ok := s.sink.(metrics.SurveyRecorder); ok {
		ev := metrics.SurveyEvent{
			Nights:       len(plan.Nights),
			Observations: total,
			Completed:    s.reg.Len(),
			Exhausted:    runErr != nil,
			Interrupted:  plan.Interrupted,
			Elapsed:      s.now().Sub(began),
		}
		if err := rec.RecordSurvey(ev); err != nil {
			s.log.Errorf("record survey: %v", err)
		}
	}
	s.log.Infof("run %s: %d nights, %d observations, interrupted=%v", runID, len(plan.Nights), total, plan.Interrupted)
	return plan, runErr
}

// ScheduleNite plans a single nite of the calendar.
func (s *Scheduler) ScheduleNite(ctx context.Context, nite string, chunk time.Duration) (model.NightPlan, error) {
	windows := s.cal.WindowsFor(nite)
	if len(windows) == 0 {
		return model.NightPlan{}, fmt.Errorf("%s: %w", nite, ErrUnknownNite)
	}
	plan, err := s.ScheduleSurvey(ctx, Params{Start: windows[0].Start, End: windows[len(windows)-1].Stop, Chunk: chunk, Mode: ModeFull})
	if n, ok := plan.Nite(nite); ok {
		return n, err
	}
	return model.NightPlan{Nite: nite, Chunks: []model.Chunk{}}, err
}

// ScheduleChunk plans the slice [start, start+length) clipped to the
// calendar windows when clip is set.
func (s *Scheduler) ScheduleChunk(ctx context.Context, start time.Time, length time.Duration, clip bool) (model.SurveyPlan, error) {
	if length <= 0 {
		return model.SurveyPlan{}, fmt.Errorf("chunk length must be positive, got %s", length)
	}
	return s.ScheduleSurvey(ctx, Params{Start: start, End: start.Add(length), Mode: ModeBounded, Clip: clip})
}

// syncCatalog marks the registry content complete in the catalog.
func (s *Scheduler) syncCatalog() {
	for _, e := range s.reg.Entries() {
		s.cat.MarkComplete(e.Key, e.ObservedAt)
	}
}

// earliest is the first instant a new exposure may start: after the last
// registered exposure and, for bounded runs, not before the slice start.
func (s *Scheduler) earliest(p Params) time.Time {
	var t time.Time
	if last, ok := s.reg.Latest(); ok {
		t = last.ObservedAt
		if f, ok := s.cat.Get(last.Key); ok {
			t = t.Add(f.Exposure)
		}
	}
	if p.Mode == ModeBounded {
		t = latest(t, p.Start)
	}
	return t
}

func (s *Scheduler) nightDone(ctx context.Context, runID string, np model.NightPlan, interrupted bool) {
	if s.bus != nil {
		s.bus.Publish(events.NightPlanned{Plan: np, Interrupted: interrupted})
	}
	if rec, ok := s.sink.(metrics.NightRecorder); ok {
		sum := Summarize(np)
		ev := metrics.NightEvent{
			Nite:         np.Nite,
			Chunks:       len(np.Chunks),
			Observations: sum.Observations,
			MeanAirmass:  sum.MeanAirmass,
			MeanSlewDeg:  sum.MeanSlewDeg,
			Interrupted:  interrupted,
		}
		if err := rec.RecordNight(ev); err != nil {
			s.log.Errorf("record night %s: %v", np.Nite, err)
		}
	}
	// Plan log and publication outlive a cancelled run.
	ctx = context.WithoutCancel(ctx)
	if s.plans != nil {
		for _, c := range np.Chunks {
			if err := s.plans.Append(ctx, planlog.NewLogRecord(s.now(), runID, np.Nite, c, interrupted)); err != nil {
				s.log.Errorf("plan log %s/%d: %v", np.Nite, c.Seq, err)
			}
		}
	}
	if s.pub != nil {
		if err := s.pub.PublishNight(ctx, runID, np); err != nil {
			s.log.Errorf("publish %s: %v", np.Nite, err)
		}
	}
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.RFC3339)
}
