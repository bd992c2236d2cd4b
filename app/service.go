package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kilianp07/skyplan/api/plans"
	"github.com/kilianp07/skyplan/config"
	"github.com/kilianp07/skyplan/core/calendar"
	"github.com/kilianp07/skyplan/core/catalog"
	"github.com/kilianp07/skyplan/core/events"
	coremetrics "github.com/kilianp07/skyplan/core/metrics"
	coremon "github.com/kilianp07/skyplan/core/monitoring"
	"github.com/kilianp07/skyplan/core/model"
	"github.com/kilianp07/skyplan/core/planlog"
	"github.com/kilianp07/skyplan/core/publish"
	"github.com/kilianp07/skyplan/core/registry"
	"github.com/kilianp07/skyplan/core/scheduler"
	"github.com/kilianp07/skyplan/infra/exposuredb"
	"github.com/kilianp07/skyplan/infra/logger"
	"github.com/kilianp07/skyplan/infra/metrics"
	"github.com/kilianp07/skyplan/infra/mqtt"
	"github.com/kilianp07/skyplan/infra/store"
	"github.com/kilianp07/skyplan/internal/eventbus"
	"github.com/kilianp07/skyplan/pkg/export"
)

// Service wires the scheduler to its inputs, stores and outputs.
type Service struct {
	cfg   *config.Config
	sched *scheduler.Scheduler
	reg   *registry.Registry
	store registry.Store
	bus   *eventbus.Bus
	sink  coremetrics.MetricsSink
	plans planlog.LogStore
	pub   publish.Publisher
	pacer scheduler.Pacer
	log   logger.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithPacer replaces the simulated pacer, e.g. with a wall clock.
func WithPacer(p scheduler.Pacer) Option { return func(s *Service) { s.pacer = p } }

// WithPublisher replaces the configured plan publisher.
func WithPublisher(p publish.Publisher) Option { return func(s *Service) { s.pub = p } }

// New loads the inputs and builds a Service from the configuration.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Service, error) {
	s := &Service{cfg: cfg, log: logger.New("service")}
	for _, o := range opts {
		o(s)
	}
	if err := s.init(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Service) init(ctx context.Context) error {
	cfg := s.cfg
	site, err := cfg.Site.Site()
	if err != nil {
		return fmt.Errorf("site: %w", err)
	}
	rows, err := readFile(cfg.Inputs.Fields, catalog.ReadCSV)
	if err != nil {
		return fmt.Errorf("fields: %w", err)
	}
	cat, err := catalog.Load(rows, catalog.Options{Site: site, AllowRevisits: cfg.Scheduler.AllowRevisits()})
	if err != nil {
		return err
	}
	windows, err := readFile(cfg.Inputs.Windows, calendar.ReadCSV)
	if err != nil {
		return fmt.Errorf("windows: %w", err)
	}
	cal, err := calendar.New(windows, site)
	if err != nil {
		return err
	}

	if s.store, err = store.Open(cfg.Store); err != nil {
		return fmt.Errorf("registry store: %w", err)
	}
	if err := s.seedRegistry(ctx); err != nil {
		return err
	}

	if s.sink, err = coremetrics.NewMetricsSink(cfg.Metrics.Sinks); err != nil {
		return fmt.Errorf("metrics sink: %w", err)
	}
	if s.plans, err = planlog.Open(cfg.PlanLog); err != nil {
		return fmt.Errorf("plan log: %w", err)
	}
	if s.pub == nil {
		s.pub = publish.NopPublisher{}
		if cfg.MQTT.Enabled() {
			p, err := mqtt.NewPahoPublisher(cfg.MQTT)
			if err != nil {
				return fmt.Errorf("mqtt publisher: %w", err)
			}
			s.pub = p
		}
	}
	s.bus = eventbus.New(eventbus.WithBuffer(256))

	sopts := []scheduler.Option{
		scheduler.WithSink(s.sink),
		scheduler.WithBus(s.bus),
		scheduler.WithLogger(logger.New("scheduler")),
		scheduler.WithPublisher(s.pub),
	}
	if s.plans != nil {
		sopts = append(sopts, scheduler.WithPlanLog(s.plans))
	}
	if s.pacer != nil {
		sopts = append(sopts, scheduler.WithPacer(s.pacer))
	}
	s.sched, err = scheduler.New(cat, cal, s.reg, cfg.Scheduler, sopts...)
	if err != nil {
		return err
	}
	s.log.Infof("loaded %d fields, %d windows, %d completed", cat.Len(), cal.Len(), s.reg.Len())
	return nil
}

// seedRegistry merges the store, extra completed tables and the exposure
// database into a fresh registry.
func (s *Service) seedRegistry(ctx context.Context) error {
	s.reg = registry.New(s.cfg.Scheduler.AllowRevisits())
	entries, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load registry: %w", err)
	}
	s.reg.Seed(entries)
	for _, path := range s.cfg.Inputs.Completed {
		extra, err := readFile(path, registry.ReadCSV)
		if err != nil {
			return fmt.Errorf("completed %s: %w", path, err)
		}
		s.log.Infof("seeded %d fields from %s", s.reg.Seed(extra), path)
	}
	if s.cfg.ExposureDB.Enabled() {
		src, err := exposuredb.Open(ctx, s.cfg.ExposureDB)
		if err != nil {
			return err
		}
		defer src.Close()
		extra, err := src.Load(ctx)
		if err != nil {
			return err
		}
		s.log.Infof("seeded %d fields from exposure db (propid %s)", s.reg.Seed(extra), s.cfg.ExposureDB.PropID)
	}
	return nil
}

func readFile[T any](path string, read func(io.Reader) ([]T, error)) ([]T, error) {
	if path == "" {
		return nil, errors.New("no file configured")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return read(f)
}

// Start launches the event logger, the plan log API and the Prometheus
// endpoint. All stop with ctx.
func (s *Service) Start(ctx context.Context) {
	sub := s.bus.Subscribe()
	coremon.Go(func() { eventbus.Handle(ctx, sub, logEvent(logger.New("events"))) })
	if addr := s.cfg.API.Addr; addr != "" && s.plans != nil {
		coremon.Go(func() {
			if err := plans.Serve(ctx, addr, s.plans, s.cfg.API.Token); err != nil {
				s.log.Errorf("plans api: %v", err)
			}
		})
	}
	if addr := s.cfg.Metrics.PromPort; addr != "" {
		coremon.Go(func() {
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		})
	}
}

func logEvent(log logger.Logger) func(eventbus.Event) {
	return func(ev eventbus.Event) {
		switch e := ev.(type) {
		case events.ObservationScheduled:
			log.Debugw("observation scheduled", map[string]any{
				"nite": e.Nite, "id": e.Record.FieldID, "tiling": e.Record.Tiling,
				"utc": e.Record.Time.Format(time.RFC3339), "airmass": e.Record.Airmass,
			})
		case events.NightPlanned:
			log.Infof("nite %s planned: %d chunks, %d observations", e.Plan.Nite, len(e.Plan.Chunks), e.Plan.Observations())
		case events.SurveyExhausted:
			log.Warnf("survey exhausted at nite %s with %d completed fields", e.Nite, e.Completed)
		}
	}
}

// Survey plans the nites selected by p and writes its artifacts.
func (s *Service) Survey(ctx context.Context, p scheduler.Params) (model.SurveyPlan, error) {
	if p.Chunk == 0 {
		p.Chunk = s.cfg.Scheduler.Chunk()
	}
	plan, err := s.sched.ScheduleSurvey(ctx, p)
	return plan, s.finish(ctx, plan, err)
}

// Nite plans one nite and writes its artifacts.
func (s *Service) Nite(ctx context.Context, nite string, chunk time.Duration) (model.SurveyPlan, error) {
	if chunk == 0 {
		chunk = s.cfg.Scheduler.Chunk()
	}
	np, err := s.sched.ScheduleNite(ctx, nite, chunk)
	if errors.Is(err, scheduler.ErrUnknownNite) {
		return model.SurveyPlan{}, err
	}
	plan := model.SurveyPlan{Nights: []model.NightPlan{np}}
	return plan, s.finish(ctx, plan, err)
}

// Chunk plans a bounded slice and writes its artifacts.
func (s *Service) Chunk(ctx context.Context, start time.Time, length time.Duration, clip bool) (model.SurveyPlan, error) {
	plan, err := s.sched.ScheduleChunk(ctx, start, length, clip)
	return plan, s.finish(ctx, plan, err)
}

// finish exports and persists whatever the run produced, including
// exhausted and interrupted runs.
func (s *Service) finish(ctx context.Context, plan model.SurveyPlan, runErr error) error {
	if runErr != nil && !errors.Is(runErr, model.ErrSurveyExhausted) {
		return runErr
	}
	ctx = context.WithoutCancel(ctx)
	for _, np := range plan.Nights {
		paths, err := export.WriteNight(s.cfg.Output.Dir, s.cfg.Scheduler.FilePrefix, np)
		if err != nil {
			return fmt.Errorf("export nite %s: %w", np.Nite, err)
		}
		s.log.Infof("wrote %d chunk files for nite %s", len(paths), np.Nite)
	}
	if s.cfg.Output.CSV != "" {
		if err := export.WriteCSVFile(s.cfg.Output.CSV, plan); err != nil {
			return fmt.Errorf("export csv: %w", err)
		}
	}
	if err := s.store.Save(ctx, s.reg.Entries()); err != nil {
		return fmt.Errorf("save registry: %w", err)
	}
	return runErr
}

// Completed returns the registry content.
func (s *Service) Completed() []registry.Entry { return s.reg.Snapshot().Entries() }

// Close releases resources held by the service.
func (s *Service) Close() error {
	var errs []error
	if s.bus != nil {
		s.bus.Close()
	}
	if s.pub != nil {
		s.pub.Close()
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	if s.plans != nil {
		errs = append(errs, s.plans.Close())
	}
	if s.store != nil {
		errs = append(errs, s.store.Close())
	}
	return errors.Join(errs...)
}
