// Package scheduler triggers the monitoring job on a fixed cadence.
//
// One job, one schedule. A tick that arrives while the previous run is
// still in flight is skipped: each run both checks and notifies, so
// overlapping runs would double-report.
package scheduler

import (
	"context"
	"errors"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"nawalabot/pkg/logx"
)

const DefaultSchedule = "@every 5m"

type Config struct {
	Enabled bool
	// Schedule is a cron spec (5 or 6 fields), a descriptor like
	// "@every 5m", or empty for the default.
	Schedule string
	// Timezone is an IANA TZ name for cron evaluation; empty means local.
	Timezone string
}

// Job is one monitoring run. It must honor ctx cancellation.
type Job func(ctx context.Context)

type Service struct {
	log    logx.Logger
	parser cron.Parser
	job    Job

	mu      sync.Mutex
	cfg     Config
	c       *cron.Cron
	running bool // overlap guard for the job itself

	runCancel context.CancelFunc
}

func New(cfg Config, job Job, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		log: log,
		job: job,
		cfg: cfg,
		// SecondOptional allows both 5-field and 6-field (with seconds) specs.
		parser: cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

// ParseSpec validates a schedule spec without starting anything.
func (s *Service) ParseSpec(spec string) error {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil
	}
	_, err := s.parser.Parse(spec)
	return err
}

// Start registers the job and starts the cron loop. Calling Start on a
// running service is a no-op.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.c != nil {
		return nil
	}
	if !s.cfg.Enabled {
		s.log.Info("scheduler disabled")
		return nil
	}
	return s.startLocked(ctx)
}

func (s *Service) startLocked(ctx context.Context) error {
	spec := strings.TrimSpace(s.cfg.Schedule)
	if spec == "" {
		spec = DefaultSchedule
	}
	if _, err := s.parser.Parse(spec); err != nil {
		return errors.New("invalid schedule " + spec + ": " + err.Error())
	}

	loc := time.Local
	if tz := strings.TrimSpace(s.cfg.Timezone); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return errors.New("invalid timezone " + tz + ": " + err.Error())
		}
		loc = l
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.runCancel = cancel

	c := cron.New(cron.WithParser(s.parser), cron.WithLocation(loc))
	if _, err := c.AddFunc(spec, func() { s.tick(runCtx) }); err != nil {
		cancel()
		s.runCancel = nil
		return err
	}
	s.c = c
	c.Start()
	s.log.Info("scheduler started", logx.String("schedule", spec), logx.String("tz", loc.String()))
	return nil
}

func (s *Service) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.log.Warn("previous run still in flight; tick skipped")
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		if r := recover(); r != nil {
			s.log.Error("panic in scheduled run", logx.Any("panic", r), logx.String("stack", string(debug.Stack())))
		}
	}()
	s.job(ctx)
}

// Apply swaps the schedule at runtime. The cron loop is restarted only
// when the effective config actually changed.
func (s *Service) Apply(ctx context.Context, cfg Config) error {
	s.mu.Lock()
	unchanged := cfg == s.cfg && (s.c != nil) == cfg.Enabled
	s.cfg = cfg
	s.mu.Unlock()
	if unchanged {
		return nil
	}

	s.Stop(context.Background())
	if !cfg.Enabled {
		s.log.Info("scheduler disabled")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return nil
	}
	return s.startLocked(ctx)
}

// Stop halts the cron loop and waits (bounded by ctx) for an in-flight
// run to finish. The lock is released before waiting so a finishing tick
// can clear its overlap guard.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.c
	s.c = nil
	cancel := s.runCancel
	s.runCancel = nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	if cancel != nil {
		cancel()
	}

	select {
	case <-c.Stop().Done():
		s.log.Info("scheduler stopped")
	case <-ctx.Done():
		s.log.Warn("scheduler stop timed out; run continues in background")
	}
}
