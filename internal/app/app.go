// Package app wires configuration, storage, the checker pipeline, the
// notifier and the scheduler into one runnable unit.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"nawalabot/internal/checker"
	"nawalabot/internal/config"
	"nawalabot/internal/model"
	"nawalabot/internal/monitor"
	"nawalabot/internal/notifier"
	"nawalabot/internal/scheduler"
	"nawalabot/internal/store"
	"nawalabot/internal/trustpositif"
	"nawalabot/pkg/domainname"
	"nawalabot/pkg/logx"
)

type App struct {
	cfgPath string
	cfgm    *config.Manager

	log  logx.Logger
	logs *logx.Service

	store store.Store
	probe *trustpositif.Client
	chk   *checker.Batch
	notif *notifier.Service
	mon   *monitor.Service
	sched *scheduler.Service

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewApp(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	log = log.With(logx.String("comp", "app"))
	cfgm.SetLogger(log.With(logx.String("comp", "config")))

	sc, err := mapStorageConfig(cfg)
	if err != nil {
		logSvc.Close()
		return nil, err
	}
	st, err := store.Open(sc, log.With(logx.String("comp", "store")))
	if err != nil {
		logSvc.Close()
		return nil, err
	}
	log.Info("storage opened", logx.String("driver", sc.Driver))

	pc, err := mapProbeConfig(cfg)
	if err != nil {
		st.Close()
		logSvc.Close()
		return nil, err
	}
	probe := trustpositif.New(pc, log.With(logx.String("comp", "trustpositif")))
	chk := checker.New(probe, checker.Config{MaxInFlight: cfg.Checker.MaxInFlight},
		log.With(logx.String("comp", "checker")))

	a := &App{
		cfgPath: cfgPath,
		cfgm:    cfgm,
		log:     log,
		logs:    logSvc,
		store:   st,
		probe:   probe,
		chk:     chk,
	}

	// The notifier needs a live bot session. Without a token the app can
	// still probe and seed, but cannot monitor; Config.Validate already
	// rejects enabled monitoring with no token.
	if cfg.Telegram.Token != "" {
		n, err := notifier.New(notifier.Config{
			Token:      cfg.Telegram.Token,
			RatePerSec: cfg.Telegram.RatePerSec,
		}, log.With(logx.String("comp", "notifier")))
		if err != nil {
			st.Close()
			logSvc.Close()
			return nil, fmt.Errorf("telegram: %w", err)
		}
		a.notif = n
		a.mon = monitor.New(st, chk, n, log.With(logx.String("comp", "monitor")))
	}

	a.sched = scheduler.New(scheduler.Config{
		Enabled:  cfg.Monitor.Enabled,
		Schedule: cfg.Monitor.Schedule,
		Timezone: cfg.Monitor.Timezone,
	}, a.runScheduled, log.With(logx.String("comp", "scheduler")))

	return a, nil
}

func mapStorageConfig(cfg *config.Config) (store.Config, error) {
	busy, err := config.ParseDurationOrDefault("storage.busy_timeout", cfg.Storage.BusyTimeout, 5*time.Second)
	if err != nil {
		return store.Config{}, err
	}
	return store.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: busy,
	}, nil
}

func mapProbeConfig(cfg *config.Config) (trustpositif.Config, error) {
	timeout, err := config.ParseDurationOrDefault("checker.probe_timeout", cfg.Checker.ProbeTimeout, 15*time.Second)
	if err != nil {
		return trustpositif.Config{}, err
	}
	return trustpositif.Config{
		URL:        cfg.Checker.RegistryURL,
		Timeout:    timeout,
		RatePerSec: cfg.Checker.RatePerSec,
	}, nil
}

// Start brings up the scheduler and the config hot-reload loop. It
// returns once everything is running; cancellation of ctx unwinds the
// background loops.
func (a *App) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if err := a.sched.Start(runCtx); err != nil {
		cancel()
		return err
	}

	sub := a.cfgm.Subscribe(8)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer a.cfgm.Unsubscribe(sub)
		for {
			select {
			case <-runCtx.Done():
				return
			case cfg, ok := <-sub:
				if !ok {
					return
				}
				a.applyConfig(runCtx, cfg)
			}
		}
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.cfgm.Watch(runCtx); err != nil && runCtx.Err() == nil {
			a.log.Error("config watch ended", logx.Err(err))
		}
	}()

	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		a.log.Warn("sd_notify failed", logx.Err(err))
	} else if sent {
		a.log.Debug("sd_notify: READY")
	}

	a.log.Info("app started")
	return nil
}

func (a *App) applyConfig(ctx context.Context, cfg *config.Config) {
	a.logs.Apply(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})

	if err := a.sched.Apply(ctx, scheduler.Config{
		Enabled:  cfg.Monitor.Enabled,
		Schedule: cfg.Monitor.Schedule,
		Timezone: cfg.Monitor.Timezone,
	}); err != nil {
		a.log.Warn("scheduler config rejected; previous schedule kept", logx.Err(err))
	}

	a.log.Info("config reloaded")
}

func (a *App) runScheduled(ctx context.Context) {
	if a.mon == nil {
		a.log.Warn("scheduled run skipped: telegram token not configured")
		return
	}
	sum := a.mon.Run(ctx)
	if sum.Failed() {
		a.log.Warn("monitoring run had failures", logx.Int("users", len(sum.Users)))
	}

	if stats, err := a.store.Stats(ctx); err == nil {
		a.log.Debug("store stats",
			logx.Int("users", stats.TotalUsers),
			logx.Int("active_users", stats.ActiveUsers),
			logx.Int("domains", stats.TotalDomains),
			logx.Int("blocked", stats.BlockedDomains))
	}
}

// RunOnce performs a single monitoring run outside the schedule.
func (a *App) RunOnce(ctx context.Context) (monitor.Summary, error) {
	if a.mon == nil {
		return monitor.Summary{}, fmt.Errorf("monitoring requires telegram.token")
	}
	sum := a.mon.Run(ctx)
	if sum.Failed() {
		return sum, fmt.Errorf("monitoring run finished with failures")
	}
	return sum, nil
}

// CheckDomain probes one domain against the registry and returns the result.
func (a *App) CheckDomain(ctx context.Context, raw string) (model.CheckResult, error) {
	name, err := domainname.Normalize(raw)
	if err != nil {
		return model.CheckResult{}, fmt.Errorf("%q: %w", raw, err)
	}
	return a.probe.Probe(ctx, name), nil
}

// TestConnection sends a probe message to the given destination chat.
func (a *App) TestConnection(ctx context.Context, dest string) error {
	if a.notif == nil {
		return fmt.Errorf("telegram.token not configured")
	}
	return a.notif.TestConnection(ctx, dest)
}

// SeedStore loads a seed file and applies it to the store.
func (a *App) SeedStore(ctx context.Context, path string) error {
	seed, err := store.LoadSeed(path)
	if err != nil {
		return err
	}
	if err := seed.Apply(ctx, a.store); err != nil {
		return err
	}
	a.log.Info("seed applied", logx.String("path", path), logx.Int("users", len(seed.Users)))
	return nil
}

// Stop unwinds background loops and closes resources. Bounded by ctx.
func (a *App) Stop(ctx context.Context) error {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	a.log.Info("stopping")

	if a.cancel != nil {
		a.cancel()
	}
	a.sched.Stop(ctx)

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		a.log.Warn("background loops did not unwind before deadline")
	}

	var firstErr error
	if err := a.store.Close(); err != nil {
		firstErr = err
		a.log.Error("store close", logx.Err(err))
	}
	a.log.Info("stopped")
	if err := a.logs.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
