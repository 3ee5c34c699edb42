// Package monitor runs the scheduled monitoring pipeline: collect eligible
// users, probe their domains, reconcile results against stored state, alert
// on new blocks and deliver per-user reports.
//
// Failure isolation is the design rule at every level: a failing domain
// does not abort its siblings, a failing user does not abort other users,
// and nothing in a run is fatal to the process. The worst outcome is a
// Summary reporting universal failure, retried on the next scheduled tick.
package monitor

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"nawalabot/internal/model"
	"nawalabot/internal/store"
	"nawalabot/pkg/logx"
)

type Service struct {
	store    store.Store
	checker  BatchChecker
	notifier Notifier
	log      logx.Logger
}

func New(st store.Store, chk BatchChecker, n Notifier, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{store: st, checker: chk, notifier: n, log: log}
}

// Run executes one monitoring pass over all eligible users and returns the
// aggregate summary. It is stateless between invocations apart from the
// store; re-running it promptly re-checks and re-reports (no internal
// de-duplication window), so the scheduler owns the cadence. Overlapping
// runs for the same data set are excluded by the scheduler's overlap-skip,
// not by locking here.
func (s *Service) Run(ctx context.Context) Summary {
	start := time.Now()
	sum := Summary{StartedAt: start}

	s.log.Info("monitoring run started")

	users, err := s.store.UsersWithMonitoring(ctx)
	if err != nil {
		// Without the user list there is nothing to do; report the failure
		// and let the next tick retry.
		s.log.Error("collect users failed", logx.Err(err))
		sum.Users = append(sum.Users, UserOutcome{Err: fmt.Sprintf("collect users: %v", err)})
		sum.Took = time.Since(start)
		return sum
	}

	for _, u := range users {
		out := s.runUser(ctx, u)
		sum.Users = append(sum.Users, out)
		if !out.Skipped && out.Err == "" {
			sum.UsersProcessed++
		}
		sum.TotalDomains += out.DomainsChecked
		sum.AlertsSent += out.AlertsSent
		if out.ReportSent {
			sum.ReportsSent++
		}
	}

	sum.Took = time.Since(start)
	s.log.Info("monitoring run finished",
		logx.Int("users", sum.UsersProcessed),
		logx.Int("domains", sum.TotalDomains),
		logx.Int("alerts", sum.AlertsSent),
		logx.Int("reports_sent", sum.ReportsSent),
		logx.Bool("had_errors", sum.Failed()),
		logx.Duration("took", sum.Took))
	return sum
}

// runUser drives one user's pipeline:
// check -> reconcile -> alert -> build report -> deliver -> persist report.
// Any panic is caught here so sibling users keep processing.
func (s *Service) runUser(ctx context.Context, u model.User) (out UserOutcome) {
	out.UserID = u.ID
	out.Username = u.Username
	log := s.log.With(logx.String("user", u.Username))

	defer func() {
		if r := recover(); r != nil {
			out.Err = fmt.Sprintf("user pipeline panicked: %v", r)
			log.Error("panic in user pipeline", logx.Any("panic", r), logx.String("stack", string(debug.Stack())))
		}
	}()

	if u.Destination == "" {
		out.Skipped = true
		out.SkipReason = "no destination configured"
		return out
	}

	domains, err := s.store.DomainsForUser(ctx, u.ID)
	if err != nil {
		out.Err = fmt.Sprintf("load domains: %v", err)
		log.Error("load domains failed", logx.Err(err))
		return out
	}
	if len(domains) == 0 {
		out.Skipped = true
		out.SkipReason = "no domains"
		log.Debug("no domains to check")
		return out
	}

	runAt := time.Now()
	names := make([]string, len(domains))
	for i, d := range domains {
		names[i] = d.Name
	}

	log.Debug("checking domains", logx.Int("count", len(domains)))
	results := s.checker.CheckAll(ctx, names)
	out.DomainsChecked = len(domains)

	reconciled := make([]ReconciledDomain, 0, len(domains))
	var newlyBlocked []string
	for i, d := range domains {
		res := results[i]
		changed, toBlocked := Reconcile(d, res)

		entry := model.HistoryEntry{Status: res.Status, CheckedAt: runAt, Detail: res.Detail}
		if err := s.store.UpdateDomainStatus(ctx, d.ID, res.Status, runAt, entry); err != nil {
			// Per-domain persistence failure; siblings continue.
			out.DomainErrors = append(out.DomainErrors, fmt.Sprintf("%s: %v", d.Name, err))
			log.Error("persist domain status failed", logx.String("domain", d.Name), logx.Err(err))
		}

		reconciled = append(reconciled, ReconciledDomain{Name: d.Name, Status: res.Status, Changed: changed})
		if toBlocked {
			newlyBlocked = append(newlyBlocked, d.Name)
		}
	}

	// Alerts go out before the aggregate report so both reflect the same
	// snapshot of state.
	for _, name := range newlyBlocked {
		if err := s.notifier.SendBlockedAlert(ctx, u.Destination, name); err != nil {
			log.Warn("blocked alert delivery failed", logx.String("domain", name), logx.Err(err))
			continue
		}
		out.AlertsSent++
		log.Info("blocked alert sent", logx.String("domain", name))
	}

	report := BuildReport(u.ID, runAt, reconciled)
	if err := s.notifier.SendReport(ctx, u.Destination, report, u.Interval); err != nil {
		// Report stays marked unsent; counts and entries are still valid.
		log.Warn("report delivery failed", logx.Err(err))
	} else {
		out.ReportSent = true
		log.Info("report sent",
			logx.Int("total", report.TotalDomains),
			logx.Int("safe", report.SafeCount),
			logx.Int("blocked", report.BlockedCount),
			logx.Int("error", report.ErrorCount))
	}

	if err := s.store.SaveReport(ctx, report); err != nil {
		out.DomainErrors = append(out.DomainErrors, fmt.Sprintf("save report: %v", err))
		log.Error("persist report failed", logx.Err(err))
	}

	return out
}
