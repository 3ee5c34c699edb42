package monitor

import (
	"context"
	"time"

	"nawalabot/internal/model"
)

// BatchChecker fans probes out over a batch of domain names and returns
// one result per input, same order.
type BatchChecker interface {
	CheckAll(ctx context.Context, domains []string) []model.CheckResult
}

// Notifier delivers reports and alerts to a user's destination.
type Notifier interface {
	SendReport(ctx context.Context, dest string, r *model.Report, interval time.Duration) error
	SendBlockedAlert(ctx context.Context, dest, domain string) error
}

// Summary is the aggregate outcome of one monitoring run.
type Summary struct {
	StartedAt time.Time
	Took      time.Duration

	// UsersProcessed counts users whose pipeline actually ran
	// (eligible, with at least one domain).
	UsersProcessed int
	TotalDomains   int
	AlertsSent     int
	ReportsSent    int

	Users []UserOutcome
}

// UserOutcome is one user's result within a run.
type UserOutcome struct {
	UserID   string
	Username string

	// Skipped is set for eligible users with zero domains (no-op, not an
	// error) and for users without a configured destination.
	Skipped    bool
	SkipReason string

	DomainsChecked int
	AlertsSent     int
	ReportSent     bool

	// Err is set when the whole user pipeline failed; sibling users are
	// unaffected.
	Err string
	// DomainErrors lists per-domain persistence failures; the rest of the
	// user's batch proceeds regardless.
	DomainErrors []string
}

// Failed reports whether any user pipeline recorded an error.
func (s *Summary) Failed() bool {
	for _, u := range s.Users {
		if u.Err != "" || len(u.DomainErrors) > 0 {
			return true
		}
	}
	return false
}
