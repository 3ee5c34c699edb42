// Package model holds the domain types shared by the checker, store,
// monitor and notifier packages.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Status is the closed classification of a monitored domain.
type Status string

const (
	// StatusSafe means the registry reports the domain as not blocked.
	StatusSafe Status = "SAFE"
	// StatusBlocked means the registry reports the domain as blocked.
	StatusBlocked Status = "BLOCKED"
	// StatusError means the probe failed or the registry response was
	// ambiguous. Failures are represented as data, never as panics.
	StatusError Status = "ERROR"
	// StatusPending is only used transiently while a check is in flight.
	StatusPending Status = "PENDING"
)

func (s Status) Valid() bool {
	switch s {
	case StatusSafe, StatusBlocked, StatusError, StatusPending:
		return true
	}
	return false
}

// ParseStatus converts a stored string back into a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}

// User owns zero or more domains. The core only reads users; creation and
// deletion happen through the admin surface.
type User struct {
	ID       string
	Username string

	// MonitoringEnabled gates the user's inclusion in scheduled runs.
	MonitoringEnabled bool
	// Destination is the opaque messaging endpoint identifier
	// (a Telegram chat ID; validated by the notifier, not here).
	Destination string
	// Interval is the user's intended polling cadence. Informational for
	// now; the scheduler runs all users on one cadence.
	Interval time.Duration

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Domain is a monitored domain name, owned by exactly one user.
type Domain struct {
	ID     string
	UserID string
	// Name is normalized: lowercase, no scheme, no trailing slash.
	Name        string
	Status      Status
	LastChecked time.Time
	// History is append-only and never truncated or reordered; every
	// reconciliation appends exactly one entry.
	History []HistoryEntry

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HistoryEntry records one observation of a domain's status.
type HistoryEntry struct {
	Status    Status
	CheckedAt time.Time
	Detail    string
}

// CheckResult is the ephemeral outcome of probing one domain once.
type CheckResult struct {
	Domain    string
	Status    Status
	CheckedAt time.Time
	// Detail carries the human-readable failure reason for StatusError,
	// or a short snippet of the raw registry response.
	Detail string
}

// Report aggregates one user's reconciled results for one run.
//
// Invariant: SafeCount + BlockedCount + ErrorCount == TotalDomains.
type Report struct {
	ID           string
	UserID       string
	RunAt        time.Time
	TotalDomains int
	SafeCount    int
	BlockedCount int
	ErrorCount   int
	Entries      []ReportEntry

	// Delivery outcome, set once by the notifier.
	Sent   bool
	SentAt time.Time
}

// ReportEntry is one domain's line in a report.
type ReportEntry struct {
	Domain string
	Status Status
	// Changed is true iff the status this run differs from the status
	// immediately before this run.
	Changed bool
}
