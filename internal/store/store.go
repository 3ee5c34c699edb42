// Package store persists users, domains, status history and reports.
//
// Two backends exist:
//   - sqlite: durable single-file database (production)
//   - memory: volatile map-backed store (tests, demo runs)
//
// The monitor depends only on the Store interface; history is append-only
// in both backends and is never truncated or reordered on update.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"nawalabot/internal/model"
	"nawalabot/pkg/logx"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

// Config configures storage.
//
// Driver values:
//   - "memory": volatile in-memory backend (default when empty)
//   - "sqlite": SQLite database file
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Stats is the admin-facing aggregate view of the store.
type Stats struct {
	TotalUsers     int
	ActiveUsers    int
	TotalDomains   int
	BlockedDomains int
}

// Store is the persistence API consumed by the monitor and the admin seed.
type Store interface {
	// UsersWithMonitoring returns users whose monitoring flag is set.
	UsersWithMonitoring(ctx context.Context) ([]model.User, error)
	// DomainsForUser returns the user's domains without their history.
	DomainsForUser(ctx context.Context, userID string) ([]model.Domain, error)
	// UpdateDomainStatus sets the domain's current status and last-checked
	// time and appends exactly one history entry. Existing history is
	// preserved untouched.
	UpdateDomainStatus(ctx context.Context, domainID string, status model.Status, at time.Time, entry model.HistoryEntry) error
	// DomainHistory returns the domain's history entries, oldest first.
	DomainHistory(ctx context.Context, domainID string) ([]model.HistoryEntry, error)
	// SaveReport persists a finished report, including delivery outcome.
	SaveReport(ctx context.Context, r *model.Report) error

	Stats(ctx context.Context) (Stats, error)

	CreateUser(ctx context.Context, u model.User) (model.User, error)
	AddDomain(ctx context.Context, userID, name string) (model.Domain, error)

	Close() error
}

// Open initializes the configured store.
func Open(cfg Config, log logx.Logger) (Store, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", "memory", "mem":
		return NewMemory(), nil
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}
