package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"nawalabot/internal/model"
	"nawalabot/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")
	_, _ = db.Exec("PRAGMA foreign_keys = ON")

	st := &sqliteStore{db: db, log: log}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) UsersWithMonitoring(ctx context.Context) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, monitoring_enabled, destination, interval_seconds, created_at, updated_at
		 FROM users WHERE monitoring_enabled = 1 ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		var (
			u         model.User
			enabled   int
			intervalS int64
			created   string
			updated   string
		)
		if err := rows.Scan(&u.ID, &u.Username, &enabled, &u.Destination, &intervalS, &created, &updated); err != nil {
			return nil, err
		}
		u.MonitoringEnabled = enabled != 0
		u.Interval = time.Duration(intervalS) * time.Second
		u.CreatedAt = parseTime(created)
		u.UpdatedAt = parseTime(updated)
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *sqliteStore) DomainsForUser(ctx context.Context, userID string) ([]model.Domain, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, status, last_checked, created_at, updated_at
		 FROM domains WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Domain
	for rows.Next() {
		var (
			d       model.Domain
			status  string
			checked sql.NullString
			created string
			updated string
		)
		if err := rows.Scan(&d.ID, &d.UserID, &d.Name, &status, &checked, &created, &updated); err != nil {
			return nil, err
		}
		st, err := model.ParseStatus(status)
		if err != nil {
			return nil, fmt.Errorf("domain %s: %w", d.ID, err)
		}
		d.Status = st
		if checked.Valid {
			d.LastChecked = parseTime(checked.String)
		}
		d.CreatedAt = parseTime(created)
		d.UpdatedAt = parseTime(updated)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *sqliteStore) UpdateDomainStatus(ctx context.Context, domainID string, status model.Status, at time.Time, entry model.HistoryEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE domains SET status = ?, last_checked = ?, updated_at = ? WHERE id = ?`,
		string(status), formatTime(at), formatTime(time.Now()), domainID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO history(domain_id, status, checked_at, detail) VALUES(?,?,?,?)`,
		domainID, string(entry.Status), formatTime(entry.CheckedAt), nullStr(entry.Detail))
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (s *sqliteStore) DomainHistory(ctx context.Context, domainID string) ([]model.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, checked_at, detail FROM history WHERE domain_id = ? ORDER BY id`, domainID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.HistoryEntry
	for rows.Next() {
		var (
			e       model.HistoryEntry
			status  string
			checked string
			detail  sql.NullString
		)
		if err := rows.Scan(&status, &checked, &detail); err != nil {
			return nil, err
		}
		st, err := model.ParseStatus(status)
		if err != nil {
			return nil, err
		}
		e.Status = st
		e.CheckedAt = parseTime(checked)
		e.Detail = detail.String
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *sqliteStore) SaveReport(ctx context.Context, r *model.Report) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	entries, err := json.Marshal(r.Entries)
	if err != nil {
		return err
	}
	sent := 0
	if r.Sent {
		sent = 1
	}
	var sentAt any
	if !r.SentAt.IsZero() {
		sentAt = formatTime(r.SentAt)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reports(id, user_id, run_at, total_domains, safe_count, blocked_count, error_count, entries, sent, sent_at)
		 VALUES(?,?,?,?,?,?,?,?,?,?)`,
		r.ID, r.UserID, formatTime(r.RunAt), r.TotalDomains, r.SafeCount, r.BlockedCount, r.ErrorCount,
		string(entries), sent, sentAt)
	return err
}

func (s *sqliteStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	row := s.db.QueryRowContext(ctx,
		`SELECT
		   (SELECT COUNT(*) FROM users),
		   (SELECT COUNT(*) FROM users WHERE monitoring_enabled = 1),
		   (SELECT COUNT(*) FROM domains),
		   (SELECT COUNT(*) FROM domains WHERE status = 'BLOCKED')`)
	if err := row.Scan(&st.TotalUsers, &st.ActiveUsers, &st.TotalDomains, &st.BlockedDomains); err != nil {
		return Stats{}, err
	}
	return st, nil
}

func (s *sqliteStore) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	enabled := 0
	if u.MonitoringEnabled {
		enabled = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users(id, username, monitoring_enabled, destination, interval_seconds, created_at, updated_at)
		 VALUES(?,?,?,?,?,?,?)`,
		u.ID, u.Username, enabled, u.Destination, int64(u.Interval/time.Second),
		formatTime(u.CreatedAt), formatTime(u.UpdatedAt))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return model.User{}, ErrDuplicate
		}
		return model.User{}, err
	}
	return u, nil
}

func (s *sqliteStore) AddDomain(ctx context.Context, userID, name string) (model.Domain, error) {
	now := time.Now()
	d := model.Domain{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		Status:    model.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO domains(id, user_id, name, status, created_at, updated_at)
		 VALUES(?,?,?,?,?,?)`,
		d.ID, d.UserID, d.Name, string(d.Status), formatTime(d.CreatedAt), formatTime(d.UpdatedAt))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return model.Domain{}, ErrDuplicate
		}
		if strings.Contains(err.Error(), "FOREIGN KEY") {
			return model.Domain{}, ErrNotFound
		}
		return model.Domain{}, err
	}
	return d, nil
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
