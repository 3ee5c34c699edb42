package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"nawalabot/internal/model"
)

// Memory is the map-backed store. Reads return copies, so callers can hold
// results across concurrent runs without aliasing internal state.
type Memory struct {
	mu      sync.RWMutex
	users   map[string]model.User
	domains map[string]model.Domain
	reports map[string]model.Report
}

func NewMemory() *Memory {
	return &Memory{
		users:   map[string]model.User{},
		domains: map[string]model.Domain{},
		reports: map[string]model.Report{},
	}
}

func (m *Memory) Close() error { return nil }

func (m *Memory) UsersWithMonitoring(ctx context.Context) ([]model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		if u.MonitoringEnabled {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) DomainsForUser(ctx context.Context, userID string) ([]model.Domain, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Domain
	for _, d := range m.domains {
		if d.UserID != userID {
			continue
		}
		d.History = nil
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) UpdateDomainStatus(ctx context.Context, domainID string, status model.Status, at time.Time, entry model.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.domains[domainID]
	if !ok {
		return ErrNotFound
	}
	d.Status = status
	d.LastChecked = at
	d.UpdatedAt = time.Now()
	d.History = append(d.History, entry)
	m.domains[domainID] = d
	return nil
}

func (m *Memory) DomainHistory(ctx context.Context, domainID string) ([]model.HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.domains[domainID]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]model.HistoryEntry(nil), d.History...), nil
}

func (m *Memory) SaveReport(ctx context.Context, r *model.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	cp := *r
	cp.Entries = append([]model.ReportEntry(nil), r.Entries...)
	m.reports[cp.ID] = cp
	return nil
}

// Reports returns all saved reports for a user, oldest first.
// Test/demo helper; not part of the Store interface.
func (m *Memory) Reports(userID string) []model.Report {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Report
	for _, r := range m.reports {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RunAt.Before(out[j].RunAt) })
	return out
}

func (m *Memory) Stats(ctx context.Context) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := Stats{TotalUsers: len(m.users), TotalDomains: len(m.domains)}
	for _, u := range m.users {
		if u.MonitoringEnabled {
			st.ActiveUsers++
		}
	}
	for _, d := range m.domains {
		if d.Status == model.StatusBlocked {
			st.BlockedDomains++
		}
	}
	return st, nil
}

func (m *Memory) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ex := range m.users {
		if strings.EqualFold(ex.Username, u.Username) {
			return model.User{}, ErrDuplicate
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	m.users[u.ID] = u
	return u, nil
}

func (m *Memory) AddDomain(ctx context.Context, userID, name string) (model.Domain, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[userID]; !ok {
		return model.Domain{}, ErrNotFound
	}
	for _, d := range m.domains {
		if d.UserID == userID && d.Name == name {
			return model.Domain{}, ErrDuplicate
		}
	}
	now := time.Now()
	d := model.Domain{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		Status:    model.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.domains[d.ID] = d
	return d, nil
}
