package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	yaml "go.yaml.in/yaml/v3"

	"nawalabot/internal/model"
	"nawalabot/pkg/domainname"
)

// Seed describes users and domains to load into a fresh store.
// There is no web UI here, so this is the admin surface for populating a
// database before the first monitoring run.
//
// Example file:
//
//	users:
//	  - username: crozxy
//	    destination: "-1001234567890"
//	    monitoring_enabled: true
//	    interval: 5m
//	    domains:
//	      - example.com
//	      - https://testsite.id/
type Seed struct {
	Users []SeedUser `yaml:"users"`
}

type SeedUser struct {
	Username          string   `yaml:"username"`
	Destination       string   `yaml:"destination"`
	MonitoringEnabled bool     `yaml:"monitoring_enabled"`
	Interval          string   `yaml:"interval"` // Go duration string
	Domains           []string `yaml:"domains"`
}

func LoadSeed(path string) (*Seed, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Seed
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("seed %s: %w", path, err)
	}
	return &s, nil
}

// Apply creates the seed's users and domains. Domain names are normalized
// and validated; a duplicate user or domain is skipped, not an error, so
// re-applying a seed against an existing database is harmless.
func (s *Seed) Apply(ctx context.Context, st Store) error {
	for _, su := range s.Users {
		if su.Username == "" {
			return fmt.Errorf("seed user without username")
		}
		interval := 5 * time.Minute
		if su.Interval != "" {
			d, err := time.ParseDuration(su.Interval)
			if err != nil {
				return fmt.Errorf("seed user %s: interval: %w", su.Username, err)
			}
			interval = d
		}
		u, err := st.CreateUser(ctx, model.User{
			Username:          su.Username,
			MonitoringEnabled: su.MonitoringEnabled,
			Destination:       su.Destination,
			Interval:          interval,
		})
		if errors.Is(err, ErrDuplicate) {
			continue
		}
		if err != nil {
			return fmt.Errorf("seed user %s: %w", su.Username, err)
		}
		for _, raw := range su.Domains {
			name, err := domainname.Normalize(raw)
			if err != nil {
				return fmt.Errorf("seed user %s: domain %q: %w", su.Username, raw, err)
			}
			if _, err := st.AddDomain(ctx, u.ID, name); err != nil && !errors.Is(err, ErrDuplicate) {
				return fmt.Errorf("seed user %s: domain %q: %w", su.Username, raw, err)
			}
		}
	}
	return nil
}
