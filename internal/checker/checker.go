// Package checker fans a batch of domain probes out over a bounded worker
// set and collects the results in input order.
package checker

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"nawalabot/internal/model"
	"nawalabot/pkg/logx"
)

// Prober performs a single registry lookup for one domain.
// Implementations must represent failures as StatusError results.
type Prober interface {
	Probe(ctx context.Context, domain string) model.CheckResult
}

const defaultMaxInFlight = 5

type Config struct {
	// MaxInFlight bounds concurrent probes within one batch. Default 5.
	MaxInFlight int
}

type Batch struct {
	prober      Prober
	maxInFlight int
	log         logx.Logger
}

func New(prober Prober, cfg Config, log logx.Logger) *Batch {
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = defaultMaxInFlight
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Batch{prober: prober, maxInFlight: cfg.MaxInFlight, log: log}
}

// CheckAll probes every domain concurrently (bounded by MaxInFlight) and
// returns one result per input, same order, same length.
//
// One domain's failure never affects its siblings: a Prober error result is
// passed through as-is, and a panicking probe is converted to a StatusError
// result for that domain only. CheckAll is a synchronization barrier; when
// it returns, no probe goroutine is still running.
func (b *Batch) CheckAll(ctx context.Context, domains []string) []model.CheckResult {
	results := make([]model.CheckResult, len(domains))
	if len(domains) == 0 {
		return results
	}

	sem := make(chan struct{}, b.maxInFlight)
	var wg sync.WaitGroup

	for i, d := range domains {
		i, d := i, d
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = b.probeOne(ctx, d)
		}()
	}
	wg.Wait()
	return results
}

func (b *Batch) probeOne(ctx context.Context, domain string) (res model.CheckResult) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("panic in probe",
				logx.String("domain", domain),
				logx.Any("panic", r),
				logx.String("stack", string(debug.Stack())))
			res = model.CheckResult{
				Domain:    domain,
				Status:    model.StatusError,
				CheckedAt: time.Now(),
				Detail:    fmt.Sprintf("probe panicked: %v", r),
			}
		}
	}()
	return b.prober.Probe(ctx, domain)
}
