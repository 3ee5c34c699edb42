package checker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"nawalabot/internal/model"
	"nawalabot/pkg/logx"
)

type proberFunc func(ctx context.Context, domain string) model.CheckResult

func (f proberFunc) Probe(ctx context.Context, domain string) model.CheckResult {
	return f(ctx, domain)
}

func TestCheckAllPreservesOrderAndIsolatesFailures(t *testing.T) {
	t.Parallel()
	p := proberFunc(func(ctx context.Context, domain string) model.CheckResult {
		if domain == "bad" {
			panic("prober exploded")
		}
		return model.CheckResult{Domain: domain, Status: model.StatusSafe, CheckedAt: time.Now()}
	})

	b := New(p, Config{MaxInFlight: 2}, logx.Nop())
	got := b.CheckAll(context.Background(), []string{"a.com", "bad", "c.id"})

	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Domain != "a.com" || got[1].Domain != "bad" || got[2].Domain != "c.id" {
		t.Fatalf("order not preserved: %+v", got)
	}
	if got[0].Status != model.StatusSafe || got[2].Status != model.StatusSafe {
		t.Fatalf("siblings affected by failure: %+v", got)
	}
	if got[1].Status != model.StatusError {
		t.Fatalf("panicking probe status = %s, want ERROR", got[1].Status)
	}
	if got[1].Detail == "" {
		t.Fatal("panicking probe should carry a detail string")
	}
}

func TestCheckAllBoundsConcurrency(t *testing.T) {
	t.Parallel()
	const limit = 3
	var inFlight, peak int64

	p := proberFunc(func(ctx context.Context, domain string) model.CheckResult {
		n := atomic.AddInt64(&inFlight, 1)
		for {
			old := atomic.LoadInt64(&peak)
			if n <= old || atomic.CompareAndSwapInt64(&peak, old, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
		return model.CheckResult{Domain: domain, Status: model.StatusSafe}
	})

	b := New(p, Config{MaxInFlight: limit}, logx.Nop())
	domains := make([]string, 20)
	for i := range domains {
		domains[i] = "x.com"
	}
	b.CheckAll(context.Background(), domains)

	if got := atomic.LoadInt64(&peak); got > limit {
		t.Fatalf("peak in-flight = %d, want <= %d", got, limit)
	}
}

func TestCheckAllIsABarrier(t *testing.T) {
	t.Parallel()
	var mu sync.Mutex
	done := 0

	p := proberFunc(func(ctx context.Context, domain string) model.CheckResult {
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		done++
		mu.Unlock()
		return model.CheckResult{Domain: domain, Status: model.StatusSafe}
	})

	b := New(p, Config{MaxInFlight: 2}, logx.Nop())
	b.CheckAll(context.Background(), []string{"a.com", "b.com", "c.com", "d.com"})

	mu.Lock()
	defer mu.Unlock()
	if done != 4 {
		t.Fatalf("probes completed = %d, want 4 before CheckAll returns", done)
	}
}

func TestCheckAllEmptyInput(t *testing.T) {
	t.Parallel()
	b := New(proberFunc(func(ctx context.Context, domain string) model.CheckResult {
		t.Error("prober should not be called for empty input")
		return model.CheckResult{}
	}), Config{}, logx.Nop())

	if got := b.CheckAll(context.Background(), nil); len(got) != 0 {
		t.Fatalf("len = %d, want 0", len(got))
	}
}
