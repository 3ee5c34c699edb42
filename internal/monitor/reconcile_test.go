package monitor

import (
	"testing"
	"time"

	"nawalabot/internal/model"
)

func TestReconcile(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		prior       model.Status
		probed      model.Status
		wantChanged bool
		wantAlert   bool
	}{
		{name: "safe stays safe", prior: model.StatusSafe, probed: model.StatusSafe},
		{name: "safe to blocked", prior: model.StatusSafe, probed: model.StatusBlocked, wantChanged: true, wantAlert: true},
		{name: "blocked stays blocked", prior: model.StatusBlocked, probed: model.StatusBlocked},
		{name: "blocked to safe", prior: model.StatusBlocked, probed: model.StatusSafe, wantChanged: true},
		{name: "error to blocked does not alert", prior: model.StatusError, probed: model.StatusBlocked, wantChanged: true},
		{name: "pending to blocked does not alert", prior: model.StatusPending, probed: model.StatusBlocked, wantChanged: true},
		{name: "safe to error", prior: model.StatusSafe, probed: model.StatusError, wantChanged: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			d := model.Domain{Name: "x.com", Status: tt.prior}
			res := model.CheckResult{Domain: "x.com", Status: tt.probed}
			changed, alert := Reconcile(d, res)
			if changed != tt.wantChanged {
				t.Fatalf("changed = %v, want %v", changed, tt.wantChanged)
			}
			if alert != tt.wantAlert {
				t.Fatalf("transitionedToBlocked = %v, want %v", alert, tt.wantAlert)
			}
		})
	}
}

func TestBuildReportInvariant(t *testing.T) {
	t.Parallel()
	runAt := time.Now()
	items := []ReconciledDomain{
		{Name: "a.com", Status: model.StatusSafe},
		{Name: "b.id", Status: model.StatusBlocked, Changed: true},
		{Name: "c.net", Status: model.StatusError},
		{Name: "d.org", Status: model.StatusPending}, // defensive: counts as error
	}
	r := BuildReport("u1", runAt, items)

	if r.SafeCount+r.BlockedCount+r.ErrorCount != r.TotalDomains {
		t.Fatalf("count invariant violated: %+v", r)
	}
	if r.TotalDomains != 4 || r.SafeCount != 1 || r.BlockedCount != 1 || r.ErrorCount != 2 {
		t.Fatalf("counts = %+v", r)
	}
	if len(r.Entries) != 4 {
		t.Fatalf("entries = %d", len(r.Entries))
	}
	for i, it := range items {
		if r.Entries[i].Domain != it.Name {
			t.Fatalf("entry order not preserved: %+v", r.Entries)
		}
	}
	if !r.Entries[1].Changed || r.Entries[0].Changed {
		t.Fatalf("changed flags wrong: %+v", r.Entries)
	}
	if r.Sent || !r.SentAt.IsZero() {
		t.Fatalf("fresh report must be unsent: %+v", r)
	}
}

func TestBuildReportEmpty(t *testing.T) {
	t.Parallel()
	r := BuildReport("u1", time.Now(), nil)
	if r.TotalDomains != 0 || len(r.Entries) != 0 {
		t.Fatalf("empty report = %+v", r)
	}
}
