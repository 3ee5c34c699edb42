package monitor

import (
	"time"

	"nawalabot/internal/model"
)

// ReconciledDomain is one domain's reconciled outcome, input to the report
// builder.
type ReconciledDomain struct {
	Name    string
	Status  model.Status
	Changed bool
}

// BuildReport aggregates a user's reconciled results into a report.
//
// Pure: no I/O, deterministic, input order preserved. Every status other
// than SAFE and BLOCKED lands in the error bucket, so
// SafeCount + BlockedCount + ErrorCount == TotalDomains always holds.
func BuildReport(userID string, runAt time.Time, items []ReconciledDomain) *model.Report {
	r := &model.Report{
		UserID:       userID,
		RunAt:        runAt,
		TotalDomains: len(items),
		Entries:      make([]model.ReportEntry, 0, len(items)),
	}
	for _, it := range items {
		switch it.Status {
		case model.StatusSafe:
			r.SafeCount++
		case model.StatusBlocked:
			r.BlockedCount++
		default:
			r.ErrorCount++
		}
		r.Entries = append(r.Entries, model.ReportEntry{
			Domain:  it.Name,
			Status:  it.Status,
			Changed: it.Changed,
		})
	}
	return r
}
