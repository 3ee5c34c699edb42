package monitor

import (
	"nawalabot/internal/model"
)

// Reconcile compares a domain's stored status with a fresh check result.
//
// changed is true iff the probed status differs from the status held
// immediately before this run. transitionedToBlocked is true only for a
// SAFE→BLOCKED transition; that is the single alert-worthy case. A domain
// going ERROR→BLOCKED (or PENDING→BLOCKED on its first check) shows up as
// changed in the report but does not alert, matching the upstream policy.
//
// Note that an ERROR result overwrites a previously known good status, so
// a real block hidden behind a flaky probe re-reports as changed once the
// probe recovers, without re-alerting.
func Reconcile(d model.Domain, res model.CheckResult) (changed, transitionedToBlocked bool) {
	changed = res.Status != d.Status
	transitionedToBlocked = d.Status == model.StatusSafe && res.Status == model.StatusBlocked
	return changed, transitionedToBlocked
}
