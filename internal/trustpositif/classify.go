package trustpositif

import (
	"strings"

	"nawalabot/internal/model"
)

// Registry response markers. TrustPositif answers with "Ada" (present in
// the blocklist) or "Tidak Ada" (not present).
const (
	markerBlocked    = "ADA"
	markerNotBlocked = "TIDAK ADA"
)

// Classify maps a raw registry response body to a status.
//
// "TIDAK ADA" contains "ADA" as a substring, so the blocked marker is only
// counted after the not-blocked marker has been cut out. A body carrying
// both markers, or neither, is ambiguous and classifies as ERROR.
func Classify(body string) model.Status {
	up := strings.ToUpper(body)
	hasNotBlocked := strings.Contains(up, markerNotBlocked)
	hasBlocked := strings.Contains(strings.ReplaceAll(up, markerNotBlocked, ""), markerBlocked)

	switch {
	case hasBlocked && hasNotBlocked:
		return model.StatusError
	case hasBlocked:
		return model.StatusBlocked
	case hasNotBlocked:
		return model.StatusSafe
	default:
		return model.StatusError
	}
}
