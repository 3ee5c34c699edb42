package config

// Config is the root configuration for nawalabot.
//
// Files may be JSON or YAML; both go through the same strict decoder, so
// unknown keys are rejected in either format.
type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Logging  LoggingConfig  `json:"logging"`
	Checker  CheckerConfig  `json:"checker"`
	Monitor  MonitorConfig  `json:"monitor"`
	Storage  StorageConfig  `json:"storage"`
}

type TelegramConfig struct {
	Token string `json:"token"`
	// RatePerSec caps outbound sendMessage calls. Telegram throttles bots
	// hard, keep this low. Default 3.
	RatePerSec int `json:"rate_per_sec,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// CheckerConfig controls the TrustPositif prober and the batch fan-out.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
type CheckerConfig struct {
	// RegistryURL is the TrustPositif endpoint. Default is the public site.
	RegistryURL string `json:"registry_url,omitempty"`
	// ProbeTimeout bounds one registry round-trip. Default "15s".
	ProbeTimeout string `json:"probe_timeout,omitempty"`
	// MaxInFlight bounds concurrent probes per batch. Default 5.
	MaxInFlight int `json:"max_in_flight,omitempty"`
	// RatePerSec caps outbound registry requests across all users. Default 10.
	RatePerSec int `json:"rate_per_sec,omitempty"`
}

// MonitorConfig controls the scheduled monitoring run.
type MonitorConfig struct {
	Enabled bool `json:"enabled"`
	// Schedule is a cron spec (5 or 6 fields) or a Go duration string
	// prefixed with "@every " (e.g. "@every 5m"). Default "@every 5m".
	Schedule string `json:"schedule,omitempty"`
	// Timezone is an IANA TZ name for cron evaluation, e.g. "Asia/Jakarta".
	Timezone string `json:"timezone,omitempty"`
}

// StorageConfig selects the persistence backend.
//
// Driver values:
//   - "sqlite": SQLite database file (default)
//   - "memory": volatile in-memory store (tests, demos)
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}
