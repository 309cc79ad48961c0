package config

// Config is the daemon's file configuration. YAML and JSON are both accepted;
// YAML is coerced to JSON before a strict decode, so unknown keys are rejected
// in either format.
type Config struct {
	Logging   LoggingConfig   `json:"logging"`
	Scheduler SchedulerConfig `json:"scheduler"`

	// Storage configures the optional run journal. Omitted means disabled.
	Storage *StorageConfig `json:"storage,omitempty"`

	// Jobs declared in the file are registered at startup.
	Jobs []JobConfig `json:"jobs,omitempty"`
}

type LoggingConfig struct {
	Level   string     `json:"level,omitempty"`
	Console *bool      `json:"console,omitempty"` // nil means enabled
	File    FileConfig `json:"file,omitempty"`
}

// ConsoleEnabled treats an omitted console flag as on; a daemon with no sinks
// at all is never what anyone wants.
func (l LoggingConfig) ConsoleEnabled() bool {
	return l.Console == nil || *l.Console
}

type FileConfig struct {
	Enabled bool   `json:"enabled,omitempty"`
	Path    string `json:"path,omitempty"`
}

// SchedulerConfig controls the tick loop.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
//
// Defaults (when fields are omitted/zero):
//   - tick_period: "1s"
//   - stop_timeout: "5s"
type SchedulerConfig struct {
	TickPeriod  string `json:"tick_period,omitempty"`
	StopTimeout string `json:"stop_timeout,omitempty"`
}

// StorageConfig configures the run journal.
//
// Driver values:
//   - "none" (or empty): journaling disabled
//   - "file": append-only JSON Lines file
//   - "sqlite": SQLite database file
type StorageConfig struct {
	Driver      string `json:"driver,omitempty"`
	Path        string `json:"path,omitempty"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // sqlite only
}

// JobConfig declares one scheduled job.
type JobConfig struct {
	Name string `json:"name"`

	// Type is a free-form classification tag ("email_processing",
	// "crm_followup", ...) used only for logging and the run journal.
	Type string `json:"type,omitempty"`

	// Runner names the registered runner implementation that executes this
	// job. Defaults to "command".
	Runner string `json:"runner,omitempty"`

	// Interval is the fixed delay between runs, a Go duration string.
	Interval string `json:"interval"`

	Disabled bool `json:"disabled,omitempty"`

	// Metadata is handed to the runner verbatim.
	Metadata map[string]any `json:"metadata,omitempty"`

	// BusinessHours, when set, gates execution to the given window.
	BusinessHours *BusinessHoursConfig `json:"business_hours,omitempty"`
}

// BusinessHoursConfig describes a weekly execution window.
type BusinessHoursConfig struct {
	Start    string   `json:"start"` // HH:MM
	End      string   `json:"end"`   // HH:MM
	Weekdays []string `json:"weekdays,omitempty"` // e.g. ["mon".."fri"]; empty means Mon-Fri
	Timezone string   `json:"timezone,omitempty"` // IANA TZ; empty means local
}
