package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures the run journal.
//
// Driver values:
//   - "file": dependency-free JSON Lines file
//   - "sqlite": SQLite database file
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// RunEntry records one execution attempt.
// Keep it compact and schema-stable.
type RunEntry struct {
	At      time.Time
	JobID   string
	Name    string
	JobType string
	TookMS  int64
	OK      bool
	Error   string
}
