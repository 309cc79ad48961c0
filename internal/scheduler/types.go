package scheduler

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"
)

// Runner is the unit of work a job wraps. The scheduler never inspects the
// metadata; it is packaged by whoever registered the job and handed through
// verbatim.
//
// Run must return promptly (the loop executes jobs one at a time) and must
// report failure via the error return or a panic rather than swallowing it;
// failure isolation depends on the scheduler seeing that a run failed.
type Runner interface {
	Run(ctx context.Context, meta map[string]any) error
}

// RunnerFunc adapts a plain function to the Runner interface.
type RunnerFunc func(ctx context.Context, meta map[string]any) error

func (f RunnerFunc) Run(ctx context.Context, meta map[string]any) error { return f(ctx, meta) }

// Registration errors.
var (
	ErrNonPositiveInterval = errors.New("interval must be positive")
	ErrNilRunner           = errors.New("runner is required")
)

// ErrStopTimeout is returned by Stop when the loop did not confirm shutdown
// within the configured bound. The loop still observes the stop signal and
// terminates on its own.
var ErrStopTimeout = errors.New("scheduler stop timed out")

// job is the registry's mutable record. All fields except the immutable
// identity ones are guarded by the registry mutex.
type job struct {
	id       string
	name     string
	jobType  string
	runner   Runner
	interval time.Duration
	metadata map[string]any

	enabled bool
	lastRun time.Time // zero until the first attempt
	nextRun time.Time

	// Throttles repeated failure logging for this job so a permanently
	// broken integration cannot flood the sinks.
	failLog *rate.Limiter
}

// JobInfo is a point-in-time copy of one job, safe to retain.
type JobInfo struct {
	ID       string
	Name     string
	Type     string
	Interval time.Duration
	Enabled  bool
	LastRun  time.Time // zero means the job has not been attempted yet
	NextRun  time.Time
}

// Config controls the scheduler loop.
type Config struct {
	// TickPeriod is the scan cadence. Default 1s.
	TickPeriod time.Duration
	// StopTimeout bounds how long Stop waits for the loop to exit. Default 5s.
	StopTimeout time.Duration
}

const (
	defaultTickPeriod  = time.Second
	defaultStopTimeout = 5 * time.Second

	// A tick that faulted internally backs off this many tick periods
	// before the next scan.
	faultBackoffFactor = 5

	failureLogEvery = 30 * time.Second
	failureLogBurst = 3
)

func (c Config) withDefaults() Config {
	if c.TickPeriod <= 0 {
		c.TickPeriod = defaultTickPeriod
	}
	if c.StopTimeout <= 0 {
		c.StopTimeout = defaultStopTimeout
	}
	return c
}

// Status is a point-in-time view of the scheduler and its registry.
type Status struct {
	Running      bool
	TotalJobs    int
	EnabledJobs  int
	DisabledJobs int
}

// RunResult describes one execution attempt, delivered to an attached
// RunRecorder after the attempt finishes.
type RunResult struct {
	JobID    string
	Name     string
	Type     string
	Started  time.Time
	Duration time.Duration
	Err      error // nil on success
}

// RunRecorder receives run results for observability (e.g. a run journal).
// Recorder errors are logged and never affect scheduling.
type RunRecorder interface {
	RecordRun(ctx context.Context, r RunResult) error
}
