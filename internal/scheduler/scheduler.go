package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	logx "autoflow/pkg/logx"
)

// Scheduler owns the background tick loop over a Registry. Construct one per
// application; there is no package-level instance.
type Scheduler struct {
	mu  sync.Mutex
	log logx.Logger
	cfg Config
	reg *Registry

	recorder RunRecorder

	stopCh chan struct{} // non-nil while running
	doneCh chan struct{} // closed by the loop goroutine on exit
}

func New(cfg Config, reg *Registry, log logx.Logger) *Scheduler {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Scheduler{
		log: log,
		cfg: cfg.withDefaults(),
		reg: reg,
	}
}

// Registry returns the registry this scheduler scans.
func (s *Scheduler) Registry() *Registry { return s.reg }

// SetRecorder attaches a run recorder. Call before Start.
func (s *Scheduler) SetRecorder(rec RunRecorder) {
	s.mu.Lock()
	s.recorder = rec
	s.mu.Unlock()
}

// Start launches the loop goroutine. Calling Start on a running scheduler is
// a no-op, so there is never more than one loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopCh != nil {
		return
	}
	// A previous Stop may have timed out with the loop still draining;
	// wait for it so we never run two loops.
	if s.doneCh != nil {
		done := s.doneCh
		s.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			s.mu.Lock()
			return
		}
		s.mu.Lock()
		// Re-check: a concurrent Start may have won while we waited.
		if s.stopCh != nil {
			return
		}
		s.doneCh = nil
	}

	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})

	go s.run(ctx, s.stopCh, s.doneCh)
	s.log.Info("scheduler started", logx.Duration("tick", s.cfg.TickPeriod))
}

// Stop signals the loop and waits up to the configured timeout for the
// current tick to finish. Stopping an already-stopped scheduler is a no-op.
// On timeout it returns ErrStopTimeout; the loop still exits on its own.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopCh == nil {
		s.mu.Unlock()
		return nil
	}
	stopCh := s.stopCh
	done := s.doneCh
	timeout := s.cfg.StopTimeout
	s.stopCh = nil
	s.mu.Unlock()

	close(stopCh)

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		s.mu.Lock()
		s.doneCh = nil
		s.mu.Unlock()
		s.log.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		s.log.Warn("scheduler stop timed out; loop will exit on its next check", logx.Duration("timeout", timeout))
		return ErrStopTimeout
	}
}

// Status reports a point-in-time snapshot. It never blocks on a running tick.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	running := s.stopCh != nil
	s.mu.Unlock()

	total, enabled := s.reg.counts()
	return Status{
		Running:      running,
		TotalJobs:    total,
		EnabledJobs:  enabled,
		DisabledJobs: total - enabled,
	}
}

func (s *Scheduler) run(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	tick := s.cfg.TickPeriod
	timer := time.NewTimer(tick)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-timer.C:
		}

		wait := tick
		if !s.safeTick(ctx, stopCh) {
			// Internal fault: back off before the next scan instead of
			// terminating. Job failures never take this path.
			wait = tick * faultBackoffFactor
		}
		timer.Reset(wait)
	}
}

// safeTick runs one scan pass and contains any fault in the scheduling
// machinery itself. Returns false if the tick faulted.
func (s *Scheduler) safeTick(ctx context.Context, stopCh <-chan struct{}) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			s.log.Error("scheduler tick fault",
				logx.Any("panic", r),
				logx.Stack(string(debug.Stack())),
			)
		}
	}()

	// One timestamp per tick keeps all due-comparisons mutually consistent.
	now := time.Now()
	for _, j := range s.reg.due(now) {
		// Honor a stop request between jobs; a job already started is
		// never interrupted.
		select {
		case <-ctx.Done():
			return true
		case <-stopCh:
			return true
		default:
		}
		s.runJob(ctx, j, now)
	}
	return true
}

// runJob executes one due job synchronously and advances its schedule exactly
// once, regardless of outcome.
func (s *Scheduler) runJob(ctx context.Context, j *job, now time.Time) {
	if !s.reg.recordStart(j, now) {
		return
	}

	started := time.Now()
	err := invoke(ctx, j)
	took := time.Since(started)

	s.reg.recordFinish(j, now)

	if rec := s.currentRecorder(); rec != nil {
		res := RunResult{
			JobID:    j.id,
			Name:     j.name,
			Type:     j.jobType,
			Started:  started,
			Duration: took,
			Err:      err,
		}
		if rerr := rec.RecordRun(ctx, res); rerr != nil {
			s.log.Debug("run recorder failed", logx.String("job", j.name), logx.Err(rerr))
		}
	}

	if err != nil {
		if j.failLog.Allow() {
			s.log.Warn("job failed",
				logx.String("job", j.name),
				logx.String("id", j.id),
				logx.String("type", j.jobType),
				logx.Duration("took", took),
				logx.Err(err),
			)
		}
		return
	}
	s.log.Debug("job ok",
		logx.String("job", j.name),
		logx.String("id", j.id),
		logx.Duration("took", took),
	)
}

func (s *Scheduler) currentRecorder() RunRecorder {
	s.mu.Lock()
	rec := s.recorder
	s.mu.Unlock()
	return rec
}

// invoke runs the job body, converting a panic into an error so a broken job
// can never take down the loop.
func invoke(ctx context.Context, j *job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return j.runner.Run(ctx, j.metadata)
}
