package scheduler

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Registry holds the authoritative set of jobs. All methods are safe to call
// from any goroutine while the scheduler loop is scanning.
type Registry struct {
	mu    sync.Mutex
	jobs  map[string]*job
	order []string // insertion order; List and the loop scan follow it
}

func NewRegistry() *Registry {
	return &Registry{jobs: map[string]*job{}}
}

// Add registers a job and returns its id. The job starts enabled with
// next run = now + interval.
func (r *Registry) Add(name, jobType string, runner Runner, interval time.Duration, metadata map[string]any) (string, error) {
	if interval <= 0 {
		return "", ErrNonPositiveInterval
	}
	if runner == nil {
		return "", ErrNilRunner
	}
	name = strings.TrimSpace(name)

	j := &job{
		id:       uuid.NewString(),
		name:     name,
		jobType:  jobType,
		runner:   runner,
		interval: interval,
		metadata: metadata,
		enabled:  true,
		nextRun:  time.Now().Add(interval),
		failLog:  rate.NewLimiter(rate.Every(failureLogEvery), failureLogBurst),
	}

	r.mu.Lock()
	r.jobs[j.id] = j
	r.order = append(r.order, j.id)
	r.mu.Unlock()
	return j.id, nil
}

// Remove deletes the job if present and reports whether it existed.
// Removing an unknown id is a no-op.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[id]; !ok {
		return false
	}
	delete(r.jobs, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Enable marks the job eligible again. Its next-run time is left as-is, so a
// job disabled for longer than its interval fires on the next scan.
func (r *Registry) Enable(id string) bool { return r.setEnabled(id, true) }

// Disable excludes the job from scans without touching its schedule.
func (r *Registry) Disable(id string) bool { return r.setEnabled(id, false) }

func (r *Registry) setEnabled(id string, enabled bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return false
	}
	j.enabled = enabled
	return true
}

// List returns point-in-time copies of all jobs in insertion order.
func (r *Registry) List() []JobInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]JobInfo, 0, len(r.order))
	for _, id := range r.order {
		j, ok := r.jobs[id]
		if !ok {
			continue
		}
		out = append(out, JobInfo{
			ID:       j.id,
			Name:     j.name,
			Type:     j.jobType,
			Interval: j.interval,
			Enabled:  j.enabled,
			LastRun:  j.lastRun,
			NextRun:  j.nextRun,
		})
	}
	return out
}

func (r *Registry) counts() (total, enabled int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total = len(r.jobs)
	for _, j := range r.jobs {
		if j.enabled {
			enabled++
		}
	}
	return total, enabled
}

// due returns the jobs eligible at now, in insertion order. A job removed or
// disabled after this snapshot is filtered out again by recordStart, so
// removal is final even mid-tick.
func (r *Registry) due(now time.Time) []*job {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*job
	for _, id := range r.order {
		j, ok := r.jobs[id]
		if !ok {
			continue
		}
		if !j.enabled || j.nextRun.After(now) {
			continue
		}
		out = append(out, j)
	}
	return out
}

// recordStart stamps the attempt time before the runner is invoked. It
// reports false if the job was removed or disabled since the due snapshot,
// in which case the attempt must not happen.
func (r *Registry) recordStart(j *job, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.jobs[j.id]
	if !ok || cur != j || !cur.enabled {
		return false
	}
	j.lastRun = now
	return true
}

// recordFinish advances the schedule after the runner returned, success or
// not. Anchored to the attempt start, so a slow job is not retried faster
// than its interval.
func (r *Registry) recordFinish(j *job, startedAt time.Time) {
	r.mu.Lock()
	j.nextRun = startedAt.Add(j.interval)
	r.mu.Unlock()
}
