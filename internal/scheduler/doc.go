// Package scheduler drives autoflow's periodic background work (mailbox
// polling, CRM follow-up sweeps, lead ingestion).
//
// # Overview
//
// Two pieces: a Registry holding job definitions keyed by an opaque id, and a
// Scheduler that runs a single background tick loop over it. On every tick the
// loop scans the registry, executes jobs whose next-run time has passed, and
// reschedules them with a fixed delay: next = attempt start + interval. The
// delay is anchored to when the attempt started, not when it finished, and it
// advances exactly once per attempt whether the job succeeded or failed.
//
// # Concurrency
//
// Job bodies run synchronously on the loop goroutine, one at a time, in
// registry order. No two jobs ever overlap. Registry mutations
// (Add/Remove/Enable/Disable) are safe from any goroutine while the loop runs.
// Jobs are expected to be short; long-running work should hand off elsewhere.
//
// # Failure isolation
//
// An error or panic from a job body is contained at the per-job boundary: it
// is logged, the job stays enabled, and it runs again after its interval.
// Faults in the loop's own bookkeeping are contained at the per-tick boundary;
// the loop backs off and keeps going. Nothing a job does can stop the loop.
//
// # Lifecycle
//
// Start/Stop are idempotent. Stop is cooperative: it signals the loop and
// waits up to a bounded timeout for the current tick to finish; on timeout it
// returns ErrStopTimeout while the loop still honors the signal on its next
// check. Nothing is persisted; job definitions live for the process lifetime.
package scheduler
