// Package storage persists the run journal: one record per job execution
// attempt. It is attached to the scheduler as an observer; the scheduler
// itself keeps no durable state.
package storage
