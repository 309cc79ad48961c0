// Package jobs holds the domain-facing conveniences around the scheduler:
// builders that register the standard automation sweeps (mailbox polling,
// CRM follow-ups, lead ingestion), a business-hours gate, and the command
// runner the daemon uses for config-declared jobs.
//
// Everything here talks to the scheduler through Registry.Add and the Runner
// interface; nothing reaches into scheduling internals.
package jobs
