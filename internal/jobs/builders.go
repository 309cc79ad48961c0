package jobs

import (
	"time"

	"autoflow/internal/scheduler"
)

// Job type tags. Observability only; the scheduler attaches no behavior to them.
const (
	TypeEmailProcessing = "email_processing"
	TypeCRMFollowUp     = "crm_followup"
	TypeLeadIngestion   = "lead_ingestion"
)

// ScheduleEmailPolling registers a periodic mailbox sweep. The account and
// batch size travel to the runner as metadata.
func ScheduleEmailPolling(reg *scheduler.Registry, r scheduler.Runner, every time.Duration, account string, batchSize int) (string, error) {
	meta := map[string]any{
		"account":    account,
		"batch_size": batchSize,
	}
	return reg.Add("email poll: "+account, TypeEmailProcessing, r, every, meta)
}

// ScheduleCRMFollowUps registers the periodic follow-up sweep over a CRM
// pipeline. staleAfter is how long a contact may sit untouched before the
// sweep picks it up.
func ScheduleCRMFollowUps(reg *scheduler.Registry, r scheduler.Runner, every time.Duration, pipeline string, staleAfter time.Duration) (string, error) {
	meta := map[string]any{
		"pipeline":    pipeline,
		"stale_after": staleAfter.String(),
	}
	return reg.Add("crm follow-ups: "+pipeline, TypeCRMFollowUp, r, every, meta)
}

// ScheduleLeadIngestion registers periodic lead ingestion from an external
// source (form provider, ad platform export, ...).
func ScheduleLeadIngestion(reg *scheduler.Registry, r scheduler.Runner, every time.Duration, source string) (string, error) {
	meta := map[string]any{
		"source": source,
	}
	return reg.Add("lead ingestion: "+source, TypeLeadIngestion, r, every, meta)
}

// ScheduleBusinessHours registers an arbitrary job whose runs are gated to
// the given window. Outside the window the job still ticks on schedule but
// the run is a recorded no-op.
func ScheduleBusinessHours(reg *scheduler.Registry, name, jobType string, r scheduler.Runner, every time.Duration, w Window, metadata map[string]any) (string, error) {
	return reg.Add(name, jobType, Gate(r, w), every, metadata)
}
