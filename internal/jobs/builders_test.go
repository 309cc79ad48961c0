package jobs

import (
	"context"
	"testing"
	"time"

	"autoflow/internal/scheduler"
	logx "autoflow/pkg/logx"
)

type runnerFunc = scheduler.RunnerFunc

func nopRunner() scheduler.Runner {
	return runnerFunc(func(ctx context.Context, meta map[string]any) error { return nil })
}

func TestScheduleEmailPolling(t *testing.T) {
	t.Parallel()
	reg := scheduler.NewRegistry()

	id, err := ScheduleEmailPolling(reg, nopRunner(), 5*time.Minute, "ops@example.com", 25)
	if err != nil {
		t.Fatalf("ScheduleEmailPolling: %v", err)
	}

	jobs := reg.List()
	if len(jobs) != 1 || jobs[0].ID != id {
		t.Fatalf("unexpected registry contents: %+v", jobs)
	}
	j := jobs[0]
	if j.Type != TypeEmailProcessing {
		t.Fatalf("type = %q", j.Type)
	}
	if j.Interval != 5*time.Minute {
		t.Fatalf("interval = %v", j.Interval)
	}
	if j.Name != "email poll: ops@example.com" {
		t.Fatalf("name = %q", j.Name)
	}
}

func TestBuilderMetadataReachesRunner(t *testing.T) {
	t.Parallel()
	reg := scheduler.NewRegistry()

	got := make(chan map[string]any, 1)
	capture := runnerFunc(func(ctx context.Context, meta map[string]any) error {
		got <- meta
		return nil
	})

	if _, err := ScheduleCRMFollowUps(reg, capture, time.Hour, "sales", 48*time.Hour); err != nil {
		t.Fatalf("ScheduleCRMFollowUps: %v", err)
	}
	if _, err := ScheduleLeadIngestion(reg, nopRunner(), 15*time.Minute, "webforms"); err != nil {
		t.Fatalf("ScheduleLeadIngestion: %v", err)
	}

	// Drive one tick quickly instead of waiting an hour.
	s := scheduler.New(scheduler.Config{TickPeriod: 5 * time.Millisecond}, reg, logx.Nop())
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	// Shrink the follow-up job's wait by re-registering with a tiny interval.
	for _, j := range reg.List() {
		reg.Remove(j.ID)
	}
	if _, err := ScheduleCRMFollowUps(reg, capture, 10*time.Millisecond, "sales", 48*time.Hour); err != nil {
		t.Fatalf("ScheduleCRMFollowUps: %v", err)
	}
	s.Start(context.Background())

	select {
	case meta := <-got:
		if meta["pipeline"] != "sales" {
			t.Fatalf("pipeline = %v", meta["pipeline"])
		}
		if meta["stale_after"] != "48h0m0s" {
			t.Fatalf("stale_after = %v", meta["stale_after"])
		}
	case <-time.After(time.Second):
		t.Fatal("runner never received metadata")
	}
}

func TestScheduleBusinessHoursRejectsBadInterval(t *testing.T) {
	t.Parallel()
	reg := scheduler.NewRegistry()
	w, err := NewWindow("09:00", "17:00", nil, time.UTC)
	if err != nil {
		t.Fatalf("NewWindow: %v", err)
	}
	if _, err := ScheduleBusinessHours(reg, "gated", "custom", nopRunner(), 0, w, nil); err != scheduler.ErrNonPositiveInterval {
		t.Fatalf("error = %v, want ErrNonPositiveInterval", err)
	}
	if got := len(reg.List()); got != 0 {
		t.Fatalf("registry should be unchanged, has %d jobs", got)
	}
}
