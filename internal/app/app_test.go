package app

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"autoflow/internal/scheduler"
	"autoflow/internal/storage"
	logx "autoflow/pkg/logx"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestAppRunsConfiguredJobs(t *testing.T) {
	t.Parallel()
	journalPath := filepath.Join(t.TempDir(), "runs.jsonl")
	cfgPath := writeConfig(t, `
logging:
  level: error
  console: false
scheduler:
  tick_period: 10ms
storage:
  driver: file
  path: `+journalPath+`
jobs:
  - name: probe job
    type: email_processing
    runner: probe
    interval: 50ms
    metadata:
      account: ops@example.com
`)

	a, err := New(cfgPath)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var runs atomic.Int64
	a.RegisterRunner("probe", scheduler.RunnerFunc(func(ctx context.Context, meta map[string]any) error {
		if meta["account"] != "ops@example.com" {
			t.Errorf("metadata account = %v", meta["account"])
		}
		runs.Add(1)
		return nil
	}))

	ctx := context.Background()
	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	time.Sleep(200 * time.Millisecond)
	if err := a.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if got := runs.Load(); got < 2 {
		t.Fatalf("expected the configured job to run, got %d runs", got)
	}

	// The run journal should have one entry per attempt.
	st, err := storage.Open(storage.Config{Driver: "file", Path: journalPath}, logx.Nop())
	if err != nil {
		t.Fatalf("reopen journal: %v", err)
	}
	defer st.Close()
	entries, err := st.RecentRuns(ctx, 100)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if int64(len(entries)) != runs.Load() {
		t.Fatalf("journal has %d entries, want %d", len(entries), runs.Load())
	}
	if entries[0].Name != "probe job" || !entries[0].OK {
		t.Fatalf("unexpected journal entry: %+v", entries[0])
	}
}

func TestAppRejectsUnknownRunner(t *testing.T) {
	t.Parallel()
	cfgPath := writeConfig(t, `
logging:
  console: false
jobs:
  - name: orphan
    runner: does-not-exist
    interval: 1m
`)

	a, err := New(cfgPath)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := a.Start(context.Background()); err == nil {
		t.Fatal("Start should fail for an unknown runner")
	}
}

func TestAppRejectsBadInterval(t *testing.T) {
	t.Parallel()
	cfgPath := writeConfig(t, `
logging:
  console: false
jobs:
  - name: bad interval
    runner: command
    interval: 0s
`)

	a, err := New(cfgPath)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := a.Start(context.Background()); err == nil {
		t.Fatal("Start should fail for a non-positive interval")
	}
}

func TestAppDisabledJobStaysIdle(t *testing.T) {
	t.Parallel()
	cfgPath := writeConfig(t, `
logging:
  console: false
scheduler:
  tick_period: 10ms
jobs:
  - name: dormant
    runner: probe
    interval: 20ms
    disabled: true
`)

	a, err := New(cfgPath)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var runs atomic.Int64
	a.RegisterRunner("probe", scheduler.RunnerFunc(func(ctx context.Context, meta map[string]any) error {
		runs.Add(1)
		return nil
	}))

	ctx := context.Background()
	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer a.Stop(ctx)

	time.Sleep(100 * time.Millisecond)
	if got := runs.Load(); got != 0 {
		t.Fatalf("disabled job ran %d times", got)
	}

	st := a.Scheduler().Status()
	if st.TotalJobs != 1 || st.DisabledJobs != 1 {
		t.Fatalf("unexpected status: %+v", st)
	}
}
