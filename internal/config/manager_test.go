package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestParseYAML(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "config.yaml", `
logging:
  level: debug
scheduler:
  tick_period: 500ms
storage:
  driver: sqlite
  path: ./runs.db
jobs:
  - name: ops mailbox poll
    type: email_processing
    interval: 5m
    metadata:
      account: ops@example.com
      batch_size: 25
  - name: follow-up sweep
    type: crm_followup
    interval: 2h
    disabled: true
    business_hours:
      start: "09:00"
      end: "17:00"
      weekdays: [mon, tue, wed, thu, fri]
`)

	cfg, err := NewManager(path).Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("level = %q", cfg.Logging.Level)
	}
	if !cfg.Logging.ConsoleEnabled() {
		t.Fatal("console should default to enabled")
	}
	if cfg.Scheduler.TickPeriod != "500ms" {
		t.Fatalf("tick_period = %q", cfg.Scheduler.TickPeriod)
	}
	if cfg.Storage == nil || cfg.Storage.Driver != "sqlite" {
		t.Fatalf("storage = %+v", cfg.Storage)
	}
	if len(cfg.Jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(cfg.Jobs))
	}
	j := cfg.Jobs[0]
	if j.Name != "ops mailbox poll" || j.Type != "email_processing" || j.Interval != "5m" {
		t.Fatalf("job 0 = %+v", j)
	}
	if j.Metadata["account"] != "ops@example.com" {
		t.Fatalf("metadata = %v", j.Metadata)
	}
	if !cfg.Jobs[1].Disabled || cfg.Jobs[1].BusinessHours == nil {
		t.Fatalf("job 1 = %+v", cfg.Jobs[1])
	}
}

func TestParseJSON(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "config.json", `{"logging":{"level":"info","console":false},"scheduler":{}}`)

	cfg, err := NewManager(path).Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Logging.ConsoleEnabled() {
		t.Fatal("explicit console:false should win")
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "config.yaml", "logging:\n  levle: info\n")
	if _, err := NewManager(path).Load(); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestParseRejectsTrailingJSON(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "config.json", `{"logging":{}}{"extra":true}`)
	if _, err := NewManager(path).Load(); err == nil {
		t.Fatal("expected error for trailing data")
	}
}

func TestParseDurations(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		raw     string
		def     time.Duration
		want    time.Duration
		wantErr bool
	}{
		{name: "empty uses default", raw: "", def: time.Second, want: time.Second},
		{name: "value", raw: "250ms", def: time.Second, want: 250 * time.Millisecond},
		{name: "garbage", raw: "soon", def: time.Second, wantErr: true},
		{name: "negative", raw: "-5s", def: time.Second, wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDurationOrDefault("test.field", tt.raw, tt.def)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := ParsePositiveDuration("jobs[0].interval", "0s"); err == nil {
		t.Fatal("zero should be rejected where a positive duration is required")
	}
	if _, err := ParsePositiveDuration("jobs[0].interval", ""); err == nil {
		t.Fatal("empty should be rejected where a positive duration is required")
	}
}

func TestSubscribePublish(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "config.yaml", "logging:\n  level: info\n")
	m := NewManager(path)
	if _, err := m.Load(); err != nil {
		t.Fatalf("Load error: %v", err)
	}

	ch := m.Subscribe(1)
	defer m.Unsubscribe(ch)

	if err := os.WriteFile(path, []byte("logging:\n  level: warn\n"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	m.reload()

	select {
	case cfg := <-ch:
		if cfg.Logging.Level != "warn" {
			t.Fatalf("level = %q", cfg.Logging.Level)
		}
	case <-time.After(time.Second):
		t.Fatal("no config published")
	}

	// Unchanged content must not publish again.
	m.reload()
	select {
	case <-ch:
		t.Fatal("unchanged config should not be republished")
	default:
	}
}
