package scheduler

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func noopRunner() Runner {
	return RunnerFunc(func(ctx context.Context, meta map[string]any) error { return nil })
}

func TestRegistryAdd(t *testing.T) {
	t.Parallel()
	reg := NewRegistry()

	before := time.Now()
	id, err := reg.Add("mailbox sweep", "email_processing", noopRunner(), time.Minute, map[string]any{"account": "ops@example.com"})
	if err != nil {
		t.Fatalf("Add error: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty id")
	}

	jobs := reg.List()
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	j := jobs[0]
	if j.ID != id || j.Name != "mailbox sweep" || j.Type != "email_processing" {
		t.Fatalf("unexpected snapshot: %+v", j)
	}
	if !j.Enabled {
		t.Fatal("new job should be enabled")
	}
	if !j.LastRun.IsZero() {
		t.Fatal("LastRun should be unset before the first attempt")
	}
	if j.NextRun.Before(before.Add(time.Minute)) {
		t.Fatalf("NextRun %v should be at least creation+interval", j.NextRun)
	}
}

func TestRegistryAddRejectsBadArgs(t *testing.T) {
	t.Parallel()
	reg := NewRegistry()

	tests := []struct {
		name     string
		interval time.Duration
		runner   Runner
		want     error
	}{
		{name: "zero interval", interval: 0, runner: noopRunner(), want: ErrNonPositiveInterval},
		{name: "negative interval", interval: -time.Second, runner: noopRunner(), want: ErrNonPositiveInterval},
		{name: "nil runner", interval: time.Second, runner: nil, want: ErrNilRunner},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if _, err := reg.Add("x", "t", tt.runner, tt.interval, nil); err != tt.want {
				t.Fatalf("Add error = %v, want %v", err, tt.want)
			}
		})
	}

	if got := len(reg.List()); got != 0 {
		t.Fatalf("registry should be unchanged after rejected adds, has %d jobs", got)
	}
}

func TestRegistryRemoveIdempotent(t *testing.T) {
	t.Parallel()
	reg := NewRegistry()
	id, err := reg.Add("x", "t", noopRunner(), time.Second, nil)
	if err != nil {
		t.Fatalf("Add error: %v", err)
	}

	if !reg.Remove(id) {
		t.Fatal("first Remove should report the job existed")
	}
	if reg.Remove(id) {
		t.Fatal("second Remove should report the job was gone")
	}
	if got := len(reg.List()); got != 0 {
		t.Fatalf("expected empty registry, got %d jobs", got)
	}
}

func TestRegistryEnableDisable(t *testing.T) {
	t.Parallel()
	reg := NewRegistry()
	id, err := reg.Add("x", "t", noopRunner(), time.Second, nil)
	if err != nil {
		t.Fatalf("Add error: %v", err)
	}

	wasNext := reg.List()[0].NextRun

	if !reg.Disable(id) {
		t.Fatal("Disable should find the job")
	}
	j := reg.List()[0]
	if j.Enabled {
		t.Fatal("job should be disabled")
	}
	if !j.NextRun.Equal(wasNext) {
		t.Fatal("Disable must not alter NextRun")
	}

	if !reg.Enable(id) {
		t.Fatal("Enable should find the job")
	}
	j = reg.List()[0]
	if !j.Enabled {
		t.Fatal("job should be enabled again")
	}
	if !j.NextRun.Equal(wasNext) {
		t.Fatal("Enable must not alter NextRun")
	}

	if reg.Enable("no-such-id") || reg.Disable("no-such-id") {
		t.Fatal("unknown id should report false")
	}
}

func TestRegistryListInsertionOrder(t *testing.T) {
	t.Parallel()
	reg := NewRegistry()
	var ids []string
	for i := 0; i < 5; i++ {
		id, err := reg.Add(fmt.Sprintf("job-%d", i), "t", noopRunner(), time.Second, nil)
		if err != nil {
			t.Fatalf("Add error: %v", err)
		}
		ids = append(ids, id)
	}

	jobs := reg.List()
	if len(jobs) != len(ids) {
		t.Fatalf("expected %d jobs, got %d", len(ids), len(jobs))
	}
	for i, j := range jobs {
		if j.ID != ids[i] {
			t.Fatalf("position %d: got %s, want %s", i, j.ID, ids[i])
		}
	}
}

func TestRegistryConcurrentMutation(t *testing.T) {
	t.Parallel()
	reg := NewRegistry()
	const writers = 20

	var wg sync.WaitGroup
	wg.Add(writers)
	for w := 0; w < writers; w++ {
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				id, err := reg.Add("concurrent", "t", noopRunner(), time.Second, nil)
				if err != nil {
					t.Errorf("Add error: %v", err)
					return
				}
				reg.Disable(id)
				reg.Enable(id)
				if i%2 == 0 {
					reg.Remove(id)
				}
			}
		}()
	}

	// Enumerate concurrently with the writers.
	var rwg sync.WaitGroup
	rwg.Add(1)
	go func() {
		defer rwg.Done()
		for i := 0; i < 100; i++ {
			for _, j := range reg.List() {
				_ = j.Enabled
			}
			time.Sleep(time.Millisecond)
		}
	}()

	wg.Wait()
	rwg.Wait()

	if got := len(reg.List()); got != writers*25 {
		t.Fatalf("expected %d surviving jobs, got %d", writers*25, got)
	}
}
