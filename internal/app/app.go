package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"autoflow/internal/config"
	"autoflow/internal/jobs"
	"autoflow/internal/scheduler"
	"autoflow/internal/storage"
	logx "autoflow/pkg/logx"
)

// App composes the daemon: config manager, logging, run journal, registry and
// scheduler. It owns the instances explicitly; there is no package-level
// scheduler.
type App struct {
	cfgm *config.Manager

	log  logx.Logger
	logs *logx.Service

	store storage.Store
	reg   *scheduler.Registry
	sched *scheduler.Scheduler

	mu      sync.Mutex
	runners map[string]scheduler.Runner

	watchCancel context.CancelFunc
	watchDone   chan struct{}
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", cfgPath, err)
	}

	logSvc, log := logx.New(mapLoggingConfig(cfg.Logging))
	log = log.With(logx.String("comp", "app"))
	cfgm.SetLogger(log.With(logx.String("comp", "config")))

	// Run journal (optional).
	var store storage.Store
	if sc, enabled, err := mapStorageConfig(cfg.Storage); err != nil {
		return nil, err
	} else if enabled {
		st, err := storage.Open(sc, log.With(logx.String("comp", "storage")))
		if err != nil {
			return nil, err
		}
		store = st
		log.Info("run journal enabled", logx.String("driver", sc.Driver))
	}

	schedCfg, err := mapSchedulerConfig(cfg.Scheduler)
	if err != nil {
		return nil, err
	}

	reg := scheduler.NewRegistry()
	sched := scheduler.New(schedCfg, reg, log.With(logx.String("comp", "scheduler")))
	if store != nil {
		sched.SetRecorder(journal{store: store})
	}

	a := &App{
		cfgm:    cfgm,
		log:     log,
		logs:    logSvc,
		store:   store,
		reg:     reg,
		sched:   sched,
		runners: map[string]scheduler.Runner{},
	}

	// Built-in runner for config-declared jobs.
	a.RegisterRunner("command", jobs.CommandRunner{Log: log.With(logx.String("comp", "command"))})
	return a, nil
}

// RegisterRunner makes a runner available to config-declared jobs under the
// given name. Call before Start.
func (a *App) RegisterRunner(name string, r scheduler.Runner) {
	a.mu.Lock()
	a.runners[name] = r
	a.mu.Unlock()
}

// Registry exposes the job registry for programmatic registration alongside
// the config-declared jobs.
func (a *App) Registry() *scheduler.Registry { return a.reg }

// Scheduler exposes the scheduler for status reporting.
func (a *App) Scheduler() *scheduler.Scheduler { return a.sched }

func (a *App) Start(ctx context.Context) error {
	cfg := a.cfgm.Get()
	if cfg == nil {
		return errors.New("config not loaded")
	}

	if err := a.registerConfiguredJobs(cfg.Jobs); err != nil {
		return err
	}

	// Hot reload: re-apply logging on config change. Job edits require a
	// restart; rebinding running jobs in place is not worth the ambiguity.
	wctx, cancel := context.WithCancel(ctx)
	a.watchCancel = cancel
	a.watchDone = make(chan struct{})
	sub := a.cfgm.Subscribe(1)
	go func() {
		defer close(a.watchDone)
		defer a.cfgm.Unsubscribe(sub)
		go func() { _ = a.cfgm.Watch(wctx) }()
		for {
			select {
			case <-wctx.Done():
				return
			case newCfg, ok := <-sub:
				if !ok {
					return
				}
				a.logs.Apply(mapLoggingConfig(newCfg.Logging))
				a.log.Info("logging config re-applied")
			}
		}
	}()

	a.sched.Start(ctx)
	st := a.sched.Status()
	a.log.Info("app started", logx.Int("jobs", st.TotalJobs), logx.Int("enabled", st.EnabledJobs))
	return nil
}

func (a *App) Stop(ctx context.Context) error {
	var firstErr error

	if err := a.sched.Stop(ctx); err != nil {
		firstErr = err
	}
	if a.watchCancel != nil {
		a.watchCancel()
		select {
		case <-a.watchDone:
		case <-ctx.Done():
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	_ = a.logs.Close()
	return firstErr
}

func (a *App) registerConfiguredJobs(defs []config.JobConfig) error {
	for i, jc := range defs {
		path := fmt.Sprintf("jobs[%d]", i)
		if strings.TrimSpace(jc.Name) == "" {
			return fmt.Errorf("%s: name is required", path)
		}

		interval, err := config.ParsePositiveDuration(path+".interval", jc.Interval)
		if err != nil {
			return err
		}

		runnerName := jc.Runner
		if strings.TrimSpace(runnerName) == "" {
			runnerName = "command"
		}
		a.mu.Lock()
		runner, ok := a.runners[runnerName]
		a.mu.Unlock()
		if !ok {
			return fmt.Errorf("%s: unknown runner %q", path, runnerName)
		}

		if jc.BusinessHours != nil {
			w, err := mapBusinessHours(path+".business_hours", jc.BusinessHours)
			if err != nil {
				return err
			}
			runner = jobs.Gate(runner, w)
		}

		id, err := a.reg.Add(jc.Name, jc.Type, runner, interval, jc.Metadata)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if jc.Disabled {
			a.reg.Disable(id)
		}
		a.log.Debug("job registered",
			logx.String("job", jc.Name),
			logx.String("id", id),
			logx.Duration("interval", interval),
			logx.Bool("disabled", jc.Disabled),
		)
	}
	return nil
}

// journal adapts the storage.Store to the scheduler's RunRecorder hook.
type journal struct {
	store storage.Store
}

func (j journal) RecordRun(ctx context.Context, r scheduler.RunResult) error {
	e := storage.RunEntry{
		At:      r.Started,
		JobID:   r.JobID,
		Name:    r.Name,
		JobType: r.Type,
		TookMS:  r.Duration.Milliseconds(),
		OK:      r.Err == nil,
	}
	if r.Err != nil {
		e.Error = r.Err.Error()
	}
	// Bound the write so a wedged journal cannot stall the loop.
	wctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	return j.store.AppendRun(wctx, e)
}
