package app

import (
	"fmt"
	"time"

	"autoflow/internal/config"
	"autoflow/internal/jobs"
	"autoflow/internal/scheduler"
	"autoflow/internal/storage"
	logx "autoflow/pkg/logx"
)

func mapLoggingConfig(lc config.LoggingConfig) logx.Config {
	return logx.Config{
		Level:   lc.Level,
		Console: lc.ConsoleEnabled(),
		File: logx.FileConfig{
			Enabled: lc.File.Enabled,
			Path:    lc.File.Path,
		},
	}
}

func mapSchedulerConfig(sc config.SchedulerConfig) (scheduler.Config, error) {
	tick, err := config.ParseDurationOrDefault("scheduler.tick_period", sc.TickPeriod, time.Second)
	if err != nil {
		return scheduler.Config{}, err
	}
	stop, err := config.ParseDurationOrDefault("scheduler.stop_timeout", sc.StopTimeout, 5*time.Second)
	if err != nil {
		return scheduler.Config{}, err
	}
	return scheduler.Config{TickPeriod: tick, StopTimeout: stop}, nil
}

func mapStorageConfig(sc *config.StorageConfig) (storage.Config, bool, error) {
	if sc == nil {
		return storage.Config{}, false, nil
	}
	busy, err := config.ParseDurationField("storage.busy_timeout", sc.BusyTimeout)
	if err != nil {
		return storage.Config{}, false, err
	}
	out := storage.Config{
		Driver:      sc.Driver,
		Path:        sc.Path,
		BusyTimeout: busy,
	}
	enabled := out.Driver != "" && out.Driver != "none"
	return out, enabled, nil
}

func mapBusinessHours(path string, bc *config.BusinessHoursConfig) (jobs.Window, error) {
	var weekdays []time.Weekday
	for _, raw := range bc.Weekdays {
		d, err := jobs.ParseWeekday(raw)
		if err != nil {
			return jobs.Window{}, fmt.Errorf("%s: %w", path, err)
		}
		weekdays = append(weekdays, d)
	}

	loc := time.Local
	if bc.Timezone != "" {
		l, err := time.LoadLocation(bc.Timezone)
		if err != nil {
			return jobs.Window{}, fmt.Errorf("%s: invalid timezone %q: %w", path, bc.Timezone, err)
		}
		loc = l
	}
	w, err := jobs.NewWindow(bc.Start, bc.End, weekdays, loc)
	if err != nil {
		return jobs.Window{}, fmt.Errorf("%s: %w", path, err)
	}
	return w, nil
}
