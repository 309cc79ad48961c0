package jobs

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"autoflow/internal/scheduler"
)

// Window is a weekly execution window: [Start, End) on the listed weekdays,
// evaluated in the window's location.
type Window struct {
	startMin int // minutes from midnight
	endMin   int
	days     map[time.Weekday]bool
	loc      *time.Location
}

// NewWindow builds a window from "HH:MM" bounds. An empty weekday list means
// Monday through Friday. A nil location means time.Local.
func NewWindow(start, end string, weekdays []time.Weekday, loc *time.Location) (Window, error) {
	sh, sm, err := parseHHMM(start)
	if err != nil {
		return Window{}, err
	}
	eh, em, err := parseHHMM(end)
	if err != nil {
		return Window{}, err
	}
	startMin := sh*60 + sm
	endMin := eh*60 + em
	if endMin <= startMin {
		return Window{}, fmt.Errorf("window end %q must be after start %q", end, start)
	}

	if len(weekdays) == 0 {
		weekdays = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}
	}
	days := make(map[time.Weekday]bool, len(weekdays))
	for _, d := range weekdays {
		days[d] = true
	}
	if loc == nil {
		loc = time.Local
	}
	return Window{startMin: startMin, endMin: endMin, days: days, loc: loc}, nil
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	lt := t.In(w.loc)
	if !w.days[lt.Weekday()] {
		return false
	}
	min := lt.Hour()*60 + lt.Minute()
	return min >= w.startMin && min < w.endMin
}

// ParseWeekday accepts full names and common three-letter abbreviations.
func ParseWeekday(s string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sun", "sunday":
		return time.Sunday, nil
	case "mon", "monday":
		return time.Monday, nil
	case "tue", "tues", "tuesday":
		return time.Tuesday, nil
	case "wed", "wednesday":
		return time.Wednesday, nil
	case "thu", "thur", "thurs", "thursday":
		return time.Thursday, nil
	case "fri", "friday":
		return time.Friday, nil
	case "sat", "saturday":
		return time.Saturday, nil
	}
	return 0, fmt.Errorf("invalid weekday %q", s)
}

// Gate wraps a runner so it only does work inside the window. A skipped run
// reports success; the schedule advances normally either way.
func Gate(r scheduler.Runner, w Window) scheduler.Runner {
	return &gated{inner: r, window: w, now: time.Now}
}

type gated struct {
	inner  scheduler.Runner
	window Window
	now    func() time.Time
}

func (g *gated) Run(ctx context.Context, meta map[string]any) error {
	if !g.window.Contains(g.now()) {
		return nil
	}
	return g.inner.Run(ctx, meta)
}

func parseHHMM(s string) (hour int, minute int, err error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h, m, nil
}
