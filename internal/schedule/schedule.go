package schedule

import (
	"errors"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// Refresher runs a task on a cron schedule, used for optional periodic
// overview refreshes (e.g. "@every 30s").
type Refresher struct {
	cron *cron.Cron
	logf func(format string, args ...any)
}

func New(spec string, task func(), logf func(format string, args ...any)) (*Refresher, error) {
	expr := strings.TrimSpace(spec)
	if expr == "" {
		return nil, errors.New("schedule spec is required")
	}
	if task == nil {
		return nil, errors.New("task is required")
	}
	if logf == nil {
		logf = func(string, ...any) {}
	}

	c := cron.New()
	if _, err := c.AddFunc(expr, task); err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", expr, err)
	}
	return &Refresher{cron: c, logf: logf}, nil
}

func (r *Refresher) Start() {
	if r == nil || r.cron == nil {
		return
	}
	r.logf("schedule: started entries=%d", len(r.cron.Entries()))
	r.cron.Start()
}

// Stop halts scheduling; a task already running finishes on its own.
func (r *Refresher) Stop() {
	if r == nil || r.cron == nil {
		return
	}
	r.cron.Stop()
}
