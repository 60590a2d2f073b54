// Package cron runs the periodic summarization sweep.
package cron

import (
	"context"
	"fmt"
	"log/slog"

	robfigcron "github.com/robfig/cron/v3"
)

// SweepFunc folds overdue history into summary memories across all
// conversations.
type SweepFunc func(ctx context.Context)

// Sweeper schedules a SweepFunc on a cron spec such as "@every 10m".
type Sweeper struct {
	spec  string
	sweep SweepFunc
	cron  *robfigcron.Cron
}

func NewSweeper(spec string, sweep SweepFunc) *Sweeper {
	return &Sweeper{
		spec:  spec,
		sweep: sweep,
		cron:  robfigcron.New(),
	}
}

// Start arms the schedule and blocks until ctx is cancelled. Returns an
// error immediately if the spec does not parse.
func (s *Sweeper) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.sweep(ctx) }); err != nil {
		return fmt.Errorf("cron: invalid sweep schedule %q: %w", s.spec, err)
	}
	s.cron.Start()
	slog.Info("cron: summarization sweep scheduled", "every", s.spec)

	<-ctx.Done()
	<-s.cron.Stop().Done()
	return ctx.Err()
}
