package store

import (
	"context"
	"errors"
	"sync"

	"github.com/robfig/cron/v3"
)

// SweepReport receives the outcome of each scheduled sweep.
type SweepReport func(deleted int64, err error)

// Sweeper runs Expirer.DeleteExpired on a cron schedule.
type Sweeper struct {
	target Expirer
	report SweepReport
	cron   *cron.Cron

	mu      sync.Mutex
	started bool
}

// NewSweeper parses schedule (standard five-field cron or an @every
// descriptor) and prepares a stopped sweeper.
func NewSweeper(target Expirer, schedule string, report SweepReport) (*Sweeper, error) {
	if target == nil {
		return nil, errors.New("sweeper target is nil")
	}
	spec, err := cron.ParseStandard(schedule)
	if err != nil {
		return nil, err
	}
	s := &Sweeper{
		target: target,
		report: report,
		cron:   cron.New(),
	}
	s.cron.Schedule(spec, cron.FuncJob(func() {
		_, _ = s.RunOnce(context.Background())
	}))
	return s, nil
}

// RunOnce performs a sweep immediately.
func (s *Sweeper) RunOnce(ctx context.Context) (int64, error) {
	n, err := s.target.DeleteExpired(ctx)
	if s.report != nil {
		s.report(n, err)
	}
	return n, err
}

// Start begins the schedule. Calling Start twice is a no-op.
func (s *Sweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.cron.Start()
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	started := s.started
	s.started = false
	s.mu.Unlock()
	if !started {
		return
	}
	<-s.cron.Stop().Done()
}
