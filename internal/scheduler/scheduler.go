// Package scheduler runs the poll cycle on a fixed interval. The first
// cycle starts immediately; later cycles start every Interval, and a
// cycle that is still running when the next tick arrives is skipped
// rather than stacked.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/GoJackzi/zama-news-bot/pkg/logx"
)

type Config struct {
	// Interval between cycle starts.
	Interval time.Duration
	// CycleTimeout bounds one cycle. Zero means twice the interval.
	CycleTimeout time.Duration
}

const defaultInterval = 5 * time.Minute

// Scheduler drives one job on a constant-delay schedule.
type Scheduler struct {
	job func(context.Context)
	log logx.Logger

	mu    sync.Mutex
	cfg   Config
	c     *cron.Cron
	entry cron.EntryID
	ctx   context.Context

	wg      sync.WaitGroup
	running atomic.Bool
	skipped atomic.Int64
}

// New builds a Scheduler around job.
func New(job func(context.Context), cfg Config, log logx.Logger) *Scheduler {
	if log.IsZero() {
		log = logx.Nop()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	return &Scheduler{job: job, log: log, cfg: cfg}
}

// Start kicks off the immediate first cycle and the interval schedule.
// ctx cancellation stops new work; call Stop to wait for the tail.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return
	}
	s.ctx = ctx

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runOnce(ctx)
	}()

	c := cron.New()
	s.entry = c.Schedule(cron.Every(s.cfg.Interval), cron.FuncJob(func() {
		s.runOnce(ctx)
	}))
	c.Start()
	s.c = c

	s.log.Info("scheduler started",
		logx.Duration("interval", s.cfg.Interval),
		logx.Duration("cycle_timeout", s.cycleTimeoutLocked()),
	)
}

// Stop halts the schedule and waits for any in-flight cycle.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c := s.c
	s.c = nil
	s.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
	s.wg.Wait()
}

// UpdateInterval reschedules future cycles. The running cycle, if any,
// is left alone.
func (s *Scheduler) UpdateInterval(every time.Duration) {
	if every <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if every == s.cfg.Interval {
		return
	}
	s.cfg.Interval = every
	if s.c == nil {
		return
	}
	ctx := s.ctx
	s.c.Remove(s.entry)
	s.entry = s.c.Schedule(cron.Every(every), cron.FuncJob(func() {
		s.runOnce(ctx)
	}))
	s.log.Info("poll interval updated", logx.Duration("interval", every))
}

// Skipped reports how many ticks were dropped because the previous
// cycle was still running.
func (s *Scheduler) Skipped() int64 { return s.skipped.Load() }

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if !s.running.CompareAndSwap(false, true) {
		n := s.skipped.Add(1)
		s.log.Warn("previous cycle still running, skipping tick",
			logx.Int64("skipped_total", n),
		)
		return
	}
	defer s.running.Store(false)
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("cycle panicked", logx.Any("panic", r))
		}
	}()

	s.mu.Lock()
	timeout := s.cycleTimeoutLocked()
	s.mu.Unlock()

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	s.job(cctx)
}

func (s *Scheduler) cycleTimeoutLocked() time.Duration {
	if s.cfg.CycleTimeout > 0 {
		return s.cfg.CycleTimeout
	}
	return 2 * s.cfg.Interval
}
