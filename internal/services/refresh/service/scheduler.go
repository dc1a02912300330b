// Package service runs the daily refresh jobs
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	perr "phishguard/internal/platform/errors"
	"phishguard/internal/platform/logger"
	"phishguard/internal/services/refresh/domain"
)

// ErrStarted is returned by a second Start
var ErrStarted = errors.New("refresh: scheduler already started")

// Config controls the tick period
type Config struct {
	Every time.Duration
}

// Scheduler runs every job once per tick. It implements domain.SchedulerPort
type Scheduler struct {
	Jobs []domain.Job
	Cfg  Config

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New constructs a scheduler; a non positive period means 24h
func New(cfg Config, jobs ...domain.Job) *Scheduler {
	if cfg.Every <= 0 {
		cfg.Every = 24 * time.Hour
	}
	return &Scheduler{Jobs: jobs, Cfg: cfg}
}

// Start runs one cycle synchronously, then ticks in the background until Stop or ctx ends
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return ErrStarted
	}

	_ = s.RunOnce(ctx)

	lctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.loop(lctx, s.done)
	return nil
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	t := time.NewTicker(s.Cfg.Every)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			_ = s.RunOnce(ctx)
		}
	}
}

// Stop cancels the ticker and waits for an in flight cycle to return
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// RunOnce runs every job in order. A failing or panicking job is logged and
// does not stop the others; the joined errors are returned
func (s *Scheduler) RunOnce(ctx context.Context) error {
	cycle := uuid.NewString()
	ctx = logger.WithRequest(ctx, cycle)
	l := logger.C(ctx).With().Str("mod", "refresh").Logger()

	start := time.Now()
	var errs []error
	for _, j := range s.Jobs {
		t0 := time.Now()
		err := runJob(ctx, j)
		ev := l.Info()
		if err != nil {
			ev = l.Error().Err(err)
			errs = append(errs, perr.WithOp(err, j.Name()))
		}
		ev.Str("job", j.Name()).Dur("took", time.Since(t0)).Msg("refresh: job finished")
	}
	l.Info().Int("failed", len(errs)).Dur("took", time.Since(start)).Msg("refresh: cycle done")
	return errors.Join(errs...)
}

func runJob(ctx context.Context, j domain.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = perr.PanicErrf("job %s panicked: %v", j.Name(), r)
		}
	}()
	return j.Run(ctx)
}
