// Package scheduler runs named jobs on a fixed interval. Every run, scheduled
// or manual, is guarded by a Locker so the same job never overlaps with
// itself.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var (
	ErrJobNotFound     = errors.New("job not found")
	ErrInvalidInterval = errors.New("job interval must be positive")
)

// Locker acquires a named lease. ok is false when another holder has it.
type Locker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (release func(context.Context) error, ok bool, err error)
}

type Job func(ctx context.Context) error

type entry struct {
	name     string
	interval time.Duration
	lockTTL  time.Duration
	job      Job
}

type Scheduler struct {
	locker Locker
	logger *slog.Logger

	mu   sync.Mutex
	jobs map[string]*entry
	wg   sync.WaitGroup
}

func New(locker Locker, logger *slog.Logger) *Scheduler {
	if locker == nil {
		locker = NewLocalLocker()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		locker: locker,
		logger: logger,
		jobs:   make(map[string]*entry),
	}
}

// Every registers job under name. lockTTL bounds how long a crashed holder
// can keep the job blocked; it defaults to the interval.
func (s *Scheduler) Every(name string, interval, lockTTL time.Duration, job Job) error {
	if interval <= 0 {
		return fmt.Errorf("%w: %s every %s", ErrInvalidInterval, name, interval)
	}
	if lockTTL <= 0 {
		lockTTL = interval
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[name] = &entry{name: name, interval: interval, lockTTL: lockTTL, job: job}
	return nil
}

// Start launches one ticker goroutine per registered job. They stop when ctx
// is cancelled; use Wait to block until they have returned.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.jobs {
		s.wg.Add(1)
		go s.loop(ctx, e)
	}
}

func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, e *entry) {
	defer s.wg.Done()

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	s.logger.Info("scheduled job started", "job", e.name, "interval", e.interval)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduled job stopped", "job", e.name)
			return
		case <-ticker.C:
			if _, err := s.run(ctx, e); err != nil {
				s.logger.Error("scheduled job failed", "job", e.name, "error", err)
			}
		}
	}
}

// RunOnce runs the named job immediately under its lock. ran is false when
// the lock was held by another run.
func (s *Scheduler) RunOnce(ctx context.Context, name string) (ran bool, err error) {
	s.mu.Lock()
	e, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	return s.run(ctx, e)
}

func (s *Scheduler) run(ctx context.Context, e *entry) (bool, error) {
	release, ok, err := s.locker.Acquire(ctx, e.name, e.lockTTL)
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock for %s: %w", e.name, err)
	}
	if !ok {
		s.logger.Debug("job still running elsewhere, skipping", "job", e.name)
		return false, nil
	}
	defer func() {
		// ctx may already be cancelled; the lease must still be given back.
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("failed to release job lock", "job", e.name, "error", err)
		}
	}()

	return true, e.job(ctx)
}

// LocalLocker is an in-process Locker for single-replica deployments and
// tests.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]time.Time
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]time.Time)}
}

func (l *LocalLocker) Acquire(_ context.Context, name string, ttl time.Duration) (func(context.Context) error, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if expires, ok := l.held[name]; ok && now.Before(expires) {
		return nil, false, nil
	}
	expires := now.Add(ttl)
	l.held[name] = expires

	release := func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.held[name].Equal(expires) {
			delete(l.held, name)
		}
		return nil
	}
	return release, true, nil
}
