// Package sched publishes named tick events on cron schedules.
package sched

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/petal-labs/appcore/bus"
	"github.com/petal-labs/appcore/event"
)

const defaultPollInterval = time.Second

// Entry names a recurring tick and the UTC cron expression that drives it.
type Entry struct {
	Name string
	Expr string
}

// Config configures the background tick scheduler.
type Config struct {
	Bus          bus.Publisher
	Entries      []Entry
	PollInterval time.Duration
	Now          func() time.Time
	Logger       *slog.Logger
}

// Scheduler periodically evaluates its entries and publishes an
// event.Tick for each one that has come due since the last pass.
type Scheduler struct {
	bus          bus.Publisher
	pollInterval time.Duration
	now          func() time.Time
	logger       *slog.Logger

	mu      sync.Mutex
	entries []Entry
	nextRun map[string]time.Time
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates a scheduler instance. Entry expressions are validated
// up front so a bad schedule fails construction, not the poll loop.
func New(cfg Config) (*Scheduler, error) {
	if cfg.Bus == nil {
		return nil, errors.New("sched: bus is nil")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	seen := make(map[string]struct{}, len(cfg.Entries))
	for _, entry := range cfg.Entries {
		if entry.Name == "" {
			return nil, errors.New("sched: entry name is required")
		}
		if _, dup := seen[entry.Name]; dup {
			return nil, fmt.Errorf("sched: duplicate entry %q", entry.Name)
		}
		seen[entry.Name] = struct{}{}
		if _, err := parseCronExpressionUTC(entry.Expr); err != nil {
			return nil, fmt.Errorf("sched: entry %q: %w", entry.Name, err)
		}
	}

	return &Scheduler{
		bus:          cfg.Bus,
		pollInterval: cfg.PollInterval,
		now:          cfg.Now,
		logger:       cfg.Logger,
		entries:      append([]Entry(nil), cfg.Entries...),
		nextRun:      map[string]time.Time{},
	}, nil
}

// Start starts background polling. Calling Start on a running
// scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	if s == nil {
		return errors.New("sched: scheduler is nil")
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return nil
	}
	loopCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.seedLocked(s.now().UTC())
	s.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				s.RunOnce(loopCtx)
			}
		}
	}()

	_ = ctx
	return nil
}

// Stop stops background polling and waits for the loop to exit.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s == nil {
		return nil
	}

	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce executes a single scheduler pass, publishing a tick for
// every entry whose next run time is at or before now.
func (s *Scheduler) RunOnce(ctx context.Context) {
	if s == nil {
		return
	}

	now := s.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range s.entries {
		if ctx.Err() != nil {
			return
		}

		next, ok := s.nextRun[entry.Name]
		if !ok {
			next = s.computeNext(entry, now)
			s.nextRun[entry.Name] = next
			continue
		}
		if now.Before(next) {
			continue
		}

		s.bus.Publish(event.Tick{Name: entry.Name, At: now})
		s.nextRun[entry.Name] = s.computeNext(entry, now)
	}
}

func (s *Scheduler) seedLocked(now time.Time) {
	for _, entry := range s.entries {
		if _, ok := s.nextRun[entry.Name]; !ok {
			s.nextRun[entry.Name] = s.computeNext(entry, now)
		}
	}
}

func (s *Scheduler) computeNext(entry Entry, now time.Time) time.Time {
	next, err := nextCronRunUTC(entry.Expr, now)
	if err != nil {
		// Expressions are validated in New; log and push the entry
		// far out rather than spinning on it.
		s.logger.Error("compute next run", "entry", entry.Name, "error", err)
		return now.Add(24 * time.Hour)
	}
	return next
}
