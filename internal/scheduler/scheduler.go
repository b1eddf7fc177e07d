// Package scheduler drives source checks on a fixed interval.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var ErrCheckPanicked = errors.New("check panicked")

// Check is one unit of work per tick.
type Check interface {
	Key() string
	Check(ctx context.Context) error
}

// Config holds what a Scheduler needs to run.
type Config struct {
	Interval time.Duration
	// CheckTimeout bounds a single check; zero means no bound beyond the
	// caller's context.
	CheckTimeout time.Duration
	Parallel     bool
	MaxParallel  int

	Clock  clock.Clock
	Logger *zap.Logger
}

// Validate reports a configuration the Scheduler cannot run with.
func (c Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be greater than 0, got %s", c.Interval)
	}
	if c.CheckTimeout < 0 {
		return fmt.Errorf("check timeout must not be negative, got %s", c.CheckTimeout)
	}
	if c.Clock == nil {
		return errors.New("nil Clock")
	}
	if c.Logger == nil {
		return errors.New("nil Logger")
	}
	return nil
}

type Scheduler struct {
	cfg    Config
	checks []Check
}

// TickReport summarizes one pass over every check.
type TickReport struct {
	ID      string
	Checked int
	Failed  int
}

func New(cfg Config, checks []Check) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Scheduler{cfg: cfg, checks: checks}, nil
}

// Run ticks until ctx is cancelled: every check runs, then the scheduler waits
// Interval before the next tick. It always returns ctx.Err().
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		s.RunOnce(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.cfg.Clock.After(s.cfg.Interval):
		}
	}
}

// RunOnce runs every check once. A failing check is logged and never keeps
// the others from running.
func (s *Scheduler) RunOnce(ctx context.Context) TickReport {
	report := TickReport{ID: uuid.NewString(), Checked: len(s.checks)}
	logger := s.cfg.Logger.With(zap.String("tick", report.ID))
	logger.Info("refreshing", zap.Int("sources", len(s.checks)))

	var (
		mu     sync.Mutex
		failed int
	)
	record := func(c Check, err error) {
		if err == nil {
			return
		}
		logger.Error("check failed", zap.String("key", c.Key()), zap.Error(err))
		mu.Lock()
		failed++
		mu.Unlock()
	}

	if s.cfg.Parallel {
		var g errgroup.Group
		if s.cfg.MaxParallel > 0 {
			g.SetLimit(s.cfg.MaxParallel)
		}
		for _, c := range s.checks {
			g.Go(func() error {
				record(c, s.runCheck(ctx, c))
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for _, c := range s.checks {
			record(c, s.runCheck(ctx, c))
		}
	}

	report.Failed = failed
	logger.Debug("tick done", zap.Int("checked", report.Checked), zap.Int("failed", report.Failed))
	return report
}

func (s *Scheduler) runCheck(ctx context.Context, c Check) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrCheckPanicked, r)
		}
	}()

	if s.cfg.CheckTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.CheckTimeout)
		defer cancel()
	}
	return c.Check(ctx)
}
