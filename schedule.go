package inkframe

import (
	"context"
	"log/slog"
	"time"
)

// DefaultInterval is the sleep between wake cycles.
const DefaultInterval = 240 * time.Second

// Sleeper pauses between cycles. Implementations must honor context
// cancellation so the host process can stop the loop cleanly.
type Sleeper interface {
	Sleep(ctx context.Context) error
}

// SleeperFunc adapts a function into a Sleeper.
type SleeperFunc func(ctx context.Context) error

// Sleep implements the Sleeper interface by invoking the underlying function.
func (f SleeperFunc) Sleep(ctx context.Context) error {
	if f == nil {
		return nil
	}
	return f(ctx)
}

// NewFixedSleeper returns a Sleeper that waits d after every cycle.
func NewFixedSleeper(d time.Duration) Sleeper {
	if d <= 0 {
		d = DefaultInterval
	}
	return fixedSleeper(d)
}

type fixedSleeper time.Duration

func (d fixedSleeper) Sleep(ctx context.Context) error {
	timer := time.NewTimer(time.Duration(d))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// CycleRunner is what the scheduler drives. *Cycle implements it.
type CycleRunner interface {
	Run(ctx context.Context) CycleOutcome
}

// Scheduler runs a cycle, sleeps, and repeats until its context ends.
type Scheduler struct {
	Cycle   CycleRunner
	Sleeper Sleeper
	Logger  *slog.Logger
}

// Run loops forever. Cycle failures are logged and never stop the loop; the
// only return is ctx.Err() once the context is done.
func (s *Scheduler) Run(ctx context.Context) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sleeper := s.Sleeper
	if sleeper == nil {
		sleeper = NewFixedSleeper(DefaultInterval)
	}
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		out := s.Cycle.Run(ctx)
		logger.Debug("cycle done", slog.Int("cycle", n), slog.String("status", out.Status.String()))
		if err := sleeper.Sleep(ctx); err != nil {
			return err
		}
	}
}
