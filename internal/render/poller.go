package render

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"studio/internal/domain"
)

const (
	defaultPollInterval = 10 * time.Second
	defaultMaxAttempts  = 180
	defaultGraceTicks   = 12

	// Progress is derived from elapsed attempts against this divisor and
	// capped at 99 until the task truly completes.
	progressDivisor = 150
)

// ProgressFunc receives coarse progress updates during polling.
type ProgressFunc func(percent int)

// Poller drives a submitted asynchronous task to a terminal state by querying
// its status at a fixed interval under a hard attempt budget.
type Poller struct {
	Interval    time.Duration
	MaxAttempts int
	GraceTicks  int
	Logger      zerolog.Logger
}

func NewPoller(interval time.Duration, maxAttempts, graceTicks int, logger zerolog.Logger) *Poller {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if graceTicks <= 0 {
		graceTicks = defaultGraceTicks
	}
	return &Poller{Interval: interval, MaxAttempts: maxAttempts, GraceTicks: graceTicks, Logger: logger}
}

// Wait polls until the task reaches a terminal state or the attempt budget is
// exhausted. Transient poll errors are logged and retried on the next tick;
// an explicit provider failure aborts immediately with *ProviderFailure; a
// completed task that never publishes its artifact within the grace window
// fails with domain.ErrMissingArtifact; budget exhaustion fails with
// domain.ErrRenderTimeout. Cancelling the context stops watching without
// touching the remote job.
func (p *Poller) Wait(ctx context.Context, provider Provider, handle TaskHandle, progress ProgressFunc) (PollResult, error) {
	timer := time.NewTimer(p.Interval)
	defer timer.Stop()

	missingArtifactTicks := 0
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if progress != nil {
			progress(progressPercent(attempt))
		}

		timer.Reset(p.Interval)
		select {
		case <-ctx.Done():
			return PollResult{}, ctx.Err()
		case <-timer.C:
		}

		result, err := provider.Poll(ctx, handle)
		if err != nil {
			if ctx.Err() != nil {
				return PollResult{}, ctx.Err()
			}
			p.Logger.Warn().Err(err).
				Str("task_id", handle.ID).
				Int("attempt", attempt).
				Msg("poller: transient poll error")
			continue
		}

		switch result.State {
		case StateFailed:
			return PollResult{}, &ProviderFailure{Reason: result.Reason}
		case StateSucceeded:
			if result.ResultURL != "" {
				return result, nil
			}
			missingArtifactTicks++
			p.Logger.Warn().
				Str("task_id", handle.ID).
				Int("count", missingArtifactTicks).
				Msg("poller: task succeeded but artifact not yet published")
			if missingArtifactTicks > p.GraceTicks {
				return PollResult{}, domain.ErrMissingArtifact
			}
		case StatePending:
			// keep polling
		}
	}
	return PollResult{}, domain.ErrRenderTimeout
}

func progressPercent(attempt int) int {
	percent := attempt * 100 / progressDivisor
	if percent > 99 {
		return 99
	}
	return percent
}
