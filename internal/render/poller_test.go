package render

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"studio/internal/domain"
)

// scriptedProvider replays a fixed sequence of poll observations; the last
// entry repeats once the script runs out.
type scriptedProvider struct {
	polls    []PollResult
	pollErrs []error
	calls    int

	submitHandle TaskHandle
	submitErr    error
	submitCalls  int

	fetched  []byte
	fetchErr error
}

func (p *scriptedProvider) Submit(_ context.Context, _ Request) (TaskHandle, error) {
	p.submitCalls++
	if p.submitErr != nil {
		return TaskHandle{}, p.submitErr
	}
	return p.submitHandle, nil
}

func (p *scriptedProvider) Poll(_ context.Context, _ TaskHandle) (PollResult, error) {
	idx := p.calls
	if idx >= len(p.polls) {
		idx = len(p.polls) - 1
	}
	p.calls++
	if p.pollErrs != nil && idx < len(p.pollErrs) && p.pollErrs[idx] != nil {
		return PollResult{}, p.pollErrs[idx]
	}
	return p.polls[idx], nil
}

func (p *scriptedProvider) Fetch(_ context.Context, _ string) ([]byte, error) {
	if p.fetchErr != nil {
		return nil, p.fetchErr
	}
	return p.fetched, nil
}

func testPoller(maxAttempts, graceTicks int) *Poller {
	return &Poller{
		Interval:    time.Millisecond,
		MaxAttempts: maxAttempts,
		GraceTicks:  graceTicks,
		Logger:      zerolog.Nop(),
	}
}

func TestWaitSucceedsWithResultURL(t *testing.T) {
	provider := &scriptedProvider{
		polls: []PollResult{
			{State: StatePending},
			{State: StatePending},
			{State: StateSucceeded, ResultURL: "https://cdn.example/video.mp4"},
		},
	}
	result, err := testPoller(10, 3).Wait(context.Background(), provider, TaskHandle{ID: "t1"}, nil)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if result.ResultURL != "https://cdn.example/video.mp4" {
		t.Fatalf("Wait() url = %q", result.ResultURL)
	}
	if provider.calls != 3 {
		t.Fatalf("polls = %d, want 3", provider.calls)
	}
}

func TestWaitProviderFailureStopsImmediately(t *testing.T) {
	provider := &scriptedProvider{
		polls: []PollResult{
			{State: StatePending},
			{State: StatePending},
			{State: StateFailed, Reason: "nsfw content"},
		},
	}
	_, err := testPoller(180, 12).Wait(context.Background(), provider, TaskHandle{ID: "t1"}, nil)
	var failure *ProviderFailure
	if !errors.As(err, &failure) {
		t.Fatalf("Wait() error = %v, want *ProviderFailure", err)
	}
	if failure.Reason != "nsfw content" {
		t.Fatalf("failure reason = %q", failure.Reason)
	}
	if provider.calls != 3 {
		t.Fatalf("polls = %d, want no further polls after terminal failure", provider.calls)
	}
}

func TestWaitSucceededWithoutArtifactExhaustsGrace(t *testing.T) {
	provider := &scriptedProvider{
		polls: []PollResult{{State: StateSucceeded}},
	}
	_, err := testPoller(180, 12).Wait(context.Background(), provider, TaskHandle{ID: "t1"}, nil)
	if !errors.Is(err, domain.ErrMissingArtifact) {
		t.Fatalf("Wait() error = %v, want ErrMissingArtifact", err)
	}
	// grace ticks plus the observation that breaches the window
	if provider.calls != 13 {
		t.Fatalf("polls = %d, want 13", provider.calls)
	}
}

func TestWaitArtifactArrivesWithinGrace(t *testing.T) {
	provider := &scriptedProvider{
		polls: []PollResult{
			{State: StateSucceeded},
			{State: StateSucceeded},
			{State: StateSucceeded, ResultURL: "https://cdn.example/late.mp4"},
		},
	}
	result, err := testPoller(180, 12).Wait(context.Background(), provider, TaskHandle{ID: "t1"}, nil)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if result.ResultURL != "https://cdn.example/late.mp4" {
		t.Fatalf("Wait() url = %q", result.ResultURL)
	}
}

func TestWaitBudgetExhaustedTimesOut(t *testing.T) {
	provider := &scriptedProvider{polls: []PollResult{{State: StatePending}}}
	_, err := testPoller(5, 12).Wait(context.Background(), provider, TaskHandle{ID: "t1"}, nil)
	if !errors.Is(err, domain.ErrRenderTimeout) {
		t.Fatalf("Wait() error = %v, want ErrRenderTimeout", err)
	}
	if provider.calls != 5 {
		t.Fatalf("polls = %d, want 5", provider.calls)
	}
}

func TestWaitToleratesTransientErrors(t *testing.T) {
	provider := &scriptedProvider{
		polls: []PollResult{
			{},
			{},
			{State: StateSucceeded, ResultURL: "https://cdn.example/video.mp4"},
		},
		pollErrs: []error{
			errors.New("transport: connection reset"),
			errors.New("status 500"),
			nil,
		},
	}
	result, err := testPoller(10, 3).Wait(context.Background(), provider, TaskHandle{ID: "t1"}, nil)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if result.ResultURL == "" {
		t.Fatal("Wait() expected the later successful poll to win")
	}
}

func TestWaitCancellationStopsWatching(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	provider := &scriptedProvider{polls: []PollResult{{State: StatePending}}}
	_, err := testPoller(180, 12).Wait(ctx, provider, TaskHandle{ID: "t1"}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Wait() error = %v, want context.Canceled", err)
	}
}

func TestWaitReportsProgress(t *testing.T) {
	provider := &scriptedProvider{
		polls: []PollResult{
			{State: StatePending},
			{State: StateSucceeded, ResultURL: "u"},
		},
	}
	var seen []int
	_, err := testPoller(10, 3).Wait(context.Background(), provider, TaskHandle{ID: "t1"}, func(p int) {
		seen = append(seen, p)
	})
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if len(seen) != 2 {
		t.Fatalf("progress calls = %d, want 2", len(seen))
	}
	if seen[0] > seen[1] {
		t.Fatalf("progress not monotonic: %v", seen)
	}
}

func TestProgressPercentCapsAt99(t *testing.T) {
	if got := progressPercent(1); got != 0 {
		t.Fatalf("progressPercent(1) = %d, want 0", got)
	}
	if got := progressPercent(75); got != 50 {
		t.Fatalf("progressPercent(75) = %d, want 50", got)
	}
	if got := progressPercent(180); got != 99 {
		t.Fatalf("progressPercent(180) = %d, want 99", got)
	}
}
