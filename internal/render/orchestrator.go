package render

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"studio/internal/domain"
	"studio/internal/payments"
)

const (
	submitRetryInterval = 2 * time.Second
	submitMaxRetries    = 2
)

// ArtifactStore persists fetched render results.
type ArtifactStore interface {
	Write(ctx context.Context, key string, data []byte) (string, error)
}

// Hooks let the caller persist intermediate job state while a run is in
// flight.
type Hooks struct {
	OnSubmitted func(taskID string)
	OnProgress  ProgressFunc
}

// Outcome is the terminal result of one orchestrated render.
type Outcome struct {
	Status      domain.JobStatus
	TaskID      string
	ArtifactKey string
	UserMessage string
	Err         error
}

// Orchestrator runs one job end to end: authorize is assumed done at
// checkout; here the job is submitted, polled to a terminal state, and the
// payment hold resolved exactly once — capture on success, refund on failure
// or timeout.
type Orchestrator struct {
	providers map[domain.ProviderName]Provider
	payments  *payments.Coordinator
	store     ArtifactStore
	poller    *Poller
	logger    zerolog.Logger
}

func NewOrchestrator(providers map[domain.ProviderName]Provider, coordinator *payments.Coordinator, store ArtifactStore, poller *Poller, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		providers: providers,
		payments:  coordinator,
		store:     store,
		poller:    poller,
		logger:    logger,
	}
}

// Run drives the job to a terminal state. All provider and payment errors are
// absorbed here and reported through the Outcome; nothing escapes to crash
// the caller.
func (o *Orchestrator) Run(ctx context.Context, job *domain.GenerationJob, hooks Hooks) Outcome {
	provider, ok := o.providers[job.Provider]
	if !ok {
		return Outcome{
			Status:      domain.JobStatusFailed,
			UserMessage: "This rendering engine is not configured. Please try the other engine.",
			Err:         fmt.Errorf("provider %q not configured", job.Provider),
		}
	}

	hold := &domain.PaymentHold{
		PaymentID:   job.PaymentID,
		AmountMinor: job.AmountMinor,
		Currency:    job.Currency,
		JobID:       job.ID,
		State:       domain.HoldAuthorized,
	}

	handle, err := o.submit(ctx, provider, job)
	if err != nil {
		return o.fail(ctx, job, hold, err)
	}
	job.TaskID = handle.ID
	if hooks.OnSubmitted != nil {
		hooks.OnSubmitted(handle.ID)
	}

	result, err := o.poller.Wait(ctx, provider, handle, hooks.OnProgress)
	if err != nil {
		if ctx.Err() != nil {
			// Stopped watching; the remote job and the hold resolve via
			// their own timeout logic.
			return Outcome{Status: domain.JobStatusPolling, TaskID: handle.ID, Err: ctx.Err()}
		}
		return o.fail(ctx, job, hold, err)
	}

	data, err := provider.Fetch(ctx, result.ResultURL)
	if err != nil {
		return o.fail(ctx, job, hold, fmt.Errorf("fetch artifact: %w", err))
	}
	key, err := o.store.Write(ctx, artifactKey(job.ID), data)
	if err != nil {
		return o.fail(ctx, job, hold, fmt.Errorf("persist artifact: %w", err))
	}

	// Show-then-reconcile: the artifact is delivered even when capture
	// fails; the transaction record carries the discrepancy for operators.
	if captureErr := o.payments.ResolveSuccess(ctx, hold); captureErr != nil {
		o.logger.Error().Err(captureErr).
			Str("job_id", job.ID).
			Str("payment_id", hold.PaymentID).
			Msg("orchestrator: capture failed after successful render")
	}

	return Outcome{Status: domain.JobStatusSucceeded, TaskID: handle.ID, ArtifactKey: key}
}

func (o *Orchestrator) submit(ctx context.Context, provider Provider, job *domain.GenerationJob) (TaskHandle, error) {
	req := Request{
		JobID:       job.ID,
		StartImage:  job.StartImage,
		EndImage:    job.EndImage,
		Prompt:      job.Prompt,
		Refinement:  job.Refinement,
		Duration:    job.Duration,
		AspectRatio: "9:16",
	}

	var handle TaskHandle
	operation := func() error {
		h, err := provider.Submit(ctx, req)
		if err != nil {
			if errors.Is(err, domain.ErrNoTaskID) || errors.Is(err, domain.ErrNoCredential) || errors.Is(err, domain.ErrNoResult) {
				return backoff.Permanent(err)
			}
			o.logger.Warn().Err(err).Str("job_id", job.ID).Msg("orchestrator: submit attempt failed")
			return err
		}
		handle = h
		return nil
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(submitRetryInterval), submitMaxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return TaskHandle{}, fmt.Errorf("submit: %w", err)
	}
	return handle, nil
}

func (o *Orchestrator) fail(ctx context.Context, job *domain.GenerationJob, hold *domain.PaymentHold, cause error) Outcome {
	status := domain.JobStatusFailed
	if errors.Is(cause, domain.ErrRenderTimeout) {
		status = domain.JobStatusTimedOut
	}

	o.logger.Error().Err(cause).
		Str("job_id", job.ID).
		Str("provider", string(job.Provider)).
		Msg("orchestrator: render failed")

	refundErr := o.payments.ResolveFailure(ctx, hold)
	return Outcome{
		Status:      status,
		TaskID:      job.TaskID,
		UserMessage: userMessage(cause, hold, refundErr),
		Err:         cause,
	}
}

// userMessage converts the error taxonomy into one user-facing sentence. The
// refund outcome is reported honestly: a failed refund is never presented as
// a successful one.
func userMessage(cause error, hold *domain.PaymentHold, refundErr error) string {
	var base string
	var providerFailure *ProviderFailure
	switch {
	case errors.Is(cause, domain.ErrRenderTimeout):
		base = "The render took too long. Please check again in a few moments."
	case errors.Is(cause, domain.ErrMissingArtifact):
		base = "The engine reported success but never delivered your video."
	case errors.Is(cause, domain.ErrNoResult):
		base = "Could not create the image. Please try a simpler description."
	case errors.As(cause, &providerFailure):
		base = "Rendering engine error: " + providerFailure.Reason + "."
	default:
		base = "Our AI is currently busy. Please try again in a minute."
	}

	if hold.Free() {
		return base
	}
	if refundErr != nil {
		return base + " We could not return your payment automatically; our team will process the refund manually."
	}
	return base + " Your payment has been sent back to you."
}

func artifactKey(jobID string) string {
	return fmt.Sprintf("rendered/videos/%s/video.mp4", jobID)
}
