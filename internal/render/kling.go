package render

import (
	"context"

	"studio/internal/providers/kling"
)

// KlingProvider adapts the third-party vendor client to the Provider contract.
type KlingProvider struct {
	client *kling.Client
}

func NewKlingProvider(client *kling.Client) *KlingProvider {
	return &KlingProvider{client: client}
}

func (k *KlingProvider) Submit(ctx context.Context, req Request) (TaskHandle, error) {
	taskID, err := k.client.Submit(ctx, kling.SubmitRequest{
		StartImage:  req.StartImage,
		EndImage:    req.EndImage,
		Prompt:      req.Prompt,
		Duration:    req.Duration,
		AspectRatio: req.AspectRatio,
		Mode:        "std",
		RequestID:   req.JobID,
	})
	if err != nil {
		return TaskHandle{}, err
	}
	return TaskHandle{ID: taskID}, nil
}

func (k *KlingProvider) Poll(ctx context.Context, handle TaskHandle) (PollResult, error) {
	poll, err := k.client.Poll(ctx, handle.ID)
	if err != nil {
		return PollResult{}, err
	}
	switch poll.Status {
	case kling.StatusSucceed:
		return PollResult{State: StateSucceeded, ResultURL: poll.VideoURL}, nil
	case kling.StatusFailed:
		reason := poll.Message
		if reason == "" {
			reason = "rendering engine error"
		}
		return PollResult{State: StateFailed, Reason: reason}, nil
	default:
		return PollResult{State: StatePending}, nil
	}
}

func (k *KlingProvider) Fetch(ctx context.Context, resultURL string) ([]byte, error) {
	return k.client.Download(ctx, resultURL)
}

var _ Provider = (*KlingProvider)(nil)
