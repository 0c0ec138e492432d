package render

import (
	"context"

	"studio/internal/providers/genai"
)

// GeminiProvider adapts the first-party client to the Provider contract. The
// start (and optional end) frame is styled synchronously before the video
// operation is submitted, matching the two-stage face-match flow.
type GeminiProvider struct {
	client *genai.Client
}

func NewGeminiProvider(client *genai.Client) *GeminiProvider {
	return &GeminiProvider{client: client}
}

func (g *GeminiProvider) Submit(ctx context.Context, req Request) (TaskHandle, error) {
	start, err := g.client.GenerateStyle(ctx, genai.StyleRequest{
		Image:      req.StartImage,
		Prompt:     req.Prompt,
		Refinement: req.Refinement,
		RequestID:  req.JobID,
	})
	if err != nil {
		return TaskHandle{}, err
	}

	var end []byte
	if len(req.EndImage) > 0 {
		end, err = g.client.GenerateStyle(ctx, genai.StyleRequest{
			Image:      req.EndImage,
			Prompt:     req.Prompt,
			Refinement: req.Refinement,
			RequestID:  req.JobID,
		})
		if err != nil {
			return TaskHandle{}, err
		}
	}

	op, err := g.client.SubmitVideo(ctx, genai.VideoRequest{
		StartImage:  start,
		EndImage:    end,
		Prompt:      genai.ComposeMotionPrompt(req.Prompt),
		AspectRatio: req.AspectRatio,
		RequestID:   req.JobID,
	})
	if err != nil {
		return TaskHandle{}, err
	}
	return TaskHandle{ID: op.Name}, nil
}

func (g *GeminiProvider) Poll(ctx context.Context, handle TaskHandle) (PollResult, error) {
	poll, err := g.client.PollVideo(ctx, genai.VideoOperation{Name: handle.ID})
	if err != nil {
		return PollResult{}, err
	}
	if !poll.Done {
		return PollResult{State: StatePending}, nil
	}
	if poll.Failure != "" {
		return PollResult{State: StateFailed, Reason: poll.Failure}, nil
	}
	return PollResult{State: StateSucceeded, ResultURL: poll.VideoURI}, nil
}

func (g *GeminiProvider) Fetch(ctx context.Context, resultURL string) ([]byte, error) {
	return g.client.DownloadVideo(ctx, resultURL)
}

var _ Provider = (*GeminiProvider)(nil)
