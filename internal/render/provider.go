package render

import "context"

// PollState is the coarse status a provider reports for an in-flight task.
type PollState string

const (
	StatePending   PollState = "pending"
	StateSucceeded PollState = "succeeded"
	StateFailed    PollState = "failed"
)

// Request carries the provider-agnostic inputs for one video generation.
type Request struct {
	JobID       string
	StartImage  []byte
	EndImage    []byte
	Prompt      string
	Refinement  string
	Duration    string
	AspectRatio string
}

// TaskHandle identifies a submitted asynchronous job at the provider.
type TaskHandle struct {
	ID string
}

// PollResult is the tagged outcome of one status check. A succeeded result
// without a ResultURL means the provider claims completion but has not yet
// published the artifact; the poller tolerates that for a bounded grace
// period.
type PollResult struct {
	State     PollState
	ResultURL string
	Reason    string
}

// Provider abstracts the two asynchronous generation backends behind one
// submit/poll/fetch capability set so a single poll loop serves both.
type Provider interface {
	Submit(ctx context.Context, req Request) (TaskHandle, error)
	Poll(ctx context.Context, handle TaskHandle) (PollResult, error)
	Fetch(ctx context.Context, resultURL string) ([]byte, error)
}

// ProviderFailure is a terminal failure reported by the provider itself, as
// opposed to a transport error observed while asking.
type ProviderFailure struct {
	Reason string
}

func (e *ProviderFailure) Error() string {
	return "provider reported failure: " + e.Reason
}
