package domain

import "time"

// JobKind enumerates supported generation request categories.
type JobKind string

const (
	JobKindStyleTransform JobKind = "style_transform"
	JobKindVideoSingle    JobKind = "video_single_frame"
	JobKindVideoFirstLast JobKind = "video_first_last_frame"
)

// ProviderName identifies which generation backend a job targets.
type ProviderName string

const (
	ProviderGemini ProviderName = "gemini"
	ProviderKling  ProviderName = "kling"
)

// JobStatus enumerates render job lifecycle states.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusSubmitted JobStatus = "submitted"
	JobStatusPolling   JobStatus = "polling"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
	JobStatusTimedOut  JobStatus = "timed_out"
)

// Terminal reports whether no further automatic transition applies.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusSucceeded, JobStatusFailed, JobStatusTimedOut:
		return true
	}
	return false
}

// GenerationJob tracks one request to transform or animate a photo, from
// submission to terminal outcome. TaskID is the provider-side handle and is
// empty until submission succeeds.
type GenerationJob struct {
	ID           string
	TaskID       string
	Kind         JobKind
	Provider     ProviderName
	Status       JobStatus
	Prompt       string
	Refinement   string
	Duration     string
	StartImage   []byte
	EndImage     []byte
	PaymentID    string
	AmountMinor  int64
	Currency     string
	UserEmail    string
	Country      string
	ArtifactKey  string
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
