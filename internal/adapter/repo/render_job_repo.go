package repo

import (
	"context"
	"time"

	"studio/internal/domain"
	"studio/internal/infra"
	"studio/internal/sqlinline"
)

// RenderJobRepositoryPG persists render jobs queued by the API and claimed by
// the worker.
type RenderJobRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewRenderJobRepository(sql infra.SQLExecutor) *RenderJobRepositoryPG {
	return &RenderJobRepositoryPG{sql: sql}
}

// Enqueue inserts a queued job and returns its identifier.
func (r *RenderJobRepositoryPG) Enqueue(ctx context.Context, job *domain.GenerationJob) (string, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QEnqueueRenderJob,
		string(job.Kind),
		string(job.Provider),
		job.Prompt,
		job.Refinement,
		job.Duration,
		job.StartImage,
		job.EndImage,
		job.PaymentID,
		job.AmountMinor,
		job.Currency,
		job.UserEmail,
		job.Country,
	)
	var id string
	if err := row.Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

// Claim atomically takes the oldest queued job, marking it submitted. Returns
// domain.ErrNotFound when the queue is empty.
func (r *RenderJobRepositoryPG) Claim(ctx context.Context) (*domain.GenerationJob, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QWorkerClaimRenderJob)
	var job domain.GenerationJob
	var kind, provider string
	err := row.Scan(&job.ID, &kind, &provider, &job.Prompt, &job.Refinement, &job.Duration,
		&job.StartImage, &job.EndImage, &job.PaymentID, &job.AmountMinor, &job.Currency,
		&job.UserEmail, &job.Country)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	job.Kind = domain.JobKind(kind)
	job.Provider = domain.ProviderName(provider)
	job.Status = domain.JobStatusSubmitted
	return &job, nil
}

// RequeueStale returns jobs abandoned in a non-terminal state to the queue so
// the next claim pass picks them up and resolves their payment hold. Reports
// how many rows moved.
func (r *RenderJobRepositoryPG) RequeueStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	tag, err := r.sql.Exec(ctx, sqlinline.QRequeueStaleRenderJobs, int64(olderThan.Seconds()))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// UpdateStatus records a lifecycle transition together with the provider task
// id and artifact key once known.
func (r *RenderJobRepositoryPG) UpdateStatus(ctx context.Context, jobID string, status domain.JobStatus, taskID, artifactKey, errorMessage string) error {
	_, err := r.sql.Exec(ctx, sqlinline.QUpdateRenderJobStatus, jobID, string(status), taskID, artifactKey, errorMessage)
	return err
}

// UpdateProgress stores the coarse render percentage for status polling.
func (r *RenderJobRepositoryPG) UpdateProgress(ctx context.Context, jobID string, percent int) error {
	_, err := r.sql.Exec(ctx, sqlinline.QUpdateRenderJobProgress, jobID, percent)
	return err
}

// JobView is the read model served by the status endpoint.
type JobView struct {
	ID           string
	Kind         domain.JobKind
	Provider     domain.ProviderName
	Status       domain.JobStatus
	TaskID       string
	ArtifactKey  string
	ErrorMessage string
	Progress     int
	PaymentID    string
	AmountMinor  int64
	Currency     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// GetByID fetches the status view for one job.
func (r *RenderJobRepositoryPG) GetByID(ctx context.Context, jobID string) (*JobView, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectRenderJob, jobID)
	var view JobView
	var kind, provider, status string
	err := row.Scan(&view.ID, &kind, &provider, &status, &view.TaskID, &view.ArtifactKey,
		&view.ErrorMessage, &view.Progress, &view.PaymentID, &view.AmountMinor, &view.Currency,
		&view.CreatedAt, &view.UpdatedAt)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	view.Kind = domain.JobKind(kind)
	view.Provider = domain.ProviderName(provider)
	view.Status = domain.JobStatus(status)
	return &view, nil
}
