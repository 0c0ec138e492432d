package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"studio/internal/domain"
	"studio/internal/middleware"
	"studio/internal/pricing"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type videoCreateRequest struct {
	Kind       string `json:"kind"`
	Provider   string `json:"provider"`
	Prompt     string `json:"prompt"`
	Refinement string `json:"refinement"`
	Duration   string `json:"duration"`
	StartImage string `json:"start_image"`
	EndImage   string `json:"end_image"`
	PaymentID  string `json:"payment_id"`
	CouponCode string `json:"coupon_code"`
	Email      string `json:"email"`
}

func (req videoCreateRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Kind, validation.Required,
			validation.In(string(domain.JobKindVideoSingle), string(domain.JobKindVideoFirstLast))),
		validation.Field(&req.Provider,
			validation.In("", string(domain.ProviderGemini), string(domain.ProviderKling))),
		validation.Field(&req.StartImage, validation.Required),
		validation.Field(&req.EndImage,
			validation.Required.When(req.Kind == string(domain.JobKindVideoFirstLast))),
		validation.Field(&req.Duration, validation.In("", "5", "10")),
		validation.Field(&req.Prompt, validation.Length(0, 2000)),
	)
}

type videoCreateResponse struct {
	JobID         string `json:"job_id"`
	Status        string `json:"status"`
	AmountMinor   int64  `json:"amount_minor"`
	Currency      string `json:"currency"`
	DisplayAmount string `json:"display_amount"`
	FreeRender    bool   `json:"free_render"`
}

// VideosCreate quotes the price, records the authorized payment hold and
// queues the render. The worker picks the job up; this handler never waits
// for the provider.
func (a *App) VideosCreate(w http.ResponseWriter, r *http.Request) {
	var req videoCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if err := req.Validate(); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	startImage, err := base64.StdEncoding.DecodeString(req.StartImage)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "start_image must be base64-encoded")
		return
	}
	var endImage []byte
	if req.EndImage != "" {
		endImage, err = base64.StdEncoding.DecodeString(req.EndImage)
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "end_image must be base64-encoded")
			return
		}
	}

	var coupon *domain.Coupon
	if req.CouponCode != "" {
		c, err := a.Coupons.GetByCode(r.Context(), req.CouponCode)
		if err != nil {
			if errors.Is(err, domain.ErrCouponNotFound) {
				a.error(w, http.StatusBadRequest, "coupon_invalid", "coupon not found or inactive")
				return
			}
			a.error(w, http.StatusInternalServerError, "internal", "failed to check coupon")
			return
		}
		coupon = &c
	}

	duration := req.Duration
	if duration == "" {
		duration = "5"
	}
	quote := pricing.Quote(a.BasePrice, duration, coupon)
	amountMinor := pricing.MinorUnits(quote)

	// A session with an unclaimed free render pays nothing. Consumed
	// before enqueue so a burst of requests cannot all ride the same claim.
	freeRender := false
	if sid := sessionID(r); sid != "" && amountMinor > 0 {
		state, err := a.Sessions.Get(r.Context(), sid)
		if err == nil && state.FreeRenderAvailable() {
			state.ConsumeFreeRender()
			if err := a.Sessions.Put(r.Context(), state); err == nil {
				amountMinor = 0
				freeRender = true
			}
		}
	}

	if amountMinor > 0 && req.PaymentID == "" {
		a.error(w, http.StatusBadRequest, "payment_required", "payment_id required for paid renders")
		return
	}

	provider := domain.ProviderName(req.Provider)
	if provider == "" {
		provider = domain.ProviderGemini
	}
	country := middleware.CountryFromContext(r.Context())

	if amountMinor > 0 {
		tx := &domain.Transaction{
			PaymentID:    req.PaymentID,
			UserEmail:    req.Email,
			AmountMinor:  amountMinor,
			Currency:     a.Currency,
			Items:        []string{req.Kind},
			Country:      country,
			Status:       domain.TxAuthorized,
			RenderStatus: domain.RenderPending,
		}
		if err := a.Transactions.Create(r.Context(), tx); err != nil {
			a.error(w, http.StatusInternalServerError, "internal", "failed to record payment")
			return
		}
	}

	job := &domain.GenerationJob{
		Kind:        domain.JobKind(req.Kind),
		Provider:    provider,
		Status:      domain.JobStatusQueued,
		Prompt:      req.Prompt,
		Refinement:  req.Refinement,
		Duration:    duration,
		StartImage:  startImage,
		EndImage:    endImage,
		PaymentID:   req.PaymentID,
		AmountMinor: amountMinor,
		Currency:    a.Currency,
		UserEmail:   req.Email,
		Country:     country,
	}
	jobID, err := a.Jobs.Enqueue(r.Context(), job)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to queue render job")
		return
	}

	a.json(w, http.StatusAccepted, videoCreateResponse{
		JobID:         jobID,
		Status:        string(domain.JobStatusQueued),
		AmountMinor:   amountMinor,
		Currency:      a.Currency,
		DisplayAmount: pricing.FormatAmount(amountMinor/100, a.Currency),
		FreeRender:    freeRender,
	})
}

func (a *App) VideoStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return
	}
	view, err := a.Jobs.GetByID(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "job not found")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to load job")
		return
	}

	body := map[string]any{
		"id":         view.ID,
		"kind":       view.Kind,
		"provider":   view.Provider,
		"status":     view.Status,
		"progress":   view.Progress,
		"created_at": view.CreatedAt,
		"updated_at": view.UpdatedAt,
	}
	if view.ArtifactKey != "" {
		body["video_url"] = "/v1/videos/" + view.ID + "/download"
	}
	if view.ErrorMessage != "" {
		body["error_message"] = view.ErrorMessage
	}
	a.json(w, http.StatusOK, body)
}

// VideoDownload streams the rendered artifact from local storage.
func (a *App) VideoDownload(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return
	}
	view, err := a.Jobs.GetByID(r.Context(), jobID)
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "job not found")
		return
	}
	if view.Status != domain.JobStatusSucceeded || view.ArtifactKey == "" {
		a.error(w, http.StatusConflict, "not_ready", "render has not produced a video yet")
		return
	}
	path, err := a.Artifacts.Resolve(view.ArtifactKey)
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "artifact missing from storage")
		return
	}
	w.Header().Set("Content-Type", "video/mp4")
	http.ServeFile(w, r, path)
}
