package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"studio/internal/adapter/repo"
	"studio/internal/domain"
	"studio/internal/infra"
	"studio/internal/providers/genai"
	"studio/internal/session"
	"studio/internal/storage"
)

// StyleRenderer produces a styled image synchronously.
type StyleRenderer interface {
	GenerateStyle(ctx context.Context, req genai.StyleRequest) ([]byte, error)
}

// JobStore is the subset of the render job repository the handlers need.
type JobStore interface {
	Enqueue(ctx context.Context, job *domain.GenerationJob) (string, error)
	GetByID(ctx context.Context, jobID string) (*repo.JobView, error)
}

// TransactionStore records payment holds and serves them back for
// reconciliation.
type TransactionStore interface {
	Create(ctx context.Context, tx *domain.Transaction) error
	GetByPaymentID(ctx context.Context, paymentID string) (*domain.Transaction, error)
}

// CouponStore resolves discount codes.
type CouponStore interface {
	GetByCode(ctx context.Context, code string) (domain.Coupon, error)
}

type App struct {
	Log          infra.Logger
	Styles       StyleRenderer
	Jobs         JobStore
	Transactions TransactionStore
	Coupons      CouponStore
	Sessions     session.Store
	Artifacts    *storage.FileStore

	BasePrice int64
	Currency  string
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}

// sessionID returns the caller-provided session identifier, if any. Sessions
// are anonymous; the client mints the ID and keeps sending it back.
func sessionID(r *http.Request) string {
	return r.Header.Get("X-Session-ID")
}
