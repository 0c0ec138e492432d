package handlers

import (
	"errors"
	"net/http"

	"studio/internal/domain"

	"github.com/go-chi/chi/v5"
)

// TransactionStatus serves the audit record for one payment, so support can
// see whether a hold was captured or refunded without touching the gateway.
func (a *App) TransactionStatus(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "payment_id")
	if paymentID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "payment_id required")
		return
	}
	tx, err := a.Transactions.GetByPaymentID(r.Context(), paymentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "transaction not found")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to load transaction")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"payment_id":    tx.PaymentID,
		"amount_minor":  tx.AmountMinor,
		"currency":      tx.Currency,
		"status":        tx.Status,
		"render_status": tx.RenderStatus,
		"created_at":    tx.CreatedAt,
		"updated_at":    tx.UpdatedAt,
	})
}
