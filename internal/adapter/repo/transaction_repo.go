package repo

import (
	"context"

	"github.com/rs/zerolog"

	"studio/internal/domain"
	"studio/internal/infra"
	"studio/internal/sqlinline"
)

// TransactionRepositoryPG persists payment transaction audit records.
type TransactionRepositoryPG struct {
	sql    infra.SQLExecutor
	logger zerolog.Logger
}

func NewTransactionRepository(sql infra.SQLExecutor, logger zerolog.Logger) *TransactionRepositoryPG {
	return &TransactionRepositoryPG{sql: sql, logger: logger}
}

// Create records a freshly authorized transaction.
func (r *TransactionRepositoryPG) Create(ctx context.Context, tx *domain.Transaction) error {
	_, err := r.sql.Exec(ctx, sqlinline.QInsertTransaction,
		tx.PaymentID,
		tx.UserEmail,
		tx.AmountMinor,
		tx.Currency,
		tx.Items,
		tx.Country,
		string(tx.Status),
		string(tx.RenderStatus),
	)
	return err
}

// UpdateStatus reflects a capture/refund attempt on the persisted record.
// Stores whose transactions table predates the render_status column degrade
// to a status-only write instead of failing the whole update.
func (r *TransactionRepositoryPG) UpdateStatus(ctx context.Context, paymentID string, status domain.TransactionStatus, render domain.RenderStatus) error {
	_, err := r.sql.Exec(ctx, sqlinline.QUpdateTransactionStatus, paymentID, string(status), string(render))
	if err == nil {
		return nil
	}
	if !infra.IsUndefinedColumn(err) {
		return err
	}
	r.logger.Warn().
		Str("payment_id", paymentID).
		Msg("transactions: render_status column missing, writing status only")
	_, err = r.sql.Exec(ctx, sqlinline.QUpdateTransactionStatusLegacy, paymentID, string(status))
	return err
}

// GetByPaymentID fetches one transaction for reconciliation views.
func (r *TransactionRepositoryPG) GetByPaymentID(ctx context.Context, paymentID string) (*domain.Transaction, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectTransaction, paymentID)
	var tx domain.Transaction
	var status, render string
	if err := row.Scan(&tx.PaymentID, &tx.UserEmail, &tx.AmountMinor, &tx.Currency, &tx.Items, &tx.Country, &status, &render, &tx.CreatedAt, &tx.UpdatedAt); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	tx.Status = domain.TransactionStatus(status)
	tx.RenderStatus = domain.RenderStatus(render)
	return &tx, nil
}
