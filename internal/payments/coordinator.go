package payments

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"studio/internal/domain"
)

// TransactionStore persists the audit trail for capture and refund attempts.
type TransactionStore interface {
	UpdateStatus(ctx context.Context, paymentID string, status domain.TransactionStatus, render domain.RenderStatus) error
}

// Coordinator ties a payment hold to the outcome of a generation job. It owns
// the exactly-once resolve semantics: a hold is captured after a successful
// render or refunded after a failed one, never both.
type Coordinator struct {
	gateway Gateway
	store   TransactionStore
	logger  zerolog.Logger
}

func NewCoordinator(gateway Gateway, store TransactionStore, logger zerolog.Logger) *Coordinator {
	return &Coordinator{gateway: gateway, store: store, logger: logger}
}

// ResolveSuccess captures the hold after the render succeeded. Free holds
// short-circuit without touching the gateway. Capturing an already-captured
// hold is a no-op. The persisted record is updated even when the remote
// capture fails so operators can reconcile; that persistence failure is
// logged, never surfaced, because the user-facing flow has already committed
// to showing the artifact.
func (c *Coordinator) ResolveSuccess(ctx context.Context, hold *domain.PaymentHold) error {
	if hold.Free() {
		hold.State = domain.HoldCaptured
		return nil
	}
	switch hold.State {
	case domain.HoldCaptured:
		return nil
	case domain.HoldRefunded:
		return domain.ErrAlreadyResolved
	}

	err := c.gateway.Capture(ctx, hold.PaymentID, hold.AmountMinor, hold.Currency)
	if err != nil && !errors.Is(err, ErrAlreadyCaptured) {
		c.logger.Error().Err(err).
			Str("payment_id", hold.PaymentID).
			Msg("payments: capture failed, artifact already delivered")
		hold.State = domain.HoldFailed
		c.persist(ctx, hold.PaymentID, domain.TxFailed, domain.RenderCompleted)
		return err
	}

	hold.State = domain.HoldCaptured
	c.persist(ctx, hold.PaymentID, domain.TxCaptured, domain.RenderCompleted)
	return nil
}

// ResolveFailure refunds the hold after the render failed or timed out. When
// the refund itself fails the record is left in refund_requested for manual
// reconciliation and the error is returned so the caller can tell the user
// the refund did not go through.
func (c *Coordinator) ResolveFailure(ctx context.Context, hold *domain.PaymentHold) error {
	if hold.Free() {
		hold.State = domain.HoldFailed
		return nil
	}
	switch hold.State {
	case domain.HoldRefunded:
		return nil
	case domain.HoldCaptured:
		return domain.ErrAlreadyResolved
	}

	c.persist(ctx, hold.PaymentID, domain.TxRefundRequested, domain.RenderFailed)
	if err := c.gateway.Refund(ctx, hold.PaymentID, hold.AmountMinor); err != nil {
		c.logger.Error().Err(err).
			Str("payment_id", hold.PaymentID).
			Msg("payments: refund failed, record left in refund_requested")
		return err
	}

	hold.State = domain.HoldRefunded
	c.persist(ctx, hold.PaymentID, domain.TxRefunded, domain.RenderFailed)
	return nil
}

func (c *Coordinator) persist(ctx context.Context, paymentID string, status domain.TransactionStatus, render domain.RenderStatus) {
	if c.store == nil {
		return
	}
	if err := c.store.UpdateStatus(ctx, paymentID, status, render); err != nil {
		c.logger.Error().Err(err).
			Str("payment_id", paymentID).
			Str("status", string(status)).
			Msg("payments: transaction status update failed")
	}
}
