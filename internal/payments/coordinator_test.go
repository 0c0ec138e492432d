package payments

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"studio/internal/domain"
)

type stubGateway struct {
	captureErr   error
	refundErr    error
	captureCalls int
	refundCalls  int
}

func (g *stubGateway) Capture(_ context.Context, _ string, _ int64, _ string) error {
	g.captureCalls++
	return g.captureErr
}

func (g *stubGateway) Refund(_ context.Context, _ string, _ int64) error {
	g.refundCalls++
	return g.refundErr
}

type statusRecord struct {
	status domain.TransactionStatus
	render domain.RenderStatus
}

type recordingStore struct {
	updates []statusRecord
	err     error
}

func (s *recordingStore) UpdateStatus(_ context.Context, _ string, status domain.TransactionStatus, render domain.RenderStatus) error {
	s.updates = append(s.updates, statusRecord{status: status, render: render})
	return s.err
}

func hold() *domain.PaymentHold {
	return &domain.PaymentHold{
		PaymentID:   "pay_123",
		AmountMinor: 2000,
		Currency:    "INR",
		JobID:       "job-1",
		State:       domain.HoldAuthorized,
	}
}

func TestResolveSuccessCapturesOnce(t *testing.T) {
	gateway := &stubGateway{}
	store := &recordingStore{}
	c := NewCoordinator(gateway, store, zerolog.Nop())
	h := hold()

	if err := c.ResolveSuccess(context.Background(), h); err != nil {
		t.Fatalf("ResolveSuccess() error = %v", err)
	}
	if h.State != domain.HoldCaptured {
		t.Fatalf("state = %s, want captured", h.State)
	}
	// second resolve is a no-op
	if err := c.ResolveSuccess(context.Background(), h); err != nil {
		t.Fatalf("ResolveSuccess() repeat error = %v", err)
	}
	if gateway.captureCalls != 1 {
		t.Fatalf("captures = %d, want 1", gateway.captureCalls)
	}
	want := statusRecord{status: domain.TxCaptured, render: domain.RenderCompleted}
	if len(store.updates) != 1 || store.updates[0] != want {
		t.Fatalf("updates = %v, want single %v", store.updates, want)
	}
}

func TestResolveSuccessAlreadyCapturedRemotely(t *testing.T) {
	gateway := &stubGateway{captureErr: ErrAlreadyCaptured}
	store := &recordingStore{}
	c := NewCoordinator(gateway, store, zerolog.Nop())
	h := hold()

	if err := c.ResolveSuccess(context.Background(), h); err != nil {
		t.Fatalf("ResolveSuccess() error = %v, remote already-captured must be accepted", err)
	}
	if h.State != domain.HoldCaptured {
		t.Fatalf("state = %s, want captured", h.State)
	}
}

func TestResolveSuccessCaptureFailureRecorded(t *testing.T) {
	gateway := &stubGateway{captureErr: errors.New("gateway down")}
	store := &recordingStore{}
	c := NewCoordinator(gateway, store, zerolog.Nop())
	h := hold()

	if err := c.ResolveSuccess(context.Background(), h); err == nil {
		t.Fatal("ResolveSuccess() expected error")
	}
	if h.State != domain.HoldFailed {
		t.Fatalf("state = %s, want failed", h.State)
	}
	want := statusRecord{status: domain.TxFailed, render: domain.RenderCompleted}
	if len(store.updates) != 1 || store.updates[0] != want {
		t.Fatalf("updates = %v, want %v for reconciliation", store.updates, want)
	}
}

func TestResolveSuccessAfterRefundIsConflict(t *testing.T) {
	c := NewCoordinator(&stubGateway{}, &recordingStore{}, zerolog.Nop())
	h := hold()
	h.State = domain.HoldRefunded

	if err := c.ResolveSuccess(context.Background(), h); !errors.Is(err, domain.ErrAlreadyResolved) {
		t.Fatalf("ResolveSuccess() error = %v, want ErrAlreadyResolved", err)
	}
}

func TestResolveFailureRefunds(t *testing.T) {
	gateway := &stubGateway{}
	store := &recordingStore{}
	c := NewCoordinator(gateway, store, zerolog.Nop())
	h := hold()

	if err := c.ResolveFailure(context.Background(), h); err != nil {
		t.Fatalf("ResolveFailure() error = %v", err)
	}
	if h.State != domain.HoldRefunded {
		t.Fatalf("state = %s, want refunded", h.State)
	}
	if gateway.refundCalls != 1 {
		t.Fatalf("refunds = %d, want 1", gateway.refundCalls)
	}
	wantFirst := statusRecord{status: domain.TxRefundRequested, render: domain.RenderFailed}
	wantLast := statusRecord{status: domain.TxRefunded, render: domain.RenderFailed}
	if len(store.updates) != 2 || store.updates[0] != wantFirst || store.updates[1] != wantLast {
		t.Fatalf("updates = %v, want refund_requested then refunded", store.updates)
	}
}

func TestResolveFailureRefundErrorLeavesRequested(t *testing.T) {
	gateway := &stubGateway{refundErr: errors.New("gateway down")}
	store := &recordingStore{}
	c := NewCoordinator(gateway, store, zerolog.Nop())
	h := hold()

	if err := c.ResolveFailure(context.Background(), h); err == nil {
		t.Fatal("ResolveFailure() expected error")
	}
	if h.State != domain.HoldAuthorized {
		t.Fatalf("state = %s, want authorized left intact", h.State)
	}
	want := statusRecord{status: domain.TxRefundRequested, render: domain.RenderFailed}
	if len(store.updates) != 1 || store.updates[0] != want {
		t.Fatalf("updates = %v, want only refund_requested", store.updates)
	}
}

func TestResolveFailureAfterCaptureIsConflict(t *testing.T) {
	c := NewCoordinator(&stubGateway{}, &recordingStore{}, zerolog.Nop())
	h := hold()
	h.State = domain.HoldCaptured

	if err := c.ResolveFailure(context.Background(), h); !errors.Is(err, domain.ErrAlreadyResolved) {
		t.Fatalf("ResolveFailure() error = %v, want ErrAlreadyResolved", err)
	}
}

func TestFreeHoldSkipsGateway(t *testing.T) {
	gateway := &stubGateway{}
	c := NewCoordinator(gateway, &recordingStore{}, zerolog.Nop())

	free := hold()
	free.AmountMinor = 0
	if err := c.ResolveSuccess(context.Background(), free); err != nil {
		t.Fatalf("ResolveSuccess() error = %v", err)
	}

	free = hold()
	free.AmountMinor = 0
	if err := c.ResolveFailure(context.Background(), free); err != nil {
		t.Fatalf("ResolveFailure() error = %v", err)
	}
	if gateway.captureCalls+gateway.refundCalls != 0 {
		t.Fatal("gateway must not be touched for free holds")
	}
}

func TestPersistErrorsAreSwallowed(t *testing.T) {
	gateway := &stubGateway{}
	store := &recordingStore{err: errors.New("db down")}
	c := NewCoordinator(gateway, store, zerolog.Nop())

	if err := c.ResolveSuccess(context.Background(), hold()); err != nil {
		t.Fatalf("ResolveSuccess() error = %v, persistence failures must not surface", err)
	}
}
