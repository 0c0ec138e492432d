package domain

import "time"

// HoldState enumerates payment hold lifecycle states. Captured and refunded
// are mutually exclusive terminal actions.
type HoldState string

const (
	HoldAuthorized HoldState = "authorized"
	HoldCaptured   HoldState = "captured"
	HoldRefunded   HoldState = "refunded"
	HoldFailed     HoldState = "failed"
)

// PaymentHold represents money authorized against a purchase pending a
// successful render. A zero-amount hold is a free claim and never touches the
// payment gateway.
type PaymentHold struct {
	PaymentID   string
	AmountMinor int64
	Currency    string
	JobID       string
	State       HoldState
}

// Free reports whether the hold carries no money and therefore skips both
// capture and refund.
func (h PaymentHold) Free() bool {
	return h.AmountMinor == 0
}

// TransactionStatus values persisted for operator reconciliation.
type TransactionStatus string

const (
	TxAuthorized      TransactionStatus = "authorized"
	TxCaptured        TransactionStatus = "captured"
	TxFailed          TransactionStatus = "failed"
	TxRefundRequested TransactionStatus = "refund_requested"
	TxRefunded        TransactionStatus = "refunded"
)

// RenderStatus is the coarse render outcome stored alongside a transaction.
type RenderStatus string

const (
	RenderPending   RenderStatus = "pending"
	RenderCompleted RenderStatus = "completed"
	RenderFailed    RenderStatus = "failed"
)

// Transaction is the audit record tied to a payment hold.
type Transaction struct {
	PaymentID    string
	UserEmail    string
	AmountMinor  int64
	Currency     string
	Items        []string
	Country      string
	Status       TransactionStatus
	RenderStatus RenderStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CouponType distinguishes percentage from flat-amount discounts.
type CouponType string

const (
	CouponPercentage CouponType = "percentage"
	CouponFlat       CouponType = "flat"
)

// Coupon is an admin-managed discount code.
type Coupon struct {
	Code     string
	Type     CouponType
	Value    int64
	IsActive bool
}
