package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrNoCredential     = errors.New("no usable api credential configured")
	ErrNoTaskID         = errors.New("provider accepted request but returned no task id")
	ErrNoResult         = errors.New("provider returned no result")
	ErrRenderTimeout    = errors.New("render timed out")
	ErrMissingArtifact  = errors.New("render succeeded without artifact")
	ErrPaymentKeysUnset = errors.New("payment gateway keys are not configured")
	ErrCouponNotFound   = errors.New("coupon code is not active")
	ErrAlreadyResolved  = errors.New("payment hold already resolved")
)
