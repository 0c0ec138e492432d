package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"studio/internal/domain"
	"studio/internal/pricing"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type couponApplyRequest struct {
	Code     string `json:"code"`
	Duration string `json:"duration"`
}

func (req couponApplyRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Code, validation.Required, validation.Length(1, 64)),
		validation.Field(&req.Duration, validation.In("", "5", "10")),
	)
}

// CouponsApply validates a discount code and quotes the total it yields.
func (a *App) CouponsApply(w http.ResponseWriter, r *http.Request) {
	var req couponApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if err := req.Validate(); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	coupon, err := a.Coupons.GetByCode(r.Context(), req.Code)
	if err != nil {
		if errors.Is(err, domain.ErrCouponNotFound) {
			a.error(w, http.StatusNotFound, "coupon_invalid", "coupon not found or inactive")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to check coupon")
		return
	}

	duration := req.Duration
	if duration == "" {
		duration = "5"
	}
	total := pricing.Quote(a.BasePrice, duration, &coupon)
	a.json(w, http.StatusOK, map[string]any{
		"code":          coupon.Code,
		"kind":          coupon.Type,
		"value":         coupon.Value,
		"total":         total,
		"display_total": pricing.FormatAmount(total, a.Currency),
	})
}
