package pricing

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"studio/internal/domain"
)

// The ten-second cut costs 40% more than the base five-second render.
var longDurationMultiplier = decimal.NewFromFloat(1.4)

// Quote computes the charge in major currency units for one video render.
// Rounding is ceil-after-discount, matching the billing behavior the store
// has always had: the multiplied subtotal is ceiled, the coupon is applied,
// and the result is ceiled again before clamping at zero. A percentage coupon
// can therefore charge one unit more than naive rounding would suggest; that
// is preserved deliberately, pending product confirmation.
func Quote(basePrice int64, duration string, coupon *domain.Coupon) int64 {
	subtotal := decimal.NewFromInt(basePrice)
	if duration == "10" {
		subtotal = subtotal.Mul(longDurationMultiplier)
	}
	subtotal = subtotal.Ceil()

	if coupon != nil && coupon.IsActive {
		value := decimal.NewFromInt(coupon.Value)
		switch coupon.Type {
		case domain.CouponPercentage:
			subtotal = subtotal.Sub(subtotal.Mul(value).Div(decimal.NewFromInt(100)))
		case domain.CouponFlat:
			subtotal = subtotal.Sub(value)
		}
	}

	final := subtotal.Ceil()
	if final.IsNegative() {
		return 0
	}
	return final.IntPart()
}

// MinorUnits converts a major-unit charge to the minor units the payment
// gateway expects (e.g. rupees to paise).
func MinorUnits(major int64) int64 {
	return major * 100
}

// FormatAmount renders a major-unit amount with its currency symbol for
// user-facing messages, falling back to the bare code when it is not ISO.
func FormatAmount(major int64, code string) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		p := message.NewPrinter(language.English)
		return p.Sprintf("%s %d", code, major)
	}
	p := message.NewPrinter(language.English)
	return p.Sprintf("%v", currency.Symbol(unit.Amount(major)))
}
