package pricing

import (
	"strings"
	"testing"

	"studio/internal/domain"
)

func TestQuote(t *testing.T) {
	tests := []struct {
		name     string
		base     int64
		duration string
		coupon   *domain.Coupon
		want     int64
	}{
		{
			name:     "base five second render",
			base:     20,
			duration: "5",
			want:     20,
		},
		{
			name:     "ten second render applies multiplier",
			base:     20,
			duration: "10",
			want:     28,
		},
		{
			name:     "percentage coupon ceils after discount",
			base:     20,
			duration: "10",
			coupon:   &domain.Coupon{Code: "SAVE10", Type: domain.CouponPercentage, Value: 10, IsActive: true},
			want:     26,
		},
		{
			name:     "flat coupon",
			base:     20,
			duration: "5",
			coupon:   &domain.Coupon{Code: "FLAT5", Type: domain.CouponFlat, Value: 5, IsActive: true},
			want:     15,
		},
		{
			name:     "discount larger than subtotal clamps at zero",
			base:     20,
			duration: "5",
			coupon:   &domain.Coupon{Code: "FLAT100", Type: domain.CouponFlat, Value: 100, IsActive: true},
			want:     0,
		},
		{
			name:     "inactive coupon is ignored",
			base:     20,
			duration: "10",
			coupon:   &domain.Coupon{Code: "OLD", Type: domain.CouponPercentage, Value: 50, IsActive: false},
			want:     28,
		},
		{
			name:     "odd multiplier result is ceiled",
			base:     13,
			duration: "10",
			want:     19, // 13 * 1.4 = 18.2
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Quote(tc.base, tc.duration, tc.coupon)
			if got != tc.want {
				t.Fatalf("Quote(%d, %q) = %d, want %d", tc.base, tc.duration, got, tc.want)
			}
		})
	}
}

func TestMinorUnits(t *testing.T) {
	if got := MinorUnits(28); got != 2800 {
		t.Fatalf("MinorUnits(28) = %d, want 2800", got)
	}
	if got := MinorUnits(0); got != 0 {
		t.Fatalf("MinorUnits(0) = %d, want 0", got)
	}
}

func TestFormatAmount(t *testing.T) {
	got := FormatAmount(20, "INR")
	if !strings.Contains(got, "20") {
		t.Fatalf("FormatAmount(20, INR) = %q, want amount in output", got)
	}
	fallback := FormatAmount(20, "???")
	if !strings.Contains(fallback, "???") || !strings.Contains(fallback, "20") {
		t.Fatalf("FormatAmount fallback = %q, want code and amount", fallback)
	}
}
