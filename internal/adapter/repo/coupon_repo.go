package repo

import (
	"context"
	"strings"

	"studio/internal/domain"
	"studio/internal/infra"
	"studio/internal/sqlinline"
)

// CouponRepositoryPG looks up admin-managed discount codes.
type CouponRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewCouponRepository(sql infra.SQLExecutor) *CouponRepositoryPG {
	return &CouponRepositoryPG{sql: sql}
}

// GetByCode returns the coupon for code, case-insensitively. Missing and
// deactivated codes both surface as domain.ErrCouponNotFound so callers never
// leak which of the two happened.
func (r *CouponRepositoryPG) GetByCode(ctx context.Context, code string) (domain.Coupon, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectCoupon, strings.ToUpper(strings.TrimSpace(code)))

	var c domain.Coupon
	var kind string
	if err := row.Scan(&c.Code, &kind, &c.Value, &c.IsActive); err != nil {
		if infra.IsNoRows(err) {
			return domain.Coupon{}, domain.ErrCouponNotFound
		}
		return domain.Coupon{}, err
	}
	c.Type = domain.CouponType(kind)
	if !c.IsActive {
		return domain.Coupon{}, domain.ErrCouponNotFound
	}
	return c, nil
}
