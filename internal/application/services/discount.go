package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/itfy/evoting-backend/internal/application"
	"github.com/itfy/evoting-backend/internal/domain"
)

// DiscountResult is the outcome of running coupon codes against a priced
// order. Applied preserves caller order.
type DiscountResult struct {
	DiscountAmount int64
	FinalAmount    int64
	Applied        []domain.AppliedCoupon
}

// DiscountEngine applies coupon codes sequentially against a running balance.
// Invalid, inapplicable or expired codes are skipped, never aborting the
// batch. Re-running the same ordered list against the same balance always
// yields the same result.
type DiscountEngine struct {
	coupons application.CouponRepository
	logger  *slog.Logger
	now     func() time.Time
}

func NewDiscountEngine(coupons application.CouponRepository, logger *slog.Logger) *DiscountEngine {
	return &DiscountEngine{
		coupons: coupons,
		logger:  logger,
		now:     time.Now,
	}
}

// Apply runs the codes in caller order. Each valid coupon's discount is
// computed against the balance remaining after the previous one, so order
// matters and is preserved from input.
func (e *DiscountEngine) Apply(ctx context.Context, codes []string, order *PricedOrder, eventID, categoryID string) *DiscountResult {
	result := &DiscountResult{FinalAmount: order.TotalAmount}
	now := e.now()

	for _, code := range codes {
		coupon, err := e.coupons.FindByCode(ctx, code)
		if err != nil {
			if !errors.Is(err, domain.ErrCouponNotFound) {
				e.logger.Warn("coupon lookup failed, skipping", "code", code, "error", err)
			}
			continue
		}

		if !coupon.ValidFor(eventID, categoryID, now) {
			e.logger.Debug("coupon not applicable, skipping", "code", code)
			continue
		}

		discount := coupon.DiscountFor(result.FinalAmount)
		if discount == 0 {
			continue
		}

		result.DiscountAmount += discount
		result.FinalAmount -= discount
		result.Applied = append(result.Applied, domain.AppliedCoupon{
			Code:   coupon.Code,
			Amount: discount,
		})
	}

	return result
}
