package domain

import (
	"slices"
	"time"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Coupon is a discount code. Read-only during the payment pipeline apart
// from its usage counter.
type Coupon struct {
	Code          string
	DiscountType  DiscountType
	DiscountValue int64
	EventIDs      []string
	CategoryIDs   []string
	ExpiresAt     *time.Time
	Active        bool
	MaxUses       int
	UsedCount     int
}

// ValidFor reports whether the coupon may be applied to a purchase for the
// given event and category at the given time.
func (c *Coupon) ValidFor(eventID, categoryID string, now time.Time) bool {
	if !c.Active {
		return false
	}
	if c.ExpiresAt != nil && now.After(*c.ExpiresAt) {
		return false
	}
	if c.MaxUses > 0 && c.UsedCount >= c.MaxUses {
		return false
	}
	if len(c.EventIDs) > 0 && !slices.Contains(c.EventIDs, eventID) {
		return false
	}
	if len(c.CategoryIDs) > 0 && !slices.Contains(c.CategoryIDs, categoryID) {
		return false
	}
	return true
}

// DiscountFor computes the discount against a running balance. The result is
// never negative and never exceeds the balance. Percentage discounts use
// integer arithmetic on minor units.
func (c *Coupon) DiscountFor(balance int64) int64 {
	if balance <= 0 {
		return 0
	}
	var discount int64
	switch c.DiscountType {
	case DiscountPercentage:
		if c.DiscountValue <= 0 {
			return 0
		}
		discount = balance * c.DiscountValue / 100
	case DiscountFixed:
		discount = c.DiscountValue
	default:
		return 0
	}
	if discount < 0 {
		return 0
	}
	if discount > balance {
		return balance
	}
	return discount
}
