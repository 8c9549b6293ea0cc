package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/itfy/evoting-backend/internal/application"
	"github.com/itfy/evoting-backend/internal/domain"
)

// PricedOrder is the validated breakdown for a purchase. Unit prices and vote
// counts are locked in here and not re-read later, so subsequent bundle edits
// cannot affect an in-flight payment.
type PricedOrder struct {
	Bundles     []domain.BundleSelection
	TotalAmount int64
	TotalVotes  int
}

// PricingCalculator resolves requested bundle selections into a priced order.
type PricingCalculator struct {
	bundles application.BundleRepository
}

func NewPricingCalculator(bundles application.BundleRepository) *PricingCalculator {
	return &PricingCalculator{bundles: bundles}
}

// Price validates every selection against the bundle's active flag and
// event/category applicability. Any invalid entry fails the whole request.
func (c *PricingCalculator) Price(ctx context.Context, selections []BundleInput, eventID, categoryID string) (*PricedOrder, error) {
	if len(selections) == 0 {
		return nil, application.NewValidationError(errors.New("at least one bundle is required"))
	}

	order := &PricedOrder{}
	for _, sel := range selections {
		if sel.Quantity <= 0 {
			return nil, application.NewValidationError(fmt.Errorf("bundle %s: quantity must be positive", sel.BundleID))
		}

		bundle, err := c.bundles.FindByID(ctx, sel.BundleID)
		if err != nil {
			if errors.Is(err, domain.ErrBundleNotFound) {
				return nil, application.NewValidationError(fmt.Errorf("bundle %s does not exist", sel.BundleID))
			}
			return nil, application.NewInternalError(err)
		}

		if err := bundle.UsableFor(eventID, categoryID); err != nil {
			return nil, application.NewValidationError(err)
		}

		order.Bundles = append(order.Bundles, domain.BundleSelection{
			BundleID:  bundle.ID,
			Quantity:  sel.Quantity,
			UnitPrice: bundle.Price,
			UnitVotes: bundle.Votes,
		})
		order.TotalAmount += bundle.Price * int64(sel.Quantity)
		order.TotalVotes += bundle.Votes * sel.Quantity
	}

	return order, nil
}
