package domain

import "slices"

// VoteBundle is a purchasable package of votes. Read-only at transaction
// time: its price and vote count are pinned into the payment at creation.
type VoteBundle struct {
	ID          string
	Name        string
	Price       int64
	Votes       int
	Active      bool
	EventIDs    []string
	CategoryIDs []string
}

// UsableFor reports whether the bundle can be purchased for the given event
// and category. Empty applicability lists mean unrestricted.
func (b *VoteBundle) UsableFor(eventID, categoryID string) error {
	if !b.Active {
		return NewInvalidBundleError(b.ID, "bundle is not active")
	}
	if len(b.EventIDs) > 0 && !slices.Contains(b.EventIDs, eventID) {
		return NewInvalidBundleError(b.ID, "bundle is not available for this event")
	}
	if len(b.CategoryIDs) > 0 && !slices.Contains(b.CategoryIDs, categoryID) {
		return NewInvalidBundleError(b.ID, "bundle is not available for this category")
	}
	return nil
}
