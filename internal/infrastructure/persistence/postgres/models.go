package postgres

import "time"

// PaymentModel mirrors the payments table. JSON columns are carried as raw
// bytes and decoded in the mappers.
type PaymentModel struct {
	Reference      string
	Status         string
	VoterEmail     string
	VoterIP        string
	UserAgent      string
	EventID        string
	CategoryID     string
	CandidateID    string
	VoteBundles    []byte
	AppliedCoupons []byte
	Currency       string
	OriginalAmount int64
	DiscountAmount int64
	FinalAmount    int64
	VotesRemaining int
	GatewayData    []byte
	Metadata       []byte
	CreatedAt      time.Time
	UpdatedAt      time.Time
	PaidAt         *time.Time
}

type BundleModel struct {
	ID          string
	Name        string
	Price       int64
	Votes       int
	Active      bool
	EventIDs    []string
	CategoryIDs []string
}

type CouponModel struct {
	Code          string
	DiscountType  string
	DiscountValue int64
	EventIDs      []string
	CategoryIDs   []string
	ExpiresAt     *time.Time
	Active        bool
	MaxUses       int
	UsedCount     int
}
