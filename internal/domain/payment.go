// Package domain encodes the payment entity for purchased votes and its attributes
package domain

import (
	"strings"
	"time"
)

// PaymentStatus represents the current state of a vote purchase in its lifecycle
type PaymentStatus string

const (
	StatusPending PaymentStatus = "PENDING"
	StatusSuccess PaymentStatus = "SUCCESS"
	StatusFailed  PaymentStatus = "FAILED"
)

// BundleSelection is a validated bundle line item with price and votes pinned
// at creation time. Later edits to the bundle must not affect this payment.
type BundleSelection struct {
	BundleID  string `json:"bundle_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	UnitVotes int    `json:"unit_votes"`
}

// AppliedCoupon records one coupon that reduced the balance, in application order.
type AppliedCoupon struct {
	Code   string `json:"code"`
	Amount int64  `json:"amount"`
}

// FraudCheck is the advisory verdict captured at creation time.
type FraudCheck struct {
	Passed  bool     `json:"passed"`
	Reasons []string `json:"reasons,omitempty"`
}

// Metadata holds audit annotations that accumulate on the payment.
type Metadata struct {
	FraudCheck    *FraudCheck `json:"fraud_check,omitempty"`
	VoteCastError string      `json:"vote_cast_error,omitempty"`
}

type Payment struct {
	Reference string
	Status    PaymentStatus

	VoterEmail string
	VoterIP    string
	UserAgent  string

	EventID     string
	CategoryID  string
	CandidateID string

	VoteBundles    []BundleSelection
	AppliedCoupons []AppliedCoupon

	Currency       string
	OriginalAmount int64
	DiscountAmount int64
	FinalAmount    int64
	VotesRemaining int

	GatewayData map[string]any
	Metadata    Metadata

	CreatedAt time.Time
	UpdatedAt time.Time
	PaidAt    *time.Time
}

func NewPayment(
	reference string,
	voterEmail, voterIP, userAgent string,
	eventID, categoryID, candidateID string,
	bundles []BundleSelection,
	coupons []AppliedCoupon,
	currency string,
	originalAmount, discountAmount int64,
	votes int,
) (*Payment, error) {
	if reference == "" {
		return nil, NewMissingRequiredFieldError("reference")
	}
	email := NormalizeEmail(voterEmail)
	if email == "" {
		return nil, NewMissingRequiredFieldError("voter email")
	}
	if eventID == "" {
		return nil, NewMissingRequiredFieldError("event ID")
	}
	if categoryID == "" {
		return nil, NewMissingRequiredFieldError("category ID")
	}
	if candidateID == "" {
		return nil, NewMissingRequiredFieldError("candidate ID")
	}
	if len(bundles) == 0 {
		return nil, NewMissingRequiredFieldError("bundle selection")
	}
	if originalAmount <= 0 {
		return nil, NewInvalidAmountError(originalAmount)
	}
	if discountAmount < 0 || discountAmount > originalAmount {
		return nil, NewInvalidAmountError(discountAmount)
	}
	if votes <= 0 {
		return nil, NewInvalidAmountError(int64(votes))
	}

	now := time.Now()
	return &Payment{
		Reference:      reference,
		Status:         StatusPending,
		VoterEmail:     email,
		VoterIP:        voterIP,
		UserAgent:      userAgent,
		EventID:        eventID,
		CategoryID:     categoryID,
		CandidateID:    candidateID,
		VoteBundles:    bundles,
		AppliedCoupons: coupons,
		Currency:       currency,
		OriginalAmount: originalAmount,
		DiscountAmount: discountAmount,
		FinalAmount:    originalAmount - discountAmount,
		VotesRemaining: votes,
		GatewayData:    map[string]any{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// NormalizeEmail lower-cases and trims a voter email so duplicate pending
// detection is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (p *Payment) MarkSuccess(paidAt time.Time) error {
	if err := p.transition(StatusSuccess); err != nil {
		return err
	}
	p.PaidAt = &paidAt
	return nil
}

func (p *Payment) MarkFailed() error {
	return p.transition(StatusFailed)
}

// Terminal statuses are absorbing. The persisted conditional update enforces
// the same rule; this guard covers in-memory use.
func (p *Payment) transition(target PaymentStatus) error {
	if p.Status != StatusPending {
		return ErrInvalidTransition
	}
	if target != StatusSuccess && target != StatusFailed {
		return ErrInvalidTransition
	}
	p.Status = target
	p.UpdatedAt = time.Now()
	return nil
}

// IsTerminal reports whether the payment can no longer change status.
func (p *Payment) IsTerminal() bool {
	return p.Status == StatusSuccess || p.Status == StatusFailed
}

// MergeGatewayData folds new gateway metadata into the payment. Existing keys
// are overwritten, nothing is removed.
func (p *Payment) MergeGatewayData(data map[string]any) {
	if p.GatewayData == nil {
		p.GatewayData = map[string]any{}
	}
	for k, v := range data {
		p.GatewayData[k] = v
	}
}

// CouponCode returns the primary (first applied) coupon code, if any.
func (p *Payment) CouponCode() string {
	if len(p.AppliedCoupons) == 0 {
		return ""
	}
	return p.AppliedCoupons[0].Code
}

// TotalVotes recomputes the vote entitlement from the pinned bundle breakdown.
func (p *Payment) TotalVotes() int {
	total := 0
	for _, b := range p.VoteBundles {
		total += b.UnitVotes * b.Quantity
	}
	return total
}

// MarkVotesCast zeroes the remaining entitlement after the caster succeeds.
func (p *Payment) MarkVotesCast() {
	p.VotesRemaining = 0
	p.UpdatedAt = time.Now()
}

// Reconstitute - Special constructor for loading from DB
func Reconstitute(
	reference string,
	status PaymentStatus,
	voterEmail, voterIP, userAgent string,
	eventID, categoryID, candidateID string,
	bundles []BundleSelection,
	coupons []AppliedCoupon,
	currency string,
	originalAmount, discountAmount, finalAmount int64,
	votesRemaining int,
	gatewayData map[string]any,
	metadata Metadata,
	createdAt, updatedAt time.Time,
	paidAt *time.Time,
) *Payment {
	return &Payment{
		Reference:      reference,
		Status:         status,
		VoterEmail:     voterEmail,
		VoterIP:        voterIP,
		UserAgent:      userAgent,
		EventID:        eventID,
		CategoryID:     categoryID,
		CandidateID:    candidateID,
		VoteBundles:    bundles,
		AppliedCoupons: coupons,
		Currency:       currency,
		OriginalAmount: originalAmount,
		DiscountAmount: discountAmount,
		FinalAmount:    finalAmount,
		VotesRemaining: votesRemaining,
		GatewayData:    gatewayData,
		Metadata:       metadata,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
		PaidAt:         paidAt,
	}
}
