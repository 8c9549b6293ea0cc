package application

import (
	"context"
	"time"

	"github.com/itfy/evoting-backend/internal/domain"
)

// PaymentRepository is the authoritative store for payment records.
type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	FindByReference(ctx context.Context, reference string) (*domain.Payment, error)
	// FindActivePending returns the un-expired pending payment for a voter on
	// an event/category pair, or domain.ErrPaymentNotFound.
	FindActivePending(ctx context.Context, voterEmail, eventID, categoryID string, createdAfter time.Time) (*domain.Payment, error)
	// UpdateStatusIfPending atomically moves a payment out of PENDING in a
	// single conditional statement. The bool result reports whether this call
	// caused the transition; when false the returned payment is the stored
	// record, unchanged.
	UpdateStatusIfPending(ctx context.Context, reference string, target domain.PaymentStatus, paidAt *time.Time, gatewayData map[string]any) (*domain.Payment, bool, error)
	MergeGatewayData(ctx context.Context, reference string, gatewayData map[string]any) error
	RecordVoteCastError(ctx context.Context, reference, message string) error
	MarkVotesCast(ctx context.Context, reference string) error
	CountRecentByIP(ctx context.Context, ip string, since time.Time) (int, error)
	FindStalePending(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Payment, error)
}

// BundleRepository reads vote bundles. Bundles are never written here.
type BundleRepository interface {
	FindByID(ctx context.Context, id string) (*domain.VoteBundle, error)
}

// CouponRepository reads coupons and bumps usage counters on application.
type CouponRepository interface {
	FindByCode(ctx context.Context, code string) (*domain.Coupon, error)
	IncrementUsage(ctx context.Context, code string) error
}

// InitializeChargeRequest is the outbound charge initialization. Amount is in
// the gateway's minor currency unit.
type InitializeChargeRequest struct {
	Email       string
	Amount      int64
	Reference   string
	CallbackURL string
	Metadata    map[string]any
}

type InitializeChargeResponse struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

// VerifyResult is the gateway's view of a charge. A charge unknown to the
// gateway comes back as StatusFailed with a descriptive GatewayResponse, not
// as an error.
type VerifyResult struct {
	Status          string
	Reference       string
	Amount          int64
	Currency        string
	Channel         string
	Fees            int64
	TransactionID   int64
	GatewayResponse string
	PaidAt          *time.Time
}

const (
	VerifyStatusSuccess = "success"
	VerifyStatusFailed  = "failed"
	VerifyStatusPending = "pending"
)

// GatewayData flattens the verify result into the payment's append-only
// gateway metadata.
func (v *VerifyResult) GatewayData() map[string]any {
	data := map[string]any{
		"status":           v.Status,
		"transaction_id":   v.TransactionID,
		"gateway_response": v.GatewayResponse,
	}
	if v.Channel != "" {
		data["channel"] = v.Channel
	}
	if v.Fees > 0 {
		data["fees"] = v.Fees
	}
	if v.Amount > 0 {
		data["amount"] = v.Amount
	}
	if v.Currency != "" {
		data["currency"] = v.Currency
	}
	return data
}

// WebhookEvent is a decoded, signature-verified gateway push.
type WebhookEvent struct {
	Type string
	Data VerifyResult
}

const (
	WebhookChargeSuccess = "charge.success"
	WebhookChargeFailed  = "charge.failed"
)

// GatewayClient wraps the external payment gateway: charge initialization,
// charge verification, webhook decoding and webhook signature verification
// over raw bytes.
type GatewayClient interface {
	Initialize(ctx context.Context, req InitializeChargeRequest) (*InitializeChargeResponse, error)
	Verify(ctx context.Context, reference string) (*VerifyResult, error)
	// VerifySignature must be fed the raw request body exactly as received;
	// re-serialized JSON hashes differently.
	VerifySignature(rawBody []byte, signatureHeader string) bool
	ParseWebhook(rawBody []byte) (*WebhookEvent, error)
}

// CastVotesRequest is the contract the vote caster is invoked with once a
// payment is confirmed.
type CastVotesRequest struct {
	CandidateID      string
	CategoryID       string
	EventID          string
	Votes            int
	VoterIP          string
	PaymentReference string
}

// VoteCaster records purchased votes against a candidate. Invoked exactly
// once per payment, by the transition-causing reconciliation call only.
type VoteCaster interface {
	CastVotes(ctx context.Context, req CastVotesRequest) error
}
