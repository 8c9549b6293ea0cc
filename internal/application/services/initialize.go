package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/itfy/evoting-backend/internal/application"
	"github.com/itfy/evoting-backend/internal/domain"
)

// InitializeService runs the first phase of the purchase pipeline: pricing,
// discounts, fraud annotation, pending payment creation and the outbound
// charge initialization.
type InitializeService struct {
	payments   application.PaymentRepository
	coupons    application.CouponRepository
	pricing    *PricingCalculator
	discounts  *DiscountEngine
	fraud      *FraudChecker
	gateway    application.GatewayClient
	currency   string
	pendingTTL time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

func NewInitializeService(
	payments application.PaymentRepository,
	coupons application.CouponRepository,
	pricing *PricingCalculator,
	discounts *DiscountEngine,
	fraud *FraudChecker,
	gateway application.GatewayClient,
	currency string,
	pendingTTL time.Duration,
	logger *slog.Logger,
) *InitializeService {
	return &InitializeService{
		payments:   payments,
		coupons:    coupons,
		pricing:    pricing,
		discounts:  discounts,
		fraud:      fraud,
		gateway:    gateway,
		currency:   currency,
		pendingTTL: pendingTTL,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *InitializeService) Initialize(ctx context.Context, cmd InitializeCommand) (*InitializeResult, error) {
	email := domain.NormalizeEmail(cmd.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, application.NewValidationError(errors.New("a valid voter email is required"))
	}

	// Pricing, discounts and fraud all resolve before any record is created,
	// so a failure here leaves no partial state.
	order, err := s.pricing.Price(ctx, cmd.Bundles, cmd.EventID, cmd.CategoryID)
	if err != nil {
		return nil, err
	}

	discount := s.discounts.Apply(ctx, cmd.Coupons, order, cmd.EventID, cmd.CategoryID)

	fraudCheck := s.fraud.Check(ctx, email, cmd.VoterIP)
	if !fraudCheck.Passed {
		s.logger.Warn("fraud heuristic flagged payment request",
			"email", email,
			"ip", cmd.VoterIP,
			"reasons", fraudCheck.Reasons,
		)
	}

	// An un-expired pending purchase for the same voter/event/category means
	// a charge is already in flight: hand back its redirect instead of
	// creating a duplicate at the gateway.
	existing, err := s.payments.FindActivePending(ctx, email, cmd.EventID, cmd.CategoryID, s.now().Add(-s.pendingTTL))
	if err != nil && !errors.Is(err, domain.ErrPaymentNotFound) {
		return nil, application.NewInternalError(err)
	}
	if existing != nil {
		s.logger.Info("reusing existing pending payment",
			"reference", existing.Reference,
			"email", email,
		)
		return resultFromPayment(existing, true), nil
	}

	payment, err := domain.NewPayment(
		NewReference(),
		email, cmd.VoterIP, cmd.UserAgent,
		cmd.EventID, cmd.CategoryID, cmd.CandidateID,
		order.Bundles,
		discount.Applied,
		s.currency,
		order.TotalAmount, discount.DiscountAmount,
		order.TotalVotes,
	)
	if err != nil {
		return nil, application.NewValidationError(err)
	}
	payment.Metadata.FraudCheck = &fraudCheck

	if err := s.payments.Create(ctx, payment); err != nil {
		svcErr, ok := application.IsServiceError(err)
		if !ok || svcErr.Code != application.ErrCodeDuplicatePending {
			return nil, application.NewInternalError(err)
		}
		// Lost the create race to a concurrent initialize for the same
		// voter and ballot: reuse the winner's record.
		winner, findErr := s.payments.FindActivePending(ctx, email, cmd.EventID, cmd.CategoryID, s.now().Add(-s.pendingTTL))
		if findErr == nil {
			s.logger.Info("reusing concurrently created pending payment",
				"reference", winner.Reference,
				"email", email,
			)
			return resultFromPayment(winner, true), nil
		}
		// An expired pending still holds the slot. Surface its reference so
		// the client can settle it through verification; the sweep worker
		// clears it otherwise.
		blocker, findErr := s.payments.FindActivePending(ctx, email, cmd.EventID, cmd.CategoryID, time.Time{})
		if findErr == nil {
			return nil, application.NewDuplicatePendingError(blocker.Reference)
		}
		return nil, err
	}

	gwResp, err := s.gateway.Initialize(ctx, application.InitializeChargeRequest{
		Email:       email,
		Amount:      payment.FinalAmount,
		Reference:   payment.Reference,
		CallbackURL: cmd.CallbackURL,
		Metadata: map[string]any{
			"event_id":     cmd.EventID,
			"category_id":  cmd.CategoryID,
			"candidate_id": cmd.CandidateID,
		},
	})
	if err != nil {
		// The pending record stays behind: the voter retries and hits the
		// reuse path above, or the sweep worker resolves it later.
		s.logger.Error("gateway initialization failed",
			"reference", payment.Reference,
			"error", err,
		)
		return nil, application.NewGatewayError(err)
	}

	gatewayData := map[string]any{
		"authorization_url": gwResp.AuthorizationURL,
		"access_code":       gwResp.AccessCode,
	}
	payment.MergeGatewayData(gatewayData)
	if err := s.payments.MergeGatewayData(ctx, payment.Reference, gatewayData); err != nil {
		return nil, application.NewInternalError(err)
	}

	for _, applied := range discount.Applied {
		if err := s.coupons.IncrementUsage(ctx, applied.Code); err != nil {
			s.logger.Warn("failed to increment coupon usage",
				"code", applied.Code,
				"reference", payment.Reference,
				"error", err,
			)
		}
	}

	s.logger.Info("payment initialized",
		"reference", payment.Reference,
		"amount", payment.FinalAmount,
		"votes", payment.VotesRemaining,
	)

	return resultFromPayment(payment, false), nil
}

func resultFromPayment(p *domain.Payment, reused bool) *InitializeResult {
	result := &InitializeResult{
		Reference:      p.Reference,
		OriginalAmount: p.OriginalAmount,
		DiscountAmount: p.DiscountAmount,
		FinalAmount:    p.FinalAmount,
		TotalVotes:     p.VotesRemaining,
		Currency:       p.Currency,
		Reused:         reused,
	}
	if url, ok := p.GatewayData["authorization_url"].(string); ok {
		result.AuthorizationURL = url
	}
	if code, ok := p.GatewayData["access_code"].(string); ok {
		result.AccessCode = code
	}
	return result
}
