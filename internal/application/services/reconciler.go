package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/itfy/evoting-backend/internal/application"
	"github.com/itfy/evoting-backend/internal/domain"
)

// Reconciler is the convergence point for payment confirmation. It is
// reachable from the inbound webhook and from client polling, behaves
// identically for both, and guarantees the vote caster runs exactly once per
// payment: only the call that atomically moved the record out of PENDING
// casts votes.
type Reconciler struct {
	payments application.PaymentRepository
	gateway  application.GatewayClient
	caster   application.VoteCaster
	logger   *slog.Logger
}

func NewReconciler(
	payments application.PaymentRepository,
	gateway application.GatewayClient,
	caster application.VoteCaster,
	logger *slog.Logger,
) *Reconciler {
	return &Reconciler{
		payments: payments,
		gateway:  gateway,
		caster:   caster,
		logger:   logger,
	}
}

// HandleWebhook processes a signed gateway push. The signature is checked
// over the raw body before anything is parsed. Rejections perform no state
// change; callers acknowledge the sender with success regardless, per
// gateway convention, so hostile payloads don't trigger retry storms.
func (r *Reconciler) HandleWebhook(ctx context.Context, rawBody []byte, signatureHeader string) error {
	if !r.gateway.VerifySignature(rawBody, signatureHeader) {
		r.logger.Warn("webhook rejected: signature verification failed")
		return application.NewSignatureError()
	}

	event, err := r.gateway.ParseWebhook(rawBody)
	if err != nil {
		r.logger.Warn("webhook rejected: unparseable payload", "error", err)
		return nil
	}

	switch event.Type {
	case application.WebhookChargeSuccess:
		// The signature proves the payload came from the gateway, so the
		// webhook data is trusted without a confirming verify call.
		data := event.Data.GatewayData()
		data["webhook_verified"] = true
		_, err := r.resolve(ctx, event.Data.Reference, domain.StatusSuccess, event.Data.PaidAt, data)
		return err
	case application.WebhookChargeFailed:
		data := event.Data.GatewayData()
		data["webhook_verified"] = true
		_, err := r.resolve(ctx, event.Data.Reference, domain.StatusFailed, nil, data)
		return err
	default:
		r.logger.Debug("webhook event ignored", "event", event.Type)
		return nil
	}
}

// VerifyPayment is the poll path. Terminal payments are returned immediately
// without contacting the gateway. For pending payments the gateway is asked;
// a terminal verdict drives the same conditional transition the webhook uses,
// while an in-flight verdict leaves the record pending. A gateway failure
// returns the current pending record alongside the error: "not yet confirmed"
// is a normal state, not a fault.
func (r *Reconciler) VerifyPayment(ctx context.Context, reference string) (*domain.Payment, error) {
	payment, err := r.payments.FindByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentNotFound) {
			return nil, application.NewNotFoundError(reference)
		}
		return nil, application.NewInternalError(err)
	}

	if payment.IsTerminal() {
		return payment, nil
	}

	result, err := r.gateway.Verify(ctx, reference)
	if err != nil {
		r.logger.Warn("gateway verification failed, payment stays pending",
			"reference", reference,
			"error", err,
		)
		return payment, application.NewGatewayError(err)
	}

	data := result.GatewayData()
	data["webhook_verified"] = false

	switch result.Status {
	case application.VerifyStatusSuccess:
		return r.resolve(ctx, reference, domain.StatusSuccess, result.PaidAt, data)
	case application.VerifyStatusPending:
		// The voter may still be on the checkout page. Not a transition:
		// the webhook or a later poll settles it.
		r.logger.Debug("charge still in flight at the gateway", "reference", reference)
		return payment, nil
	default:
		return r.resolve(ctx, reference, domain.StatusFailed, nil, data)
	}
}

// resolve performs the single serialization point: a conditional update that
// only applies while the stored status is still PENDING. When this call did
// not cause the transition the stored record is returned untouched and vote
// casting is skipped.
func (r *Reconciler) resolve(
	ctx context.Context,
	reference string,
	target domain.PaymentStatus,
	paidAt *time.Time,
	gatewayData map[string]any,
) (*domain.Payment, error) {
	if paidAt == nil && target == domain.StatusSuccess {
		now := time.Now()
		paidAt = &now
	}

	payment, transitioned, err := r.payments.UpdateStatusIfPending(ctx, reference, target, paidAt, gatewayData)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentNotFound) {
			r.logger.Warn("reconciliation for unknown reference", "reference", reference)
			return nil, application.NewNotFoundError(reference)
		}
		return nil, application.NewInternalError(err)
	}

	if !transitioned {
		r.logger.Info("payment already processed, skipping",
			"reference", reference,
			"status", payment.Status,
		)
		return payment, nil
	}

	r.logger.Info("payment resolved",
		"reference", reference,
		"status", target,
	)

	if target == domain.StatusSuccess {
		r.castVotes(ctx, payment)
	}

	return payment, nil
}

// castVotes runs on the transition-causing call only. A cast failure is
// recorded against the payment for human review; the success status stands
// because the money was captured.
func (r *Reconciler) castVotes(ctx context.Context, payment *domain.Payment) {
	err := r.caster.CastVotes(ctx, application.CastVotesRequest{
		CandidateID:      payment.CandidateID,
		CategoryID:       payment.CategoryID,
		EventID:          payment.EventID,
		Votes:            payment.VotesRemaining,
		VoterIP:          payment.VoterIP,
		PaymentReference: payment.Reference,
	})
	if err != nil {
		r.logger.Error("vote casting failed after successful payment",
			"reference", payment.Reference,
			"votes", payment.VotesRemaining,
			"error", err,
		)
		if recErr := r.payments.RecordVoteCastError(ctx, payment.Reference, err.Error()); recErr != nil {
			r.logger.Error("failed to record vote cast error",
				"reference", payment.Reference,
				"error", recErr,
			)
			return
		}
		// Annotate the in-memory copy only once the store has it, so the
		// projection never claims an annotation that was not recorded.
		payment.Metadata.VoteCastError = err.Error()
		return
	}

	if err := r.payments.MarkVotesCast(ctx, payment.Reference); err != nil {
		r.logger.Error("failed to mark votes cast",
			"reference", payment.Reference,
			"error", err,
		)
		return
	}
	payment.MarkVotesCast()
}
