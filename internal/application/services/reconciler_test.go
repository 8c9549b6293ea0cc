package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/itfy/evoting-backend/internal/application"
	"github.com/itfy/evoting-backend/internal/application/services"
	"github.com/itfy/evoting-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reconcilerFixture struct {
	payments   *services.MockPaymentRepository
	gateway    *services.MockGatewayClient
	caster     *services.MockVoteCaster
	reconciler *services.Reconciler
}

func newReconcilerFixture() *reconcilerFixture {
	payments := services.NewMockPaymentRepository()
	gateway := &services.MockGatewayClient{}
	caster := &services.MockVoteCaster{}

	return &reconcilerFixture{
		payments:   payments,
		gateway:    gateway,
		caster:     caster,
		reconciler: services.NewReconciler(payments, gateway, caster, discardLogger()),
	}
}

func (f *reconcilerFixture) seedPending(t *testing.T, reference string) *domain.Payment {
	t.Helper()
	payment, err := domain.NewPayment(
		reference,
		"voter@example.com", "203.0.113.10", "test-agent",
		"event-1", "category-1", "candidate-1",
		[]domain.BundleSelection{{BundleID: "basic", Quantity: 2, UnitPrice: 5000, UnitVotes: 10}},
		nil,
		"NGN",
		10000, 0,
		20,
	)
	require.NoError(t, err)
	require.NoError(t, f.payments.Create(context.Background(), payment))
	return payment
}

func successWebhook(reference string) func(rawBody []byte) (*application.WebhookEvent, error) {
	paidAt := time.Now()
	return func(rawBody []byte) (*application.WebhookEvent, error) {
		return &application.WebhookEvent{
			Type: application.WebhookChargeSuccess,
			Data: application.VerifyResult{
				Status:    application.VerifyStatusSuccess,
				Reference: reference,
				Amount:    10000,
				Currency:  "NGN",
				PaidAt:    &paidAt,
			},
		}, nil
	}
}

func TestReconciler_HandleWebhook(t *testing.T) {
	ctx := context.Background()

	t.Run("charge success transitions and casts votes", func(t *testing.T) {
		f := newReconcilerFixture()
		f.seedPending(t, "evp_one")
		f.gateway.ParseWebhookFn = successWebhook("evp_one")

		err := f.reconciler.HandleWebhook(ctx, []byte(`{}`), "sig")
		require.NoError(t, err)

		stored := f.payments.Get("evp_one")
		assert.Equal(t, domain.StatusSuccess, stored.Status)
		require.NotNil(t, stored.PaidAt)
		assert.Equal(t, true, stored.GatewayData["webhook_verified"])

		require.Equal(t, 1, f.caster.CallCount())
		cast := f.caster.Calls[0]
		assert.Equal(t, "candidate-1", cast.CandidateID)
		assert.Equal(t, 20, cast.Votes)
		assert.Equal(t, "evp_one", cast.PaymentReference)
	})

	t.Run("duplicate webhook deliveries cast votes once", func(t *testing.T) {
		f := newReconcilerFixture()
		f.seedPending(t, "evp_dup")
		f.gateway.ParseWebhookFn = successWebhook("evp_dup")

		require.NoError(t, f.reconciler.HandleWebhook(ctx, []byte(`{}`), "sig"))
		require.NoError(t, f.reconciler.HandleWebhook(ctx, []byte(`{}`), "sig"))
		require.NoError(t, f.reconciler.HandleWebhook(ctx, []byte(`{}`), "sig"))

		assert.Equal(t, 1, f.caster.CallCount())
	})

	t.Run("charge failed transitions without casting", func(t *testing.T) {
		f := newReconcilerFixture()
		f.seedPending(t, "evp_fail")
		f.gateway.ParseWebhookFn = func(rawBody []byte) (*application.WebhookEvent, error) {
			return &application.WebhookEvent{
				Type: application.WebhookChargeFailed,
				Data: application.VerifyResult{
					Status:          application.VerifyStatusFailed,
					Reference:       "evp_fail",
					GatewayResponse: "Declined",
				},
			}, nil
		}

		err := f.reconciler.HandleWebhook(ctx, []byte(`{}`), "sig")
		require.NoError(t, err)

		stored := f.payments.Get("evp_fail")
		assert.Equal(t, domain.StatusFailed, stored.Status)
		assert.Nil(t, stored.PaidAt)
		assert.Equal(t, 0, f.caster.CallCount())
	})

	t.Run("failure webhook cannot revert a success", func(t *testing.T) {
		f := newReconcilerFixture()
		f.seedPending(t, "evp_late")
		f.gateway.ParseWebhookFn = successWebhook("evp_late")
		require.NoError(t, f.reconciler.HandleWebhook(ctx, []byte(`{}`), "sig"))

		f.gateway.ParseWebhookFn = func(rawBody []byte) (*application.WebhookEvent, error) {
			return &application.WebhookEvent{
				Type: application.WebhookChargeFailed,
				Data: application.VerifyResult{Status: application.VerifyStatusFailed, Reference: "evp_late"},
			}, nil
		}
		require.NoError(t, f.reconciler.HandleWebhook(ctx, []byte(`{}`), "sig"))

		assert.Equal(t, domain.StatusSuccess, f.payments.Get("evp_late").Status)
	})

	t.Run("bad signature performs no state change", func(t *testing.T) {
		f := newReconcilerFixture()
		f.seedPending(t, "evp_sig")
		f.gateway.VerifySignatureFn = func(rawBody []byte, signatureHeader string) bool {
			return false
		}
		f.gateway.ParseWebhookFn = successWebhook("evp_sig")

		err := f.reconciler.HandleWebhook(ctx, []byte(`{}`), "bad")
		requireServiceError(t, err, application.ErrCodeInvalidSignature)

		assert.Equal(t, domain.StatusPending, f.payments.Get("evp_sig").Status)
		assert.Equal(t, 0, f.caster.CallCount())
	})

	t.Run("unparseable payload is dropped quietly", func(t *testing.T) {
		f := newReconcilerFixture()
		f.seedPending(t, "evp_junk")
		f.gateway.ParseWebhookFn = func(rawBody []byte) (*application.WebhookEvent, error) {
			return nil, errors.New("invalid JSON")
		}

		err := f.reconciler.HandleWebhook(ctx, []byte(`not json`), "sig")
		require.NoError(t, err)

		assert.Equal(t, domain.StatusPending, f.payments.Get("evp_junk").Status)
	})

	t.Run("unrelated event types are ignored", func(t *testing.T) {
		f := newReconcilerFixture()
		f.seedPending(t, "evp_other")
		f.gateway.ParseWebhookFn = func(rawBody []byte) (*application.WebhookEvent, error) {
			return &application.WebhookEvent{Type: "transfer.success"}, nil
		}

		err := f.reconciler.HandleWebhook(ctx, []byte(`{}`), "sig")
		require.NoError(t, err)

		assert.Equal(t, domain.StatusPending, f.payments.Get("evp_other").Status)
	})
}

func TestReconciler_VerifyPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("gateway success transitions and casts votes", func(t *testing.T) {
		f := newReconcilerFixture()
		f.seedPending(t, "evp_poll")

		payment, err := f.reconciler.VerifyPayment(ctx, "evp_poll")
		require.NoError(t, err)

		assert.Equal(t, domain.StatusSuccess, payment.Status)
		assert.Equal(t, false, payment.GatewayData["webhook_verified"])
		assert.Equal(t, 1, f.caster.CallCount())
	})

	t.Run("gateway failure verdict marks the payment failed", func(t *testing.T) {
		f := newReconcilerFixture()
		f.seedPending(t, "evp_pollfail")
		f.gateway.VerifyFn = func(ctx context.Context, reference string) (*application.VerifyResult, error) {
			return &application.VerifyResult{
				Status:          application.VerifyStatusFailed,
				Reference:       reference,
				GatewayResponse: "Declined",
			}, nil
		}

		payment, err := f.reconciler.VerifyPayment(ctx, "evp_pollfail")
		require.NoError(t, err)

		assert.Equal(t, domain.StatusFailed, payment.Status)
		assert.Equal(t, 0, f.caster.CallCount())
	})

	t.Run("in-flight verdict leaves the payment pending", func(t *testing.T) {
		f := newReconcilerFixture()
		f.seedPending(t, "evp_inflight")
		f.gateway.VerifyFn = func(ctx context.Context, reference string) (*application.VerifyResult, error) {
			return &application.VerifyResult{
				Status:    application.VerifyStatusPending,
				Reference: reference,
			}, nil
		}

		payment, err := f.reconciler.VerifyPayment(ctx, "evp_inflight")
		require.NoError(t, err)

		assert.Equal(t, domain.StatusPending, payment.Status)
		assert.Equal(t, domain.StatusPending, f.payments.Get("evp_inflight").Status)
		assert.Equal(t, 0, f.caster.CallCount())
	})

	t.Run("early poll does not cost the votes the webhook later confirms", func(t *testing.T) {
		f := newReconcilerFixture()
		f.seedPending(t, "evp_early")
		f.gateway.VerifyFn = func(ctx context.Context, reference string) (*application.VerifyResult, error) {
			return &application.VerifyResult{
				Status:    application.VerifyStatusPending,
				Reference: reference,
			}, nil
		}
		f.gateway.ParseWebhookFn = successWebhook("evp_early")

		// Client polls while the voter is still checking out.
		payment, err := f.reconciler.VerifyPayment(ctx, "evp_early")
		require.NoError(t, err)
		require.Equal(t, domain.StatusPending, payment.Status)

		// The charge completes and the gateway pushes the confirmation.
		require.NoError(t, f.reconciler.HandleWebhook(ctx, []byte(`{}`), "sig"))

		stored := f.payments.Get("evp_early")
		assert.Equal(t, domain.StatusSuccess, stored.Status)
		assert.Equal(t, 1, f.caster.CallCount())
	})

	t.Run("terminal payment short-circuits without a gateway call", func(t *testing.T) {
		f := newReconcilerFixture()
		f.seedPending(t, "evp_done")

		_, err := f.reconciler.VerifyPayment(ctx, "evp_done")
		require.NoError(t, err)
		require.Equal(t, 1, f.gateway.VerifyCalls)

		payment, err := f.reconciler.VerifyPayment(ctx, "evp_done")
		require.NoError(t, err)

		assert.Equal(t, domain.StatusSuccess, payment.Status)
		assert.Equal(t, 1, f.gateway.VerifyCalls, "no second verify for a terminal payment")
		assert.Equal(t, 1, f.caster.CallCount())
	})

	t.Run("webhook then poll casts votes once", func(t *testing.T) {
		f := newReconcilerFixture()
		f.seedPending(t, "evp_race")
		f.gateway.ParseWebhookFn = successWebhook("evp_race")

		require.NoError(t, f.reconciler.HandleWebhook(ctx, []byte(`{}`), "sig"))

		payment, err := f.reconciler.VerifyPayment(ctx, "evp_race")
		require.NoError(t, err)

		assert.Equal(t, domain.StatusSuccess, payment.Status)
		assert.Equal(t, 1, f.caster.CallCount())
	})

	t.Run("gateway outage returns the pending record with the error", func(t *testing.T) {
		f := newReconcilerFixture()
		f.seedPending(t, "evp_outage")
		f.gateway.VerifyFn = func(ctx context.Context, reference string) (*application.VerifyResult, error) {
			return nil, errors.New("connection refused")
		}

		payment, err := f.reconciler.VerifyPayment(ctx, "evp_outage")
		requireServiceError(t, err, application.ErrCodeGateway)

		require.NotNil(t, payment)
		assert.Equal(t, domain.StatusPending, payment.Status)
	})

	t.Run("unknown reference is not found", func(t *testing.T) {
		f := newReconcilerFixture()

		_, err := f.reconciler.VerifyPayment(ctx, "evp_ghost")
		requireServiceError(t, err, application.ErrCodeNotFound)
	})
}

func TestReconciler_VoteCastFailure(t *testing.T) {
	ctx := context.Background()

	f := newReconcilerFixture()
	f.seedPending(t, "evp_castfail")
	f.caster.CastVotesFn = func(ctx context.Context, req application.CastVotesRequest) error {
		return errors.New("voting window closed")
	}

	payment, err := f.reconciler.VerifyPayment(ctx, "evp_castfail")
	require.NoError(t, err)

	// Money was captured: the success stands, the failure is recorded for
	// manual follow-up.
	assert.Equal(t, domain.StatusSuccess, payment.Status)
	assert.Equal(t, "voting window closed", payment.Metadata.VoteCastError)

	stored := f.payments.Get("evp_castfail")
	assert.Equal(t, "voting window closed", stored.Metadata.VoteCastError)
	assert.Equal(t, domain.StatusSuccess, stored.Status)
}

func TestReconciler_VoteCastFailure_UnrecordedAnnotationNotReported(t *testing.T) {
	ctx := context.Background()

	f := newReconcilerFixture()
	f.seedPending(t, "evp_recfail")
	f.caster.CastVotesFn = func(ctx context.Context, req application.CastVotesRequest) error {
		return errors.New("voting window closed")
	}
	f.payments.RecordVoteCastErrorFn = func(ctx context.Context, reference, message string) error {
		return errors.New("connection reset")
	}

	payment, err := f.reconciler.VerifyPayment(ctx, "evp_recfail")
	require.NoError(t, err)

	// The store never accepted the annotation, so the returned projection
	// must not claim it either.
	assert.Equal(t, domain.StatusSuccess, payment.Status)
	assert.Empty(t, payment.Metadata.VoteCastError)
	assert.Empty(t, f.payments.Get("evp_recfail").Metadata.VoteCastError)
}
