package worker_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/itfy/evoting-backend/internal/application"
	"github.com/itfy/evoting-backend/internal/application/services"
	"github.com/itfy/evoting-backend/internal/domain"
	"github.com/itfy/evoting-backend/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

func stalePayment(t *testing.T, reference string, age time.Duration) *domain.Payment {
	t.Helper()
	payment, err := domain.NewPayment(
		reference,
		"voter-"+reference+"@example.com", "203.0.113.9", "test-agent",
		"event-1", "category-1", "candidate-1",
		[]domain.BundleSelection{{BundleID: "bundle-1", Quantity: 1, UnitPrice: 5000, UnitVotes: 10}},
		nil,
		"NGN",
		5000, 0,
		10,
	)
	require.NoError(t, err)
	payment.CreatedAt = time.Now().Add(-age)
	return payment
}

func TestVerifyWorker_ResolvesStalePayments(t *testing.T) {
	ctx := context.Background()

	paymentRepo := services.NewMockPaymentRepository()
	gateway := &services.MockGatewayClient{
		VerifyFn: func(ctx context.Context, reference string) (*application.VerifyResult, error) {
			status := application.VerifyStatusFailed
			if reference == "evp_paid" {
				status = application.VerifyStatusSuccess
			}
			return &application.VerifyResult{
				Status:    status,
				Reference: reference,
				Amount:    5000,
				Currency:  "NGN",
			}, nil
		},
	}
	caster := &services.MockVoteCaster{}

	require.NoError(t, paymentRepo.Create(ctx, stalePayment(t, "evp_paid", time.Hour)))
	require.NoError(t, paymentRepo.Create(ctx, stalePayment(t, "evp_abandoned", time.Hour)))

	reconciler := services.NewReconciler(paymentRepo, gateway, caster, testLogger())

	w := worker.NewVerifyWorker(
		paymentRepo,
		reconciler,
		time.Minute,
		30*time.Minute,
		10,
		testLogger(),
	)

	err := w.ProcessStalePayments(ctx)
	require.NoError(t, err)

	paid := paymentRepo.Get("evp_paid")
	require.NotNil(t, paid)
	assert.Equal(t, domain.StatusSuccess, paid.Status)

	abandoned := paymentRepo.Get("evp_abandoned")
	require.NotNil(t, abandoned)
	assert.Equal(t, domain.StatusFailed, abandoned.Status)

	assert.Equal(t, 1, caster.CallCount(), "only the completed charge should cast votes")
}

func TestVerifyWorker_SkipsFreshPendingPayments(t *testing.T) {
	ctx := context.Background()

	paymentRepo := services.NewMockPaymentRepository()
	gateway := &services.MockGatewayClient{}
	caster := &services.MockVoteCaster{}

	require.NoError(t, paymentRepo.Create(ctx, stalePayment(t, "evp_fresh", time.Minute)))

	reconciler := services.NewReconciler(paymentRepo, gateway, caster, testLogger())

	w := worker.NewVerifyWorker(
		paymentRepo,
		reconciler,
		time.Minute,
		30*time.Minute,
		10,
		testLogger(),
	)

	err := w.ProcessStalePayments(ctx)
	require.NoError(t, err)

	fresh := paymentRepo.Get("evp_fresh")
	require.NotNil(t, fresh)
	assert.Equal(t, domain.StatusPending, fresh.Status)
	assert.Equal(t, 0, gateway.VerifyCalls)
}

func TestVerifyWorker_LeavesPendingOnGatewayOutage(t *testing.T) {
	ctx := context.Background()

	paymentRepo := services.NewMockPaymentRepository()
	gateway := &services.MockGatewayClient{
		VerifyFn: func(ctx context.Context, reference string) (*application.VerifyResult, error) {
			return nil, assert.AnError
		},
	}
	caster := &services.MockVoteCaster{}

	require.NoError(t, paymentRepo.Create(ctx, stalePayment(t, "evp_stuck", time.Hour)))

	reconciler := services.NewReconciler(paymentRepo, gateway, caster, testLogger())

	w := worker.NewVerifyWorker(
		paymentRepo,
		reconciler,
		time.Minute,
		30*time.Minute,
		10,
		testLogger(),
	)

	err := w.ProcessStalePayments(ctx)
	require.NoError(t, err)

	stuck := paymentRepo.Get("evp_stuck")
	require.NotNil(t, stuck)
	assert.Equal(t, domain.StatusPending, stuck.Status, "next sweep retries it")
	assert.Equal(t, 0, caster.CallCount())
}
