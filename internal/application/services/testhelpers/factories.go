package testhelpers

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/itfy/evoting-backend/internal/application/services"
	"github.com/itfy/evoting-backend/internal/domain"
	"github.com/itfy/evoting-backend/internal/infrastructure/persistence/postgres"
	"github.com/stretchr/testify/require"
)

// DefaultInitializeCommand returns a valid purchase command for testing.
func DefaultInitializeCommand() services.InitializeCommand {
	return services.InitializeCommand{
		Email:       "voter-" + uuid.New().String()[:8] + "@example.com",
		Bundles:     []services.BundleInput{{BundleID: "bundle-basic", Quantity: 1}},
		EventID:     "event-1",
		CategoryID:  "category-1",
		CandidateID: "candidate-1",
		CallbackURL: "https://votes.example.com/callback",
		VoterIP:     "203.0.113.10",
		UserAgent:   "test-agent",
	}
}

// SeedCatalog inserts the bundles, coupons and event the default command
// refers to.
func SeedCatalog(t *testing.T, ctx context.Context, db *postgres.DB) {
	t.Helper()

	_, err := db.Pool.Exec(ctx, `
		INSERT INTO vote_bundles (id, name, price, votes, active)
		VALUES
			('bundle-basic', 'Basic', 5000, 10, TRUE),
			('bundle-mega', 'Mega', 20000, 50, TRUE),
			('bundle-retired', 'Retired', 1000, 2, FALSE)
	`)
	require.NoError(t, err)

	_, err = db.Pool.Exec(ctx, `
		INSERT INTO coupons (code, discount_type, discount_value, active, max_uses)
		VALUES
			('SAVE20', 'percentage', 20, TRUE, 0),
			('FLAT500', 'fixed', 500, TRUE, 0)
	`)
	require.NoError(t, err)

	_, err = db.Pool.Exec(ctx, `
		INSERT INTO events (id, name, start_date, end_date)
		VALUES ('event-1', 'Awards Night', now() - interval '1 day', now() + interval '30 days')
	`)
	require.NoError(t, err)
}

// CreatePendingPayment persists a fresh pending payment directly through the
// repository.
func CreatePendingPayment(t *testing.T, ctx context.Context, repo *postgres.PaymentRepository, reference string, createdAt time.Time) *domain.Payment {
	t.Helper()

	payment, err := domain.NewPayment(
		reference,
		"voter-"+reference+"@example.com", "203.0.113.10", "test-agent",
		"event-1", "category-1", "candidate-1",
		[]domain.BundleSelection{{BundleID: "bundle-basic", Quantity: 1, UnitPrice: 5000, UnitVotes: 10}},
		nil,
		"NGN",
		5000, 0,
		10,
	)
	require.NoError(t, err)
	payment.CreatedAt = createdAt
	payment.UpdatedAt = createdAt

	require.NoError(t, repo.Create(ctx, payment))
	return payment
}
