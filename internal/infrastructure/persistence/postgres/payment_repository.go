package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/itfy/evoting-backend/internal/application"
	"github.com/itfy/evoting-backend/internal/domain"
	"github.com/jackc/pgx/v5"
)

const paymentColumns = `
	reference, status, voter_email, voter_ip, user_agent,
	event_id, category_id, candidate_id,
	vote_bundles, applied_coupons,
	currency, original_amount, discount_amount, final_amount, votes_remaining,
	gateway_data, metadata,
	created_at, updated_at, paid_at
`

type PaymentRepository struct {
	db *DB
}

func NewPaymentRepository(db *DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

var _ application.PaymentRepository = (*PaymentRepository)(nil)

func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	m, err := toDBModel(payment)
	if err != nil {
		return err
	}

	_, err = r.db.Pool.Exec(ctx, query,
		m.Reference, m.Status, m.VoterEmail, m.VoterIP, m.UserAgent,
		m.EventID, m.CategoryID, m.CandidateID,
		m.VoteBundles, m.AppliedCoupons,
		m.Currency, m.OriginalAmount, m.DiscountAmount, m.FinalAmount, m.VotesRemaining,
		m.GatewayData, m.Metadata,
		m.CreatedAt, m.UpdatedAt, m.PaidAt,
	)
	if err != nil {
		// The partial unique index on (voter_email, event_id, category_id)
		// WHERE status = 'PENDING' makes the insert itself the duplicate
		// check, so two racing initializes cannot both create a charge.
		if IsUniqueViolation(err) {
			return application.NewDuplicatePendingError(payment.Reference)
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

func (r *PaymentRepository) FindByReference(ctx context.Context, reference string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE reference = $1`

	row := r.db.Pool.QueryRow(ctx, query, reference)
	return scanPayment(row)
}

// FindActivePending locates an un-expired pending payment for a voter on an
// event/category pair. Pendings created before the cutoff are treated as
// expired and ignored, never deleted.
func (r *PaymentRepository) FindActivePending(ctx context.Context, voterEmail, eventID, categoryID string, createdAfter time.Time) (*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE voter_email = $1
		  AND event_id = $2
		  AND category_id = $3
		  AND status = 'PENDING'
		  AND created_at > $4
		ORDER BY created_at DESC
		LIMIT 1
	`

	row := r.db.Pool.QueryRow(ctx, query, voterEmail, eventID, categoryID, createdAfter)
	return scanPayment(row)
}

// UpdateStatusIfPending is the pipeline's sole serialization point: a single
// conditional statement that only applies while the stored status is still
// PENDING. Concurrent webhook and poll deliveries race on this row; exactly
// one of them gets transitioned=true.
func (r *PaymentRepository) UpdateStatusIfPending(
	ctx context.Context,
	reference string,
	target domain.PaymentStatus,
	paidAt *time.Time,
	gatewayData map[string]any,
) (*domain.Payment, bool, error) {
	query := `
		UPDATE payments
		SET status = $2,
		    paid_at = COALESCE($3, paid_at),
		    gateway_data = gateway_data || $4::jsonb,
		    updated_at = now()
		WHERE reference = $1 AND status = 'PENDING'
		RETURNING ` + paymentColumns

	dataJSON, err := json.Marshal(gatewayData)
	if err != nil {
		return nil, false, fmt.Errorf("encode gateway_data: %w", err)
	}

	row := r.db.Pool.QueryRow(ctx, query, reference, string(target), paidAt, dataJSON)
	payment, err := scanPayment(row)
	if err == nil {
		return payment, true, nil
	}
	if !errors.Is(err, domain.ErrPaymentNotFound) {
		return nil, false, err
	}

	// No row matched: either the payment is already terminal or it never
	// existed. Return the stored record unchanged in the former case.
	existing, err := r.FindByReference(ctx, reference)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// MergeGatewayData appends gateway metadata without touching status.
func (r *PaymentRepository) MergeGatewayData(ctx context.Context, reference string, gatewayData map[string]any) error {
	dataJSON, err := json.Marshal(gatewayData)
	if err != nil {
		return fmt.Errorf("encode gateway_data: %w", err)
	}

	query := `
		UPDATE payments
		SET gateway_data = gateway_data || $2::jsonb, updated_at = now()
		WHERE reference = $1
	`
	tag, err := r.db.Pool.Exec(ctx, query, reference, dataJSON)
	if err != nil {
		return fmt.Errorf("failed to merge gateway data: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPaymentNotFound
	}
	return nil
}

func (r *PaymentRepository) RecordVoteCastError(ctx context.Context, reference, message string) error {
	query := `
		UPDATE payments
		SET metadata = metadata || jsonb_build_object('vote_cast_error', $2::text),
		    updated_at = now()
		WHERE reference = $1
	`
	_, err := r.db.Pool.Exec(ctx, query, reference, message)
	if err != nil {
		return fmt.Errorf("failed to record vote cast error: %w", err)
	}
	return nil
}

func (r *PaymentRepository) MarkVotesCast(ctx context.Context, reference string) error {
	query := `UPDATE payments SET votes_remaining = 0, updated_at = now() WHERE reference = $1`
	_, err := r.db.Pool.Exec(ctx, query, reference)
	if err != nil {
		return fmt.Errorf("failed to mark votes cast: %w", err)
	}
	return nil
}

func (r *PaymentRepository) CountRecentByIP(ctx context.Context, ip string, since time.Time) (int, error) {
	query := `SELECT count(*) FROM payments WHERE voter_ip = $1 AND created_at > $2`

	var count int
	if err := r.db.Pool.QueryRow(ctx, query, ip, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("count payments by ip: %w", err)
	}
	return count, nil
}

// FindStalePending returns pendings older than the cutoff for the sweep
// worker to reconcile against the gateway.
func (r *PaymentRepository) FindStalePending(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE status = 'PENDING'
		  AND created_at < $1
		ORDER BY created_at ASC
		LIMIT $2
	`

	rows, err := r.db.Pool.Query(ctx, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("query stale pending payments: %w", err)
	}

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Payment, error) {
		var m PaymentModel
		if err := scanInto(row, &m); err != nil {
			return nil, err
		}
		return toDomainModel(m)
	})
	if err != nil {
		return nil, fmt.Errorf("scan stale pending payments: %w", err)
	}

	return results, nil
}

func scanInto(row pgx.Row, m *PaymentModel) error {
	return row.Scan(
		&m.Reference, &m.Status, &m.VoterEmail, &m.VoterIP, &m.UserAgent,
		&m.EventID, &m.CategoryID, &m.CandidateID,
		&m.VoteBundles, &m.AppliedCoupons,
		&m.Currency, &m.OriginalAmount, &m.DiscountAmount, &m.FinalAmount, &m.VotesRemaining,
		&m.GatewayData, &m.Metadata,
		&m.CreatedAt, &m.UpdatedAt, &m.PaidAt,
	)
}

// scanPayment converts a database row into a domain Payment.
// Returns domain.ErrPaymentNotFound if the row doesn't exist.
func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var m PaymentModel
	if err := scanInto(row, &m); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to scan payment: %w", err)
	}
	return toDomainModel(m)
}
