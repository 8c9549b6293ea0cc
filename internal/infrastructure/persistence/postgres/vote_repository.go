package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/itfy/evoting-backend/internal/domain"
	"github.com/google/uuid"
)

// VoteRepository persists cast votes. Each confirmed payment produces one
// vote row keyed by its reference.
type VoteRepository struct {
	db *DB
}

func NewVoteRepository(db *DB) *VoteRepository {
	return &VoteRepository{db: db}
}

func (r *VoteRepository) Create(ctx context.Context, vote *domain.Vote) error {
	if vote.ID == "" {
		vote.ID = uuid.New().String()
	}
	if vote.CreatedAt.IsZero() {
		vote.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO votes (
			id, candidate_id, event_id, category_id,
			number_of_votes, voter_ip, payment_reference, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		vote.ID, vote.CandidateID, vote.EventID, vote.CategoryID,
		vote.NumberOfVotes, vote.VoterIP, vote.PaymentReference, vote.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create vote: %w", err)
	}

	return nil
}

// CountForCandidate sums cast votes for a candidate in an event/category.
func (r *VoteRepository) CountForCandidate(ctx context.Context, candidateID, eventID, categoryID string) (int, error) {
	query := `
		SELECT COALESCE(SUM(number_of_votes), 0)
		FROM votes
		WHERE candidate_id = $1 AND event_id = $2 AND category_id = $3
	`

	var total int
	if err := r.db.Pool.QueryRow(ctx, query, candidateID, eventID, categoryID).Scan(&total); err != nil {
		return 0, fmt.Errorf("count votes for candidate: %w", err)
	}
	return total, nil
}
