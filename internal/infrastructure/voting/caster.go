// Package voting implements the vote caster collaborator against the
// platform's own vote store.
package voting

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/itfy/evoting-backend/internal/application"
	"github.com/itfy/evoting-backend/internal/domain"
)

type VoteStore interface {
	Create(ctx context.Context, vote *domain.Vote) error
}

type EventStore interface {
	FindByID(ctx context.Context, id string) (*domain.Event, error)
}

// Caster records purchased votes once a payment is confirmed. The voting
// window is re-checked at cast time: a payment can complete after the event
// has closed, and that failure surfaces to the reconciler for review.
type Caster struct {
	votes  VoteStore
	events EventStore
	logger *slog.Logger
	now    func() time.Time
}

func NewCaster(votes VoteStore, events EventStore, logger *slog.Logger) *Caster {
	return &Caster{
		votes:  votes,
		events: events,
		logger: logger,
		now:    time.Now,
	}
}

var _ application.VoteCaster = (*Caster)(nil)

func (c *Caster) CastVotes(ctx context.Context, req application.CastVotesRequest) error {
	if req.Votes <= 0 {
		return fmt.Errorf("vote count must be positive, got %d", req.Votes)
	}

	event, err := c.events.FindByID(ctx, req.EventID)
	if err != nil {
		return fmt.Errorf("load event %s: %w", req.EventID, err)
	}
	if !event.VotingOpen(c.now()) {
		return domain.ErrVotingClosed
	}

	vote := &domain.Vote{
		CandidateID:      req.CandidateID,
		EventID:          req.EventID,
		CategoryID:       req.CategoryID,
		NumberOfVotes:    req.Votes,
		VoterIP:          req.VoterIP,
		PaymentReference: req.PaymentReference,
	}
	if err := c.votes.Create(ctx, vote); err != nil {
		return fmt.Errorf("record votes: %w", err)
	}

	c.logger.Info("votes cast",
		"candidate_id", req.CandidateID,
		"event_id", req.EventID,
		"votes", req.Votes,
		"reference", req.PaymentReference,
	)
	return nil
}
