package voting_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/itfy/evoting-backend/internal/application"
	"github.com/itfy/evoting-backend/internal/domain"
	"github.com/itfy/evoting-backend/internal/infrastructure/voting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVoteStore struct {
	created []*domain.Vote
	err     error
}

func (s *stubVoteStore) Create(ctx context.Context, vote *domain.Vote) error {
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, vote)
	return nil
}

type stubEventStore struct {
	event *domain.Event
	err   error
}

func (s *stubEventStore) FindByID(ctx context.Context, id string) (*domain.Event, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.event, nil
}

func openEvent() *domain.Event {
	return &domain.Event{
		ID:        "event-1",
		Name:      "Awards Night",
		StartDate: time.Now().Add(-24 * time.Hour),
		EndDate:   time.Now().Add(24 * time.Hour),
	}
}

func casterLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

func defaultRequest() application.CastVotesRequest {
	return application.CastVotesRequest{
		CandidateID:      "candidate-1",
		CategoryID:       "category-1",
		EventID:          "event-1",
		Votes:            20,
		VoterIP:          "203.0.113.10",
		PaymentReference: "evp_test",
	}
}

func TestCaster_CastVotes(t *testing.T) {
	ctx := context.Background()

	t.Run("records a vote row inside the window", func(t *testing.T) {
		votes := &stubVoteStore{}
		caster := voting.NewCaster(votes, &stubEventStore{event: openEvent()}, casterLogger())

		err := caster.CastVotes(ctx, defaultRequest())
		require.NoError(t, err)

		require.Len(t, votes.created, 1)
		vote := votes.created[0]
		assert.Equal(t, "candidate-1", vote.CandidateID)
		assert.Equal(t, 20, vote.NumberOfVotes)
		assert.Equal(t, "evp_test", vote.PaymentReference)
	})

	t.Run("rejects a closed voting window", func(t *testing.T) {
		closed := &domain.Event{
			ID:        "event-1",
			StartDate: time.Now().Add(-48 * time.Hour),
			EndDate:   time.Now().Add(-24 * time.Hour),
		}
		votes := &stubVoteStore{}
		caster := voting.NewCaster(votes, &stubEventStore{event: closed}, casterLogger())

		err := caster.CastVotes(ctx, defaultRequest())
		require.ErrorIs(t, err, domain.ErrVotingClosed)
		assert.Empty(t, votes.created)
	})

	t.Run("rejects non-positive vote counts", func(t *testing.T) {
		caster := voting.NewCaster(&stubVoteStore{}, &stubEventStore{event: openEvent()}, casterLogger())

		req := defaultRequest()
		req.Votes = 0
		require.Error(t, caster.CastVotes(ctx, req))
	})

	t.Run("surfaces unknown events", func(t *testing.T) {
		caster := voting.NewCaster(&stubVoteStore{}, &stubEventStore{err: domain.ErrEventNotFound}, casterLogger())

		err := caster.CastVotes(ctx, defaultRequest())
		require.ErrorIs(t, err, domain.ErrEventNotFound)
	})

	t.Run("surfaces store failures", func(t *testing.T) {
		caster := voting.NewCaster(&stubVoteStore{err: errors.New("insert failed")}, &stubEventStore{event: openEvent()}, casterLogger())

		err := caster.CastVotes(ctx, defaultRequest())
		require.Error(t, err)
	})
}
