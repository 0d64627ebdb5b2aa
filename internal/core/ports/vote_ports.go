package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/predixarena/internal/core/domain"
)

// BallotDecider inspects the event and the voter's current vote, both read
// under lock, and returns the outcome index the vote must end up on.
type BallotDecider func(event *domain.Event, current *domain.Vote) (int, error)

type CastOutcome struct {
	Event    *domain.Event
	Vote     *domain.Vote
	Previous *int
	Result   domain.CastResult
}

type VoteRepository interface {
	// GetActive returns nil, nil when the voter has not voted on the event.
	GetActive(ctx context.Context, eventID uuid.UUID, voterID string) (*domain.Vote, error)
	ListByVoter(ctx context.Context, voterID string) ([]*domain.Vote, error)
	CountActive(ctx context.Context, eventID uuid.UUID) (int64, error)
	// Cast applies a ballot atomically: the event is share-locked, the voter's
	// vote row is exclusively locked, and the vote row plus the counters are
	// written in the same transaction.
	Cast(ctx context.Context, eventID uuid.UUID, voter domain.Voter, decide BallotDecider) (*CastOutcome, error)
}

type OutcomeChoice struct {
	Index *int
	Label string
}

type VoteService interface {
	GetActiveVote(ctx context.Context, voter domain.Voter, eventID uuid.UUID) (*domain.Vote, error)
	CastVote(ctx context.Context, voter domain.Voter, eventID uuid.UUID, choice OutcomeChoice) (*domain.VoteReceipt, error)
	ListMyVotes(ctx context.Context, voter domain.Voter) ([]*domain.Vote, error)
}
