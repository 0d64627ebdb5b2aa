package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/vncsmyrnk/predixarena/internal/core/domain"
	"github.com/vncsmyrnk/predixarena/internal/core/ports"
)

type voteService struct {
	eventRepo ports.EventRepository
	voteRepo  ports.VoteRepository
	clock     clock.Clock
	metrics   ports.Metrics
}

func NewVoteService(eventRepo ports.EventRepository, voteRepo ports.VoteRepository, clk clock.Clock, metrics ports.Metrics) ports.VoteService {
	if clk == nil {
		clk = clock.WallClock
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &voteService{
		eventRepo: eventRepo,
		voteRepo:  voteRepo,
		clock:     clk,
		metrics:   metrics,
	}
}

// GetActiveVote returns nil, nil when the voter has not voted, including a
// voter with no identity at all. Events that are not approved hold no votes
// and are reported as not found, as they are to the public.
func (s *voteService) GetActiveVote(ctx context.Context, voter domain.Voter, eventID uuid.UUID) (*domain.Vote, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.Status != domain.StatusApproved {
		return nil, domain.ErrEventNotFound
	}
	if !voter.Valid() {
		return nil, nil
	}
	return s.voteRepo.GetActive(ctx, eventID, voter.ID)
}

// CastVote records the voter's choice. The previous choice, if any, is always
// read from storage inside the same transaction that moves the counters.
func (s *voteService) CastVote(ctx context.Context, voter domain.Voter, eventID uuid.UUID, choice ports.OutcomeChoice) (*domain.VoteReceipt, error) {
	if !voter.Valid() {
		return nil, domain.ErrUnauthenticated
	}

	now := s.clock.Now()
	out, err := s.voteRepo.Cast(ctx, eventID, voter, func(event *domain.Event, _ *domain.Vote) (int, error) {
		if event.Status != domain.StatusApproved {
			return 0, domain.ErrEventNotApproved
		}
		if !event.VotingOpen(now) {
			return 0, domain.ErrVotingClosed
		}
		index, ok := event.ResolveOutcome(choice.Index, choice.Label)
		if !ok {
			return 0, domain.ErrInvalidOutcome
		}
		return index, nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.VoteCast(out.Result)

	return &domain.VoteReceipt{
		EventID:  out.Event.ID,
		Choice:   out.Event.Outcomes[out.Vote.OutcomeIndex],
		Previous: out.Previous,
		Result:   out.Result,
		Tally:    out.Event.Tally(),
	}, nil
}

func (s *voteService) ListMyVotes(ctx context.Context, voter domain.Voter) ([]*domain.Vote, error) {
	if !voter.Valid() {
		return nil, domain.ErrUnauthenticated
	}
	return s.voteRepo.ListByVoter(ctx, voter.ID)
}
