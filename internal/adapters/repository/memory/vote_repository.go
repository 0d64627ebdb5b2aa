package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/predixarena/internal/core/domain"
	"github.com/vncsmyrnk/predixarena/internal/core/ports"
)

type voteRepository struct {
	s *Store
}

func (r *voteRepository) GetActive(_ context.Context, eventID uuid.UUID, voterID string) (*domain.Vote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	v, ok := r.s.votes[voteKey{eventID, voterID}]
	if !ok {
		return nil, nil
	}
	return cloneVote(v), nil
}

func (r *voteRepository) ListByVoter(_ context.Context, voterID string) ([]*domain.Vote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var votes []*domain.Vote
	for k, v := range r.s.votes {
		if k.voterID == voterID {
			votes = append(votes, cloneVote(v))
		}
	}
	sort.Slice(votes, func(i, j int) bool {
		return votes[i].UpdatedAt.After(votes[j].UpdatedAt)
	})
	return votes, nil
}

func (r *voteRepository) CountActive(_ context.Context, eventID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for k := range r.s.votes {
		if k.eventID == eventID {
			n++
		}
	}
	return n, nil
}

func (r *voteRepository) Cast(_ context.Context, eventID uuid.UUID, voter domain.Voter, decide ports.BallotDecider) (*ports.CastOutcome, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	event, ok := r.s.events[eventID]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	key := voteKey{eventID, voter.ID}
	current := r.s.votes[key]

	var currentCopy *domain.Vote
	if current != nil {
		currentCopy = cloneVote(current)
	}
	index, err := decide(event.Clone(), currentCopy)
	if err != nil {
		return nil, err
	}

	now := r.s.clock.Now().UTC()
	out := &ports.CastOutcome{}
	switch {
	case current == nil:
		current = &domain.Vote{
			ID:           uuid.New(),
			EventID:      eventID,
			VoterID:      voter.ID,
			UserID:       voter.UserID,
			OutcomeIndex: index,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		r.s.votes[key] = current
		event.Outcomes[index].Votes++
		out.Result = domain.CastCreated
	case current.OutcomeIndex == index:
		prev := current.OutcomeIndex
		out.Previous = &prev
		out.Result = domain.CastUnchanged
	default:
		prev := current.OutcomeIndex
		event.Outcomes[prev].Votes--
		event.Outcomes[index].Votes++
		current.OutcomeIndex = index
		current.UpdatedAt = now
		out.Previous = &prev
		out.Result = domain.CastChanged
	}

	out.Event = event.Clone()
	out.Vote = cloneVote(current)
	return out, nil
}

func cloneVote(v *domain.Vote) *domain.Vote {
	c := *v
	return &c
}
