package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/predixarena/internal/core/domain"
)

type tallyRepository struct {
	s *Store
}

func (r *tallyRepository) Reconcile(_ context.Context, eventID uuid.UUID) ([]domain.TallyDrift, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	event, ok := r.s.events[eventID]
	if !ok {
		return nil, domain.ErrEventNotFound
	}

	counted := make([]int64, len(event.Outcomes))
	for k, v := range r.s.votes {
		if k.eventID == eventID && v.OutcomeIndex < len(counted) {
			counted[v.OutcomeIndex]++
		}
	}

	var drifts []domain.TallyDrift
	for i := range event.Outcomes {
		if event.Outcomes[i].Votes == counted[i] {
			continue
		}
		drifts = append(drifts, domain.TallyDrift{
			EventID:      eventID,
			OutcomeIndex: i,
			Stored:       event.Outcomes[i].Votes,
			Counted:      counted[i],
		})
		event.Outcomes[i].Votes = counted[i]
	}
	return drifts, nil
}

// SetCount overwrites a stored counter. It exists so tests can simulate
// drift; nothing in the service path calls it.
func (s *Store) SetCount(eventID uuid.UUID, index int, votes int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.events[eventID]; ok && index < len(e.Outcomes) {
		e.Outcomes[index].Votes = votes
	}
}
