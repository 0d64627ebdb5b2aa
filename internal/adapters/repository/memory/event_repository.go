package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/predixarena/internal/core/domain"
	"github.com/vncsmyrnk/predixarena/internal/core/ports"
)

type eventRepository struct {
	s *Store
}

func (r *eventRepository) Create(_ context.Context, event *domain.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.duplicateTitle(event) {
		return domain.ErrDuplicateEvent
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	r.s.events[event.ID] = event.Clone()
	return nil
}

func (r *eventRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	event, ok := r.s.events[id]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	return event.Clone(), nil
}

func (r *eventRepository) List(_ context.Context, filter ports.EventFilter) ([]*domain.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	events := make([]*domain.Event, 0, len(r.s.events))
	for _, e := range r.s.events {
		if filter.Status != nil && e.Status != *filter.Status {
			continue
		}
		if filter.CreatedBy != nil && e.CreatedBy != *filter.CreatedBy {
			continue
		}
		if filter.OpenAfter != nil && !e.ResolutionDateTime.After(*filter.OpenAfter) {
			continue
		}
		events = append(events, e.Clone())
	}

	sort.Slice(events, func(i, j int) bool {
		if events[i].CreatedAt.Equal(events[j].CreatedAt) {
			return events[i].ID.String() > events[j].ID.String()
		}
		return events[i].CreatedAt.After(events[j].CreatedAt)
	})
	return events, nil
}

func (r *eventRepository) Mutate(_ context.Context, id uuid.UUID, fn ports.EventMutator) (*domain.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.events[id]
	if !ok {
		return nil, domain.ErrEventNotFound
	}

	working := stored.Clone()
	changed, err := fn(working)
	if err != nil {
		return nil, err
	}
	if !changed {
		return stored.Clone(), nil
	}
	if r.s.duplicateTitle(working) {
		return nil, domain.ErrDuplicateEvent
	}

	carryCounts(stored, working)
	r.s.events[id] = working
	return working.Clone(), nil
}

// carryCounts keeps the stored counter of every position that still exists.
// Counters only move through Cast.
func carryCounts(from, to *domain.Event) {
	for i := range to.Outcomes {
		to.Outcomes[i].Index = i
		to.Outcomes[i].Votes = 0
		if i < len(from.Outcomes) {
			to.Outcomes[i].Votes = from.Outcomes[i].Votes
		}
	}
}
