package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/predixarena/internal/core/domain"
)

type EventFilter struct {
	Status    *domain.EventStatus
	CreatedBy *uuid.UUID
	// OpenAfter keeps only events whose resolution time is after the instant.
	OpenAfter *time.Time
}

// EventMutator edits a locked event in place and reports whether it changed.
type EventMutator func(event *domain.Event) (changed bool, err error)

type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error)
	List(ctx context.Context, filter EventFilter) ([]*domain.Event, error)
	// Mutate runs fn while holding an exclusive lock on the event and persists
	// the result when fn reports a change. An error from fn aborts without
	// writing anything.
	Mutate(ctx context.Context, id uuid.UUID, fn EventMutator) (*domain.Event, error)
}

type EventDraft struct {
	Title              string
	Description        string
	Category           string
	Outcomes           []string
	ResolutionSource   string
	ResolutionDateTime string
}

type ListEventsInput struct {
	Status string
}

type EventService interface {
	Create(ctx context.Context, caller domain.Identity, draft EventDraft) (*domain.Event, error)
	Get(ctx context.Context, caller domain.Identity, id uuid.UUID) (*domain.Event, error)
	List(ctx context.Context, caller domain.Identity, input ListEventsInput) ([]*domain.Event, error)
	ListVotable(ctx context.Context) ([]*domain.Event, error)
	Update(ctx context.Context, caller domain.Identity, id uuid.UUID, draft EventDraft) (*domain.Event, error)
	SetStatus(ctx context.Context, caller domain.Identity, id uuid.UUID, status string) (*domain.Event, error)
}
