package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/predixarena/internal/core/domain"
)

type TallyRepository interface {
	// Reconcile recounts the event's counters from its vote rows, overwrites
	// any that disagree and returns the differences found.
	Reconcile(ctx context.Context, eventID uuid.UUID) ([]domain.TallyDrift, error)
}

type TallyService interface {
	ReconcileAll(ctx context.Context) ([]domain.TallyDrift, error)
}
