package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/vncsmyrnk/predixarena/internal/core/domain"
	"github.com/vncsmyrnk/predixarena/internal/core/ports"
	"golang.org/x/sync/errgroup"
)

const reconcileConcurrency = 8

type tallyService struct {
	eventRepo ports.EventRepository
	tallyRepo ports.TallyRepository
	metrics   ports.Metrics
}

func NewTallyService(eventRepo ports.EventRepository, tallyRepo ports.TallyRepository, metrics ports.Metrics) ports.TallyService {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &tallyService{
		eventRepo: eventRepo,
		tallyRepo: tallyRepo,
		metrics:   metrics,
	}
}

// ReconcileAll recounts every event's counters from its vote rows and
// returns every counter that had drifted.
func (s *tallyService) ReconcileAll(ctx context.Context) ([]domain.TallyDrift, error) {
	events, err := s.eventRepo.List(ctx, ports.EventFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch all events: %w", err)
	}

	var (
		mu     sync.Mutex
		drifts []domain.TallyDrift
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reconcileConcurrency)
	for _, event := range events {
		id := event.ID
		g.Go(func() error {
			found, err := s.tallyRepo.Reconcile(gctx, id)
			if err != nil {
				return fmt.Errorf("failed to reconcile event %s: %w", id, err)
			}
			if len(found) > 0 {
				mu.Lock()
				drifts = append(drifts, found...)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.metrics.TallyDrift(len(drifts))
	return drifts, nil
}
