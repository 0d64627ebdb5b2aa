package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/predixarena/internal/core/domain"
	"github.com/vncsmyrnk/predixarena/internal/core/ports"
)

func TestReconcileAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	healthy := f.approvedEvent(t, "Healthy counters")
	drifted := f.approvedEvent(t, "Drifted counters")
	for i := 0; i < 3; i++ {
		_, err := f.votes.CastVote(ctx, domain.AnonymousVoter(uuid.New()), healthy.ID, ports.OutcomeChoice{Index: index(0)})
		require.NoError(t, err)
		_, err = f.votes.CastVote(ctx, domain.AnonymousVoter(uuid.New()), drifted.ID, ports.OutcomeChoice{Index: index(1)})
		require.NoError(t, err)
	}

	f.store.SetCount(drifted.ID, 1, 7)

	drifts, err := f.tallies.ReconcileAll(ctx)
	require.NoError(t, err)
	require.Len(t, drifts, 1)
	assert.Equal(t, domain.TallyDrift{EventID: drifted.ID, OutcomeIndex: 1, Stored: 7, Counted: 3}, drifts[0])
	assert.Equal(t, 1, f.metrics.drift)

	assert.Equal(t, []int64{3, 0}, f.counts(t, healthy.ID))
	assert.Equal(t, []int64{0, 3}, f.counts(t, drifted.ID))

	drifts, err = f.tallies.ReconcileAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, drifts)
}
