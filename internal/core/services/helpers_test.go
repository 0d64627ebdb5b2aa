package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/predixarena/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/predixarena/internal/core/domain"
	"github.com/vncsmyrnk/predixarena/internal/core/ports"
	"github.com/vncsmyrnk/predixarena/internal/core/services"
)

var epoch = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	clock   *testclock.Clock
	store   *memory.Store
	metrics *recordingMetrics
	events  ports.EventService
	votes   ports.VoteService
	tallies ports.TallyService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clk := testclock.NewClock(epoch)
	store := memory.NewStore(clk)
	metrics := &recordingMetrics{casts: make(map[domain.CastResult]int)}
	return &fixture{
		clock:   clk,
		store:   store,
		metrics: metrics,
		events:  services.NewEventService(store.Events(), clk, metrics),
		votes:   services.NewVoteService(store.Events(), store.Votes(), clk, metrics),
		tallies: services.NewTallyService(store.Events(), store.Tallies(), metrics),
	}
}

func member() domain.Identity {
	return domain.Identity{UserID: uuid.New(), Email: "member@example.com", Role: domain.RoleGeneral}
}

func admin() domain.Identity {
	return domain.Identity{UserID: uuid.New(), Email: "admin@example.com", Role: domain.RoleAdmin, IsSuperUser: true}
}

func draft(title string, outcomes ...string) ports.EventDraft {
	if len(outcomes) == 0 {
		outcomes = []string{"Yes", "No"}
	}
	return ports.EventDraft{
		Title:              title,
		Description:        "Will it happen before the deadline?",
		Category:           "Crypto",
		Outcomes:           outcomes,
		ResolutionSource:   "https://example.com/source",
		ResolutionDateTime: epoch.Add(48 * time.Hour).Format(time.RFC3339),
	}
}

// approvedEvent creates an event as a member and approves it as an admin.
func (f *fixture) approvedEvent(t *testing.T, title string, outcomes ...string) *domain.Event {
	t.Helper()

	ctx := context.Background()
	event, err := f.events.Create(ctx, member(), draft(title, outcomes...))
	require.NoError(t, err)
	event, err = f.events.SetStatus(ctx, admin(), event.ID, "approved")
	require.NoError(t, err)
	return event
}

func (f *fixture) counts(t *testing.T, id uuid.UUID) []int64 {
	t.Helper()

	event, err := f.events.Get(context.Background(), admin(), id)
	require.NoError(t, err)
	counts := make([]int64, len(event.Outcomes))
	for i, o := range event.Outcomes {
		counts[i] = o.Votes
	}
	return counts
}

func index(i int) *int { return &i }

type recordingMetrics struct {
	mu            sync.Mutex
	created       int
	statusChanges int
	casts         map[domain.CastResult]int
	drift         int
}

func (m *recordingMetrics) EventCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created++
}

func (m *recordingMetrics) EventStatusChanged(domain.EventStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusChanges++
}

func (m *recordingMetrics) VoteCast(result domain.CastResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.casts[result]++
}

func (m *recordingMetrics) TallyDrift(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drift += n
}
