package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/predixarena/internal/core/domain"
	"github.com/vncsmyrnk/predixarena/internal/core/ports"
)

func TestCreateEvent(t *testing.T) {
	f := newFixture(t)
	owner := member()

	event, err := f.events.Create(context.Background(), owner, ports.EventDraft{
		Title:              "  Will it rain in Lisbon?  ",
		Description:        "Measured at the airport.",
		Category:           "science",
		Outcomes:           []string{"Yes", "No"},
		ResolutionSource:   "https://weather.example.com",
		ResolutionDateTime: "2026-03-05T10:30",
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, "Will it rain in Lisbon?", event.Title)
	assert.Equal(t, domain.CategoryScience, event.Category)
	assert.Equal(t, domain.StatusPending, event.Status)
	assert.Equal(t, owner.UserID, event.CreatedBy)
	assert.Equal(t, epoch, event.CreatedAt)
	assert.Equal(t, time.Date(2026, time.March, 5, 10, 30, 0, 0, time.UTC), event.ResolutionDateTime)
	require.Len(t, event.Outcomes, 2)
	assert.Equal(t, domain.Outcome{Index: 1, Label: "No"}, event.Outcomes[1])
	assert.Equal(t, 1, f.metrics.created)
}

func TestCreateEvent_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *ports.EventDraft)
		field  string
	}{
		{"missing title", func(d *ports.EventDraft) { d.Title = " " }, "title"},
		{"long title", func(d *ports.EventDraft) { d.Title = strings.Repeat("x", 201) }, "title"},
		{"missing description", func(d *ports.EventDraft) { d.Description = "" }, "description"},
		{"unknown category", func(d *ports.EventDraft) { d.Category = "Weather" }, "category"},
		{"single outcome", func(d *ports.EventDraft) { d.Outcomes = []string{"Yes"} }, "outcomes"},
		{"too many outcomes", func(d *ports.EventDraft) { d.Outcomes = strings.Split("a b c d e f g h i j k", " ") }, "outcomes"},
		{"blank outcome", func(d *ports.EventDraft) { d.Outcomes = []string{"Yes", " "} }, "outcomes"},
		{"duplicate outcomes", func(d *ports.EventDraft) { d.Outcomes = []string{"Yes", "yes"} }, "outcomes"},
		{"relative source", func(d *ports.EventDraft) { d.ResolutionSource = "/news" }, "resolution_source"},
		{"ftp source", func(d *ports.EventDraft) { d.ResolutionSource = "ftp://example.com" }, "resolution_source"},
		{"bad date", func(d *ports.EventDraft) { d.ResolutionDateTime = "tomorrow" }, "resolution_date_time"},
		{"past date", func(d *ports.EventDraft) { d.ResolutionDateTime = epoch.Add(-time.Hour).Format(time.RFC3339) }, "resolution_date_time"},
		{"date equal to now", func(d *ports.EventDraft) { d.ResolutionDateTime = epoch.Format(time.RFC3339) }, "resolution_date_time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			d := draft("Valid title")
			tt.mutate(&d)

			_, err := f.events.Create(context.Background(), member(), d)
			require.ErrorIs(t, err, domain.ErrValidation)

			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Contains(t, verr.Fields, tt.field)
			assert.Len(t, verr.Fields, 1)
		})
	}
}

func TestCreateEvent_ReportsEveryField(t *testing.T) {
	f := newFixture(t)

	_, err := f.events.Create(context.Background(), member(), ports.EventDraft{})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Fields, 6)
}

func TestCreateEvent_RequiresLogin(t *testing.T) {
	f := newFixture(t)

	_, err := f.events.Create(context.Background(), domain.Identity{}, draft("Anonymous"))
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestCreateEvent_Duplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.events.Create(ctx, member(), draft("Same question"))
	require.NoError(t, err)
	_, err = f.events.Create(ctx, member(), draft("same QUESTION"))
	require.ErrorIs(t, err, domain.ErrDuplicateEvent)
	assert.ErrorIs(t, err, domain.ErrConflict)

	other := draft("Same question")
	other.Category = "Sports"
	_, err = f.events.Create(ctx, member(), other)
	require.NoError(t, err)
}

func TestListEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := member(), member()

	a1, err := f.events.Create(ctx, alice, draft("Alice one"))
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	a2, err := f.events.Create(ctx, alice, draft("Alice two"))
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	b1, err := f.events.Create(ctx, bob, draft("Bob one"))
	require.NoError(t, err)
	_, err = f.events.SetStatus(ctx, admin(), a1.ID, "approved")
	require.NoError(t, err)

	t.Run("admin sees everything newest first", func(t *testing.T) {
		events, err := f.events.List(ctx, admin(), ports.ListEventsInput{})
		require.NoError(t, err)
		require.Len(t, events, 3)
		assert.Equal(t, b1.ID, events[0].ID)
		assert.Equal(t, a2.ID, events[1].ID)
		assert.Equal(t, a1.ID, events[2].ID)
	})

	t.Run("admin filters by status", func(t *testing.T) {
		events, err := f.events.List(ctx, admin(), ports.ListEventsInput{Status: "PENDING"})
		require.NoError(t, err)
		assert.Len(t, events, 2)
	})

	t.Run("member sees own events", func(t *testing.T) {
		events, err := f.events.List(ctx, alice, ports.ListEventsInput{})
		require.NoError(t, err)
		assert.Len(t, events, 2)

		events, err = f.events.List(ctx, bob, ports.ListEventsInput{Status: "approved"})
		require.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("anonymous sees approved only", func(t *testing.T) {
		events, err := f.events.List(ctx, domain.Identity{}, ports.ListEventsInput{Status: "approved"})
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, a1.ID, events[0].ID)

		_, err = f.events.List(ctx, domain.Identity{}, ports.ListEventsInput{})
		require.ErrorIs(t, err, domain.ErrUnauthenticated)
	})

	t.Run("invalid status", func(t *testing.T) {
		_, err := f.events.List(ctx, admin(), ports.ListEventsInput{Status: "closed"})
		require.ErrorIs(t, err, domain.ErrInvalidStatus)
	})
}

func TestListVotable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	soon := draft("Closes soon")
	soon.ResolutionDateTime = epoch.Add(time.Hour).Format(time.RFC3339)
	short, err := f.events.Create(ctx, member(), soon)
	require.NoError(t, err)
	_, err = f.events.SetStatus(ctx, admin(), short.ID, "approved")
	require.NoError(t, err)

	long := f.approvedEvent(t, "Closes later")
	_, err = f.events.Create(ctx, member(), draft("Never approved"))
	require.NoError(t, err)

	events, err := f.events.ListVotable(ctx)
	require.NoError(t, err)
	assert.Len(t, events, 2)

	f.clock.Advance(2 * time.Hour)
	events, err = f.events.ListVotable(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, long.ID, events[0].ID)
}

func TestGetEvent_Visibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := member()

	event, err := f.events.Create(ctx, owner, draft("Hidden until approved"))
	require.NoError(t, err)

	_, err = f.events.Get(ctx, owner, event.ID)
	require.NoError(t, err)
	_, err = f.events.Get(ctx, admin(), event.ID)
	require.NoError(t, err)
	_, err = f.events.Get(ctx, member(), event.ID)
	require.ErrorIs(t, err, domain.ErrEventNotFound)
	_, err = f.events.Get(ctx, domain.Identity{}, event.ID)
	require.ErrorIs(t, err, domain.ErrEventNotFound)

	_, err = f.events.SetStatus(ctx, admin(), event.ID, "approved")
	require.NoError(t, err)
	_, err = f.events.Get(ctx, domain.Identity{}, event.ID)
	require.NoError(t, err)
}

func TestSetStatus(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		wantErr error
	}{
		{"pending to approved", "", "approved", nil},
		{"pending to rejected", "", "rejected", nil},
		{"approved to approved", "approved", "approved", nil},
		{"approved to rejected", "approved", "rejected", domain.ErrInvalidStatusTransition},
		{"approved to pending", "approved", "pending", domain.ErrInvalidStatusTransition},
		{"rejected to approved", "rejected", "approved", domain.ErrInvalidStatusTransition},
		{"unknown status", "", "archived", domain.ErrInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()

			event, err := f.events.Create(ctx, member(), draft("Status machine"))
			require.NoError(t, err)
			if tt.from != "" {
				_, err = f.events.SetStatus(ctx, admin(), event.ID, tt.from)
				require.NoError(t, err)
			}
			before, err := f.events.Get(ctx, admin(), event.ID)
			require.NoError(t, err)

			f.clock.Advance(time.Minute)
			updated, err := f.events.SetStatus(ctx, admin(), event.ID, tt.to)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, domain.ErrValidation)
				after, err := f.events.Get(ctx, admin(), event.ID)
				require.NoError(t, err)
				assert.Equal(t, before, after)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, domain.EventStatus(tt.to), updated.Status)
			if tt.from == tt.to {
				assert.Equal(t, before.UpdatedAt, updated.UpdatedAt)
			} else {
				assert.Equal(t, epoch.Add(time.Minute), updated.UpdatedAt)
			}
			assert.Equal(t, before.Title, updated.Title)
			assert.Equal(t, before.Outcomes, updated.Outcomes)
		})
	}
}

func TestSetStatus_Authorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := member()

	event, err := f.events.Create(ctx, owner, draft("Only admins decide"))
	require.NoError(t, err)

	_, err = f.events.SetStatus(ctx, owner, event.ID, "approved")
	require.ErrorIs(t, err, domain.ErrAdminRequired)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	ops := member()
	ops.Role = domain.RoleOps
	_, err = f.events.SetStatus(ctx, ops, event.ID, "approved")
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.events.SetStatus(ctx, domain.Identity{}, event.ID, "approved")
	require.ErrorIs(t, err, domain.ErrUnauthenticated)

	stored, err := f.events.Get(ctx, owner, event.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, stored.Status)

	superUser := member()
	superUser.IsSuperUser = true
	_, err = f.events.SetStatus(ctx, superUser, event.ID, "approved")
	require.NoError(t, err)

	_, err = f.events.SetStatus(ctx, admin(), uuid.New(), "approved")
	require.ErrorIs(t, err, domain.ErrEventNotFound)
}

func TestUpdateEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := member()

	event, err := f.events.Create(ctx, owner, draft("First wording"))
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	updated, err := f.events.Update(ctx, owner, event.ID, draft("Second wording", "A", "B", "C"))
	require.NoError(t, err)
	assert.Equal(t, "Second wording", updated.Title)
	assert.Len(t, updated.Outcomes, 3)
	assert.Equal(t, event.CreatedAt, updated.CreatedAt)
	assert.Equal(t, epoch.Add(time.Minute), updated.UpdatedAt)

	_, err = f.events.Update(ctx, member(), event.ID, draft("Hijack"))
	require.ErrorIs(t, err, domain.ErrEventNotFound)

	_, err = f.events.SetStatus(ctx, admin(), event.ID, "approved")
	require.NoError(t, err)

	_, err = f.events.Update(ctx, owner, event.ID, draft("Too late"))
	require.ErrorIs(t, err, domain.ErrEventNotEditable)

	_, err = f.events.Update(ctx, member(), event.ID, draft("Hijack"))
	require.ErrorIs(t, err, domain.ErrNotEventOwner)
}
