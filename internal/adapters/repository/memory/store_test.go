package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/predixarena/internal/core/domain"
	"github.com/vncsmyrnk/predixarena/internal/core/ports"
)

func newEvent(title string) *domain.Event {
	now := time.Now().UTC()
	return &domain.Event{
		ID:                 uuid.New(),
		Title:              title,
		Category:           domain.CategorySports,
		Status:             domain.StatusApproved,
		Outcomes:           []domain.Outcome{{Index: 0, Label: "Yes"}, {Index: 1, Label: "No"}},
		ResolutionDateTime: now.Add(time.Hour),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func TestEventRepository_ReturnsCopies(t *testing.T) {
	store := NewStore(nil)
	repo := store.Events()
	ctx := context.Background()

	event := newEvent("Copy semantics")
	require.NoError(t, repo.Create(ctx, event))

	got, err := repo.GetByID(ctx, event.ID)
	require.NoError(t, err)
	got.Outcomes[0].Votes = 99
	got.Title = "changed"

	again, err := repo.GetByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), again.Outcomes[0].Votes)
	assert.Equal(t, "Copy semantics", again.Title)
}

func TestEventRepository_Mutate(t *testing.T) {
	store := NewStore(nil)
	repo := store.Events()
	ctx := context.Background()

	first := newEvent("First")
	second := newEvent("Second")
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	boom := errors.New("boom")
	_, err := repo.Mutate(ctx, first.ID, func(e *domain.Event) (bool, error) {
		e.Title = "Not persisted"
		return true, boom
	})
	require.ErrorIs(t, err, boom)

	_, err = repo.Mutate(ctx, first.ID, func(e *domain.Event) (bool, error) {
		e.Title = "Not persisted either"
		return false, nil
	})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "First", got.Title)

	_, err = repo.Mutate(ctx, first.ID, func(e *domain.Event) (bool, error) {
		e.Title = "SECOND"
		return true, nil
	})
	require.ErrorIs(t, err, domain.ErrDuplicateEvent)

	_, err = repo.Mutate(ctx, uuid.New(), func(*domain.Event) (bool, error) { return true, nil })
	require.ErrorIs(t, err, domain.ErrEventNotFound)
}

func TestVoteRepository_CastDeciderSeesCurrentVote(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	event := newEvent("Decider input")
	require.NoError(t, store.Events().Create(ctx, event))
	voter := domain.AnonymousVoter(uuid.New())

	var seen []*domain.Vote
	decide := func(target int) ports.BallotDecider {
		return func(_ *domain.Event, current *domain.Vote) (int, error) {
			seen = append(seen, current)
			return target, nil
		}
	}

	out, err := store.Votes().Cast(ctx, event.ID, voter, decide(0))
	require.NoError(t, err)
	assert.Equal(t, domain.CastCreated, out.Result)

	out, err = store.Votes().Cast(ctx, event.ID, voter, decide(1))
	require.NoError(t, err)
	assert.Equal(t, domain.CastChanged, out.Result)
	assert.Equal(t, []int64{0, 1}, []int64{out.Event.Outcomes[0].Votes, out.Event.Outcomes[1].Votes})

	require.Len(t, seen, 2)
	assert.Nil(t, seen[0])
	require.NotNil(t, seen[1])
	assert.Equal(t, 0, seen[1].OutcomeIndex)

	rejected := errors.New("rejected")
	_, err = store.Votes().Cast(ctx, event.ID, voter, func(*domain.Event, *domain.Vote) (int, error) {
		return 0, rejected
	})
	require.ErrorIs(t, err, rejected)

	active, err := store.Votes().GetActive(ctx, event.ID, voter.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, active.OutcomeIndex)
}

func TestUserRepository(t *testing.T) {
	store := NewStore(nil)
	repo := store.Users()
	ctx := context.Background()

	user := &domain.User{Email: "x@example.com"}
	require.NoError(t, repo.Create(ctx, user))
	assert.Equal(t, domain.RoleGeneral, user.Role)

	err := repo.Create(ctx, &domain.User{Email: "X@example.com"})
	require.ErrorIs(t, err, domain.ErrEmailTaken)

	got, err := repo.GetByEmail(ctx, "x@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	missing, err := repo.GetByEmail(ctx, "y@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, repo.SoftDelete(ctx, user.ID))
	require.ErrorIs(t, repo.SoftDelete(ctx, user.ID), domain.ErrUserNotFound)
	require.ErrorIs(t, repo.SoftDelete(ctx, uuid.New()), domain.ErrUserNotFound)

	gone, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
	gone, err = repo.GetByEmail(ctx, "x@example.com")
	require.NoError(t, err)
	assert.Nil(t, gone)

	// The address is free again once its owner is deleted.
	require.NoError(t, repo.Create(ctx, &domain.User{Email: "x@example.com"}))
}

func TestAuthRepository_ActiveTokens(t *testing.T) {
	store := NewStore(nil)
	repo := store.Auth()
	ctx := context.Background()
	now := time.Now().UTC()

	token := &domain.RefreshToken{UserID: uuid.New(), TokenHash: "hash", ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, repo.StoreRefreshToken(ctx, token))
	assert.NotEqual(t, uuid.Nil, token.ID)

	got, err := repo.FindActiveRefreshToken(ctx, "hash", now)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, token.UserID, got.UserID)

	got, err = repo.FindActiveRefreshToken(ctx, "hash", now.Add(time.Hour))
	require.NoError(t, err)
	assert.Nil(t, got, "expired at the expiry instant")

	require.NoError(t, repo.RevokeRefreshToken(ctx, "hash"))
	require.NoError(t, repo.RevokeRefreshToken(ctx, "unknown"))
	got, err = repo.FindActiveRefreshToken(ctx, "hash", now)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAuthRepository_RevokeUserTokens(t *testing.T) {
	store := NewStore(nil)
	repo := store.Auth()
	ctx := context.Background()
	now := time.Now().UTC()

	owner, other := uuid.New(), uuid.New()
	for _, tok := range []*domain.RefreshToken{
		{UserID: owner, TokenHash: "a", ExpiresAt: now.Add(time.Hour)},
		{UserID: owner, TokenHash: "b", ExpiresAt: now.Add(time.Hour)},
		{UserID: other, TokenHash: "c", ExpiresAt: now.Add(time.Hour)},
	} {
		require.NoError(t, repo.StoreRefreshToken(ctx, tok))
	}

	require.NoError(t, repo.RevokeUserRefreshTokens(ctx, owner))

	for _, hash := range []string{"a", "b"} {
		got, err := repo.FindActiveRefreshToken(ctx, hash, now)
		require.NoError(t, err)
		assert.Nil(t, got, hash)
	}
	got, err := repo.FindActiveRefreshToken(ctx, "c", now)
	require.NoError(t, err)
	assert.NotNil(t, got)
}
