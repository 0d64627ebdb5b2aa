// Package memory keeps every repository in process memory. It backs unit
// tests and STORE=memory development runs; a single mutex serialises all
// access, which gives the same atomicity as the Postgres transactions.
package memory

import (
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/vncsmyrnk/predixarena/internal/core/domain"
	"github.com/vncsmyrnk/predixarena/internal/core/ports"
)

type voteKey struct {
	eventID uuid.UUID
	voterID string
}

type Store struct {
	mu     sync.Mutex
	clock  clock.Clock
	events map[uuid.UUID]*domain.Event
	votes  map[voteKey]*domain.Vote
	users  map[uuid.UUID]*domain.User
	tokens map[string]*domain.RefreshToken // by hash
}

func NewStore(clk clock.Clock) *Store {
	if clk == nil {
		clk = clock.WallClock
	}
	return &Store{
		clock:  clk,
		events: make(map[uuid.UUID]*domain.Event),
		votes:  make(map[voteKey]*domain.Vote),
		users:  make(map[uuid.UUID]*domain.User),
		tokens: make(map[string]*domain.RefreshToken),
	}
}

func (s *Store) Events() ports.EventRepository  { return &eventRepository{s} }
func (s *Store) Votes() ports.VoteRepository    { return &voteRepository{s} }
func (s *Store) Tallies() ports.TallyRepository { return &tallyRepository{s} }
func (s *Store) Users() ports.UserRepository    { return &userRepository{s} }
func (s *Store) Auth() ports.AuthRepository     { return &authRepository{s} }

// duplicateTitle must be called with s.mu held.
func (s *Store) duplicateTitle(e *domain.Event) bool {
	for _, other := range s.events {
		if other.ID != e.ID && other.Category == e.Category && strings.EqualFold(other.Title, e.Title) {
			return true
		}
	}
	return false
}
