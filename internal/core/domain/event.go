package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type EventStatus string

const (
	StatusPending  EventStatus = "pending"
	StatusApproved EventStatus = "approved"
	StatusRejected EventStatus = "rejected"
)

// ParseEventStatus is case-insensitive.
func ParseEventStatus(s string) (EventStatus, error) {
	switch EventStatus(strings.ToLower(strings.TrimSpace(s))) {
	case StatusPending:
		return StatusPending, nil
	case StatusApproved:
		return StatusApproved, nil
	case StatusRejected:
		return StatusRejected, nil
	}
	return "", ErrInvalidStatus
}

// CanTransitionTo reports whether an admin may move an event from s to next.
// Staying in the same status is always allowed.
func (s EventStatus) CanTransitionTo(next EventStatus) bool {
	if s == next {
		return true
	}
	return s == StatusPending && (next == StatusApproved || next == StatusRejected)
}

type Category string

const (
	CategoryCreators        Category = "Creators"
	CategorySports          Category = "Sports"
	CategoryGlobalElections Category = "GlobalElections"
	CategoryMentions        Category = "Mentions"
	CategoryPolitics        Category = "Politics"
	CategoryCrypto          Category = "Crypto"
	CategoryPopCulture      Category = "PopCulture"
	CategoryBusiness        Category = "Business"
	CategoryScience         Category = "Science"
)

var Categories = []Category{
	CategoryCreators,
	CategorySports,
	CategoryGlobalElections,
	CategoryMentions,
	CategoryPolitics,
	CategoryCrypto,
	CategoryPopCulture,
	CategoryBusiness,
	CategoryScience,
}

// ParseCategory matches case-insensitively and returns the canonical name.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(string(c), s) {
			return c, true
		}
	}
	return "", false
}

const (
	MinOutcomes = 2
	MaxOutcomes = 10
)

type Outcome struct {
	Index int    `json:"index"`
	Label string `json:"label"`
	Votes int64  `json:"votes"`
}

type Event struct {
	ID                 uuid.UUID   `json:"id"`
	Title              string      `json:"title"`
	Description        string      `json:"description"`
	Category           Category    `json:"category"`
	Outcomes           []Outcome   `json:"outcomes"`
	Status             EventStatus `json:"status"`
	ResolutionSource   string      `json:"resolution_source"`
	ResolutionDateTime time.Time   `json:"resolution_date_time"`
	CreatedBy          uuid.UUID   `json:"created_by"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// VotingOpen reports whether ballots are accepted at instant now.
func (e *Event) VotingOpen(now time.Time) bool {
	return now.Before(e.ResolutionDateTime)
}

func (e *Event) TotalVotes() int64 {
	var total int64
	for _, o := range e.Outcomes {
		total += o.Votes
	}
	return total
}

// ResolveOutcome finds an outcome by exact index, by label (case-insensitive),
// or by the positional aliases "outcome1", "outcome2", ...
func (e *Event) ResolveOutcome(index *int, label string) (int, bool) {
	if index != nil {
		if *index >= 0 && *index < len(e.Outcomes) {
			return *index, true
		}
		return 0, false
	}

	label = strings.TrimSpace(label)
	if label == "" {
		return 0, false
	}
	for _, o := range e.Outcomes {
		if strings.EqualFold(o.Label, label) {
			return o.Index, true
		}
	}
	for i := range e.Outcomes {
		if strings.EqualFold(label, "outcome"+strconv.Itoa(i+1)) {
			return i, true
		}
	}
	return 0, false
}

func (e *Event) Tally() Tally {
	t := Tally{EventID: e.ID, Outcomes: make([]Outcome, len(e.Outcomes))}
	copy(t.Outcomes, e.Outcomes)
	t.Total = e.TotalVotes()
	return t
}

// Clone returns a deep copy of the event and its outcomes.
func (e *Event) Clone() *Event {
	c := *e
	c.Outcomes = make([]Outcome, len(e.Outcomes))
	copy(c.Outcomes, e.Outcomes)
	return &c
}

type Tally struct {
	EventID  uuid.UUID `json:"event_id"`
	Outcomes []Outcome `json:"outcomes"`
	Total    int64     `json:"total"`
}
