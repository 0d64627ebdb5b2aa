package domain

import (
	"time"

	"github.com/google/uuid"
)

type Vote struct {
	ID           uuid.UUID  `json:"id"`
	EventID      uuid.UUID  `json:"event_id"`
	VoterID      string     `json:"voter_id"`
	UserID       *uuid.UUID `json:"user_id,omitempty"`
	OutcomeIndex int        `json:"outcome_index"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type CastResult string

const (
	CastCreated   CastResult = "created"
	CastChanged   CastResult = "changed"
	CastUnchanged CastResult = "unchanged"
)

// VoteReceipt is what a voter gets back after casting a ballot.
type VoteReceipt struct {
	EventID  uuid.UUID  `json:"event_id"`
	Choice   Outcome    `json:"choice"`
	Previous *int       `json:"previous_outcome_index,omitempty"`
	Result   CastResult `json:"result"`
	Tally    Tally      `json:"tally"`
}

// TallyDrift records a counter that disagreed with the vote rows during
// reconciliation.
type TallyDrift struct {
	EventID      uuid.UUID `json:"event_id"`
	OutcomeIndex int       `json:"outcome_index"`
	Stored       int64     `json:"stored"`
	Counted      int64     `json:"counted"`
}
