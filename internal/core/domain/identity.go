package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Identity is the verified caller of a request. The zero value is an
// unauthenticated caller.
type Identity struct {
	UserID      uuid.UUID
	Email       string
	Role        Role
	IsSuperUser bool
}

func (i Identity) Authenticated() bool {
	return i.UserID != uuid.Nil
}

func (i Identity) IsAdmin() bool {
	return i.Authenticated() && (i.Role == RoleAdmin || i.IsSuperUser)
}

const anonymousVoterPrefix = "anon:"

// Voter is whoever casts a ballot: a registered user or the holder of an
// anonymous voter token.
type Voter struct {
	ID     string
	UserID *uuid.UUID
}

func UserVoter(id Identity) Voter {
	uid := id.UserID
	return Voter{ID: uid.String(), UserID: &uid}
}

func AnonymousVoter(token uuid.UUID) Voter {
	return Voter{ID: anonymousVoterPrefix + token.String()}
}

func (v Voter) Valid() bool {
	return v.ID != ""
}

func (v Voter) Anonymous() bool {
	return strings.HasPrefix(v.ID, anonymousVoterPrefix)
}
