package postgres

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/predixarena/internal/core/domain"
	"github.com/vncsmyrnk/predixarena/internal/core/ports"
)

const selectVote = `
	SELECT id, event_id, voter_id, user_id, outcome_index, created_at, updated_at
	FROM votes
`

type voteRepository struct {
	db *sql.DB
}

func NewVoteRepository(db *sql.DB) ports.VoteRepository {
	return &voteRepository{
		db: db,
	}
}

func (r *voteRepository) GetActive(ctx context.Context, eventID uuid.UUID, voterID string) (*domain.Vote, error) {
	vote, err := scanVote(r.db.QueryRowContext(ctx, selectVote+" WHERE event_id = $1 AND voter_id = $2", eventID, voterID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, translateError("get vote", err)
	}
	return vote, nil
}

func (r *voteRepository) ListByVoter(ctx context.Context, voterID string) ([]*domain.Vote, error) {
	rows, err := r.db.QueryContext(ctx, selectVote+" WHERE voter_id = $1 ORDER BY updated_at DESC", voterID)
	if err != nil {
		return nil, translateError("list votes", err)
	}
	defer rows.Close()

	var votes []*domain.Vote
	for rows.Next() {
		vote, err := scanVote(rows)
		if err != nil {
			return nil, translateError("scan vote", err)
		}
		votes = append(votes, vote)
	}
	if err := rows.Err(); err != nil {
		return nil, translateError("iterate votes", err)
	}
	return votes, nil
}

func (r *voteRepository) CountActive(ctx context.Context, eventID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM votes WHERE event_id = $1`, eventID).Scan(&n)
	if err != nil {
		return 0, translateError("count votes", err)
	}
	return n, nil
}

// Cast runs the whole ballot in one READ COMMITTED transaction. The event row
// is share-locked so voters on the same event proceed in parallel while status
// changes wait; the voter's own row is locked FOR UPDATE so one voter's
// requests serialise. Counters move with relative updates in ascending
// position order.
func (r *voteRepository) Cast(ctx context.Context, eventID uuid.UUID, voter domain.Voter, decide ports.BallotDecider) (*ports.CastOutcome, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, translateError("begin cast vote", err)
	}
	defer tx.Rollback()

	event, err := loadEvent(ctx, tx, eventID, "FOR SHARE")
	if err != nil {
		return nil, err
	}

	current, err := lockVote(ctx, tx, eventID, voter.ID)
	if err != nil {
		return nil, err
	}
	index, err := decide(event.Clone(), current)
	if err != nil {
		return nil, err
	}

	out := &ports.CastOutcome{}
	if current == nil {
		created, err := insertVote(ctx, tx, eventID, voter, index)
		if err != nil {
			return nil, err
		}
		if created != nil {
			if err := adjustCounts(ctx, tx, eventID, map[int]int64{index: 1}); err != nil {
				return nil, err
			}
			out.Vote = created
			out.Result = domain.CastCreated
		} else {
			// A concurrent first ballot from the same voter committed between
			// our lock attempt and the insert. Start over from its row.
			current, err = lockVote(ctx, tx, eventID, voter.ID)
			if err != nil {
				return nil, err
			}
			if current == nil {
				return nil, domain.ErrWriteConflict
			}
			if index, err = decide(event.Clone(), current); err != nil {
				return nil, err
			}
		}
	}

	if out.Vote == nil {
		prev := current.OutcomeIndex
		out.Previous = &prev
		if prev == index {
			out.Vote = current
			out.Result = domain.CastUnchanged
		} else {
			updated, err := scanVote(tx.QueryRowContext(ctx, `
				UPDATE votes SET outcome_index = $2, updated_at = NOW()
				WHERE id = $1
				RETURNING id, event_id, voter_id, user_id, outcome_index, created_at, updated_at
			`, current.ID, index))
			if err != nil {
				return nil, translateError("update vote", err)
			}
			if err := adjustCounts(ctx, tx, eventID, map[int]int64{prev: -1, index: 1}); err != nil {
				return nil, err
			}
			out.Vote = updated
			out.Result = domain.CastChanged
		}
	}

	if out.Result != domain.CastUnchanged {
		if event.Outcomes, err = loadOutcomes(ctx, tx, eventID); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, translateError("commit cast vote", err)
	}

	out.Event = event
	return out, nil
}

func lockVote(ctx context.Context, tx *sql.Tx, eventID uuid.UUID, voterID string) (*domain.Vote, error) {
	vote, err := scanVote(tx.QueryRowContext(ctx, selectVote+" WHERE event_id = $1 AND voter_id = $2 FOR UPDATE", eventID, voterID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, translateError("lock vote", err)
	}
	return vote, nil
}

// insertVote returns nil, nil when another transaction already holds the
// (event, voter) slot.
func insertVote(ctx context.Context, tx *sql.Tx, eventID uuid.UUID, voter domain.Voter, index int) (*domain.Vote, error) {
	vote, err := scanVote(tx.QueryRowContext(ctx, `
		INSERT INTO votes (event_id, voter_id, user_id, outcome_index)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (event_id, voter_id) DO NOTHING
		RETURNING id, event_id, voter_id, user_id, outcome_index, created_at, updated_at
	`, eventID, voter.ID, voter.UserID, index))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, translateError("insert vote", err)
	}
	return vote, nil
}

// adjustCounts applies the deltas in ascending position order so that two
// switching voters always lock counter rows in the same order.
func adjustCounts(ctx context.Context, tx *sql.Tx, eventID uuid.UUID, deltas map[int]int64) error {
	positions := make([]int, 0, len(deltas))
	for p := range deltas {
		positions = append(positions, p)
	}
	sort.Ints(positions)

	for _, p := range positions {
		res, err := tx.ExecContext(ctx, `
			UPDATE event_outcomes SET vote_count = vote_count + $3
			WHERE event_id = $1 AND position = $2
		`, eventID, p, deltas[p])
		if err != nil {
			return translateError("adjust vote count", err)
		}
		if n, err := res.RowsAffected(); err == nil && n != 1 {
			return &domain.StorageError{Op: "adjust vote count", Err: sql.ErrNoRows}
		}
	}
	return nil
}

func scanVote(row rowScanner) (*domain.Vote, error) {
	var (
		v      domain.Vote
		userID uuid.NullUUID
	)
	if err := row.Scan(&v.ID, &v.EventID, &v.VoterID, &userID, &v.OutcomeIndex, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	if userID.Valid {
		id := userID.UUID
		v.UserID = &id
	}
	v.CreatedAt = v.CreatedAt.UTC()
	v.UpdatedAt = v.UpdatedAt.UTC()
	return &v, nil
}
