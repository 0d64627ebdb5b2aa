package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/predixarena/internal/core/domain"
	"github.com/vncsmyrnk/predixarena/internal/core/ports"
)

type tallyRepository struct {
	db *sql.DB
}

func NewTallyRepository(db *sql.DB) ports.TallyRepository {
	return &tallyRepository{
		db: db,
	}
}

// Reconcile holds the event row exclusively, so no ballot for this event can
// be in flight while the votes are recounted.
func (r *tallyRepository) Reconcile(ctx context.Context, eventID uuid.UUID) ([]domain.TallyDrift, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, translateError("begin reconcile", err)
	}
	defer tx.Rollback()

	if _, err := loadEvent(ctx, tx, eventID, "FOR UPDATE"); err != nil {
		return nil, err
	}

	query := `
		SELECT o.position, o.vote_count, COUNT(v.id)
		FROM event_outcomes o
		LEFT JOIN votes v ON v.event_id = o.event_id AND v.outcome_index = o.position
		WHERE o.event_id = $1
		GROUP BY o.position, o.vote_count
		ORDER BY o.position
	`
	rows, err := tx.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, translateError("recount votes", err)
	}

	var drifts []domain.TallyDrift
	for rows.Next() {
		d := domain.TallyDrift{EventID: eventID}
		if err := rows.Scan(&d.OutcomeIndex, &d.Stored, &d.Counted); err != nil {
			rows.Close()
			return nil, translateError("scan recount", err)
		}
		if d.Stored != d.Counted {
			drifts = append(drifts, d)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, translateError("iterate recount", err)
	}
	rows.Close()

	for _, d := range drifts {
		_, err := tx.ExecContext(ctx, `
			UPDATE event_outcomes SET vote_count = $3
			WHERE event_id = $1 AND position = $2
		`, eventID, d.OutcomeIndex, d.Counted)
		if err != nil {
			return nil, translateError("fix vote count", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, translateError("commit reconcile", err)
	}
	return drifts, nil
}
