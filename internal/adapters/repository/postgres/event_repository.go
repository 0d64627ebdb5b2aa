package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/vncsmyrnk/predixarena/internal/core/domain"
	"github.com/vncsmyrnk/predixarena/internal/core/ports"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const selectEvent = `
	SELECT id, title, description, category, status, resolution_source,
	       resolution_date_time, created_by, created_at, updated_at
	FROM events
`

type eventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) ports.EventRepository {
	return &eventRepository{
		db: db,
	}
}

func (r *eventRepository) Create(ctx context.Context, event *domain.Event) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return translateError("begin create event", err)
	}
	defer tx.Rollback()

	queryEvent := `
		INSERT INTO events (id, title, description, category, status, resolution_source,
		                    resolution_date_time, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = tx.ExecContext(ctx, queryEvent,
		event.ID, event.Title, event.Description, event.Category, event.Status,
		event.ResolutionSource, event.ResolutionDateTime, event.CreatedBy,
		event.CreatedAt, event.UpdatedAt,
	)
	if err != nil {
		return translateError("insert event", err)
	}

	if err := writeOutcomes(ctx, tx, event.ID, event.Outcomes); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return translateError("commit create event", err)
	}
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	return loadEvent(ctx, r.db, id, "")
}

func (r *eventRepository) List(ctx context.Context, filter ports.EventFilter) ([]*domain.Event, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != nil {
		args = append(args, *filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.CreatedBy != nil {
		args = append(args, *filter.CreatedBy)
		where = append(where, fmt.Sprintf("created_by = $%d", len(args)))
	}
	if filter.OpenAfter != nil {
		args = append(args, *filter.OpenAfter)
		where = append(where, fmt.Sprintf("resolution_date_time > $%d", len(args)))
	}

	query := selectEvent
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translateError("list events", err)
	}
	defer rows.Close()

	var (
		events []*domain.Event
		ids    []string
		byID   = make(map[uuid.UUID]*domain.Event)
	)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, translateError("scan event", err)
		}
		events = append(events, event)
		ids = append(ids, event.ID.String())
		byID[event.ID] = event
	}
	if err := rows.Err(); err != nil {
		return nil, translateError("iterate events", err)
	}
	if len(events) == 0 {
		return events, nil
	}

	outcomeRows, err := r.db.QueryContext(ctx, `
		SELECT event_id, position, label, vote_count
		FROM event_outcomes
		WHERE event_id = ANY($1::uuid[])
		ORDER BY event_id, position
	`, pq.Array(ids))
	if err != nil {
		return nil, translateError("list outcomes", err)
	}
	defer outcomeRows.Close()

	for outcomeRows.Next() {
		var (
			eventID uuid.UUID
			o       domain.Outcome
		)
		if err := outcomeRows.Scan(&eventID, &o.Index, &o.Label, &o.Votes); err != nil {
			return nil, translateError("scan outcome", err)
		}
		if e, ok := byID[eventID]; ok {
			e.Outcomes = append(e.Outcomes, o)
		}
	}
	if err := outcomeRows.Err(); err != nil {
		return nil, translateError("iterate outcomes", err)
	}

	return events, nil
}

func (r *eventRepository) Mutate(ctx context.Context, id uuid.UUID, fn ports.EventMutator) (*domain.Event, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, translateError("begin mutate event", err)
	}
	defer tx.Rollback()

	event, err := loadEvent(ctx, tx, id, "FOR UPDATE")
	if err != nil {
		return nil, err
	}

	changed, err := fn(event)
	if err != nil {
		return nil, err
	}
	if !changed {
		return loadEvent(ctx, tx, id, "")
	}

	queryEvent := `
		UPDATE events
		SET title = $2, description = $3, category = $4, status = $5,
		    resolution_source = $6, resolution_date_time = $7, updated_at = $8
		WHERE id = $1
	`
	_, err = tx.ExecContext(ctx, queryEvent,
		event.ID, event.Title, event.Description, event.Category, event.Status,
		event.ResolutionSource, event.ResolutionDateTime, event.UpdatedAt,
	)
	if err != nil {
		return nil, translateError("update event", err)
	}

	if err := writeOutcomes(ctx, tx, event.ID, event.Outcomes); err != nil {
		return nil, err
	}
	_, err = tx.ExecContext(ctx, `DELETE FROM event_outcomes WHERE event_id = $1 AND position >= $2`, event.ID, len(event.Outcomes))
	if err != nil {
		return nil, translateError("trim outcomes", err)
	}

	updated, err := loadEvent(ctx, tx, id, "")
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, translateError("commit mutate event", err)
	}
	return updated, nil
}

// writeOutcomes upserts outcome labels by position. Counters are left alone;
// they only move when votes are cast.
func writeOutcomes(ctx context.Context, tx *sql.Tx, eventID uuid.UUID, outcomes []domain.Outcome) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO event_outcomes (event_id, position, label)
		VALUES ($1, $2, $3)
		ON CONFLICT (event_id, position) DO UPDATE SET label = EXCLUDED.label
	`)
	if err != nil {
		return translateError("prepare outcome statement", err)
	}
	defer stmt.Close()

	for i, o := range outcomes {
		if _, err := stmt.ExecContext(ctx, eventID, i, o.Label); err != nil {
			return translateError("insert outcome", err)
		}
	}
	return nil
}

// loadEvent reads one event with its outcomes. lock is appended to the event
// query ("FOR UPDATE", "FOR SHARE" or empty).
func loadEvent(ctx context.Context, q queryer, id uuid.UUID, lock string) (*domain.Event, error) {
	event, err := scanEvent(q.QueryRowContext(ctx, selectEvent+" WHERE id = $1 "+lock, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrEventNotFound
		}
		return nil, translateError("get event", err)
	}

	outcomes, err := loadOutcomes(ctx, q, id)
	if err != nil {
		return nil, err
	}
	event.Outcomes = outcomes
	return event, nil
}

func loadOutcomes(ctx context.Context, q queryer, eventID uuid.UUID) ([]domain.Outcome, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT position, label, vote_count
		FROM event_outcomes
		WHERE event_id = $1
		ORDER BY position
	`, eventID)
	if err != nil {
		return nil, translateError("get outcomes", err)
	}
	defer rows.Close()

	var outcomes []domain.Outcome
	for rows.Next() {
		var o domain.Outcome
		if err := rows.Scan(&o.Index, &o.Label, &o.Votes); err != nil {
			return nil, translateError("scan outcome", err)
		}
		outcomes = append(outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return nil, translateError("iterate outcomes", err)
	}
	return outcomes, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	var e domain.Event
	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.Category, &e.Status, &e.ResolutionSource,
		&e.ResolutionDateTime, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.ResolutionDateTime = e.ResolutionDateTime.UTC()
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	return &e, nil
}
