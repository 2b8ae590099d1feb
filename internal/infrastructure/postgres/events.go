package postgres

import (
	"context"
	"fmt"

	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/domain"
	"github.com/google/uuid"
)

const eventColumns = `id, owner_id, title, description, location, image_url, date_time,
	max_guests, is_private, is_canceled, created_at, updated_at`

func scanEvent(row interface{ Scan(...any) error }) (*domain.Event, error) {
	var e domain.Event
	err := row.Scan(
		&e.ID, &e.OwnerID, &e.Title, &e.Description, &e.Location, &e.ImageURL, &e.DateTime,
		&e.MaxGuests, &e.IsPrivate, &e.IsCanceled, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func getEvent(ctx context.Context, q querier, id uuid.UUID, forUpdate bool) (*domain.Event, error) {
	sql := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	if forUpdate {
		sql += ` FOR UPDATE`
	}
	e, err := scanEvent(q.QueryRow(ctx, sql, id))
	if err != nil {
		return nil, mapErr(err, "event not found")
	}
	return e, nil
}

func (r *Repository) GetEvent(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	return getEvent(ctx, r.pool, id, false)
}

// LockEvent takes the row lock that serializes every capacity decision for the event.
func (t *txRepo) LockEvent(ctx context.Context, eventID uuid.UUID) (*domain.Event, error) {
	return getEvent(ctx, t.tx, eventID, true)
}

func (t *txRepo) CreateEvent(ctx context.Context, e *domain.Event) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO events (`+eventColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, e.ID, e.OwnerID, e.Title, e.Description, e.Location, e.ImageURL, e.DateTime,
		e.MaxGuests, e.IsPrivate, e.IsCanceled, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert event: %w", mapErr(err, ""))
	}
	return nil
}

func (t *txRepo) UpdateEvent(ctx context.Context, e *domain.Event) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE events
		SET title = $2, description = $3, location = $4, image_url = $5, date_time = $6,
		    max_guests = $7, is_private = $8, is_canceled = $9, updated_at = $10
		WHERE id = $1
	`, e.ID, e.Title, e.Description, e.Location, e.ImageURL, e.DateTime,
		e.MaxGuests, e.IsPrivate, e.IsCanceled, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound("event not found")
	}
	return nil
}
