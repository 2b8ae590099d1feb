package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/domain"
	"github.com/google/uuid"
)

const rsvpColumns = `id, event_id, invitee_id, user_id, status, created_at, updated_at`

func scanRsvp(row interface{ Scan(...any) error }) (*domain.Rsvp, error) {
	var (
		r      domain.Rsvp
		status string
	)
	if err := row.Scan(&r.ID, &r.EventID, &r.InviteeID, &r.UserID, &status, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.Status = domain.RsvpStatus(status)
	return &r, nil
}

func getRsvp(ctx context.Context, q querier, id uuid.UUID, forUpdate bool) (*domain.Rsvp, error) {
	sql := `SELECT ` + rsvpColumns + ` FROM rsvps WHERE id = $1`
	if forUpdate {
		sql += ` FOR UPDATE`
	}
	r, err := scanRsvp(q.QueryRow(ctx, sql, id))
	if err != nil {
		return nil, mapErr(err, "rsvp not found")
	}
	return r, nil
}

// effectiveGuestCount counts rows that hold a spot: every status except NO.
func effectiveGuestCount(ctx context.Context, q querier, eventID uuid.UUID) (int, error) {
	var n int
	err := q.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM rsvps
		WHERE event_id = $1
		  AND status IN ('PENDING', 'YES', 'MAYBE')
	`, eventID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count reserved spots: %w", err)
	}
	return n, nil
}

func (r *Repository) GetRsvp(ctx context.Context, id uuid.UUID) (*domain.Rsvp, error) {
	return getRsvp(ctx, r.pool, id, false)
}

func (r *Repository) FindRsvp(ctx context.Context, eventID, inviteeID uuid.UUID) (*domain.Rsvp, error) {
	rec, err := scanRsvp(r.pool.QueryRow(ctx, `
		SELECT `+rsvpColumns+`
		FROM rsvps
		WHERE event_id = $1 AND invitee_id = $2
	`, eventID, inviteeID))
	if err != nil {
		return nil, mapErr(err, "rsvp not found")
	}
	return rec, nil
}

func (r *Repository) EffectiveGuestCount(ctx context.Context, eventID uuid.UUID) (int, error) {
	return effectiveGuestCount(ctx, r.pool, eventID)
}

// RsvpHolders returns every distinct invitee on the event, any status.
func (r *Repository) RsvpHolders(ctx context.Context, eventID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT invitee_id
		FROM rsvps
		WHERE event_id = $1
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (t *txRepo) EffectiveGuestCount(ctx context.Context, eventID uuid.UUID) (int, error) {
	return effectiveGuestCount(ctx, t.tx, eventID)
}

func (t *txRepo) GetRsvp(ctx context.Context, id uuid.UUID) (*domain.Rsvp, error) {
	return getRsvp(ctx, t.tx, id, false)
}

func (t *txRepo) GetRsvpForUpdate(ctx context.Context, id uuid.UUID) (*domain.Rsvp, error) {
	return getRsvp(ctx, t.tx, id, true)
}

func (t *txRepo) ExistingInvitees(ctx context.Context, eventID uuid.UUID, inviteeIDs []uuid.UUID) (map[uuid.UUID]struct{}, error) {
	out := make(map[uuid.UUID]struct{})
	if len(inviteeIDs) == 0 {
		return out, nil
	}
	rows, err := t.tx.Query(ctx, `
		SELECT invitee_id
		FROM rsvps
		WHERE event_id = $1
		  AND invitee_id = ANY($2)
	`, eventID, inviteeIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

func (t *txRepo) InsertRsvp(ctx context.Context, r *domain.Rsvp) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO rsvps (`+rsvpColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, r.ID, r.EventID, r.InviteeID, r.UserID, string(r.Status), r.CreatedAt, r.UpdatedAt)
	return mapErr(err, "")
}

func (t *txRepo) UpdateRsvpStatus(ctx context.Context, id uuid.UUID, status domain.RsvpStatus, now time.Time) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE rsvps
		SET status = $2, updated_at = $3
		WHERE id = $1
	`, id, string(status), now)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound("rsvp not found")
	}
	return nil
}

func (t *txRepo) DeleteRsvp(ctx context.Context, id uuid.UUID) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM rsvps WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound("rsvp not found")
	}
	return nil
}
