package postgres

import (
	"context"
	"fmt"

	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/domain"
	"github.com/google/uuid"
)

func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}

// ORDER BY created_at DESC, id DESC; the cursor means "start after this item".
func (r *Repository) listRsvps(ctx context.Context, column string, key uuid.UUID, limit int, cursor *domain.KeysetCursor) ([]domain.Rsvp, *domain.KeysetCursor, error) {
	limit = clampLimit(limit)
	args := []any{key}
	where := fmt.Sprintf("WHERE %s = $1", column)
	if cursor != nil {
		where += " AND (created_at, id) < ($2, $3)"
		args = append(args, cursor.CreatedAt, cursor.ID)
	}

	q := fmt.Sprintf(`
		SELECT %s
		FROM rsvps
		%s
		ORDER BY created_at DESC, id DESC
		LIMIT %d
	`, rsvpColumns, where, limit+1)

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var out []domain.Rsvp
	for rows.Next() {
		rec, err := scanRsvp(rows)
		if err != nil {
			return nil, nil, err
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	var next *domain.KeysetCursor
	if len(out) > limit {
		last := out[limit-1]
		next = &domain.KeysetCursor{CreatedAt: last.CreatedAt, ID: last.ID}
		out = out[:limit]
	}
	return out, next, nil
}

func (r *Repository) ListRsvpsByInvitee(ctx context.Context, inviteeID uuid.UUID, limit int, cursor *domain.KeysetCursor) ([]domain.Rsvp, *domain.KeysetCursor, error) {
	return r.listRsvps(ctx, "invitee_id", inviteeID, limit, cursor)
}

func (r *Repository) ListRsvpsByEvent(ctx context.Context, eventID uuid.UUID, limit int, cursor *domain.KeysetCursor) ([]domain.Rsvp, *domain.KeysetCursor, error) {
	return r.listRsvps(ctx, "event_id", eventID, limit, cursor)
}

func (r *Repository) ListComments(ctx context.Context, eventID uuid.UUID, limit int, cursor *domain.KeysetCursor) ([]domain.Comment, *domain.KeysetCursor, error) {
	limit = clampLimit(limit)
	args := []any{eventID}
	where := "WHERE event_id = $1"
	if cursor != nil {
		where += " AND (created_at, id) < ($2, $3)"
		args = append(args, cursor.CreatedAt, cursor.ID)
	}

	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT id, event_id, user_id, content, created_at
		FROM comments
		%s
		ORDER BY created_at DESC, id DESC
		LIMIT %d
	`, where, limit+1), args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var out []domain.Comment
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.ID, &c.EventID, &c.UserID, &c.Content, &c.CreatedAt); err != nil {
			return nil, nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	var next *domain.KeysetCursor
	if len(out) > limit {
		last := out[limit-1]
		next = &domain.KeysetCursor{CreatedAt: last.CreatedAt, ID: last.ID}
		out = out[:limit]
	}
	return out, next, nil
}
