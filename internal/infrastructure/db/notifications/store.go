package notifications

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/domain"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Store keeps the per-user inbox. It runs on its own *sql.DB so a slow inbox
// never holds connections needed by capacity transactions.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

const insertNotificationSQL = `
INSERT INTO notifications (id, user_id, type, title, message, is_read, related_event_id, related_comment_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`

func insertArgs(n *domain.Notification) []any {
	return []any{
		n.ID, n.UserID, string(n.Type), n.Title, n.Message, n.IsRead,
		nullUUID(n.RelatedEventID), nullUUID(n.RelatedCommentID), n.CreatedAt,
	}
}

func (s *Store) Insert(ctx context.Context, n *domain.Notification) error {
	_, err := s.db.ExecContext(ctx, insertNotificationSQL, insertArgs(n)...)
	return err
}

// InsertFanout writes all rows in one transaction.
func (s *Store) InsertFanout(ctx context.Context, ns []*domain.Notification) (err error) {
	if len(ns) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, insertNotificationSQL)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, n := range ns {
		if _, err = stmt.ExecContext(ctx, insertArgs(n)...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) MarkRead(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE notifications
		SET is_read = TRUE
		WHERE user_id = $1
		  AND id = ANY($2::uuid[])
		  AND is_read = FALSE
	`, userID, pq.Array(uuidStrings(ids)))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int, cursor *domain.KeysetCursor) ([]domain.Notification, *domain.KeysetCursor, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	args := []any{userID}
	where := "WHERE user_id = $1"
	if unreadOnly {
		where += " AND is_read = FALSE"
	}
	if cursor != nil {
		where += fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", len(args)+1, len(args)+2)
		args = append(args, cursor.CreatedAt, cursor.ID)
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, user_id, type, title, message, is_read, related_event_id, related_comment_id, created_at
		FROM notifications
		%s
		ORDER BY created_at DESC, id DESC
		LIMIT %d
	`, where, limit+1), args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	out := make([]domain.Notification, 0, limit)
	for rows.Next() {
		var (
			n       domain.Notification
			typ     string
			evID    uuid.NullUUID
			comment uuid.NullUUID
		)
		if err := rows.Scan(&n.ID, &n.UserID, &typ, &n.Title, &n.Message, &n.IsRead, &evID, &comment, &n.CreatedAt); err != nil {
			return nil, nil, err
		}
		n.Type = domain.NotificationType(typ)
		n.RelatedEventID = ptrUUID(evID)
		n.RelatedCommentID = ptrUUID(comment)
		out = append(out, n)
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

func (s *Store) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`, userID,
	).Scan(&n)
	return n, err
}

// Delete reports false when the row does not exist or belongs to someone else.
func (s *Store) Delete(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func ptrUUID(n uuid.NullUUID) *uuid.UUID {
	if !n.Valid {
		return nil
	}
	id := n.UUID
	return &id
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
