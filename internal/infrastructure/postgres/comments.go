package postgres

import (
	"context"
	"fmt"

	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/domain"
)

func (t *txRepo) InsertComment(ctx context.Context, c *domain.Comment) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO comments (id, event_id, user_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, c.ID, c.EventID, c.UserID, c.Content, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

func (t *txRepo) InsertMentions(ctx context.Context, ms []domain.Mention) error {
	for _, m := range ms {
		_, err := t.tx.Exec(ctx, `
			INSERT INTO mentions (id, comment_id, user_id, created_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (comment_id, user_id) DO NOTHING
		`, m.ID, m.CommentID, m.UserID, m.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert mention: %w", err)
		}
	}
	return nil
}
