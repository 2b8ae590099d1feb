package postgres

import (
	"context"
	"fmt"

	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/domain"
)

// InsertOutbox stores the message in the caller's transaction; the worker publishes it later.
func (t *txRepo) InsertOutbox(ctx context.Context, msg domain.OutboxMessage) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO outbox (message_id, trace_id, routing_key, payload, occurred_at, status)
		VALUES ($1, $2, $3, $4, $5, 'pending')
	`, msg.MessageID, msg.TraceID, msg.RoutingKey, msg.Body, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert outbox: %w", err)
	}
	return nil
}
