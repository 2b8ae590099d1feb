package notify

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/domain"
	"github.com/google/uuid"
)

// MarkAsRead flips only rows owned by userID; foreign or unknown ids are ignored.
func (d *Dispatcher) MarkAsRead(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) error {
	if userID == uuid.Nil {
		return domain.ErrUnauthenticated("authentication required")
	}
	if len(ids) == 0 {
		return nil
	}
	if len(ids) > 500 {
		return domain.ErrValidation("too many notification ids")
	}
	_, err := d.store.MarkRead(ctx, userID, ids)
	return err
}

func (d *Dispatcher) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int, cursor *domain.KeysetCursor) ([]domain.Notification, *domain.KeysetCursor, error) {
	if userID == uuid.Nil {
		return nil, nil, domain.ErrUnauthenticated("authentication required")
	}
	return d.store.List(ctx, userID, unreadOnly, limit, cursor)
}

func (d *Dispatcher) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	if userID == uuid.Nil {
		return 0, domain.ErrUnauthenticated("authentication required")
	}
	return d.store.CountUnread(ctx, userID)
}

func (d *Dispatcher) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if userID == uuid.Nil {
		return domain.ErrUnauthenticated("authentication required")
	}
	ok, err := d.store.Delete(ctx, userID, id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFound("notification not found")
	}
	return nil
}
