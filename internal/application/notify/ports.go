package notify

import (
	"context"
	"time"

	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/domain"
	"github.com/google/uuid"
)

type Clock interface{ Now() time.Time }

type Store interface {
	Insert(ctx context.Context, n *domain.Notification) error
	// InsertFanout writes one row per recipient sharing the same copy.
	InsertFanout(ctx context.Context, ns []*domain.Notification) error

	MarkRead(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int64, error)
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int, cursor *domain.KeysetCursor) ([]domain.Notification, *domain.KeysetCursor, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
	Delete(ctx context.Context, userID, id uuid.UUID) (bool, error)
}

// Directory resolves recipients from the primary store.
type Directory interface {
	RsvpHolders(ctx context.Context, eventID uuid.UUID) ([]uuid.UUID, error)
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
}
