package event

import (
	"context"
	"time"

	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/domain"
	"github.com/google/uuid"
)

type Clock interface{ Now() time.Time }

type Repo interface {
	WithTx(ctx context.Context, fn func(tx TxRepo) error) error

	GetEvent(ctx context.Context, id uuid.UUID) (*domain.Event, error)
	FindRsvp(ctx context.Context, eventID, inviteeID uuid.UUID) (*domain.Rsvp, error)
	RsvpHolders(ctx context.Context, eventID uuid.UUID) ([]uuid.UUID, error)
	ListComments(ctx context.Context, eventID uuid.UUID, limit int, cursor *domain.KeysetCursor) ([]domain.Comment, *domain.KeysetCursor, error)
}

type TxRepo interface {
	LockEvent(ctx context.Context, eventID uuid.UUID) (*domain.Event, error)
	EffectiveGuestCount(ctx context.Context, eventID uuid.UUID) (int, error)

	CreateEvent(ctx context.Context, e *domain.Event) error
	UpdateEvent(ctx context.Context, e *domain.Event) error

	InsertComment(ctx context.Context, c *domain.Comment) error
	InsertMentions(ctx context.Context, ms []domain.Mention) error

	InsertOutbox(ctx context.Context, msg domain.OutboxMessage) error
}

type Users interface {
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
	FindUsersByEmails(ctx context.Context, emails []string) ([]domain.User, error)
}

type Notifier interface {
	EventUpdated(ctx context.Context, ev *domain.Event)
	EventCanceled(ctx context.Context, ev *domain.Event)
	CommentCreated(ctx context.Context, ev *domain.Event, c *domain.Comment, author *domain.User)
	Mentioned(ctx context.Context, ev *domain.Event, c *domain.Comment, author *domain.User, userIDs []uuid.UUID)
}

type Cache interface {
	InvalidateCapacity(ctx context.Context, eventID uuid.UUID) error
}
