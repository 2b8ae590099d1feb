package rsvp

import (
	"context"
	"time"

	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/domain"
	"github.com/google/uuid"
)

type Clock interface{ Now() time.Time }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Repo is the read side plus the transaction entry point. Every capacity
// decision must go through WithTx.
type Repo interface {
	WithTx(ctx context.Context, fn func(tx TxRepo) error) error

	GetEvent(ctx context.Context, id uuid.UUID) (*domain.Event, error)
	GetRsvp(ctx context.Context, id uuid.UUID) (*domain.Rsvp, error)
	FindRsvp(ctx context.Context, eventID, inviteeID uuid.UUID) (*domain.Rsvp, error)
	EffectiveGuestCount(ctx context.Context, eventID uuid.UUID) (int, error)

	ListRsvpsByInvitee(ctx context.Context, inviteeID uuid.UUID, limit int, cursor *domain.KeysetCursor) ([]domain.Rsvp, *domain.KeysetCursor, error)
	ListRsvpsByEvent(ctx context.Context, eventID uuid.UUID, limit int, cursor *domain.KeysetCursor) ([]domain.Rsvp, *domain.KeysetCursor, error)
}

// TxRepo runs inside a read-committed transaction. LockEvent must be the
// first call so that concurrent admissions for the same event serialize.
type TxRepo interface {
	LockEvent(ctx context.Context, eventID uuid.UUID) (*domain.Event, error)
	EffectiveGuestCount(ctx context.Context, eventID uuid.UUID) (int, error)

	GetRsvp(ctx context.Context, id uuid.UUID) (*domain.Rsvp, error)
	GetRsvpForUpdate(ctx context.Context, id uuid.UUID) (*domain.Rsvp, error)
	ExistingInvitees(ctx context.Context, eventID uuid.UUID, inviteeIDs []uuid.UUID) (map[uuid.UUID]struct{}, error)

	InsertRsvp(ctx context.Context, r *domain.Rsvp) error
	UpdateRsvpStatus(ctx context.Context, id uuid.UUID, status domain.RsvpStatus, now time.Time) error
	DeleteRsvp(ctx context.Context, id uuid.UUID) error

	InsertOutbox(ctx context.Context, msg domain.OutboxMessage) error
}

// CapacityCache holds short-lived snapshots for the read path only.
// CapacityGeneration is read before counting; a snapshot stored under a
// generation that InvalidateCapacity has since bumped is never served.
type CapacityCache interface {
	GetCapacity(ctx context.Context, eventID uuid.UUID) (domain.Capacity, bool, error)
	CapacityGeneration(ctx context.Context, eventID uuid.UUID) (int64, error)
	SetCapacity(ctx context.Context, c domain.Capacity, gen int64, ttl time.Duration) error
	InvalidateCapacity(ctx context.Context, eventID uuid.UUID) error
}

// Notifier is called after commit and never reports failure back.
type Notifier interface {
	RsvpCreated(ctx context.Context, ev *domain.Event, r *domain.Rsvp)
	RsvpStatusChanged(ctx context.Context, ev *domain.Event, r *domain.Rsvp, actorID uuid.UUID)
}
