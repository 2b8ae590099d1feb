package event

import (
	"context"
	"time"

	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/audit"
	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

const postCommitTimeout = 10 * time.Second

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

type Service struct {
	repo     Repo
	users    Users
	notifier Notifier
	cache    Cache
	audit    *audit.Logger
	clock    Clock
}

func New(repo Repo, users Users, notifier Notifier, cache Cache, auditLog *audit.Logger, clock Clock) *Service {
	if clock == nil {
		clock = systemClock{}
	}
	if auditLog == nil {
		auditLog = audit.New(zerolog.Nop())
	}
	return &Service{
		repo:     repo,
		users:    users,
		notifier: notifier,
		cache:    cache,
		audit:    auditLog,
		clock:    clock,
	}
}

// Get returns the event if the actor may see it.
func (s *Service) Get(ctx context.Context, actorID, eventID uuid.UUID) (*domain.Event, error) {
	ev, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	ok, err := s.canView(ctx, ev, actorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrForbidden("event is private")
	}
	return ev, nil
}

func (s *Service) canView(ctx context.Context, ev *domain.Event, actorID uuid.UUID) (bool, error) {
	if !ev.IsPrivate || ev.IsHost(actorID) {
		return true, nil
	}
	_, err := s.repo.FindRsvp(ctx, ev.ID, actorID)
	if err == nil {
		return true, nil
	}
	if domain.IsCode(err, domain.CodeNotFound) {
		return false, nil
	}
	return false, err
}

// postCommit keeps context values but not the request's cancellation, so a
// disconnecting client cannot drop work that follows a commit.
func postCommit(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), postCommitTimeout)
}

func (s *Service) invalidate(ctx context.Context, eventID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateCapacity(ctx, eventID); err != nil {
		zlog.Warn().Err(err).Str("event_id", eventID.String()).Msg("capacity cache invalidate failed")
	}
}

func eventPayload(e *domain.Event) domain.EventPayload {
	return domain.EventPayload{
		EventID:    e.ID,
		OwnerID:    e.OwnerID,
		Title:      e.Title,
		DateTime:   e.DateTime,
		MaxGuests:  e.MaxGuests,
		IsPrivate:  e.IsPrivate,
		IsCanceled: e.IsCanceled,
	}
}

func writeOutbox[T any](ctx context.Context, tx TxRepo, route string, payload T, now time.Time) error {
	msg, err := domain.NewOutboxMessage(ctx, route, payload, now)
	if err != nil {
		return err
	}
	return tx.InsertOutbox(ctx, msg)
}
