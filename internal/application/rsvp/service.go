package rsvp

import (
	"context"
	"time"

	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/audit"
	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/metrics"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

const (
	maxBatchSize      = 100
	postCommitTimeout = 10 * time.Second
)

type Service struct {
	repo     Repo
	notifier Notifier
	cache    CapacityCache
	audit    *audit.Logger
	clock    Clock
	cacheTTL time.Duration
}

type Option func(*Service)

func WithCache(c CapacityCache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

func WithClock(c Clock) Option {
	return func(s *Service) { s.clock = c }
}

func WithAudit(a *audit.Logger) Option {
	return func(s *Service) { s.audit = a }
}

func New(repo Repo, notifier Notifier, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		notifier: notifier,
		clock:    systemClock{},
		audit:    audit.New(zerolog.Nop()),
		cacheTTL: 5 * time.Second,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// observe records the outcome of a mutation.
func (s *Service) observe(ctx context.Context, op string, eventID, actorID uuid.UUID, requested int, err error) {
	if err == nil {
		metrics.RecordMutation(op, "ok")
		return
	}
	code := domain.CodeOf(err)
	if code == "" {
		metrics.RecordMutation(op, "error")
		return
	}
	metrics.RecordMutation(op, string(code))
	if code == domain.CodeCapacityExceeded {
		metrics.RecordCapacityRejection(op)
		s.audit.CapacityRejected(ctx, eventID, actorID, op, requested)
	}
}

// postCommit detaches follow-up work from the request: a client that hangs up
// after the commit must not drop the cache invalidation or notifications.
// Context values such as the request id are kept.
func postCommit(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), postCommitTimeout)
}

// invalidate drops the cached snapshot after a committed write.
func (s *Service) invalidate(ctx context.Context, eventID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateCapacity(ctx, eventID); err != nil {
		zlog.Warn().Err(err).Str("event_id", eventID.String()).Msg("capacity cache invalidate failed")
	}
}

func rsvpPayload(r *domain.Rsvp, actorID uuid.UUID, from domain.RsvpStatus) domain.RsvpPayload {
	return domain.RsvpPayload{
		RsvpID:    r.ID,
		EventID:   r.EventID,
		InviteeID: r.InviteeID,
		ActorID:   actorID,
		Status:    r.Status,
		From:      from,
	}
}
