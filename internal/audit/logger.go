package audit

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/domain"
	appCtx "github.com/baechuer/real-time-ressys/services/rsvp-service/internal/pkg/context"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Logger writes business events that must survive log sampling.
type Logger struct {
	log zerolog.Logger
}

func New(log zerolog.Logger) *Logger {
	return &Logger{
		log: log.With().Bool("audit", true).Logger(),
	}
}

func (l *Logger) RsvpCreated(ctx context.Context, r *domain.Rsvp) {
	l.log.Info().
		Str("action", "rsvp_created").
		Str("rsvp_id", r.ID.String()).
		Str("event_id", r.EventID.String()).
		Str("invitee_id", r.InviteeID.String()).
		Str("actor_id", r.UserID.String()).
		Str("status", string(r.Status)).
		Str("trace_id", appCtx.GetRequestID(ctx)).
		Msg("RSVP created")
}

func (l *Logger) InvitesSent(ctx context.Context, eventID, actorID uuid.UUID, count int) {
	l.log.Info().
		Str("action", "rsvp_invited").
		Str("event_id", eventID.String()).
		Str("actor_id", actorID.String()).
		Int("count", count).
		Str("trace_id", appCtx.GetRequestID(ctx)).
		Msg("Invitations sent")
}

func (l *Logger) RsvpUpdated(ctx context.Context, r *domain.Rsvp, from domain.RsvpStatus, actorID uuid.UUID) {
	l.log.Info().
		Str("action", "rsvp_updated").
		Str("rsvp_id", r.ID.String()).
		Str("event_id", r.EventID.String()).
		Str("actor_id", actorID.String()).
		Str("from", string(from)).
		Str("to", string(r.Status)).
		Str("trace_id", appCtx.GetRequestID(ctx)).
		Msg("RSVP status changed")
}

func (l *Logger) RsvpDeleted(ctx context.Context, r *domain.Rsvp, actorID uuid.UUID) {
	l.log.Info().
		Str("action", "rsvp_deleted").
		Str("rsvp_id", r.ID.String()).
		Str("event_id", r.EventID.String()).
		Str("actor_id", actorID.String()).
		Str("trace_id", appCtx.GetRequestID(ctx)).
		Msg("RSVP deleted")
}

// CapacityRejected is a warning: repeated rejections usually mean a stale client view.
func (l *Logger) CapacityRejected(ctx context.Context, eventID, actorID uuid.UUID, op string, requested int) {
	l.log.Warn().
		Str("action", "capacity_rejected").
		Str("event_id", eventID.String()).
		Str("actor_id", actorID.String()).
		Str("op", op).
		Int("requested", requested).
		Str("trace_id", appCtx.GetRequestID(ctx)).
		Msg("Capacity check rejected write")
}

func (l *Logger) EventCanceled(ctx context.Context, eventID, actorID uuid.UUID) {
	l.log.Warn().
		Str("action", "event_canceled").
		Str("event_id", eventID.String()).
		Str("actor_id", actorID.String()).
		Str("trace_id", appCtx.GetRequestID(ctx)).
		Msg("Event canceled")
}

func (l *Logger) NotificationFailed(ctx context.Context, typ domain.NotificationType, recipient uuid.UUID, err error) {
	l.log.Error().
		Err(err).
		Str("action", "notification_failed").
		Str("type", string(typ)).
		Str("recipient_id", recipient.String()).
		Str("trace_id", appCtx.GetRequestID(ctx)).
		Msg("Notification dispatch failed")
}

func (l *Logger) OutboxMessageSent(messageID, routingKey string) {
	l.log.Debug().
		Str("action", "outbox_sent").
		Str("message_id", messageID).
		Str("routing_key", routingKey).
		Msg("Outbox message sent")
}

func (l *Logger) OutboxMessageDead(messageID, routingKey string, retries int) {
	l.log.Error().
		Str("action", "outbox_dead").
		Str("message_id", messageID).
		Str("routing_key", routingKey).
		Int("retries", retries).
		Msg("Outbox message moved to dead status")
}
