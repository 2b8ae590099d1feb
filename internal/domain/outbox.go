package domain

import (
	"context"
	"encoding/json"
	"time"

	appCtx "github.com/baechuer/real-time-ressys/services/rsvp-service/internal/pkg/context"
	"github.com/google/uuid"
)

const (
	EnvelopeVersion = 1
	Producer        = "rsvp-service"
)

// Routing keys published through the outbox.
const (
	RouteRsvpCreated    = "rsvp.created"
	RouteRsvpUpdated    = "rsvp.updated"
	RouteRsvpDeleted    = "rsvp.deleted"
	RouteEventCreated   = "event.created"
	RouteEventUpdated   = "event.updated"
	RouteEventCanceled  = "event.canceled"
	RouteCommentCreated = "comment.created"
)

type Envelope[T any] struct {
	Version    int       `json:"version"`
	Producer   string    `json:"producer"`
	MessageID  string    `json:"message_id"`
	TraceID    string    `json:"trace_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    T         `json:"payload"`
}

type OutboxMessage struct {
	MessageID  string
	TraceID    string
	RoutingKey string
	Body       []byte
	CreatedAt  time.Time
}

type RsvpPayload struct {
	RsvpID    uuid.UUID  `json:"rsvp_id"`
	EventID   uuid.UUID  `json:"event_id"`
	InviteeID uuid.UUID  `json:"invitee_id"`
	ActorID   uuid.UUID  `json:"actor_id"`
	Status    RsvpStatus `json:"status"`
	From      RsvpStatus `json:"from,omitempty"`
}

type EventPayload struct {
	EventID    uuid.UUID `json:"event_id"`
	OwnerID    uuid.UUID `json:"owner_id"`
	Title      string    `json:"title"`
	DateTime   time.Time `json:"date_time"`
	MaxGuests  int       `json:"max_guests"`
	IsPrivate  bool      `json:"is_private"`
	IsCanceled bool      `json:"is_canceled"`
}

type CommentPayload struct {
	CommentID uuid.UUID   `json:"comment_id"`
	EventID   uuid.UUID   `json:"event_id"`
	AuthorID  uuid.UUID   `json:"author_id"`
	Mentioned []uuid.UUID `json:"mentioned,omitempty"`
}

// NewOutboxMessage wraps payload in the versioned envelope.
func NewOutboxMessage[T any](ctx context.Context, routingKey string, payload T, now time.Time) (OutboxMessage, error) {
	msgID := uuid.NewString()
	traceID := appCtx.GetRequestID(ctx)
	body, err := json.Marshal(Envelope[T]{
		Version:    EnvelopeVersion,
		Producer:   Producer,
		MessageID:  msgID,
		TraceID:    traceID,
		OccurredAt: now.UTC(),
		Payload:    payload,
	})
	if err != nil {
		return OutboxMessage{}, err
	}
	return OutboxMessage{
		MessageID:  msgID,
		TraceID:    traceID,
		RoutingKey: routingKey,
		Body:       body,
		CreatedAt:  now.UTC(),
	}, nil
}
