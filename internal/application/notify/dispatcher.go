package notify

import (
	"context"
	"time"

	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/audit"
	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/metrics"
	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/pkg/logger"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Dispatcher turns domain triggers into notification rows. Trigger methods
// run after the originating write has committed: failures are logged and
// counted, never returned.
type Dispatcher struct {
	store Store
	dir   Directory
	audit *audit.Logger
	clock Clock
}

func NewDispatcher(store Store, dir Directory, auditLog *audit.Logger, clock Clock) *Dispatcher {
	if auditLog == nil {
		auditLog = audit.New(zerolog.Nop())
	}
	if clock == nil {
		clock = systemClock{}
	}
	return &Dispatcher{store: store, dir: dir, audit: auditLog, clock: clock}
}

// Notify writes a single unread notification.
func (d *Dispatcher) Notify(ctx context.Context, recipient uuid.UUID, typ domain.NotificationType, title, message string, eventID, commentID *uuid.UUID) (*domain.Notification, error) {
	if recipient == uuid.Nil {
		return nil, domain.ErrValidation("recipient is required")
	}
	n := domain.NewNotification(recipient, typ, title, message, eventID, commentID, d.clock.Now())
	if err := d.store.Insert(ctx, n); err != nil {
		metrics.RecordNotification(string(typ), "error")
		return nil, err
	}
	metrics.RecordNotification(string(typ), "ok")
	return n, nil
}

func (d *Dispatcher) deliver(ctx context.Context, recipient uuid.UUID, typ domain.NotificationType, title, message string, eventID, commentID *uuid.UUID) {
	if _, err := d.Notify(ctx, recipient, typ, title, message, eventID, commentID); err != nil {
		d.audit.NotificationFailed(ctx, typ, recipient, err)
	}
}

func (d *Dispatcher) fanout(ctx context.Context, recipients []uuid.UUID, typ domain.NotificationType, title, message string, eventID *uuid.UUID) {
	if len(recipients) == 0 {
		return
	}
	now := d.clock.Now()
	ns := make([]*domain.Notification, 0, len(recipients))
	for _, r := range recipients {
		ns = append(ns, domain.NewNotification(r, typ, title, message, eventID, nil, now))
	}
	if err := d.store.InsertFanout(ctx, ns); err != nil {
		metrics.RecordNotification(string(typ), "error")
		logger.WithCtx(ctx).Error().Err(err).
			Str("type", string(typ)).
			Int("recipients", len(ns)).
			Msg("notification fan-out failed")
		return
	}
	for range ns {
		metrics.RecordNotification(string(typ), "ok")
	}
}

func eventRef(ev *domain.Event) *uuid.UUID {
	id := ev.ID
	return &id
}

// RsvpCreated tells the invitee they were invited.
func (d *Dispatcher) RsvpCreated(ctx context.Context, ev *domain.Event, r *domain.Rsvp) {
	title, msg := domain.InviteMessage(ev.Title)
	d.deliver(ctx, r.InviteeID, domain.NotifyNewRsvp, title, msg, eventRef(ev), nil)
}

// RsvpStatusChanged tells the host. Changes made by the host are not echoed back.
func (d *Dispatcher) RsvpStatusChanged(ctx context.Context, ev *domain.Event, r *domain.Rsvp, actorID uuid.UUID) {
	if actorID == ev.OwnerID {
		return
	}
	if _, err := d.dir.GetUser(ctx, ev.OwnerID); err != nil {
		logger.WithCtx(ctx).Warn().Err(err).
			Str("event_id", ev.ID.String()).
			Msg("host not found, skipping rsvp update notification")
		metrics.RecordNotification(string(domain.NotifyRsvpUpdated), "skipped")
		return
	}

	name := ""
	if u, err := d.dir.GetUser(ctx, r.InviteeID); err == nil {
		name = u.DisplayName()
	}
	title, msg := domain.RsvpUpdatedMessage(name, ev.Title, r.Status)
	d.deliver(ctx, ev.OwnerID, domain.NotifyRsvpUpdated, title, msg, eventRef(ev), nil)
}

// EventUpdated reaches every RSVP holder except the host.
func (d *Dispatcher) EventUpdated(ctx context.Context, ev *domain.Event) {
	holders, ok := d.holders(ctx, ev)
	if !ok {
		return
	}
	recipients := make([]uuid.UUID, 0, len(holders))
	for _, id := range holders {
		if id != ev.OwnerID {
			recipients = append(recipients, id)
		}
	}
	title, msg := domain.EventUpdatedMessage(ev.Title)
	d.fanout(ctx, recipients, domain.NotifyEventUpdate, title, msg, eventRef(ev))
}

// EventCanceled reaches every RSVP holder regardless of status.
func (d *Dispatcher) EventCanceled(ctx context.Context, ev *domain.Event) {
	holders, ok := d.holders(ctx, ev)
	if !ok {
		return
	}
	title, msg := domain.EventCanceledMessage(ev.Title)
	d.fanout(ctx, holders, domain.NotifyEventCanceled, title, msg, eventRef(ev))
}

// CommentCreated tells the host, unless the host wrote the comment.
func (d *Dispatcher) CommentCreated(ctx context.Context, ev *domain.Event, c *domain.Comment, author *domain.User) {
	if c.UserID == ev.OwnerID {
		return
	}
	title, msg := domain.CommentMessage(author.DisplayName(), ev.Title)
	commentID := c.ID
	d.deliver(ctx, ev.OwnerID, domain.NotifyComment, title, msg, eventRef(ev), &commentID)
}

// Mentioned notifies already-filtered mention targets.
func (d *Dispatcher) Mentioned(ctx context.Context, ev *domain.Event, c *domain.Comment, author *domain.User, userIDs []uuid.UUID) {
	title, msg := domain.MentionMessage(author.DisplayName(), ev.Title)
	commentID := c.ID
	for _, id := range userIDs {
		if id == c.UserID {
			continue
		}
		d.deliver(ctx, id, domain.NotifyNewMention, title, msg, eventRef(ev), &commentID)
	}
}

func (d *Dispatcher) holders(ctx context.Context, ev *domain.Event) ([]uuid.UUID, bool) {
	ids, err := d.dir.RsvpHolders(ctx, ev.ID)
	if err != nil {
		logger.WithCtx(ctx).Error().Err(err).
			Str("event_id", ev.ID.String()).
			Msg("load rsvp holders failed, notifications dropped")
		return nil, false
	}
	return ids, true
}
