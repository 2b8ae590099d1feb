package rsvp

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/domain"
	"github.com/google/uuid"
)

type CreateInput struct {
	EventID   uuid.UUID
	InviteeID uuid.UUID // uuid.Nil means the actor responds for themselves
	Status    domain.RsvpStatus
}

// Create admits a single RSVP. Rows that would consume a spot are checked
// against maxGuests under the event row lock.
func (s *Service) Create(ctx context.Context, actorID uuid.UUID, in CreateInput) (*domain.Rsvp, error) {
	if actorID == uuid.Nil {
		return nil, domain.ErrUnauthenticated("authentication required")
	}
	status := in.Status
	if status == "" {
		status = domain.RsvpPending
	}
	if !status.Valid() {
		return nil, domain.ErrValidation("invalid rsvp status")
	}
	invitee := in.InviteeID
	if invitee == uuid.Nil {
		invitee = actorID
	}

	var (
		out *domain.Rsvp
		ev  *domain.Event
	)
	err := s.repo.WithTx(ctx, func(tx TxRepo) error {
		e, err := tx.LockEvent(ctx, in.EventID)
		if err != nil {
			return err
		}
		if e.IsCanceled {
			return domain.ErrEventCanceled()
		}
		if !e.IsHost(actorID) {
			if invitee != actorID {
				return domain.ErrForbidden("only the host can invite other users")
			}
			if e.IsPrivate {
				return domain.ErrForbidden("private event requires an invitation")
			}
		}

		now := s.clock.Now()
		r, err := domain.NewRsvp(e.ID, invitee, actorID, status, now)
		if err != nil {
			return err
		}

		if status.ConsumesCapacity() {
			n, err := tx.EffectiveGuestCount(ctx, e.ID)
			if err != nil {
				return err
			}
			if err := domain.NewCapacity(e, n).Admit(1); err != nil {
				return err
			}
		}

		if err := tx.InsertRsvp(ctx, r); err != nil {
			return err
		}

		msg, err := domain.NewOutboxMessage(ctx, domain.RouteRsvpCreated, rsvpPayload(r, actorID, ""), now)
		if err != nil {
			return err
		}
		if err := tx.InsertOutbox(ctx, msg); err != nil {
			return err
		}

		out, ev = r, e
		return nil
	})
	s.observe(ctx, "create", in.EventID, actorID, 1, err)
	if err != nil {
		return nil, err
	}

	ctx, cancel := postCommit(ctx)
	defer cancel()

	s.invalidate(ctx, out.EventID)
	s.audit.RsvpCreated(ctx, out)
	if out.InviteeID != actorID {
		s.notifier.RsvpCreated(ctx, ev, out)
	}
	return out, nil
}
