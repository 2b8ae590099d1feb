package rsvp

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/domain"
	"github.com/google/uuid"
)

// UpdateStatus moves an RSVP between statuses. Only NO -> PENDING/YES/MAYBE
// needs a capacity check; the row itself is not counted because NO holds no spot.
// Setting the current status again is a no-op.
func (s *Service) UpdateStatus(ctx context.Context, actorID, rsvpID uuid.UUID, status domain.RsvpStatus) (*domain.Rsvp, error) {
	if actorID == uuid.Nil {
		return nil, domain.ErrUnauthenticated("authentication required")
	}
	if !status.Valid() {
		return nil, domain.ErrValidation("invalid rsvp status")
	}

	var (
		out     *domain.Rsvp
		ev      *domain.Event
		from    domain.RsvpStatus
		changed bool
		eventID uuid.UUID
	)
	err := s.repo.WithTx(ctx, func(tx TxRepo) error {
		// event lock first, then the rsvp row
		peek, err := tx.GetRsvp(ctx, rsvpID)
		if err != nil {
			return err
		}
		eventID = peek.EventID

		e, err := tx.LockEvent(ctx, peek.EventID)
		if err != nil {
			return err
		}
		r, err := tx.GetRsvpForUpdate(ctx, rsvpID)
		if err != nil {
			return err
		}
		if !r.CanRespond(actorID, e.OwnerID) {
			return domain.ErrForbidden("only the invitee or the host can change this rsvp")
		}
		if e.IsCanceled {
			return domain.ErrEventCanceled()
		}

		ev, from = e, r.Status
		if r.Status == status {
			out = r
			return nil
		}

		if domain.TransitionNeedsCapacity(r.Status, status) {
			n, err := tx.EffectiveGuestCount(ctx, e.ID)
			if err != nil {
				return err
			}
			if err := domain.NewCapacity(e, n).Admit(1); err != nil {
				return err
			}
		}

		now := s.clock.Now()
		if err := tx.UpdateRsvpStatus(ctx, r.ID, status, now); err != nil {
			return err
		}
		r.Status = status
		r.UpdatedAt = now.UTC()

		msg, err := domain.NewOutboxMessage(ctx, domain.RouteRsvpUpdated, rsvpPayload(r, actorID, from), now)
		if err != nil {
			return err
		}
		if err := tx.InsertOutbox(ctx, msg); err != nil {
			return err
		}

		out, changed = r, true
		return nil
	})
	s.observe(ctx, "update", eventID, actorID, 1, err)
	if err != nil {
		return nil, err
	}
	if !changed {
		return out, nil
	}

	ctx, cancel := postCommit(ctx)
	defer cancel()

	s.invalidate(ctx, out.EventID)
	s.audit.RsvpUpdated(ctx, out, from, actorID)
	s.notifier.RsvpStatusChanged(ctx, ev, out, actorID)
	return out, nil
}
