package rsvp

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/domain"
	"github.com/google/uuid"
)

// Delete removes an RSVP. Freeing a spot can never break the capacity
// invariant, so there is no check and no notification.
func (s *Service) Delete(ctx context.Context, actorID, rsvpID uuid.UUID) error {
	if actorID == uuid.Nil {
		return domain.ErrUnauthenticated("authentication required")
	}

	var (
		deleted *domain.Rsvp
		eventID uuid.UUID
	)
	err := s.repo.WithTx(ctx, func(tx TxRepo) error {
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
		if !r.CanRemove(actorID, e.OwnerID) {
			return domain.ErrForbidden("not allowed to remove this rsvp")
		}
		if err := tx.DeleteRsvp(ctx, r.ID); err != nil {
			return err
		}

		msg, err := domain.NewOutboxMessage(ctx, domain.RouteRsvpDeleted, rsvpPayload(r, actorID, ""), s.clock.Now())
		if err != nil {
			return err
		}
		if err := tx.InsertOutbox(ctx, msg); err != nil {
			return err
		}
		deleted = r
		return nil
	})
	s.observe(ctx, "delete", eventID, actorID, 0, err)
	if err != nil {
		return err
	}

	ctx, cancel := postCommit(ctx)
	defer cancel()

	s.invalidate(ctx, deleted.EventID)
	s.audit.RsvpDeleted(ctx, deleted, actorID)
	return nil
}
