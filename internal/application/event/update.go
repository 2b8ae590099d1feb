package event

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/domain"
	"github.com/google/uuid"
)

// Update is host-only. Lowering maxGuests is checked against the reserved
// count under the same lock RSVP admissions take.
func (s *Service) Update(ctx context.Context, actorID, eventID uuid.UUID, patch domain.EventPatch) (*domain.Event, error) {
	if actorID == uuid.Nil {
		return nil, domain.ErrUnauthenticated("authentication required")
	}
	if patch.Empty() {
		return nil, domain.ErrValidation("no fields to update")
	}

	var out *domain.Event
	err := s.repo.WithTx(ctx, func(tx TxRepo) error {
		ev, err := tx.LockEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if !ev.IsHost(actorID) {
			return domain.ErrForbidden("only the host can edit this event")
		}
		if ev.IsCanceled {
			return domain.ErrEventCanceled()
		}

		effective := 0
		if patch.MaxGuests != nil {
			if effective, err = tx.EffectiveGuestCount(ctx, ev.ID); err != nil {
				return err
			}
		}

		now := s.clock.Now()
		if err := ev.ApplyUpdate(patch, effective, now); err != nil {
			return err
		}
		if err := tx.UpdateEvent(ctx, ev); err != nil {
			return err
		}
		if err := writeOutbox(ctx, tx, domain.RouteEventUpdated, eventPayload(ev), now); err != nil {
			return err
		}
		out = ev
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := postCommit(ctx)
	defer cancel()

	s.invalidate(ctx, out.ID)
	s.notifier.EventUpdated(ctx, out)
	return out, nil
}
