package event

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/domain"
	"github.com/google/uuid"
)

func (s *Service) Cancel(ctx context.Context, actorID, eventID uuid.UUID) (*domain.Event, error) {
	if actorID == uuid.Nil {
		return nil, domain.ErrUnauthenticated("authentication required")
	}

	var out *domain.Event
	err := s.repo.WithTx(ctx, func(tx TxRepo) error {
		ev, err := tx.LockEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if !ev.IsHost(actorID) {
			return domain.ErrForbidden("only the host can cancel this event")
		}

		now := s.clock.Now()
		if err := ev.Cancel(now); err != nil {
			return err
		}
		if err := tx.UpdateEvent(ctx, ev); err != nil {
			return err
		}
		if err := writeOutbox(ctx, tx, domain.RouteEventCanceled, eventPayload(ev), now); err != nil {
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
	s.audit.EventCanceled(ctx, out.ID, actorID)
	s.notifier.EventCanceled(ctx, out)
	return out, nil
}
