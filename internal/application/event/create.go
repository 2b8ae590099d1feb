package event

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/domain"
	"github.com/google/uuid"
)

func (s *Service) Create(ctx context.Context, actorID uuid.UUID, in domain.EventInput) (*domain.Event, error) {
	if actorID == uuid.Nil {
		return nil, domain.ErrUnauthenticated("authentication required")
	}
	now := s.clock.Now()
	ev, err := domain.NewEvent(actorID, in, now)
	if err != nil {
		return nil, err
	}

	err = s.repo.WithTx(ctx, func(tx TxRepo) error {
		if err := tx.CreateEvent(ctx, ev); err != nil {
			return err
		}
		return writeOutbox(ctx, tx, domain.RouteEventCreated, eventPayload(ev), now)
	})
	if err != nil {
		return nil, err
	}
	return ev, nil
}
