package rsvp

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/domain"
	"github.com/google/uuid"
)

func (s *Service) Get(ctx context.Context, actorID, rsvpID uuid.UUID) (*domain.Rsvp, error) {
	r, err := s.repo.GetRsvp(ctx, rsvpID)
	if err != nil {
		return nil, err
	}
	if r.InviteeID == actorID || r.UserID == actorID {
		return r, nil
	}
	if err := s.requireEventAccess(ctx, actorID, r.EventID); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) ListMine(ctx context.Context, actorID uuid.UUID, limit int, cursor *domain.KeysetCursor) ([]domain.Rsvp, *domain.KeysetCursor, error) {
	if actorID == uuid.Nil {
		return nil, nil, domain.ErrUnauthenticated("authentication required")
	}
	return s.repo.ListRsvpsByInvitee(ctx, actorID, limit, cursor)
}

// ListForEvent is limited to the host and users holding an RSVP on the event.
func (s *Service) ListForEvent(ctx context.Context, actorID, eventID uuid.UUID, limit int, cursor *domain.KeysetCursor) ([]domain.Rsvp, *domain.KeysetCursor, error) {
	if err := s.requireEventAccess(ctx, actorID, eventID); err != nil {
		return nil, nil, err
	}
	return s.repo.ListRsvpsByEvent(ctx, eventID, limit, cursor)
}

func (s *Service) requireEventAccess(ctx context.Context, actorID, eventID uuid.UUID) error {
	ev, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if ev.IsHost(actorID) {
		return nil
	}
	_, err = s.repo.FindRsvp(ctx, eventID, actorID)
	if err == nil {
		return nil
	}
	if domain.IsCode(err, domain.CodeNotFound) {
		return domain.ErrForbidden("not allowed to view rsvps of this event")
	}
	return err
}
