package rsvp

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/domain"
	"github.com/google/uuid"
)

type BatchResult struct {
	Count int            `json:"count"`
	Rsvps []*domain.Rsvp `json:"rsvps"`
}

// CreateMultiple invites a set of users to a private event. The batch is
// all-or-nothing: either every new invitee fits or no row is written.
// Self-invites and users already holding an RSVP are skipped.
func (s *Service) CreateMultiple(ctx context.Context, actorID, eventID uuid.UUID, inviteeIDs []uuid.UUID) (*BatchResult, error) {
	if actorID == uuid.Nil {
		return nil, domain.ErrUnauthenticated("authentication required")
	}
	if len(inviteeIDs) == 0 {
		return nil, domain.ErrValidation("invitee_ids must not be empty")
	}
	if len(inviteeIDs) > maxBatchSize {
		return nil, domain.ErrValidation("too many invitees in one request")
	}

	candidates := dedupeInvitees(inviteeIDs, actorID)

	res := &BatchResult{Rsvps: []*domain.Rsvp{}}
	var ev *domain.Event
	requested := 0

	err := s.repo.WithTx(ctx, func(tx TxRepo) error {
		e, err := tx.LockEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if e.IsCanceled {
			return domain.ErrEventCanceled()
		}
		if !e.IsHost(actorID) {
			return domain.ErrForbidden("only the host can invite users")
		}
		if !e.IsPrivate {
			return domain.ErrForbidden("invitations are only available for private events")
		}
		ev = e

		if len(candidates) == 0 {
			return nil
		}

		existing, err := tx.ExistingInvitees(ctx, e.ID, candidates)
		if err != nil {
			return err
		}
		fresh := make([]uuid.UUID, 0, len(candidates))
		for _, id := range candidates {
			if _, ok := existing[id]; !ok {
				fresh = append(fresh, id)
			}
		}
		if len(fresh) == 0 {
			return nil
		}
		requested = len(fresh)

		n, err := tx.EffectiveGuestCount(ctx, e.ID)
		if err != nil {
			return err
		}
		if err := domain.NewCapacity(e, n).Admit(len(fresh)); err != nil {
			return err
		}

		now := s.clock.Now()
		created := make([]*domain.Rsvp, 0, len(fresh))
		for _, invitee := range fresh {
			r, err := domain.NewRsvp(e.ID, invitee, actorID, domain.RsvpPending, now)
			if err != nil {
				return err
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
			created = append(created, r)
		}

		res.Rsvps = created
		res.Count = len(created)
		return nil
	})
	s.observe(ctx, "batch", eventID, actorID, requested, err)
	if err != nil {
		return nil, err
	}
	if res.Count == 0 {
		return res, nil
	}

	ctx, cancel := postCommit(ctx)
	defer cancel()

	s.invalidate(ctx, eventID)
	s.audit.InvitesSent(ctx, eventID, actorID, res.Count)
	for _, r := range res.Rsvps {
		s.notifier.RsvpCreated(ctx, ev, r)
	}
	return res, nil
}

// dedupeInvitees keeps first-seen order and drops nil ids and the actor.
func dedupeInvitees(ids []uuid.UUID, actorID uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || id == actorID {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
