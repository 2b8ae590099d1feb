package rsvp

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/metrics"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
)

type CapacityReport struct {
	EffectiveGuests int  `json:"effective_guests"`
	MaxGuests       int  `json:"max_guests"`
	AvailableSpots  int  `json:"available_spots"`
	CanAddGuests    bool `json:"can_add_guests"`
	IsCanceled      bool `json:"is_canceled"`

	// Set when the caller holds an RSVP on the event.
	MyRsvp      *domain.Rsvp        `json:"my_rsvp,omitempty"`
	Transitions []domain.RsvpStatus `json:"transitions,omitempty"`
}

// CheckCapacity is advisory feedback for clients. It may be served from the
// snapshot cache; admission always re-checks under the event lock.
func (s *Service) CheckCapacity(ctx context.Context, actorID, eventID uuid.UUID, additional int) (*CapacityReport, error) {
	if actorID == uuid.Nil {
		return nil, domain.ErrUnauthenticated("authentication required")
	}
	if additional < 0 {
		return nil, domain.ErrValidation("additional must be >= 0")
	}

	ev, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	mine, err := s.repo.FindRsvp(ctx, eventID, actorID)
	if err != nil && !domain.IsCode(err, domain.CodeNotFound) {
		return nil, err
	}
	if !ev.CanView(actorID, mine != nil) {
		return nil, domain.ErrForbidden("event is private")
	}

	snap, err := s.snapshot(ctx, ev)
	if err != nil {
		return nil, err
	}

	rep := &CapacityReport{
		EffectiveGuests: snap.EffectiveGuests,
		MaxGuests:       snap.MaxGuests,
		AvailableSpots:  snap.AvailableSpots(),
		CanAddGuests:    !ev.IsCanceled && snap.CanAdmit(additional),
		IsCanceled:      ev.IsCanceled,
	}
	if mine != nil {
		rep.MyRsvp = mine
		// canceled events are terminal
		if !ev.IsCanceled {
			rep.Transitions = snap.AllowedTransitions(mine.Status)
		}
	}
	return rep, nil
}

func (s *Service) snapshot(ctx context.Context, ev *domain.Event) (domain.Capacity, error) {
	if s.cache != nil {
		c, ok, err := s.cache.GetCapacity(ctx, ev.ID)
		if err != nil {
			zlog.Warn().Err(err).Str("event_id", ev.ID.String()).Msg("capacity cache read failed")
		}
		metrics.RecordCapacityCache(ok)
		if ok {
			// maxGuests may have changed since the snapshot was taken
			c.MaxGuests = ev.MaxGuests
			return c, nil
		}
	}

	// the generation must be read before counting
	var (
		gen       int64
		cacheable bool
	)
	if s.cache != nil {
		g, err := s.cache.CapacityGeneration(ctx, ev.ID)
		if err != nil {
			zlog.Warn().Err(err).Str("event_id", ev.ID.String()).Msg("capacity cache generation read failed")
		} else {
			gen, cacheable = g, true
		}
	}

	n, err := s.repo.EffectiveGuestCount(ctx, ev.ID)
	if err != nil {
		return domain.Capacity{}, err
	}
	c := domain.NewCapacity(ev, n)

	if cacheable {
		if err := s.cache.SetCapacity(ctx, c, gen, s.cacheTTL); err != nil {
			zlog.Warn().Err(err).Str("event_id", ev.ID.String()).Msg("capacity cache write failed")
		}
	}
	return c, nil
}
