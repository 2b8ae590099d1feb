package domain

import "github.com/google/uuid"

// Capacity is a snapshot of an event's reserved spots. It is only authoritative
// when read inside the transaction that holds the event row lock.
type Capacity struct {
	EventID         uuid.UUID `json:"event_id"`
	EffectiveGuests int       `json:"effective_guests"`
	MaxGuests       int       `json:"max_guests"`
}

func NewCapacity(ev *Event, effective int) Capacity {
	return Capacity{EventID: ev.ID, EffectiveGuests: effective, MaxGuests: ev.MaxGuests}
}

func (c Capacity) AvailableSpots() int {
	return c.MaxGuests - c.EffectiveGuests
}

func (c Capacity) CanAdmit(additional int) bool {
	return c.AvailableSpots() >= additional
}

// Admit returns ErrCapacityExceeded when additional more guests do not fit.
func (c Capacity) Admit(additional int) error {
	if additional <= 0 || c.CanAdmit(additional) {
		return nil
	}
	return ErrCapacityExceeded(c.EffectiveGuests, c.MaxGuests, additional)
}

// AllowedTransitions lists the statuses an RSVP currently in from may move to.
// Moves that would start consuming a spot are only offered while one is free.
func (c Capacity) AllowedTransitions(from RsvpStatus) []RsvpStatus {
	out := make([]RsvpStatus, 0, len(AllStatuses))
	for _, to := range AllStatuses {
		if to == from {
			continue
		}
		if TransitionNeedsCapacity(from, to) && !c.CanAdmit(1) {
			continue
		}
		out = append(out, to)
	}
	return out
}
