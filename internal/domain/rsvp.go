package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type RsvpStatus string

const (
	RsvpPending RsvpStatus = "PENDING"
	RsvpYes     RsvpStatus = "YES"
	RsvpMaybe   RsvpStatus = "MAYBE"
	RsvpNo      RsvpStatus = "NO"
)

// AllStatuses is the display order used by clients.
var AllStatuses = []RsvpStatus{RsvpPending, RsvpYes, RsvpMaybe, RsvpNo}

func (s RsvpStatus) Valid() bool {
	switch s {
	case RsvpPending, RsvpYes, RsvpMaybe, RsvpNo:
		return true
	default:
		return false
	}
}

// ConsumesCapacity reports whether an RSVP in this status reserves a spot.
// PENDING counts: an open invite holds its slot until declined.
func (s RsvpStatus) ConsumesCapacity() bool {
	return s.Valid() && s != RsvpNo
}

// ParseRsvpStatus accepts any casing; empty input defaults to PENDING.
func ParseRsvpStatus(raw string) (RsvpStatus, error) {
	v := strings.ToUpper(strings.TrimSpace(raw))
	if v == "" {
		return RsvpPending, nil
	}
	s := RsvpStatus(v)
	if !s.Valid() {
		return "", ErrValidationMeta("invalid rsvp status", map[string]string{
			"status": "must be one of PENDING, YES, MAYBE, NO",
		})
	}
	return s, nil
}

// TransitionNeedsCapacity is true only when a row that holds no spot would start
// holding one (NO -> PENDING/YES/MAYBE).
func TransitionNeedsCapacity(from, to RsvpStatus) bool {
	return !from.ConsumesCapacity() && to.ConsumesCapacity()
}

type Rsvp struct {
	ID        uuid.UUID  `json:"id"`
	EventID   uuid.UUID  `json:"event_id"`
	InviteeID uuid.UUID  `json:"invitee_id"`
	UserID    uuid.UUID  `json:"user_id"` // actor that created the row
	Status    RsvpStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func NewRsvp(eventID, inviteeID, actorID uuid.UUID, status RsvpStatus, now time.Time) (*Rsvp, error) {
	if eventID == uuid.Nil {
		return nil, ErrValidation("event_id is required")
	}
	if inviteeID == uuid.Nil {
		return nil, ErrValidation("invitee_id is required")
	}
	if !status.Valid() {
		return nil, ErrValidation("invalid rsvp status")
	}
	t := now.UTC()
	return &Rsvp{
		ID:        uuid.New(),
		EventID:   eventID,
		InviteeID: inviteeID,
		UserID:    actorID,
		Status:    status,
		CreatedAt: t,
		UpdatedAt: t,
	}, nil
}

// CanRespond is true for the invitee and the event host.
func (r *Rsvp) CanRespond(actorID, hostID uuid.UUID) bool {
	return actorID != uuid.Nil && (actorID == r.InviteeID || actorID == hostID)
}

// CanRemove also lets the actor that created the row withdraw it.
func (r *Rsvp) CanRemove(actorID, hostID uuid.UUID) bool {
	return r.CanRespond(actorID, hostID) || (actorID != uuid.Nil && actorID == r.UserID)
}

type KeysetCursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}
