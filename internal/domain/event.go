package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Event struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	ImageURL    string    `json:"image_url,omitempty"`
	DateTime    time.Time `json:"date_time"`
	MaxGuests   int       `json:"max_guests"`
	IsPrivate   bool      `json:"is_private"`
	IsCanceled  bool      `json:"is_canceled"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type EventInput struct {
	Title       string
	Description string
	Location    string
	ImageURL    string
	DateTime    time.Time
	MaxGuests   int
	IsPrivate   bool
}

func NewEvent(ownerID uuid.UUID, in EventInput, now time.Time) (*Event, error) {
	if ownerID == uuid.Nil {
		return nil, ErrValidation("owner_id is required")
	}
	title := strings.TrimSpace(in.Title)
	location := strings.TrimSpace(in.Location)
	description := strings.TrimSpace(in.Description)

	if title == "" || len(title) > 120 {
		return nil, ErrValidation("title is required and must be <= 120 chars")
	}
	if len(description) > 4000 {
		return nil, ErrValidation("description must be <= 4000 chars")
	}
	if location == "" || len(location) > 200 {
		return nil, ErrValidation("location is required and must be <= 200 chars")
	}
	if in.DateTime.IsZero() || !in.DateTime.After(now) {
		return nil, ErrValidation("date_time must be in the future")
	}
	if in.MaxGuests < 0 {
		return nil, ErrValidation("max_guests must be >= 0")
	}

	t := now.UTC()
	return &Event{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		Location:    location,
		ImageURL:    strings.TrimSpace(in.ImageURL),
		DateTime:    in.DateTime.UTC(),
		MaxGuests:   in.MaxGuests,
		IsPrivate:   in.IsPrivate,
		CreatedAt:   t,
		UpdatedAt:   t,
	}, nil
}

func (e *Event) IsHost(userID uuid.UUID) bool {
	return userID != uuid.Nil && e.OwnerID == userID
}

// CanView: public events are visible to everyone, private ones to the host and
// anyone already holding an RSVP.
func (e *Event) CanView(userID uuid.UUID, holdsRsvp bool) bool {
	return !e.IsPrivate || e.IsHost(userID) || holdsRsvp
}

type EventPatch struct {
	Title       *string
	Description *string
	Location    *string
	ImageURL    *string
	DateTime    *time.Time
	MaxGuests   *int
	IsPrivate   *bool
}

func (p EventPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Location == nil && p.ImageURL == nil &&
		p.DateTime == nil && p.MaxGuests == nil && p.IsPrivate == nil
}

// ApplyUpdate mutates e in place. effective is the current reserved-spot count,
// used to refuse shrinking maxGuests below what is already committed.
func (e *Event) ApplyUpdate(p EventPatch, effective int, now time.Time) error {
	if e.IsCanceled {
		return ErrEventCanceled()
	}
	if p.Title != nil {
		v := strings.TrimSpace(*p.Title)
		if v == "" || len(v) > 120 {
			return ErrValidation("title must be non-empty and <= 120 chars")
		}
		e.Title = v
	}
	if p.Description != nil {
		v := strings.TrimSpace(*p.Description)
		if len(v) > 4000 {
			return ErrValidation("description must be <= 4000 chars")
		}
		e.Description = v
	}
	if p.Location != nil {
		v := strings.TrimSpace(*p.Location)
		if v == "" || len(v) > 200 {
			return ErrValidation("location must be non-empty and <= 200 chars")
		}
		e.Location = v
	}
	if p.ImageURL != nil {
		e.ImageURL = strings.TrimSpace(*p.ImageURL)
	}
	if p.DateTime != nil {
		if !p.DateTime.After(now) {
			return ErrValidation("date_time must be in the future")
		}
		e.DateTime = p.DateTime.UTC()
	}
	if p.MaxGuests != nil {
		if *p.MaxGuests < 0 {
			return ErrValidation("max_guests must be >= 0")
		}
		if *p.MaxGuests < effective {
			return ErrValidationMeta("max_guests cannot be lower than reserved spots", map[string]string{
				"max_guests": "must be >= current reserved spots",
			})
		}
		e.MaxGuests = *p.MaxGuests
	}
	if p.IsPrivate != nil {
		e.IsPrivate = *p.IsPrivate
	}
	e.UpdatedAt = now.UTC()
	return nil
}

func (e *Event) Cancel(now time.Time) error {
	if e.IsCanceled {
		return ErrInvalidState("event already canceled")
	}
	e.IsCanceled = true
	e.UpdatedAt = now.UTC()
	return nil
}
