package rest

import (
	"net/http"
	"time"

	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/transport/rest/response"
	"github.com/go-chi/render"
)

type createEventRequest struct {
	Title       string    `json:"title" validate:"required,max=120"`
	Description string    `json:"description" validate:"max=4000"`
	Location    string    `json:"location" validate:"required,max=200"`
	ImageURL    string    `json:"image_url" validate:"omitempty,url,max=2048"`
	DateTime    time.Time `json:"date_time" validate:"required"`
	MaxGuests   *int      `json:"max_guests" validate:"required,gte=0"`
	IsPrivate   bool      `json:"is_private"`
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	var req createEventRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		fail(w, r, http.StatusBadRequest, string(domain.CodeValidation), "invalid body", nil)
		return
	}
	if err := validateStruct(req); err != nil {
		handleErr(w, r, err)
		return
	}

	ev, err := h.events.Create(r.Context(), actorID, domain.EventInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		ImageURL:    req.ImageURL,
		DateTime:    req.DateTime,
		MaxGuests:   *req.MaxGuests,
		IsPrivate:   req.IsPrivate,
	})
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusCreated, ev)
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	eventID, ok := uuidParam(w, r, "eventID")
	if !ok {
		return
	}
	ev, err := h.events.Get(r.Context(), actorID, eventID)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, ev)
}

type updateEventRequest struct {
	Title       *string    `json:"title" validate:"omitempty,max=120"`
	Description *string    `json:"description" validate:"omitempty,max=4000"`
	Location    *string    `json:"location" validate:"omitempty,max=200"`
	ImageURL    *string    `json:"image_url" validate:"omitempty,max=2048"`
	DateTime    *time.Time `json:"date_time"`
	MaxGuests   *int       `json:"max_guests" validate:"omitempty,gte=0"`
	IsPrivate   *bool      `json:"is_private"`
}

// UpdateEvent: PATCH /events/{eventID}; absent fields are left unchanged.
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	eventID, ok := uuidParam(w, r, "eventID")
	if !ok {
		return
	}
	var req updateEventRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		fail(w, r, http.StatusBadRequest, string(domain.CodeValidation), "invalid body", nil)
		return
	}
	if err := validateStruct(req); err != nil {
		handleErr(w, r, err)
		return
	}

	ev, err := h.events.Update(r.Context(), actorID, eventID, domain.EventPatch{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		ImageURL:    req.ImageURL,
		DateTime:    req.DateTime,
		MaxGuests:   req.MaxGuests,
		IsPrivate:   req.IsPrivate,
	})
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, ev)
}

// CancelEvent: POST /events/{eventID}/cancel
func (h *Handler) CancelEvent(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	eventID, ok := uuidParam(w, r, "eventID")
	if !ok {
		return
	}
	ev, err := h.events.Cancel(r.Context(), actorID, eventID)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, ev)
}

type createCommentRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	eventID, ok := uuidParam(w, r, "eventID")
	if !ok {
		return
	}
	var req createCommentRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		fail(w, r, http.StatusBadRequest, string(domain.CodeValidation), "invalid body", nil)
		return
	}
	if err := validateStruct(req); err != nil {
		handleErr(w, r, err)
		return
	}
	res, err := h.events.AddComment(r.Context(), actorID, eventID, req.Content)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusCreated, res)
}

func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	eventID, ok := uuidParam(w, r, "eventID")
	if !ok {
		return
	}
	limit, cur, ok := pageParams(w, r)
	if !ok {
		return
	}
	items, next, err := h.events.ListComments(r.Context(), actorID, eventID, limit, cur)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Paged(w, nonNil(items), encodeCursor(next))
}
