package rest

import (
	"net/http"
	"strconv"
	"strings"

	apprsvp "github.com/baechuer/real-time-ressys/services/rsvp-service/internal/application/rsvp"
	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/transport/rest/response"
	"github.com/go-chi/render"
	"github.com/google/uuid"
)

type createRsvpRequest struct {
	InviteeID string `json:"invitee_id" validate:"omitempty,uuid"`
	Status    string `json:"status" validate:"omitempty,max=16"`
}

// CreateRsvp: POST /events/{eventID}/rsvps
func (h *Handler) CreateRsvp(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	eventID, ok := uuidParam(w, r, "eventID")
	if !ok {
		return
	}

	var req createRsvpRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		fail(w, r, http.StatusBadRequest, string(domain.CodeValidation), "invalid body", nil)
		return
	}
	if err := validateStruct(req); err != nil {
		handleErr(w, r, err)
		return
	}
	status, err := domain.ParseRsvpStatus(req.Status)
	if err != nil {
		handleErr(w, r, err)
		return
	}

	in := apprsvp.CreateInput{EventID: eventID, Status: status}
	if req.InviteeID != "" {
		in.InviteeID = uuid.MustParse(req.InviteeID)
	}

	rsvp, err := h.rsvps.Create(r.Context(), actorID, in)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusCreated, rsvp)
}

type batchRsvpRequest struct {
	InviteeIDs []string `json:"invitee_ids" validate:"required,min=1,max=100,dive,uuid"`
}

// CreateRsvpBatch: POST /events/{eventID}/rsvps/batch
func (h *Handler) CreateRsvpBatch(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	eventID, ok := uuidParam(w, r, "eventID")
	if !ok {
		return
	}

	var req batchRsvpRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		fail(w, r, http.StatusBadRequest, string(domain.CodeValidation), "invalid body", nil)
		return
	}
	if err := validateStruct(req); err != nil {
		handleErr(w, r, err)
		return
	}
	ids, err := parseUUIDs(req.InviteeIDs)
	if err != nil {
		handleErr(w, r, err)
		return
	}

	res, err := h.rsvps.CreateMultiple(r.Context(), actorID, eventID, ids)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusCreated, res)
}

type updateRsvpRequest struct {
	Status string `json:"status" validate:"required,max=16"`
}

// UpdateRsvp: PATCH /rsvps/{rsvpID}
func (h *Handler) UpdateRsvp(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	rsvpID, ok := uuidParam(w, r, "rsvpID")
	if !ok {
		return
	}

	var req updateRsvpRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		fail(w, r, http.StatusBadRequest, string(domain.CodeValidation), "invalid body", nil)
		return
	}
	if err := validateStruct(req); err != nil {
		handleErr(w, r, err)
		return
	}
	status, err := domain.ParseRsvpStatus(req.Status)
	if err != nil {
		handleErr(w, r, err)
		return
	}

	rsvp, err := h.rsvps.UpdateStatus(r.Context(), actorID, rsvpID, status)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, rsvp)
}

// DeleteRsvp: DELETE /rsvps/{rsvpID}
func (h *Handler) DeleteRsvp(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	rsvpID, ok := uuidParam(w, r, "rsvpID")
	if !ok {
		return
	}
	if err := h.rsvps.Delete(r.Context(), actorID, rsvpID); err != nil {
		handleErr(w, r, err)
		return
	}
	response.NoContent(w)
}

func (h *Handler) GetRsvp(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	rsvpID, ok := uuidParam(w, r, "rsvpID")
	if !ok {
		return
	}
	rsvp, err := h.rsvps.Get(r.Context(), actorID, rsvpID)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, rsvp)
}

// Capacity: GET /events/{eventID}/capacity?additional=N (default 1)
func (h *Handler) Capacity(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	eventID, ok := uuidParam(w, r, "eventID")
	if !ok {
		return
	}

	additional := 1
	if s := strings.TrimSpace(r.URL.Query().Get("additional")); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			fail(w, r, http.StatusBadRequest, string(domain.CodeValidation), "invalid additional", map[string]string{
				"additional": "must be an integer",
			})
			return
		}
		additional = n
	}

	report, err := h.rsvps.CheckCapacity(r.Context(), actorID, eventID, additional)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, report)
}

// MyRsvps: GET /me/rsvps
func (h *Handler) MyRsvps(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	limit, cur, ok := pageParams(w, r)
	if !ok {
		return
	}
	items, next, err := h.rsvps.ListMine(r.Context(), actorID, limit, cur)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Paged(w, nonNil(items), encodeCursor(next))
}

// EventRsvps: GET /events/{eventID}/rsvps
func (h *Handler) EventRsvps(w http.ResponseWriter, r *http.Request) {
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
	items, next, err := h.rsvps.ListForEvent(r.Context(), actorID, eventID, limit, cur)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Paged(w, nonNil(items), encodeCursor(next))
}

// nonNil keeps empty lists as [] in JSON.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
