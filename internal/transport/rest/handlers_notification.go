package rest

import (
	"net/http"
	"strconv"

	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/transport/rest/response"
	"github.com/go-chi/render"
)

type markReadRequest struct {
	IDs []string `json:"ids" validate:"max=500,dive,uuid"`
}

// MarkNotificationsRead: POST /notifications/read -> {"success": true}
func (h *Handler) MarkNotificationsRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := actor(w, r)
	if !ok {
		return
	}
	var req markReadRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		fail(w, r, http.StatusBadRequest, string(domain.CodeValidation), "invalid body", nil)
		return
	}
	if err := validateStruct(req); err != nil {
		handleErr(w, r, err)
		return
	}
	ids, err := parseUUIDs(req.IDs)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	if err := h.inbox.MarkAsRead(r.Context(), userID, ids); err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, map[string]bool{"success": true})
}

// ListNotifications: GET /notifications?unread=true
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := actor(w, r)
	if !ok {
		return
	}
	limit, cur, ok := pageParams(w, r)
	if !ok {
		return
	}
	unreadOnly, _ := strconv.ParseBool(r.URL.Query().Get("unread"))

	items, next, err := h.inbox.List(r.Context(), userID, unreadOnly, limit, cur)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Paged(w, nonNil(items), encodeCursor(next))
}

func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := actor(w, r)
	if !ok {
		return
	}
	n, err := h.inbox.UnreadCount(r.Context(), userID)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, map[string]int{"unread": n})
}

func (h *Handler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	userID, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "notificationID")
	if !ok {
		return
	}
	if err := h.inbox.Delete(r.Context(), userID, id); err != nil {
		handleErr(w, r, err)
		return
	}
	response.NoContent(w)
}

type userResult struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// SearchUsers: GET /users/search?q=
func (h *Handler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	users, err := h.users.Search(r.Context(), actorID, r.URL.Query().Get("q"))
	if err != nil {
		handleErr(w, r, err)
		return
	}
	out := make([]userResult, 0, len(users))
	for _, u := range users {
		out = append(out, userResult{ID: u.ID.String(), Email: u.Email})
	}
	response.Data(w, http.StatusOK, out)
}
