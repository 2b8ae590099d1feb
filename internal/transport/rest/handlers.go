package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/application/event"
	apprsvp "github.com/baechuer/real-time-ressys/services/rsvp-service/internal/application/rsvp"
	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/domain"
	appCtx "github.com/baechuer/real-time-ressys/services/rsvp-service/internal/pkg/context"
	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/pkg/logger"
	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/transport/rest/response"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type RsvpService interface {
	Create(ctx context.Context, actorID uuid.UUID, in apprsvp.CreateInput) (*domain.Rsvp, error)
	CreateMultiple(ctx context.Context, actorID, eventID uuid.UUID, inviteeIDs []uuid.UUID) (*apprsvp.BatchResult, error)
	UpdateStatus(ctx context.Context, actorID, rsvpID uuid.UUID, status domain.RsvpStatus) (*domain.Rsvp, error)
	Delete(ctx context.Context, actorID, rsvpID uuid.UUID) error
	Get(ctx context.Context, actorID, rsvpID uuid.UUID) (*domain.Rsvp, error)
	CheckCapacity(ctx context.Context, actorID, eventID uuid.UUID, additional int) (*apprsvp.CapacityReport, error)
	ListMine(ctx context.Context, actorID uuid.UUID, limit int, cursor *domain.KeysetCursor) ([]domain.Rsvp, *domain.KeysetCursor, error)
	ListForEvent(ctx context.Context, actorID, eventID uuid.UUID, limit int, cursor *domain.KeysetCursor) ([]domain.Rsvp, *domain.KeysetCursor, error)
}

type EventService interface {
	Create(ctx context.Context, actorID uuid.UUID, in domain.EventInput) (*domain.Event, error)
	Get(ctx context.Context, actorID, eventID uuid.UUID) (*domain.Event, error)
	Update(ctx context.Context, actorID, eventID uuid.UUID, patch domain.EventPatch) (*domain.Event, error)
	Cancel(ctx context.Context, actorID, eventID uuid.UUID) (*domain.Event, error)
	AddComment(ctx context.Context, actorID, eventID uuid.UUID, content string) (*event.CommentResult, error)
	ListComments(ctx context.Context, actorID, eventID uuid.UUID, limit int, cursor *domain.KeysetCursor) ([]domain.Comment, *domain.KeysetCursor, error)
}

type NotificationService interface {
	MarkAsRead(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int, cursor *domain.KeysetCursor) ([]domain.Notification, *domain.KeysetCursor, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type UserSearch interface {
	Search(ctx context.Context, actorID uuid.UUID, q string) ([]domain.User, error)
}

type Handler struct {
	rsvps  RsvpService
	events EventService
	inbox  NotificationService
	users  UserSearch
}

func NewHandler(rsvps RsvpService, events EventService, inbox NotificationService, users UserSearch) *Handler {
	return &Handler{rsvps: rsvps, events: events, inbox: inbox, users: users}
}

func statusFor(code domain.ErrCode) int {
	switch code {
	case domain.CodeValidation:
		return http.StatusBadRequest
	case domain.CodeUnauthenticated:
		return http.StatusUnauthorized
	case domain.CodeForbidden:
		return http.StatusForbidden
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeCapacityExceeded, domain.CodeInvalidTransition, domain.CodeInvalidState, domain.CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func handleErr(w http.ResponseWriter, r *http.Request, err error) {
	var ae *domain.AppError
	if errors.As(err, &ae) {
		fail(w, r, statusFor(ae.Code), string(ae.Code), ae.Message, ae.Meta)
		return
	}

	// internal details stay in the log
	logger.WithCtx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("unhandled error")
	fail(w, r, http.StatusInternalServerError, "internal", "internal error", nil)
}

func fail(w http.ResponseWriter, r *http.Request, status int, code, message string, meta map[string]string) {
	reqID := appCtx.GetRequestID(r.Context())
	if reqID == "" {
		reqID = "no-request-id"
	}
	response.Fail(w, status, code, message, meta, reqID)
}

// actor returns the authenticated user or writes 401.
func actor(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	p, ok := GetPrincipal(r.Context())
	if !ok || p.UserID == uuid.Nil {
		fail(w, r, http.StatusUnauthorized, string(domain.CodeUnauthenticated), "authentication required", nil)
		return uuid.Nil, false
	}
	return p.UserID, true
}

func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		fail(w, r, http.StatusBadRequest, string(domain.CodeValidation), "invalid "+name, map[string]string{
			name: "must be a valid uuid",
		})
		return uuid.Nil, false
	}
	return id, true
}

func pageParams(w http.ResponseWriter, r *http.Request) (int, *domain.KeysetCursor, bool) {
	limit := parseLimit(r.URL.Query().Get("limit"))
	cur, err := decodeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		fail(w, r, http.StatusBadRequest, string(domain.CodeValidation), "invalid cursor", nil)
		return 0, nil, false
	}
	return limit, cur, true
}

func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, domain.ErrValidation("invalid uuid: " + s)
		}
		out = append(out, id)
	}
	return out, nil
}
