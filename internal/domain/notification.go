package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotifyEventUpdate   NotificationType = "EVENT_UPDATE"
	NotifyEventCanceled NotificationType = "EVENT_CANCELED"
	NotifyNewRsvp       NotificationType = "NEW_RSVP"
	NotifyRsvpUpdated   NotificationType = "RSVP_UPDATED"
	NotifyNewMention    NotificationType = "NEW_MENTION"
	NotifyComment       NotificationType = "COMMENT"
)

type Notification struct {
	ID               uuid.UUID        `json:"id"`
	UserID           uuid.UUID        `json:"user_id"`
	Type             NotificationType `json:"type"`
	Title            string           `json:"title"`
	Message          string           `json:"message"`
	IsRead           bool             `json:"is_read"`
	RelatedEventID   *uuid.UUID       `json:"related_event_id,omitempty"`
	RelatedCommentID *uuid.UUID       `json:"related_comment_id,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// NewNotification always starts unread.
func NewNotification(recipient uuid.UUID, typ NotificationType, title, message string, eventID, commentID *uuid.UUID, now time.Time) *Notification {
	return &Notification{
		ID:               uuid.New(),
		UserID:           recipient,
		Type:             typ,
		Title:            title,
		Message:          message,
		RelatedEventID:   eventID,
		RelatedCommentID: commentID,
		CreatedAt:        now.UTC(),
	}
}

// Copy used by the dispatcher per trigger.

func InviteMessage(eventTitle string) (string, string) {
	return "New RSVP", fmt.Sprintf("You have been invited to %s", eventTitle)
}

func RsvpUpdatedMessage(inviteeName, eventTitle string, status RsvpStatus) (string, string) {
	return "RSVP Updated", fmt.Sprintf("%s responded %s to %s", orSomeone(inviteeName), status, eventTitle)
}

func EventUpdatedMessage(eventTitle string) (string, string) {
	return "Event Updated", fmt.Sprintf("The event %s has been updated", eventTitle)
}

func EventCanceledMessage(eventTitle string) (string, string) {
	return "Event Canceled", fmt.Sprintf("The event %s has been cancelled", eventTitle)
}

func CommentMessage(commenterName, eventTitle string) (string, string) {
	return "New Comment", fmt.Sprintf("%s has commented on your event: %s", orSomeone(commenterName), eventTitle)
}

func MentionMessage(authorName, eventTitle string) (string, string) {
	return "New Mention", fmt.Sprintf("%s mentioned you in a comment on %s", orSomeone(authorName), eventTitle)
}

func orSomeone(name string) string {
	if name == "" {
		return "Someone"
	}
	return name
}
