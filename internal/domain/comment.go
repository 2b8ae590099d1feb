package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Comment struct {
	ID        uuid.UUID `json:"id"`
	EventID   uuid.UUID `json:"event_id"`
	UserID    uuid.UUID `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type Mention struct {
	ID        uuid.UUID `json:"id"`
	CommentID uuid.UUID `json:"comment_id"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func NewComment(eventID, authorID uuid.UUID, content string, now time.Time) (*Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" || len(content) > 2000 {
		return nil, ErrValidation("content is required and must be <= 2000 chars")
	}
	return &Comment{
		ID:        uuid.New(),
		EventID:   eventID,
		UserID:    authorID,
		Content:   content,
		CreatedAt: now.UTC(),
	}, nil
}

var mentionRe = regexp.MustCompile(`@([A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,})`)

// ExtractMentionEmails finds "@user@example.com" tokens in content, lowercased and
// deduplicated in order of first appearance.
func ExtractMentionEmails(content string) []string {
	matches := mentionRe.FindAllStringSubmatch(content, -1)
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		email := strings.ToLower(m[1])
		if _, ok := seen[email]; ok {
			continue
		}
		seen[email] = struct{}{}
		out = append(out, email)
	}
	return out
}
