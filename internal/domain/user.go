package domain

import "github.com/google/uuid"

// User is a read-only projection of the account owned by the auth system.
type User struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name,omitempty"`
}

// DisplayName falls back to the email when no name is set.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// MinSearchQueryLen is the shortest partial email worth querying.
const MinSearchQueryLen = 3
