package user

import (
	"context"
	"strings"

	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/domain"
	"github.com/google/uuid"
)

const defaultSearchLimit = 10

type Repo interface {
	SearchUsersByEmail(ctx context.Context, partial string, exclude uuid.UUID, limit int) ([]domain.User, error)
}

type Service struct {
	repo Repo
}

func New(repo Repo) *Service {
	return &Service{repo: repo}
}

// Search looks up users whose email contains q. Short queries return nothing
// and the caller is never part of the result.
func (s *Service) Search(ctx context.Context, actorID uuid.UUID, q string) ([]domain.User, error) {
	if actorID == uuid.Nil {
		return nil, domain.ErrUnauthenticated("authentication required")
	}
	q = strings.TrimSpace(q)
	if len([]rune(q)) < domain.MinSearchQueryLen {
		return []domain.User{}, nil
	}
	users, err := s.repo.SearchUsersByEmail(ctx, strings.ToLower(q), actorID, defaultSearchLimit)
	if err != nil {
		return nil, err
	}
	out := make([]domain.User, 0, len(users))
	for _, u := range users {
		if u.ID == actorID {
			continue
		}
		out = append(out, domain.User{ID: u.ID, Email: u.Email})
	}
	return out, nil
}
