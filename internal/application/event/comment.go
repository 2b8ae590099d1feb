package event

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/domain"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
)

type CommentResult struct {
	Comment   *domain.Comment `json:"comment"`
	Mentioned []uuid.UUID     `json:"mentioned"`
}

// AddComment stores a comment and its mentions. Mentions of the author and of
// users who already hold an RSVP on the event are dropped.
func (s *Service) AddComment(ctx context.Context, actorID, eventID uuid.UUID, content string) (*CommentResult, error) {
	if actorID == uuid.Nil {
		return nil, domain.ErrUnauthenticated("authentication required")
	}

	ev, err := s.Get(ctx, actorID, eventID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	c, err := domain.NewComment(ev.ID, actorID, content, now)
	if err != nil {
		return nil, err
	}

	targets, err := s.mentionTargets(ctx, ev, actorID, domain.ExtractMentionEmails(c.Content))
	if err != nil {
		return nil, err
	}

	err = s.repo.WithTx(ctx, func(tx TxRepo) error {
		if err := tx.InsertComment(ctx, c); err != nil {
			return err
		}
		if len(targets) > 0 {
			ms := make([]domain.Mention, 0, len(targets))
			for _, uid := range targets {
				ms = append(ms, domain.Mention{ID: uuid.New(), CommentID: c.ID, UserID: uid, CreatedAt: now.UTC()})
			}
			if err := tx.InsertMentions(ctx, ms); err != nil {
				return err
			}
		}
		return writeOutbox(ctx, tx, domain.RouteCommentCreated, domain.CommentPayload{
			CommentID: c.ID,
			EventID:   ev.ID,
			AuthorID:  actorID,
			Mentioned: targets,
		}, now)
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := postCommit(ctx)
	defer cancel()

	author, err := s.users.GetUser(ctx, actorID)
	if err != nil {
		zlog.Warn().Err(err).Str("user_id", actorID.String()).Msg("comment author lookup failed")
		author = nil
	}
	s.notifier.CommentCreated(ctx, ev, c, author)
	if len(targets) > 0 {
		s.notifier.Mentioned(ctx, ev, c, author, targets)
	}

	return &CommentResult{Comment: c, Mentioned: targets}, nil
}

func (s *Service) ListComments(ctx context.Context, actorID, eventID uuid.UUID, limit int, cursor *domain.KeysetCursor) ([]domain.Comment, *domain.KeysetCursor, error) {
	if _, err := s.Get(ctx, actorID, eventID); err != nil {
		return nil, nil, err
	}
	return s.repo.ListComments(ctx, eventID, limit, cursor)
}

func (s *Service) mentionTargets(ctx context.Context, ev *domain.Event, actorID uuid.UUID, emails []string) ([]uuid.UUID, error) {
	if len(emails) == 0 {
		return []uuid.UUID{}, nil
	}
	users, err := s.users.FindUsersByEmails(ctx, emails)
	if err != nil {
		return nil, err
	}
	holders, err := s.repo.RsvpHolders(ctx, ev.ID)
	if err != nil {
		return nil, err
	}
	skip := make(map[uuid.UUID]struct{}, len(holders)+1)
	skip[actorID] = struct{}{}
	for _, id := range holders {
		skip[id] = struct{}{}
	}

	out := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		if _, ok := skip[u.ID]; ok {
			continue
		}
		skip[u.ID] = struct{}{}
		out = append(out, u.ID)
	}
	return out, nil
}
