package postgres

import (
	"context"
	"strings"

	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/domain"
	"github.com/google/uuid"
)

func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var u domain.User
	err := r.pool.QueryRow(ctx, `SELECT id, email, name FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Email, &u.Name)
	if err != nil {
		return nil, mapErr(err, "user not found")
	}
	return &u, nil
}

func (r *Repository) FindUsersByEmails(ctx context.Context, emails []string) ([]domain.User, error) {
	if len(emails) == 0 {
		return nil, nil
	}
	lowered := make([]string, 0, len(emails))
	for _, e := range emails {
		lowered = append(lowered, strings.ToLower(e))
	}
	return r.queryUsers(ctx, `
		SELECT id, email, name
		FROM users
		WHERE lower(email) = ANY($1)
	`, lowered)
}

// SearchUsersByEmail matches a case-insensitive substring of the email.
func (r *Repository) SearchUsersByEmail(ctx context.Context, partial string, exclude uuid.UUID, limit int) ([]domain.User, error) {
	return r.queryUsers(ctx, `
		SELECT id, email, name
		FROM users
		WHERE lower(email) LIKE '%' || $1::text || '%'
		  AND id <> $2
		ORDER BY email ASC
		LIMIT $3
	`, escapeLike(strings.ToLower(partial)), exclude, clampLimit(limit))
}

func (r *Repository) queryUsers(ctx context.Context, sql string, args ...any) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
