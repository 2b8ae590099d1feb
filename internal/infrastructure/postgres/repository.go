package postgres

import (
	"context"
	"errors"
	"fmt"

	appevent "github.com/baechuer/real-time-ressys/services/rsvp-service/internal/application/event"
	apprsvp "github.com/baechuer/real-time-ressys/services/rsvp-service/internal/application/rsvp"
	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// -------------------------
// Lock order, for the same event:
//   1) events row (FOR UPDATE)
//   2) rsvps row (FOR UPDATE) when a single row is changed
// Every write path that can change the reserved count follows it.
// -------------------------

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// txRepo implements the transactional ports of both application packages.
type txRepo struct {
	tx pgx.Tx
}

func (r *Repository) withTx(ctx context.Context, fn func(t *txRepo) error) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(&txRepo{tx: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// RsvpRepo binds the repository to the rsvp service ports.
type RsvpRepo struct{ *Repository }

func (r RsvpRepo) WithTx(ctx context.Context, fn func(tx apprsvp.TxRepo) error) error {
	return r.withTx(ctx, func(t *txRepo) error { return fn(t) })
}

// EventRepo binds the repository to the event service ports.
type EventRepo struct{ *Repository }

func (r EventRepo) WithTx(ctx context.Context, fn func(tx appevent.TxRepo) error) error {
	return r.withTx(ctx, func(t *txRepo) error { return fn(t) })
}

const pgUniqueViolation = "23505"

// mapErr turns driver errors into domain errors where the caller can act on them.
func mapErr(err error, notFound string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound(notFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		switch pgErr.ConstraintName {
		case "uq_rsvps_event_invitee":
			return domain.ErrConflict("rsvp already exists for this invitee")
		default:
			return domain.ErrConflict("duplicate record")
		}
	}
	return err
}
