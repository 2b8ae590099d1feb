package postgres

import (
	"context"
	"time"

	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/pkg/logger"
)

// StartOutboxCleanup deletes sent outbox rows older than retention, once at
// startup and then every interval. Dead rows are kept for inspection.
func (r *Repository) StartOutboxCleanup(ctx context.Context, retention, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	go func() {
		log := logger.Logger.With().Str("component", "outbox_cleanup").Logger()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		r.purgeSentOutbox(ctx, retention)

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("stopped")
				return
			case <-ticker.C:
				r.purgeSentOutbox(ctx, retention)
			}
		}
	}()
}

func (r *Repository) purgeSentOutbox(ctx context.Context, retention time.Duration) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM outbox
		WHERE status = 'sent'
		  AND occurred_at < $1
	`, time.Now().Add(-retention))
	if err != nil {
		logger.Logger.Warn().Err(err).Msg("outbox cleanup failed")
		return
	}
	if n := tag.RowsAffected(); n > 0 {
		logger.Logger.Info().Int64("deleted", n).Msg("sent outbox rows purged")
	}
}
