package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/audit"
	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/metrics"
	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/pkg/logger"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	outboxBatchSize   = 20
	outboxMaxAttempts = 12
	outboxInFlight    = 15 * time.Second
	confirmWait       = 600 * time.Millisecond
	pollInterval      = 500 * time.Millisecond
)

type outboxRow struct {
	ID         uuid.UUID
	MessageID  uuid.UUID
	TraceID    string
	RoutingKey string
	Payload    []byte
	Attempt    int
}

// computeNextRetry: 2^attempt seconds clamped to [5s, 30m], +/-10% jitter.
func computeNextRetry(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	sec := math.Pow(2, float64(attempt))
	sec = math.Max(5, math.Min(sec, 1800))
	d := time.Duration(sec) * time.Second

	j := time.Duration(rand.Int63n(int64(d/5))) - d/10
	return d + j
}

type OutboxWorker struct {
	repo     *Repository
	url      string
	exchange string
	audit    *audit.Logger
}

func NewOutboxWorker(repo *Repository, rabbitURL, exchange string, auditLog *audit.Logger) *OutboxWorker {
	return &OutboxWorker{repo: repo, url: rabbitURL, exchange: exchange, audit: auditLog}
}

// Start publishes pending outbox rows until ctx is done, redialing the broker
// when the connection drops.
func (w *OutboxWorker) Start(ctx context.Context) {
	go func() {
		log := logger.Logger.With().Str("component", "outbox_worker").Logger()
		attempt := 0
		for {
			err := w.run(ctx)
			if ctx.Err() != nil {
				log.Info().Msg("stopped")
				return
			}
			delay := computeNextRetry(attempt)
			attempt++
			log.Warn().Err(err).Dur("retry_in", delay).Msg("outbox publisher disconnected")

			select {
			case <-ctx.Done():
				log.Info().Msg("stopped")
				return
			case <-time.After(delay):
			}
		}
	}()
}

func (w *OutboxWorker) run(ctx context.Context) error {
	log := logger.Logger.With().Str("component", "outbox_worker").Logger()

	conn, err := amqp.Dial(w.url)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(w.exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", w.exchange, err)
	}
	if err := ch.Confirm(false); err != nil {
		return fmt.Errorf("enable confirms: %w", err)
	}
	confirmCh := ch.NotifyPublish(make(chan amqp.Confirmation, 100))
	returnCh := ch.NotifyReturn(make(chan amqp.Return, 100))
	closeCh := conn.NotifyClose(make(chan *amqp.Error, 1))

	log.Info().Str("exchange", w.exchange).Msg("publishing")

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var lastErr string
	var lastAt time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case amqpErr := <-closeCh:
			if amqpErr == nil {
				return errors.New("connection closed")
			}
			return amqpErr
		case <-ticker.C:
			if err := w.processBatch(ctx, ch, confirmCh, returnCh); err != nil {
				// rate-limit identical errors
				if err.Error() != lastErr || time.Since(lastAt) > 10*time.Second {
					log.Warn().Err(err).Msg("outbox batch failed")
					lastErr = err.Error()
					lastAt = time.Now()
				}
			} else {
				lastErr = ""
			}
		}
	}
}

// claimBatch selects due rows and pushes next_retry_at forward so other
// workers skip them while this one publishes outside the transaction.
func (w *OutboxWorker) claimBatch(ctx context.Context) ([]outboxRow, error) {
	tx, err := w.repo.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `
		SELECT id, message_id, trace_id, routing_key, payload, attempt
		FROM outbox
		WHERE status = 'pending'
		  AND next_retry_at <= NOW()
		ORDER BY next_retry_at ASC, occurred_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, outboxBatchSize)
	if err != nil {
		return nil, err
	}

	var batch []outboxRow
	for rows.Next() {
		var m outboxRow
		if err := rows.Scan(&m.ID, &m.MessageID, &m.TraceID, &m.RoutingKey, &m.Payload, &m.Attempt); err != nil {
			rows.Close()
			return nil, err
		}
		batch = append(batch, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(batch) == 0 {
		return nil, tx.Commit(ctx)
	}

	ids := make([]uuid.UUID, 0, len(batch))
	for _, m := range batch {
		ids = append(ids, m.ID)
	}
	if _, err := tx.Exec(ctx, `
		UPDATE outbox SET next_retry_at = $2 WHERE id = ANY($1)
	`, ids, time.Now().Add(outboxInFlight)); err != nil {
		return nil, err
	}
	return batch, tx.Commit(ctx)
}

func (w *OutboxWorker) processBatch(
	ctx context.Context,
	ch *amqp.Channel,
	confirmCh <-chan amqp.Confirmation,
	returnCh <-chan amqp.Return,
) error {
	batch, err := w.claimBatch(ctx)
	if err != nil {
		return err
	}

	for _, m := range batch {
		drain(confirmCh, returnCh)

		pub := amqp.Publishing{
			ContentType:   "application/json",
			Body:          m.Payload,
			DeliveryMode:  amqp.Persistent,
			Timestamp:     time.Now().UTC(),
			MessageId:     m.MessageID.String(),
			CorrelationId: m.TraceID,
			AppId:         domain.Producer,
		}
		if err := ch.PublishWithContext(ctx, w.exchange, m.RoutingKey, true, false, pub); err != nil {
			w.fail(ctx, m, fmt.Sprintf("publish error: %v", err))
			continue
		}

		if reason := awaitConfirm(confirmCh, returnCh); reason != "" {
			w.fail(ctx, m, reason)
			continue
		}

		if _, err := w.repo.pool.Exec(ctx, `
			UPDATE outbox SET status = 'sent', last_error = NULL WHERE id = $1
		`, m.ID); err != nil {
			// published but not marked: it will be sent again, consumers dedupe on message_id
			logger.Logger.Warn().Err(err).Str("outbox_id", m.ID.String()).Msg("mark sent failed")
			continue
		}
		metrics.RecordOutbox("sent")
		w.audit.OutboxMessageSent(m.MessageID.String(), m.RoutingKey)
	}
	return nil
}

// drain discards confirms and returns left over from earlier publishes.
func drain(confirmCh <-chan amqp.Confirmation, returnCh <-chan amqp.Return) {
	for {
		select {
		case <-returnCh:
		case <-confirmCh:
		default:
			return
		}
	}
}

// awaitConfirm returns "" on broker ack. A mandatory return usually arrives
// before the confirm and marks the publish as failed.
func awaitConfirm(confirmCh <-chan amqp.Confirmation, returnCh <-chan amqp.Return) string {
	deadline := time.After(confirmWait)
	reason := ""
	for {
		select {
		case ret := <-returnCh:
			reason = fmt.Sprintf("NO_ROUTE: code=%d text=%s exchange=%s rk=%s",
				ret.ReplyCode, ret.ReplyText, ret.Exchange, ret.RoutingKey)
		case c := <-confirmCh:
			if reason != "" {
				return reason
			}
			if !c.Ack {
				return fmt.Sprintf("NACK: delivery_tag=%d", c.DeliveryTag)
			}
			return ""
		case <-deadline:
			if reason != "" {
				return reason
			}
			return "confirm timeout"
		}
	}
}

func (w *OutboxWorker) fail(ctx context.Context, m outboxRow, errMsg string) {
	log := logger.Logger.With().Str("component", "outbox_worker").Logger()

	next := m.Attempt + 1
	if next >= outboxMaxAttempts {
		_, _ = w.repo.pool.Exec(ctx, `
			UPDATE outbox
			SET status = 'dead', attempt = $2, last_error = $3
			WHERE id = $1
		`, m.ID, next, errMsg)
		metrics.RecordOutbox("dead")
		w.audit.OutboxMessageDead(m.MessageID.String(), m.RoutingKey, next)
		return
	}

	delay := computeNextRetry(next)
	_, _ = w.repo.pool.Exec(ctx, `
		UPDATE outbox
		SET attempt = $2,
		    next_retry_at = NOW() + $3::interval,
		    last_error = $4
		WHERE id = $1
	`, m.ID, next, fmt.Sprintf("%f seconds", delay.Seconds()), errMsg)
	metrics.RecordOutbox("retry")

	log.Warn().
		Str("outbox_id", m.ID.String()).
		Str("message_id", m.MessageID.String()).
		Str("routing_key", m.RoutingKey).
		Int("attempt", next).
		Dur("retry_in", delay).
		Str("error", errMsg).
		Msg("outbox publish failed; scheduled retry")
}
