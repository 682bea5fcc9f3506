// Package outbox drives staged outbox messages to their terminal status.
// The command side stages rows transactionally next to each domain event;
// this package owns everything after that commit: pickup, delivery, backoff,
// dead-lettering and replay.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/fincore/platform/internal/domain"
	"github.com/fincore/platform/internal/infra"
	"github.com/fincore/platform/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Sender delivers an event envelope to one webhook target.
type Sender interface {
	Deliver(ctx context.Context, targetURL string, envelope domain.EventEnvelope) error
}

// DispatcherDeps wires a Dispatcher.
type DispatcherDeps struct {
	Pool          *pgxpool.Pool
	Outbox        repository.OutboxRepository
	Queue         repository.QueueRepository
	Subscriptions repository.WebhookSubscriptionRepository
	Sender        Sender
	Mirror        *infra.KafkaProducer
	MirrorTopic   string
	Metrics       *infra.Metrics
	Logger        *slog.Logger
}

// Dispatcher processes due outbox rows in batches. One cycle is one
// transaction: rows are locked with SKIP LOCKED at pickup, mutated in
// memory, and their new states committed together at the end.
type Dispatcher struct {
	pool          *pgxpool.Pool
	outbox        repository.OutboxRepository
	queue         repository.QueueRepository
	subscriptions repository.WebhookSubscriptionRepository
	sender        Sender
	mirror        *infra.KafkaProducer
	mirrorTopic   string
	metrics       *infra.Metrics
	logger        *slog.Logger
}

// NewDispatcher creates a dispatcher from its dependencies.
func NewDispatcher(deps DispatcherDeps) *Dispatcher {
	return &Dispatcher{
		pool:          deps.Pool,
		outbox:        deps.Outbox,
		queue:         deps.Queue,
		subscriptions: deps.Subscriptions,
		sender:        deps.Sender,
		mirror:        deps.Mirror,
		mirrorTopic:   deps.MirrorTopic,
		metrics:       deps.Metrics,
		logger:        deps.Logger,
	}
}

// RunCycle picks up at most maxMessages due rows and drives each one step
// forward. Per-row outcomes never abort the batch; only infrastructure
// failure (fetch, update, commit) does.
func (d *Dispatcher) RunCycle(ctx context.Context, maxMessages int) (*domain.DispatchReport, error) {
	if err := domain.ValidateMaxMessages(maxMessages); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}

	start := time.Now()
	now := start.UTC()

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin dispatch cycle: %w", err)
	}
	defer tx.Rollback(ctx)

	due, err := d.outbox.FetchDue(ctx, tx, now, maxMessages)
	if err != nil {
		return nil, err
	}

	report := &domain.DispatchReport{Results: make([]domain.DispatchResult, 0, len(due))}
	for _, dm := range due {
		res, err := d.dispatchOne(ctx, tx, dm, now)
		if err != nil {
			return nil, err
		}
		report.Results = append(report.Results, res)
	}
	report.Processed = len(report.Results)

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit dispatch cycle: %w", err)
	}

	if d.metrics != nil {
		for _, res := range report.Results {
			scheme, _ := domain.SplitDestination(res.Destination)
			d.metrics.RecordDispatched(scheme, string(res.Status))
		}
		d.metrics.RecordDispatchCycle(report.Processed, time.Since(start))
		if pending, err := d.outbox.CountPending(ctx, d.pool); err == nil {
			d.metrics.OutboxPendingDepth.Set(float64(pending))
		}
	}
	if report.Processed > 0 {
		d.logger.Info("dispatch cycle complete", "processed", report.Processed)
	}
	return report, nil
}

// dispatchOne advances a single row. The returned error is infrastructural
// only; delivery failures are folded into the row's state.
func (d *Dispatcher) dispatchOne(ctx context.Context, tx pgx.Tx, dm repository.DueMessage, now time.Time) (domain.DispatchResult, error) {
	msg := dm.Message

	// Budget already exhausted: dead-letter without an attempt.
	if msg.Attempts >= msg.MaxAttempts {
		msg.Status = domain.OutboxDead
		if err := d.outbox.Update(ctx, tx, &msg); err != nil {
			return domain.DispatchResult{}, err
		}
		d.logger.Error("outbox message dead-lettered",
			"message_id", msg.ID, "destination", msg.Destination, "attempts", msg.Attempts)
		return domain.DispatchResult{ID: msg.ID, Destination: msg.Destination, Status: domain.OutboxDead}, nil
	}

	msg.Attempts++
	result := domain.DispatchResult{ID: msg.ID, Destination: msg.Destination}

	deliverErr := d.deliver(ctx, tx, &msg, domain.NewEventEnvelope(&dm.Event))
	switch {
	case deliverErr == nil:
		// Terminal state already set on msg (SENT, SKIPPED or FAILED).
		result.Status = msg.Status

	case msg.Attempts >= msg.MaxAttempts:
		msg.Status = domain.OutboxDead
		msg.NextAttemptAt = nil
		msg.LastError = errString(deliverErr)
		result.Status = domain.OutboxDead
		result.Error = deliverErr.Error()
		d.logger.Error("outbox message dead-lettered",
			"message_id", msg.ID, "destination", msg.Destination, "attempts", msg.Attempts, "error", deliverErr)

	default:
		next := now.Add(backoff(msg.Attempts))
		msg.Status = domain.OutboxPending
		msg.NextAttemptAt = &next
		msg.LastError = errString(deliverErr)
		result.Status = domain.OutboxRetry
		result.Error = deliverErr.Error()
		result.NextAttemptAt = &next
		d.logger.Warn("outbox delivery failed, retry scheduled",
			"message_id", msg.ID, "destination", msg.Destination, "attempts", msg.Attempts,
			"next_attempt_at", next, "error", deliverErr)
	}

	if err := d.outbox.Update(ctx, tx, &msg); err != nil {
		return domain.DispatchResult{}, err
	}
	return result, nil
}

// deliver routes by destination scheme. A nil return means the row reached
// a terminal state; a non-nil return is a transient delivery failure the
// caller converts into backoff or dead-letter.
func (d *Dispatcher) deliver(ctx context.Context, tx pgx.Tx, msg *domain.OutboxMessage, envelope domain.EventEnvelope) error {
	scheme, rest := domain.SplitDestination(msg.Destination)
	switch scheme {
	case domain.SchemeQueue:
		return d.deliverQueue(ctx, tx, msg, rest, envelope)
	case domain.SchemeWebhook:
		return d.deliverWebhook(ctx, tx, msg, rest, envelope)
	default:
		msg.Status = domain.OutboxFailed
		msg.LastError = strPtr("unknown_destination:" + msg.Destination)
		return nil
	}
}

func (d *Dispatcher) deliverQueue(ctx context.Context, tx pgx.Tx, msg *domain.OutboxMessage, topic string, envelope domain.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	qm := &domain.QueueMessage{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Topic:     topic,
		Payload:   payload,
	}
	if err := d.queue.Insert(ctx, tx, qm); err != nil {
		return err
	}

	// The queue row is the record of delivery; the Kafka mirror is best
	// effort and never fails the row.
	if d.mirror != nil {
		if err := d.mirror.Publish(ctx, d.mirrorTopic, []byte(envelope.AggregateID), payload); err != nil {
			d.logger.Warn("kafka mirror publish failed", "event_id", envelope.EventID, "error", err)
		}
	}

	markSent(msg)
	return nil
}

func (d *Dispatcher) deliverWebhook(ctx context.Context, tx pgx.Tx, msg *domain.OutboxMessage, subscriptionID string, envelope domain.EventEnvelope) error {
	sub, err := d.subscriptions.FindByID(ctx, tx, subscriptionID)
	if err != nil {
		return err
	}
	if sub == nil || !sub.Enabled {
		msg.Status = domain.OutboxSkipped
		msg.LastError = strPtr("subscription_disabled_or_missing")
		return nil
	}

	if err := d.sender.Deliver(ctx, sub.TargetURL, envelope); err != nil {
		return err
	}
	markSent(msg)
	return nil
}

// Replay re-arms every outbox row matching the filter and returns how many
// were reset.
func (d *Dispatcher) Replay(ctx context.Context, filter domain.ReplayFilter) (int64, error) {
	updated, err := d.outbox.Replay(ctx, d.pool, filter, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	d.logger.Info("outbox replay", "updated", updated)
	return updated, nil
}

// backoff returns the delay before the next delivery attempt: doubling from
// one second, capped at five minutes.
func backoff(attempts int) time.Duration {
	const maxBackoff = 300 * time.Second
	if attempts < 1 {
		attempts = 1
	}
	if attempts > 9 {
		// 2^9 s is already past the cap.
		return maxBackoff
	}
	d := time.Duration(1<<uint(attempts-1)) * time.Second
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func markSent(msg *domain.OutboxMessage) {
	msg.Status = domain.OutboxSent
	msg.LastError = nil
	msg.NextAttemptAt = nil
}

func strPtr(s string) *string { return &s }

func errString(err error) *string {
	s := err.Error()
	return &s
}
