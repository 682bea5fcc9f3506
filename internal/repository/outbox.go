package repository

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/fincore/platform/internal/domain"
	"github.com/jackc/pgx/v5"
)

type outboxRepo struct{}

// NewOutboxRepository returns a pgx-backed OutboxRepository.
func NewOutboxRepository() OutboxRepository {
	return &outboxRepo{}
}

func (r *outboxRepo) Insert(ctx context.Context, db DBTX, msg *domain.OutboxMessage) error {
	_, err := db.Exec(ctx, `
		INSERT INTO outbox_messages
		  (id, created_at, event_id, destination, status,
		   attempts, max_attempts, next_attempt_at, last_error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		msg.ID,
		msg.CreatedAt,
		msg.EventID,
		msg.Destination,
		string(msg.Status),
		msg.Attempts,
		msg.MaxAttempts,
		msg.NextAttemptAt,
		msg.LastError,
	)
	if err != nil {
		return fmt.Errorf("insert outbox message: %w", err)
	}
	return nil
}

// FetchDue locks due PENDING rows for this transaction. SKIP LOCKED lets a
// second dispatcher run concurrently without double-delivering; it simply
// sees past the rows this cycle holds.
func (r *outboxRepo) FetchDue(ctx context.Context, tx pgx.Tx, now time.Time, limit int) ([]DueMessage, error) {
	rows, err := tx.Query(ctx, `
		SELECT om.id, om.created_at, om.event_id, om.destination, om.status,
		       om.attempts, om.max_attempts, om.next_attempt_at, om.last_error,
		       ev.id, ev.created_at, ev.aggregate_type, ev.aggregate_id,
		       ev.event_type, ev.event_time, ev.payload, ev.idempotency_key
		FROM outbox_messages om
		JOIN domain_events ev ON ev.id = om.event_id
		WHERE om.status = 'PENDING'
		  AND (om.next_attempt_at IS NULL OR om.next_attempt_at <= $1)
		ORDER BY om.created_at ASC
		LIMIT $2
		FOR UPDATE OF om SKIP LOCKED`, now, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch due outbox messages: %w", err)
	}
	defer rows.Close()

	var due []DueMessage
	for rows.Next() {
		var d DueMessage
		err := rows.Scan(
			&d.Message.ID, &d.Message.CreatedAt, &d.Message.EventID,
			&d.Message.Destination, &d.Message.Status, &d.Message.Attempts,
			&d.Message.MaxAttempts, &d.Message.NextAttemptAt, &d.Message.LastError,
			&d.Event.ID, &d.Event.CreatedAt, &d.Event.AggregateType,
			&d.Event.AggregateID, &d.Event.EventType, &d.Event.EventTime,
			&d.Event.Payload, &d.Event.IdempotencyKey,
		)
		if err != nil {
			return nil, fmt.Errorf("scan due outbox message: %w", err)
		}
		due = append(due, d)
	}
	return due, rows.Err()
}

func (r *outboxRepo) Update(ctx context.Context, db DBTX, msg *domain.OutboxMessage) error {
	tag, err := db.Exec(ctx, `
		UPDATE outbox_messages
		SET status = $2, attempts = $3, next_attempt_at = $4, last_error = $5
		WHERE id = $1`,
		msg.ID,
		string(msg.Status),
		msg.Attempts,
		msg.NextAttemptAt,
		msg.LastError,
	)
	if err != nil {
		return fmt.Errorf("update outbox message %s: %w", msg.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update outbox message %s: no row", msg.ID)
	}
	return nil
}

// Replay re-arms every row matching the filter, terminal or not: status back
// to PENDING, attempts zeroed, due immediately.
func (r *outboxRepo) Replay(ctx context.Context, db DBTX, filter domain.ReplayFilter, now time.Time) (int64, error) {
	upd := psql.Update("outbox_messages").
		Set("status", string(domain.OutboxPending)).
		Set("attempts", 0).
		Set("last_error", nil).
		Set("next_attempt_at", now)

	if filter.Destination != nil {
		upd = upd.Where(sq.Eq{"destination": *filter.Destination})
	}
	if filter.AggregateType != nil || filter.AggregateID != nil {
		// Inner builder keeps ? placeholders; the outer ToSql renumbers.
		sub := sq.Select("id").From("domain_events")
		if filter.AggregateType != nil {
			sub = sub.Where(sq.Eq{"aggregate_type": *filter.AggregateType})
		}
		if filter.AggregateID != nil {
			sub = sub.Where(sq.Eq{"aggregate_id": *filter.AggregateID})
		}
		subSQL, subArgs, err := sub.ToSql()
		if err != nil {
			return 0, fmt.Errorf("build replay subquery: %w", err)
		}
		upd = upd.Where(sq.Expr("event_id IN ("+subSQL+")", subArgs...))
	}

	updSQL, updArgs, err := upd.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build replay update: %w", err)
	}
	tag, err := db.Exec(ctx, updSQL, updArgs...)
	if err != nil {
		return 0, fmt.Errorf("replay outbox messages: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *outboxRepo) CountPending(ctx context.Context, db DBTX) (int64, error) {
	var n int64
	err := db.QueryRow(ctx,
		`SELECT COUNT(*) FROM outbox_messages WHERE status = 'PENDING'`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pending outbox messages: %w", err)
	}
	return n, nil
}

func (r *outboxRepo) List(ctx context.Context, db DBTX, filter domain.OutboxFilter) ([]domain.OutboxMessage, int64, error) {
	limit, offset := clampPage(filter.Limit, filter.Offset, 100, 500)

	where := sq.And{}
	if filter.Status != nil {
		where = append(where, sq.Eq{"om.status": *filter.Status})
	}
	if filter.Destination != nil {
		where = append(where, sq.Eq{"om.destination": *filter.Destination})
	}
	if filter.EventID != nil {
		where = append(where, sq.Eq{"om.event_id": *filter.EventID})
	}
	if filter.AggregateType != nil {
		where = append(where, sq.Eq{"ev.aggregate_type": *filter.AggregateType})
	}
	if filter.AggregateID != nil {
		where = append(where, sq.Eq{"ev.aggregate_id": *filter.AggregateID})
	}

	countSQL, countArgs, err := psql.Select("COUNT(*)").
		From("outbox_messages om").
		Join("domain_events ev ON ev.id = om.event_id").
		Where(where).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build outbox count: %w", err)
	}
	var total int64
	if err := db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count outbox messages: %w", err)
	}

	listSQL, listArgs, err := psql.
		Select("om.id", "om.created_at", "om.event_id", "om.destination", "om.status",
			"om.attempts", "om.max_attempts", "om.next_attempt_at", "om.last_error").
		From("outbox_messages om").
		Join("domain_events ev ON ev.id = om.event_id").
		Where(where).
		OrderBy("om.created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build outbox list: %w", err)
	}

	rows, err := db.Query(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("query outbox messages: %w", err)
	}
	defer rows.Close()

	var msgs []domain.OutboxMessage
	for rows.Next() {
		var msg domain.OutboxMessage
		err := rows.Scan(
			&msg.ID, &msg.CreatedAt, &msg.EventID, &msg.Destination, &msg.Status,
			&msg.Attempts, &msg.MaxAttempts, &msg.NextAttemptAt, &msg.LastError,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan outbox message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, total, rows.Err()
}
