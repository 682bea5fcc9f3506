package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/fincore/platform/internal/domain"
	"github.com/jackc/pgx/v5"
)

type eventRepo struct{}

// NewEventRepository returns a pgx-backed EventRepository.
func NewEventRepository() EventRepository {
	return &eventRepo{}
}

func (r *eventRepo) Insert(ctx context.Context, db DBTX, ev *domain.DomainEvent) error {
	_, err := db.Exec(ctx, `
		INSERT INTO domain_events
		  (id, created_at, aggregate_type, aggregate_id, event_type,
		   event_time, payload, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		ev.ID,
		ev.CreatedAt,
		string(ev.AggregateType),
		ev.AggregateID,
		string(ev.EventType),
		ev.EventTime,
		ev.Payload,
		ev.IdempotencyKey,
	)
	if err != nil {
		return fmt.Errorf("insert domain event: %w", err)
	}
	return nil
}

// FindByIdempotencyKey returns the newest event recorded under
// (aggregate_type, key). The key is not unique in the table; callers decide
// whether the match actually replays their command.
func (r *eventRepo) FindByIdempotencyKey(ctx context.Context, db DBTX, aggregateType domain.AggregateType, key string) (*domain.DomainEvent, error) {
	row := db.QueryRow(ctx, `
		SELECT id, created_at, aggregate_type, aggregate_id, event_type,
		       event_time, payload, idempotency_key
		FROM domain_events
		WHERE aggregate_type = $1 AND idempotency_key = $2
		ORDER BY created_at DESC
		LIMIT 1`, string(aggregateType), key)
	return scanEvent(row)
}

func (r *eventRepo) List(ctx context.Context, db DBTX, filter domain.EventFilter) ([]domain.DomainEvent, int64, error) {
	limit, offset := clampPage(filter.Limit, filter.Offset, 200, 1000)

	where := sq.And{}
	if filter.AggregateType != nil {
		where = append(where, sq.Eq{"aggregate_type": *filter.AggregateType})
	}
	if filter.AggregateID != nil {
		where = append(where, sq.Eq{"aggregate_id": *filter.AggregateID})
	}
	if filter.EventType != nil {
		where = append(where, sq.Eq{"event_type": *filter.EventType})
	}
	if filter.IdempotencyKey != nil {
		where = append(where, sq.Eq{"idempotency_key": *filter.IdempotencyKey})
	}

	countSQL, countArgs, err := psql.Select("COUNT(*)").From("domain_events").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build event count: %w", err)
	}
	var total int64
	if err := db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count domain events: %w", err)
	}

	listSQL, listArgs, err := psql.
		Select("id", "created_at", "aggregate_type", "aggregate_id", "event_type",
			"event_time", "payload", "idempotency_key").
		From("domain_events").
		Where(where).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build event list: %w", err)
	}

	rows, err := db.Query(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("query domain events: %w", err)
	}
	defer rows.Close()

	var events []domain.DomainEvent
	for rows.Next() {
		ev, err := collectEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		events = append(events, *ev)
	}
	return events, total, rows.Err()
}

func scanEvent(row pgx.Row) (*domain.DomainEvent, error) {
	ev, err := collectEvent(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return ev, nil
}

func collectEvent(row pgx.Row) (*domain.DomainEvent, error) {
	var ev domain.DomainEvent
	err := row.Scan(
		&ev.ID, &ev.CreatedAt, &ev.AggregateType, &ev.AggregateID,
		&ev.EventType, &ev.EventTime, &ev.Payload, &ev.IdempotencyKey,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan domain event: %w", err)
	}
	return &ev, nil
}
