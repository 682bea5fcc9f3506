package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/fincore/platform/internal/domain"
	"github.com/jackc/pgx/v5"
)

type webhookSubscriptionRepo struct{}

// NewWebhookSubscriptionRepository returns a pgx-backed WebhookSubscriptionRepository.
func NewWebhookSubscriptionRepository() WebhookSubscriptionRepository {
	return &webhookSubscriptionRepo{}
}

func (r *webhookSubscriptionRepo) Create(ctx context.Context, db DBTX, sub *domain.WebhookSubscription) error {
	_, err := db.Exec(ctx, `
		INSERT INTO webhook_subscriptions (id, created_at, target_url, enabled)
		VALUES ($1, $2, $3, $4)`,
		sub.ID, sub.CreatedAt, sub.TargetURL, sub.Enabled,
	)
	if err != nil {
		return fmt.Errorf("insert webhook subscription: %w", err)
	}
	return nil
}

func (r *webhookSubscriptionRepo) FindByID(ctx context.Context, db DBTX, id string) (*domain.WebhookSubscription, error) {
	row := db.QueryRow(ctx, `
		SELECT id, created_at, target_url, enabled
		FROM webhook_subscriptions WHERE id = $1`, id)
	return scanWebhookSubscription(row)
}

func (r *webhookSubscriptionRepo) ListEnabled(ctx context.Context, db DBTX) ([]domain.WebhookSubscription, error) {
	rows, err := db.Query(ctx, `
		SELECT id, created_at, target_url, enabled
		FROM webhook_subscriptions
		WHERE enabled
		ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("query enabled webhook subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []domain.WebhookSubscription
	for rows.Next() {
		sub, err := collectWebhookSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

func (r *webhookSubscriptionRepo) List(ctx context.Context, db DBTX, filter domain.SubscriptionFilter) ([]domain.WebhookSubscription, int64, error) {
	limit, offset := clampPage(filter.Limit, filter.Offset, 100, 500)

	where := sq.And{}
	if filter.Enabled != nil {
		where = append(where, sq.Eq{"enabled": *filter.Enabled})
	}

	countSQL, countArgs, err := psql.Select("COUNT(*)").From("webhook_subscriptions").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build subscription count: %w", err)
	}
	var total int64
	if err := db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count webhook subscriptions: %w", err)
	}

	listSQL, listArgs, err := psql.
		Select("id", "created_at", "target_url", "enabled").
		From("webhook_subscriptions").
		Where(where).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build subscription list: %w", err)
	}

	rows, err := db.Query(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("query webhook subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []domain.WebhookSubscription
	for rows.Next() {
		sub, err := collectWebhookSubscription(rows)
		if err != nil {
			return nil, 0, err
		}
		subs = append(subs, *sub)
	}
	return subs, total, rows.Err()
}

func scanWebhookSubscription(row pgx.Row) (*domain.WebhookSubscription, error) {
	sub, err := collectWebhookSubscription(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return sub, nil
}

func collectWebhookSubscription(row pgx.Row) (*domain.WebhookSubscription, error) {
	var sub domain.WebhookSubscription
	err := row.Scan(&sub.ID, &sub.CreatedAt, &sub.TargetURL, &sub.Enabled)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan webhook subscription: %w", err)
	}
	return &sub, nil
}
