package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fincore/platform/internal/domain"
	"github.com/fincore/platform/internal/repository"
)

// SubscriptionService manages webhook subscriptions. New events stage one
// outbox row per enabled subscription, so registering here is what opts a
// receiver in.
type SubscriptionService struct {
	pool          *pgxpool.Pool
	subscriptions repository.WebhookSubscriptionRepository
	logger        *slog.Logger
}

// NewSubscriptionService creates a SubscriptionService.
func NewSubscriptionService(
	pool *pgxpool.Pool,
	subscriptions repository.WebhookSubscriptionRepository,
	logger *slog.Logger,
) *SubscriptionService {
	return &SubscriptionService{pool: pool, subscriptions: subscriptions, logger: logger}
}

// Create registers an enabled subscription for an absolute http(s) URL.
func (s *SubscriptionService) Create(ctx context.Context, targetURL string) (*domain.WebhookSubscription, error) {
	if err := domain.ValidateTargetURL(targetURL); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}

	sub := &domain.WebhookSubscription{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		TargetURL: targetURL,
		Enabled:   true,
	}
	if err := s.subscriptions.Create(ctx, s.pool, sub); err != nil {
		return nil, domain.ErrInternal("create subscription", err)
	}

	s.logger.Info("webhook subscription created", "subscription_id", sub.ID, "target_url", sub.TargetURL)
	return sub, nil
}

// List returns subscriptions newest first, optionally filtered by enabled.
func (s *SubscriptionService) List(ctx context.Context, filter domain.SubscriptionFilter) ([]domain.WebhookSubscription, int64, error) {
	subs, total, err := s.subscriptions.List(ctx, s.pool, filter)
	if err != nil {
		return nil, 0, domain.ErrInternal("list subscriptions", err)
	}
	return subs, total, nil
}
