package repository

import (
	"context"
	"time"

	"github.com/fincore/platform/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX abstracts pgx.Tx and pgxpool.Pool so repositories work with both.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// DepositAccountRepository provides access to deposit_accounts.
type DepositAccountRepository interface {
	// Create inserts a new deposit account.
	Create(ctx context.Context, db DBTX, acct *domain.DepositAccount) error

	// FindByID returns an account by ID, or nil when absent.
	FindByID(ctx context.Context, db DBTX, id string) (*domain.DepositAccount, error)

	// LockForUpdate acquires a row-level lock (SELECT FOR UPDATE) and returns the account.
	LockForUpdate(ctx context.Context, tx pgx.Tx, id string) (*domain.DepositAccount, error)

	// UpdateBalances persists the mutable balance fields of the aggregate.
	UpdateBalances(ctx context.Context, db DBTX, acct *domain.DepositAccount) error

	// List returns accounts ordered by created_at DESC plus the unpaginated total.
	List(ctx context.Context, db DBTX, limit, offset int) ([]domain.DepositAccount, int64, error)
}

// LoanAccountRepository provides access to loan_accounts.
type LoanAccountRepository interface {
	Create(ctx context.Context, db DBTX, acct *domain.LoanAccount) error
	FindByID(ctx context.Context, db DBTX, id string) (*domain.LoanAccount, error)
	LockForUpdate(ctx context.Context, tx pgx.Tx, id string) (*domain.LoanAccount, error)
	UpdateBalances(ctx context.Context, db DBTX, acct *domain.LoanAccount) error
	List(ctx context.Context, db DBTX, limit, offset int) ([]domain.LoanAccount, int64, error)
}

// LedgerRepository provides access to the append-only journal.
type LedgerRepository interface {
	// Insert appends one journal row within the caller's transaction.
	Insert(ctx context.Context, db DBTX, entry *domain.LedgerEntry) error

	// List returns entries matching the filter, created_at DESC, plus the total.
	List(ctx context.Context, db DBTX, filter domain.LedgerFilter) ([]domain.LedgerEntry, int64, error)
}

// EventRepository provides access to domain_events.
type EventRepository interface {
	// Insert appends an immutable event row.
	Insert(ctx context.Context, db DBTX, ev *domain.DomainEvent) error

	// FindByIdempotencyKey returns the most recently created event for
	// (aggregate_type, key), or nil when none exists.
	FindByIdempotencyKey(ctx context.Context, db DBTX, aggregateType domain.AggregateType, key string) (*domain.DomainEvent, error)

	// List returns events matching the filter, created_at DESC, plus the total.
	List(ctx context.Context, db DBTX, filter domain.EventFilter) ([]domain.DomainEvent, int64, error)
}

// DueMessage pairs an outbox row with its event for delivery.
type DueMessage struct {
	Message domain.OutboxMessage
	Event   domain.DomainEvent
}

// OutboxRepository provides access to outbox_messages.
type OutboxRepository interface {
	// Insert stages a new outbox row within the caller's transaction.
	Insert(ctx context.Context, db DBTX, msg *domain.OutboxMessage) error

	// FetchDue selects up to limit PENDING rows whose next_attempt_at has
	// arrived, created_at ASC, joined to their events. Rows are locked with
	// FOR UPDATE SKIP LOCKED so a second dispatcher cannot double-deliver.
	FetchDue(ctx context.Context, tx pgx.Tx, now time.Time, limit int) ([]DueMessage, error)

	// Update persists the mutable delivery fields of one row.
	Update(ctx context.Context, db DBTX, msg *domain.OutboxMessage) error

	// Replay re-arms every row matching the filter and returns the count.
	Replay(ctx context.Context, db DBTX, filter domain.ReplayFilter, now time.Time) (int64, error)

	// CountPending returns how many rows still wait for delivery.
	CountPending(ctx context.Context, db DBTX) (int64, error)

	// List returns rows matching the filter, created_at DESC, plus the total.
	List(ctx context.Context, db DBTX, filter domain.OutboxFilter) ([]domain.OutboxMessage, int64, error)
}

// WebhookSubscriptionRepository provides access to webhook_subscriptions.
type WebhookSubscriptionRepository interface {
	Create(ctx context.Context, db DBTX, sub *domain.WebhookSubscription) error
	FindByID(ctx context.Context, db DBTX, id string) (*domain.WebhookSubscription, error)

	// ListEnabled returns every enabled subscription, for outbox staging.
	ListEnabled(ctx context.Context, db DBTX) ([]domain.WebhookSubscription, error)

	List(ctx context.Context, db DBTX, filter domain.SubscriptionFilter) ([]domain.WebhookSubscription, int64, error)
}

// QueueRepository provides access to queue_messages, the internal topic sink.
type QueueRepository interface {
	Insert(ctx context.Context, db DBTX, msg *domain.QueueMessage) error

	// ListByTopic returns messages on a topic, created_at DESC, plus the total.
	ListByTopic(ctx context.Context, db DBTX, topic string, limit, offset int) ([]domain.QueueMessage, int64, error)
}
