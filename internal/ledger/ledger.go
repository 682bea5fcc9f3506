package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/fincore/platform/internal/domain"
	"github.com/fincore/platform/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Engine provides the foundational operations every aggregate command is
// built from:
//  1. LockDepositForUpdate / LockLoanForUpdate: row-level pessimistic lock
//  2. FindPriorEvent: idempotency replay lookup
//  3. AppendEvent: event insert plus outbox staging, atomically
//
// Commands run inside a transaction the caller owns; the engine never
// begins or commits one.
type Engine struct {
	deposits      repository.DepositAccountRepository
	loans         repository.LoanAccountRepository
	ledger        repository.LedgerRepository
	events        repository.EventRepository
	outbox        repository.OutboxRepository
	subscriptions repository.WebhookSubscriptionRepository
}

// NewEngine creates a ledger engine with the given repositories.
func NewEngine(
	deposits repository.DepositAccountRepository,
	loans repository.LoanAccountRepository,
	ledger repository.LedgerRepository,
	events repository.EventRepository,
	outbox repository.OutboxRepository,
	subscriptions repository.WebhookSubscriptionRepository,
) *Engine {
	return &Engine{
		deposits:      deposits,
		loans:         loans,
		ledger:        ledger,
		events:        events,
		outbox:        outbox,
		subscriptions: subscriptions,
	}
}

// LockDepositForUpdate acquires a row-level lock and returns the account.
// Must be called within a transaction.
func (e *Engine) LockDepositForUpdate(ctx context.Context, tx pgx.Tx, accountID string) (*domain.DepositAccount, error) {
	acct, err := e.deposits.LockForUpdate(ctx, tx, accountID)
	if err != nil {
		return nil, fmt.Errorf("lock deposit account: %w", err)
	}
	if acct == nil {
		return nil, domain.ErrAccountNotFound(accountID)
	}
	return acct, nil
}

// LockLoanForUpdate acquires a row-level lock and returns the loan.
// Must be called within a transaction.
func (e *Engine) LockLoanForUpdate(ctx context.Context, tx pgx.Tx, accountID string) (*domain.LoanAccount, error) {
	acct, err := e.loans.LockForUpdate(ctx, tx, accountID)
	if err != nil {
		return nil, fmt.Errorf("lock loan account: %w", err)
	}
	if acct == nil {
		return nil, domain.ErrAccountNotFound(accountID)
	}
	return acct, nil
}

// FindPriorEvent returns the most recent event recorded under
// (aggregateType, key), or nil. Callers must still match event_type and
// aggregate_id before treating the hit as a replay.
func (e *Engine) FindPriorEvent(ctx context.Context, tx pgx.Tx, aggregateType domain.AggregateType, key string) (*domain.DomainEvent, error) {
	existing, err := e.events.FindByIdempotencyKey(ctx, tx, aggregateType, key)
	if err != nil {
		return nil, fmt.Errorf("find prior event: %w", err)
	}
	return existing, nil
}

// AppendEvent inserts the domain event and stages its outbox rows: one per
// enabled webhook subscription plus one for the internal queue topic. All
// rows ride the caller's transaction, so the event becomes visible to the
// dispatcher exactly when the business mutation commits.
func (e *Engine) AppendEvent(ctx context.Context, tx pgx.Tx, draft domain.EventDraft) (*domain.DomainEvent, error) {
	now := time.Now().UTC()
	ev := &domain.DomainEvent{
		ID:             uuid.NewString(),
		CreatedAt:      now,
		AggregateType:  draft.AggregateType,
		AggregateID:    draft.AggregateID,
		EventType:      draft.EventType,
		EventTime:      draft.EventTime,
		Payload:        draft.Payload,
		IdempotencyKey: draft.IdempotencyKey,
	}
	if err := e.events.Insert(ctx, tx, ev); err != nil {
		return nil, fmt.Errorf("append event: %w", err)
	}

	subs, err := e.subscriptions.ListEnabled(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("append event: %w", err)
	}
	for _, sub := range subs {
		if err := e.stageOutbox(ctx, tx, ev.ID, domain.WebhookDestination(sub.ID), now); err != nil {
			return nil, err
		}
	}
	if err := e.stageOutbox(ctx, tx, ev.ID, domain.QueueDestination(domain.QueueTopicDomainEvents), now); err != nil {
		return nil, err
	}
	return ev, nil
}

func (e *Engine) stageOutbox(ctx context.Context, tx pgx.Tx, eventID, destination string, now time.Time) error {
	msg := &domain.OutboxMessage{
		ID:            uuid.NewString(),
		CreatedAt:     now,
		EventID:       eventID,
		Destination:   destination,
		Status:        domain.OutboxPending,
		Attempts:      0,
		MaxAttempts:   domain.DefaultMaxAttempts,
		NextAttemptAt: &now,
	}
	if err := e.outbox.Insert(ctx, tx, msg); err != nil {
		return fmt.Errorf("stage outbox %s: %w", destination, err)
	}
	return nil
}

// acquireKeyLock serializes commands sharing an idempotency key until the
// transaction ends. Without it two concurrent commands could both miss the
// prior-event lookup and double-post; the key is not unique in the event
// log because it is legitimately reused across command types and accounts.
func acquireKeyLock(ctx context.Context, tx pgx.Tx, aggregateType domain.AggregateType, key string) error {
	_, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, string(aggregateType)+":"+key)
	if err != nil {
		return fmt.Errorf("acquire idempotency lock: %w", err)
	}
	return nil
}
