package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/fincore/platform/internal/domain"
	"github.com/fincore/platform/internal/money"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ExecutePostDeposit credits the account's current balance.
// Pattern: Lock → Idempotency → Mutate → Ledger → AppendEvent
func (e *Engine) ExecutePostDeposit(ctx context.Context, tx pgx.Tx, params domain.PostDepositParams) (*domain.DepositResult, error) {
	if err := domain.ValidatePositiveAmount(params.Amount); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}

	// Lock
	acct, err := e.LockDepositForUpdate(ctx, tx, params.AccountID)
	if err != nil {
		return nil, err
	}

	// Idempotency check
	if hasKey(params.IdempotencyKey) {
		if err := acquireKeyLock(ctx, tx, domain.AggregateDepositAccount, *params.IdempotencyKey); err != nil {
			return nil, err
		}
		existing, err := e.FindPriorEvent(ctx, tx, domain.AggregateDepositAccount, *params.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.EventType == domain.EventDepositPosted && existing.AggregateID == params.AccountID {
			return &domain.DepositResult{Account: acct, Idempotent: true}, nil
		}
	}

	// Mutate: balance += amount
	now := time.Now().UTC()
	amt := money.Quantize(params.Amount)
	acct.CurrentBalance = money.Quantize(acct.CurrentBalance.Add(amt))
	if err := e.deposits.UpdateBalances(ctx, tx, acct); err != nil {
		return nil, fmt.Errorf("post deposit: %w", err)
	}

	entry := &domain.LedgerEntry{
		ID:            uuid.NewString(),
		CreatedAt:     now,
		EffectiveDate: params.EffectiveDate,
		AccountType:   domain.AggregateDepositAccount,
		AccountID:     acct.ID,
		TxnID:         "deposit:" + txnBase(params.IdempotencyKey, now),
		Description:   "Customer deposit",
		DebitAccount:  domain.LedgerCash,
		CreditAccount: domain.LedgerCustomerDeposits,
		Amount:        amt,
	}
	if err := e.ledger.Insert(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("post deposit: %w", err)
	}

	ev, err := e.AppendEvent(ctx, tx, domain.NewDepositPostedEvent(acct.ID, domain.MoneyMovedPayload{
		Amount:        money.FormatAmount(amt),
		EffectiveDate: isoDate(params.EffectiveDate),
	}, now, params.IdempotencyKey))
	if err != nil {
		return nil, err
	}

	return &domain.DepositResult{Account: acct, Event: ev}, nil
}

// txnBase derives the stable part of a txn_id: the idempotency key when one
// was supplied, otherwise the current instant.
func txnBase(key *string, now time.Time) string {
	if hasKey(key) {
		return *key
	}
	return now.Format(time.RFC3339Nano)
}

func hasKey(key *string) bool { return key != nil && *key != "" }

func isoDate(t time.Time) string { return t.Format("2006-01-02") }
