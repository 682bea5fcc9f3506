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

// ExecutePostWithdrawal debits the account's current balance. Fails with
// INSUFFICIENT_FUNDS when the balance cannot cover the quantized amount;
// withdrawing the exact balance is allowed and leaves 0.00.
func (e *Engine) ExecutePostWithdrawal(ctx context.Context, tx pgx.Tx, params domain.PostWithdrawalParams) (*domain.DepositResult, error) {
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
		if existing != nil && existing.EventType == domain.EventWithdrawalPosted && existing.AggregateID == params.AccountID {
			return &domain.DepositResult{Account: acct, Idempotent: true}, nil
		}
	}

	amt := money.Quantize(params.Amount)
	if acct.CurrentBalance.LessThan(amt) {
		return nil, domain.ErrInsufficientFunds()
	}

	// Mutate: balance -= amount
	now := time.Now().UTC()
	acct.CurrentBalance = money.Quantize(acct.CurrentBalance.Sub(amt))
	if err := e.deposits.UpdateBalances(ctx, tx, acct); err != nil {
		return nil, fmt.Errorf("post withdrawal: %w", err)
	}

	entry := &domain.LedgerEntry{
		ID:            uuid.NewString(),
		CreatedAt:     now,
		EffectiveDate: params.EffectiveDate,
		AccountType:   domain.AggregateDepositAccount,
		AccountID:     acct.ID,
		TxnID:         "withdrawal:" + txnBase(params.IdempotencyKey, now),
		Description:   "Customer withdrawal",
		DebitAccount:  domain.LedgerCustomerDeposits,
		CreditAccount: domain.LedgerCash,
		Amount:        amt,
	}
	if err := e.ledger.Insert(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("post withdrawal: %w", err)
	}

	ev, err := e.AppendEvent(ctx, tx, domain.NewWithdrawalPostedEvent(acct.ID, domain.MoneyMovedPayload{
		Amount:        money.FormatAmount(amt),
		EffectiveDate: isoDate(params.EffectiveDate),
	}, now, params.IdempotencyKey))
	if err != nil {
		return nil, err
	}

	return &domain.DepositResult{Account: acct, Event: ev}, nil
}
