package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/fincore/platform/internal/domain"
	"github.com/fincore/platform/internal/money"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ExecuteApplyMonthEnd moves the accrued interest into the current balance
// and journals it. A zero accrual is a no-op. The txn_id embeds the
// effective date and account, so re-running the same month end produces the
// same journal identity.
func (e *Engine) ExecuteApplyMonthEnd(ctx context.Context, tx pgx.Tx, params domain.MonthEndParams) (*domain.DepositResult, error) {
	acct, err := e.LockDepositForUpdate(ctx, tx, params.AccountID)
	if err != nil {
		return nil, err
	}

	accrued := money.Quantize(acct.AccruedInterest)
	if accrued.IsZero() {
		return &domain.DepositResult{Account: acct}, nil
	}

	// Mutate: balance += accrued, accrued = 0
	now := time.Now().UTC()
	acct.CurrentBalance = money.Quantize(acct.CurrentBalance.Add(accrued))
	acct.AccruedInterest = money.Quantize(decimal.Zero)
	if err := e.deposits.UpdateBalances(ctx, tx, acct); err != nil {
		return nil, fmt.Errorf("apply month end: %w", err)
	}

	entry := &domain.LedgerEntry{
		ID:            uuid.NewString(),
		CreatedAt:     now,
		EffectiveDate: params.EffectiveDate,
		AccountType:   domain.AggregateDepositAccount,
		AccountID:     acct.ID,
		TxnID:         "interest_post:" + isoDate(params.EffectiveDate) + ":" + acct.ID,
		Description:   "Month-end interest posting",
		DebitAccount:  domain.LedgerInterestExpense,
		CreditAccount: domain.LedgerCustomerDeposits,
		Amount:        accrued,
	}
	if err := e.ledger.Insert(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("apply month end: %w", err)
	}

	ev, err := e.AppendEvent(ctx, tx, domain.NewMonthEndAppliedEvent(acct.ID, domain.MonthEndAppliedPayload{
		EffectiveDate:  isoDate(params.EffectiveDate),
		InterestPosted: money.FormatAmount(accrued),
	}, now))
	if err != nil {
		return nil, err
	}

	return &domain.DepositResult{Account: acct, Event: ev}, nil
}
