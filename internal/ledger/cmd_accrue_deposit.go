package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/fincore/platform/internal/domain"
	"github.com/fincore/platform/internal/money"
	"github.com/jackc/pgx/v5"
)

// ExecuteAccrueDeposit accrues simple interest on the current balance from
// the last accrual date through as_of_date. The current balance is used as
// a flat approximation across the whole window; there is no intra-period
// recomputation. A window of zero or negative days is a no-op.
//
// Accrual is a memo posting: it touches accrued_interest only and writes no
// journal rows. The journal catches up at month end.
func (e *Engine) ExecuteAccrueDeposit(ctx context.Context, tx pgx.Tx, params domain.AccrueParams) (*domain.DepositResult, error) {
	acct, err := e.LockDepositForUpdate(ctx, tx, params.AccountID)
	if err != nil {
		return nil, err
	}

	start := acct.AccrualStart()
	if !params.AsOfDate.After(start) {
		return &domain.DepositResult{Account: acct}, nil
	}

	days := money.DaysBetween(start, params.AsOfDate)
	interest := money.Interest(acct.CurrentBalance, acct.AnnualInterestRate, days, acct.DayCountBasis)

	asOf := params.AsOfDate
	acct.AccruedInterest = money.Quantize(acct.AccruedInterest.Add(interest))
	acct.LastAccrualDate = &asOf
	if err := e.deposits.UpdateBalances(ctx, tx, acct); err != nil {
		return nil, fmt.Errorf("accrue deposit: %w", err)
	}

	now := time.Now().UTC()
	ev, err := e.AppendEvent(ctx, tx, domain.NewInterestAccruedEvent(domain.AggregateDepositAccount, acct.ID, domain.InterestAccruedPayload{
		FromDate: isoDate(start),
		ToDate:   isoDate(params.AsOfDate),
		Days:     days,
		Interest: money.FormatAmount(interest),
	}, now))
	if err != nil {
		return nil, err
	}

	return &domain.DepositResult{Account: acct, Event: ev}, nil
}
