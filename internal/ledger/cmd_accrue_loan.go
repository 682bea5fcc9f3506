package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/fincore/platform/internal/domain"
	"github.com/fincore/platform/internal/money"
	"github.com/jackc/pgx/v5"
)

// ExecuteAccrueLoan accrues simple interest on the outstanding principal
// from the last accrual date through as_of_date. Same shape as the deposit
// accrual: memo posting only, no journal rows until repayment.
func (e *Engine) ExecuteAccrueLoan(ctx context.Context, tx pgx.Tx, params domain.AccrueParams) (*domain.LoanResult, error) {
	acct, err := e.LockLoanForUpdate(ctx, tx, params.AccountID)
	if err != nil {
		return nil, err
	}

	start := acct.AccrualStart()
	if !params.AsOfDate.After(start) {
		return &domain.LoanResult{Account: acct}, nil
	}

	days := money.DaysBetween(start, params.AsOfDate)
	interest := money.Interest(acct.OutstandingPrincipal, acct.AnnualInterestRate, days, acct.DayCountBasis)

	asOf := params.AsOfDate
	acct.AccruedInterest = money.Quantize(acct.AccruedInterest.Add(interest))
	acct.LastAccrualDate = &asOf
	if err := e.loans.UpdateBalances(ctx, tx, acct); err != nil {
		return nil, fmt.Errorf("accrue loan: %w", err)
	}

	now := time.Now().UTC()
	ev, err := e.AppendEvent(ctx, tx, domain.NewInterestAccruedEvent(domain.AggregateLoanAccount, acct.ID, domain.InterestAccruedPayload{
		FromDate: isoDate(start),
		ToDate:   isoDate(params.AsOfDate),
		Days:     days,
		Interest: money.FormatAmount(interest),
	}, now))
	if err != nil {
		return nil, err
	}

	return &domain.LoanResult{Account: acct, Event: ev}, nil
}
