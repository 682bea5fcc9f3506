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

// ExecuteRepayLoan applies a repayment interest-first: accrued interest is
// cleared before any principal, and whatever exceeds both buckets is
// dropped. The two allocations journal under a shared txn base so they can
// be correlated.
func (e *Engine) ExecuteRepayLoan(ctx context.Context, tx pgx.Tx, params domain.RepayLoanParams) (*domain.LoanResult, error) {
	if err := domain.ValidatePositiveAmount(params.Amount); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}

	// Lock
	acct, err := e.LockLoanForUpdate(ctx, tx, params.AccountID)
	if err != nil {
		return nil, err
	}

	// Idempotency check
	if hasKey(params.IdempotencyKey) {
		if err := acquireKeyLock(ctx, tx, domain.AggregateLoanAccount, *params.IdempotencyKey); err != nil {
			return nil, err
		}
		existing, err := e.FindPriorEvent(ctx, tx, domain.AggregateLoanAccount, *params.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.EventType == domain.EventLoanRepaymentPosted && existing.AggregateID == params.AccountID {
			return &domain.LoanResult{Account: acct, Idempotent: true}, nil
		}
	}

	amt := money.Quantize(params.Amount)
	interestDue := money.Quantize(acct.AccruedInterest)
	principalDue := money.Quantize(acct.OutstandingPrincipal)
	payInterest, payPrincipal := allocateRepayment(amt, interestDue, principalDue)

	// Mutate: subtract each allocation from its bucket
	now := time.Now().UTC()
	acct.AccruedInterest = money.Quantize(interestDue.Sub(payInterest))
	acct.OutstandingPrincipal = money.Quantize(principalDue.Sub(payPrincipal))
	if err := e.loans.UpdateBalances(ctx, tx, acct); err != nil {
		return nil, fmt.Errorf("repay loan: %w", err)
	}

	base := txnBase(params.IdempotencyKey, now)
	if payInterest.Sign() > 0 {
		entry := &domain.LedgerEntry{
			ID:            uuid.NewString(),
			CreatedAt:     now,
			EffectiveDate: params.EffectiveDate,
			AccountType:   domain.AggregateLoanAccount,
			AccountID:     acct.ID,
			TxnID:         "loan_payment_interest:" + base,
			Description:   "Loan payment (interest)",
			DebitAccount:  domain.LedgerCash,
			CreditAccount: domain.LedgerInterestIncome,
			Amount:        payInterest,
		}
		if err := e.ledger.Insert(ctx, tx, entry); err != nil {
			return nil, fmt.Errorf("repay loan: %w", err)
		}
	}
	if payPrincipal.Sign() > 0 {
		entry := &domain.LedgerEntry{
			ID:            uuid.NewString(),
			CreatedAt:     now,
			EffectiveDate: params.EffectiveDate,
			AccountType:   domain.AggregateLoanAccount,
			AccountID:     acct.ID,
			TxnID:         "loan_payment_principal:" + base,
			Description:   "Loan payment (principal)",
			DebitAccount:  domain.LedgerCash,
			CreditAccount: domain.LedgerLoanReceivable,
			Amount:        payPrincipal,
		}
		if err := e.ledger.Insert(ctx, tx, entry); err != nil {
			return nil, fmt.Errorf("repay loan: %w", err)
		}
	}

	ev, err := e.AppendEvent(ctx, tx, domain.NewLoanRepaymentPostedEvent(acct.ID, domain.LoanRepaymentPostedPayload{
		Amount:        money.FormatAmount(amt),
		InterestPaid:  money.FormatAmount(payInterest),
		PrincipalPaid: money.FormatAmount(payPrincipal),
		EffectiveDate: isoDate(params.EffectiveDate),
	}, now, params.IdempotencyKey))
	if err != nil {
		return nil, err
	}

	return &domain.LoanResult{
		Account:       acct,
		Event:         ev,
		InterestPaid:  payInterest,
		PrincipalPaid: payPrincipal,
	}, nil
}

// allocateRepayment splits a quantized repayment across accrued interest
// first, then outstanding principal. All inputs must already be quantized;
// any residue beyond both buckets is not allocated.
func allocateRepayment(amount, interestDue, principalDue decimal.Decimal) (payInterest, payPrincipal decimal.Decimal) {
	payInterest = decimal.Min(amount, interestDue)
	remaining := money.Quantize(amount.Sub(payInterest))
	payPrincipal = decimal.Min(remaining, principalDue)
	return payInterest, payPrincipal
}
