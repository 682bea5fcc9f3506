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

// ExecuteOpenLoan creates a loan account with the full principal
// outstanding and journals the disbursement.
// Pattern: Idempotency → Create → Ledger → AppendEvent
func (e *Engine) ExecuteOpenLoan(ctx context.Context, tx pgx.Tx, params domain.OpenLoanParams) (*domain.LoanResult, error) {
	if err := domain.ValidatePositiveAmount(params.Principal); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	if err := domain.ValidateRate(params.AnnualInterestRate); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	if err := domain.ValidateBasis(params.DayCountBasis); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}

	if hasKey(params.IdempotencyKey) {
		if err := acquireKeyLock(ctx, tx, domain.AggregateLoanAccount, *params.IdempotencyKey); err != nil {
			return nil, err
		}
		existing, err := e.FindPriorEvent(ctx, tx, domain.AggregateLoanAccount, *params.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.EventType == domain.EventLoanOpened {
			acct, err := e.loans.FindByID(ctx, tx, existing.AggregateID)
			if err != nil {
				return nil, fmt.Errorf("open loan replay: %w", err)
			}
			if acct != nil {
				return &domain.LoanResult{Account: acct, Idempotent: true}, nil
			}
		}
	}

	now := time.Now().UTC()
	openedOn := params.OpenedOn
	principal := money.Quantize(params.Principal)
	acct := &domain.LoanAccount{
		ID:                   uuid.NewString(),
		OpenedOn:             openedOn,
		Status:               domain.AccountStatusOpen,
		Principal:            principal,
		AnnualInterestRate:   money.QuantizeRate(params.AnnualInterestRate),
		DayCountBasis:        params.DayCountBasis,
		OutstandingPrincipal: principal,
		AccruedInterest:      money.Quantize(decimal.Zero),
		LastAccrualDate:      &openedOn,
		CreatedAt:            now,
	}
	if err := e.loans.Create(ctx, tx, acct); err != nil {
		return nil, fmt.Errorf("open loan: %w", err)
	}

	entry := &domain.LedgerEntry{
		ID:            uuid.NewString(),
		CreatedAt:     now,
		EffectiveDate: openedOn,
		AccountType:   domain.AggregateLoanAccount,
		AccountID:     acct.ID,
		TxnID:         "loan_disburse:" + txnBase(params.IdempotencyKey, now),
		Description:   "Loan disbursement",
		DebitAccount:  domain.LedgerLoanReceivable,
		CreditAccount: domain.LedgerCash,
		Amount:        principal,
	}
	if err := e.ledger.Insert(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("open loan: %w", err)
	}

	ev, err := e.AppendEvent(ctx, tx, domain.NewLoanOpenedEvent(acct.ID, domain.LoanOpenedPayload{
		OpenedOn:           isoDate(openedOn),
		Principal:          money.FormatAmount(principal),
		AnnualInterestRate: money.FormatRate(acct.AnnualInterestRate),
		DayCountBasis:      acct.DayCountBasis,
	}, now, params.IdempotencyKey))
	if err != nil {
		return nil, err
	}

	return &domain.LoanResult{Account: acct, Event: ev}, nil
}
