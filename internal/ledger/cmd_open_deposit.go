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

// ExecuteOpenDeposit creates a deposit account with a zero balance and
// accrual anchored at opened_on.
// Pattern: Idempotency → Create → AppendEvent
func (e *Engine) ExecuteOpenDeposit(ctx context.Context, tx pgx.Tx, params domain.OpenDepositParams) (*domain.DepositResult, error) {
	if err := domain.ValidateRate(params.AnnualInterestRate); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	if err := domain.ValidateBasis(params.DayCountBasis); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}

	// No row exists to lock yet; the advisory lock alone fences concurrent
	// duplicates of the same key.
	if hasKey(params.IdempotencyKey) {
		if err := acquireKeyLock(ctx, tx, domain.AggregateDepositAccount, *params.IdempotencyKey); err != nil {
			return nil, err
		}
		existing, err := e.FindPriorEvent(ctx, tx, domain.AggregateDepositAccount, *params.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.EventType == domain.EventDepositAccountOpened {
			acct, err := e.deposits.FindByID(ctx, tx, existing.AggregateID)
			if err != nil {
				return nil, fmt.Errorf("open deposit replay: %w", err)
			}
			if acct != nil {
				return &domain.DepositResult{Account: acct, Idempotent: true}, nil
			}
		}
	}

	now := time.Now().UTC()
	openedOn := params.OpenedOn
	acct := &domain.DepositAccount{
		ID:                 uuid.NewString(),
		OpenedOn:           openedOn,
		Status:             domain.AccountStatusOpen,
		AnnualInterestRate: money.QuantizeRate(params.AnnualInterestRate),
		DayCountBasis:      params.DayCountBasis,
		CurrentBalance:     money.Quantize(decimal.Zero),
		AccruedInterest:    money.Quantize(decimal.Zero),
		LastAccrualDate:    &openedOn,
		CreatedAt:          now,
	}
	if err := e.deposits.Create(ctx, tx, acct); err != nil {
		return nil, fmt.Errorf("open deposit: %w", err)
	}

	ev, err := e.AppendEvent(ctx, tx, domain.NewDepositAccountOpenedEvent(acct.ID, domain.DepositAccountOpenedPayload{
		OpenedOn:           isoDate(openedOn),
		AnnualInterestRate: money.FormatRate(acct.AnnualInterestRate),
		DayCountBasis:      acct.DayCountBasis,
	}, now, params.IdempotencyKey))
	if err != nil {
		return nil, err
	}

	return &domain.DepositResult{Account: acct, Event: ev}, nil
}
