package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountStatus enumerates aggregate lifecycle states. Only OPEN exists
// today; the column is kept so closure/freeze states can be added without a
// schema change.
type AccountStatus string

const (
	AccountStatusOpen AccountStatus = "OPEN"
)

// DepositAccount is a customer deposit aggregate. Balances are quantized to
// two fractional digits; the rate to six. Mutated only by the engine
// commands, never deleted.
type DepositAccount struct {
	ID                 string
	OpenedOn           time.Time
	Status             AccountStatus
	AnnualInterestRate decimal.Decimal
	DayCountBasis      int
	CurrentBalance     decimal.Decimal
	AccruedInterest    decimal.Decimal
	LastAccrualDate    *time.Time
	CreatedAt          time.Time
}

// AccrualStart returns the date interest accrual resumes from.
func (a *DepositAccount) AccrualStart() time.Time {
	if a.LastAccrualDate != nil {
		return *a.LastAccrualDate
	}
	return a.OpenedOn
}

// LoanAccount is a lending aggregate. outstanding_principal stays within
// [0, principal]; accrued_interest is never negative.
type LoanAccount struct {
	ID                   string
	OpenedOn             time.Time
	Status               AccountStatus
	Principal            decimal.Decimal
	AnnualInterestRate   decimal.Decimal
	DayCountBasis        int
	OutstandingPrincipal decimal.Decimal
	AccruedInterest      decimal.Decimal
	LastAccrualDate      *time.Time
	CreatedAt            time.Time
}

// AccrualStart returns the date interest accrual resumes from.
func (a *LoanAccount) AccrualStart() time.Time {
	if a.LastAccrualDate != nil {
		return *a.LastAccrualDate
	}
	return a.OpenedOn
}
