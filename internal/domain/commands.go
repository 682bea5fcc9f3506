package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OpenDepositParams holds the input for ExecuteOpenDeposit.
type OpenDepositParams struct {
	OpenedOn           time.Time
	AnnualInterestRate decimal.Decimal
	DayCountBasis      int
	IdempotencyKey     *string
}

// PostDepositParams holds the input for ExecutePostDeposit.
type PostDepositParams struct {
	AccountID      string
	Amount         decimal.Decimal
	EffectiveDate  time.Time
	IdempotencyKey *string
}

// PostWithdrawalParams holds the input for ExecutePostWithdrawal.
type PostWithdrawalParams struct {
	AccountID      string
	Amount         decimal.Decimal
	EffectiveDate  time.Time
	IdempotencyKey *string
}

// AccrueParams holds the input for both accrual commands.
type AccrueParams struct {
	AccountID string
	AsOfDate  time.Time
}

// MonthEndParams holds the input for ExecuteApplyMonthEnd.
type MonthEndParams struct {
	AccountID     string
	EffectiveDate time.Time
}

// OpenLoanParams holds the input for ExecuteOpenLoan.
type OpenLoanParams struct {
	OpenedOn           time.Time
	Principal          decimal.Decimal
	AnnualInterestRate decimal.Decimal
	DayCountBasis      int
	IdempotencyKey     *string
}

// RepayLoanParams holds the input for ExecuteRepayLoan.
type RepayLoanParams struct {
	AccountID      string
	Amount         decimal.Decimal
	EffectiveDate  time.Time
	IdempotencyKey *string
}

// DepositResult is the return value from the deposit aggregate commands.
// Event is nil on the replay and no-op paths.
type DepositResult struct {
	Account    *DepositAccount
	Event      *DomainEvent
	Idempotent bool
}

// LoanResult is the return value from the loan aggregate commands.
// InterestPaid and PrincipalPaid carry the repayment allocation and are zero
// for every other command.
type LoanResult struct {
	Account       *LoanAccount
	Event         *DomainEvent
	Idempotent    bool
	InterestPaid  decimal.Decimal
	PrincipalPaid decimal.Decimal
}
