package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ledger account names. Every entry debits exactly one and credits exactly
// one of these; the (debit, credit, amount) triple is self-balancing.
const (
	LedgerCash             = "cash"
	LedgerCustomerDeposits = "customer_deposits"
	LedgerInterestExpense  = "interest_expense"
	LedgerInterestIncome   = "interest_income"
	LedgerLoanReceivable   = "loan_receivable"
)

// LedgerEntry is an append-only double-entry journal row. No update or
// delete path exists anywhere in the codebase.
type LedgerEntry struct {
	ID            string
	CreatedAt     time.Time
	EffectiveDate time.Time
	AccountType   AggregateType
	AccountID     string
	TxnID         string
	Description   string
	DebitAccount  string
	CreditAccount string
	Amount        decimal.Decimal
}

// LedgerFilter selects journal rows for the query surface. Nil fields are
// ignored; results are ordered created_at descending.
type LedgerFilter struct {
	AccountType   *string
	AccountID     *string
	TxnID         *string
	EffectiveFrom *time.Time
	EffectiveTo   *time.Time
	Limit         int
	Offset        int
}
