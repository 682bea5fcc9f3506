package domain

import (
	"encoding/json"
	"time"
)

// Event payloads form a tagged union keyed by EventType. The JSON field
// names are the compatibility contract with every queue and webhook
// subscriber; amounts and rates are canonical decimal strings, dates are
// ISO dates (2006-01-02).

// DepositAccountOpenedPayload accompanies DEPOSIT_ACCOUNT_OPENED.
type DepositAccountOpenedPayload struct {
	OpenedOn           string `json:"opened_on"`
	AnnualInterestRate string `json:"annual_interest_rate"`
	DayCountBasis      int    `json:"day_count_basis"`
}

// MoneyMovedPayload accompanies DEPOSIT_POSTED and WITHDRAWAL_POSTED.
type MoneyMovedPayload struct {
	Amount        string `json:"amount"`
	EffectiveDate string `json:"effective_date"`
}

// InterestAccruedPayload accompanies INTEREST_ACCRUED and
// LOAN_INTEREST_ACCRUED.
type InterestAccruedPayload struct {
	FromDate string `json:"from_date"`
	ToDate   string `json:"to_date"`
	Days     int    `json:"days"`
	Interest string `json:"interest"`
}

// MonthEndAppliedPayload accompanies MONTH_END_APPLIED.
type MonthEndAppliedPayload struct {
	EffectiveDate  string `json:"effective_date"`
	InterestPosted string `json:"interest_posted"`
}

// LoanOpenedPayload accompanies LOAN_OPENED.
type LoanOpenedPayload struct {
	OpenedOn           string `json:"opened_on"`
	Principal          string `json:"principal"`
	AnnualInterestRate string `json:"annual_interest_rate"`
	DayCountBasis      int    `json:"day_count_basis"`
}

// LoanRepaymentPostedPayload accompanies LOAN_REPAYMENT_POSTED. The
// allocation fields let subscribers detect overpayment: amount may exceed
// interest_paid + principal_paid.
type LoanRepaymentPostedPayload struct {
	Amount        string `json:"amount"`
	InterestPaid  string `json:"interest_paid"`
	PrincipalPaid string `json:"principal_paid"`
	EffectiveDate string `json:"effective_date"`
}

// NewDepositAccountOpenedEvent drafts the account-opened event.
func NewDepositAccountOpenedEvent(accountID string, p DepositAccountOpenedPayload, at time.Time, key *string) EventDraft {
	payload, _ := json.Marshal(p)
	return EventDraft{
		AggregateType:  AggregateDepositAccount,
		AggregateID:    accountID,
		EventType:      EventDepositAccountOpened,
		Payload:        payload,
		EventTime:      at,
		IdempotencyKey: key,
	}
}

// NewDepositPostedEvent drafts a deposit event.
func NewDepositPostedEvent(accountID string, p MoneyMovedPayload, at time.Time, key *string) EventDraft {
	payload, _ := json.Marshal(p)
	return EventDraft{
		AggregateType:  AggregateDepositAccount,
		AggregateID:    accountID,
		EventType:      EventDepositPosted,
		Payload:        payload,
		EventTime:      at,
		IdempotencyKey: key,
	}
}

// NewWithdrawalPostedEvent drafts a withdrawal event.
func NewWithdrawalPostedEvent(accountID string, p MoneyMovedPayload, at time.Time, key *string) EventDraft {
	payload, _ := json.Marshal(p)
	return EventDraft{
		AggregateType:  AggregateDepositAccount,
		AggregateID:    accountID,
		EventType:      EventWithdrawalPosted,
		Payload:        payload,
		EventTime:      at,
		IdempotencyKey: key,
	}
}

// NewInterestAccruedEvent drafts an accrual event for either aggregate kind.
func NewInterestAccruedEvent(aggregate AggregateType, accountID string, p InterestAccruedPayload, at time.Time) EventDraft {
	eventType := EventInterestAccrued
	if aggregate == AggregateLoanAccount {
		eventType = EventLoanInterestAccrued
	}
	payload, _ := json.Marshal(p)
	return EventDraft{
		AggregateType: aggregate,
		AggregateID:   accountID,
		EventType:     eventType,
		Payload:       payload,
		EventTime:     at,
	}
}

// NewMonthEndAppliedEvent drafts a month-end posting event.
func NewMonthEndAppliedEvent(accountID string, p MonthEndAppliedPayload, at time.Time) EventDraft {
	payload, _ := json.Marshal(p)
	return EventDraft{
		AggregateType: AggregateDepositAccount,
		AggregateID:   accountID,
		EventType:     EventMonthEndApplied,
		Payload:       payload,
		EventTime:     at,
	}
}

// NewLoanOpenedEvent drafts the loan-opened event.
func NewLoanOpenedEvent(accountID string, p LoanOpenedPayload, at time.Time, key *string) EventDraft {
	payload, _ := json.Marshal(p)
	return EventDraft{
		AggregateType:  AggregateLoanAccount,
		AggregateID:    accountID,
		EventType:      EventLoanOpened,
		Payload:        payload,
		EventTime:      at,
		IdempotencyKey: key,
	}
}

// NewLoanRepaymentPostedEvent drafts a repayment event.
func NewLoanRepaymentPostedEvent(accountID string, p LoanRepaymentPostedPayload, at time.Time, key *string) EventDraft {
	payload, _ := json.Marshal(p)
	return EventDraft{
		AggregateType:  AggregateLoanAccount,
		AggregateID:    accountID,
		EventType:      EventLoanRepaymentPosted,
		Payload:        payload,
		EventTime:      at,
		IdempotencyKey: key,
	}
}
