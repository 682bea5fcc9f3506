package domain

import (
	"encoding/json"
	"time"
)

// EventType enumerates all domain event types. The string values are the
// on-disk and on-wire contract; renaming one is a breaking change for every
// subscriber.
type EventType string

const (
	EventDepositAccountOpened EventType = "DEPOSIT_ACCOUNT_OPENED"
	EventDepositPosted        EventType = "DEPOSIT_POSTED"
	EventWithdrawalPosted     EventType = "WITHDRAWAL_POSTED"
	EventInterestAccrued      EventType = "INTEREST_ACCRUED"
	EventMonthEndApplied      EventType = "MONTH_END_APPLIED"
	EventLoanOpened           EventType = "LOAN_OPENED"
	EventLoanInterestAccrued  EventType = "LOAN_INTEREST_ACCRUED"
	EventLoanRepaymentPosted  EventType = "LOAN_REPAYMENT_POSTED"
)

// AggregateType enumerates the aggregate root kinds.
type AggregateType string

const (
	AggregateDepositAccount AggregateType = "deposit_account"
	AggregateLoanAccount    AggregateType = "loan_account"
)

// DomainEvent is an immutable record of a committed business fact.
// (aggregate_type, idempotency_key) is the replay lookup key when the key is
// non-nil; the most recently created event wins if duplicates exist.
type DomainEvent struct {
	ID             string
	CreatedAt      time.Time
	AggregateType  AggregateType
	AggregateID    string
	EventType      EventType
	EventTime      time.Time
	Payload        json.RawMessage
	IdempotencyKey *string
}

// EventDraft is the input to Engine.AppendEvent: everything an event needs
// except its identity and created_at, which the store assigns.
type EventDraft struct {
	AggregateType  AggregateType
	AggregateID    string
	EventType      EventType
	Payload        json.RawMessage
	EventTime      time.Time
	IdempotencyKey *string
}

// EventEnvelope is the JSON body delivered to queue topics and webhook
// targets.
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	AggregateType AggregateType   `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     EventType       `json:"event_type"`
	EventTime     time.Time       `json:"event_time"`
	Payload       json.RawMessage `json:"payload"`
}

// NewEventEnvelope builds the delivery envelope for an event.
func NewEventEnvelope(ev *DomainEvent) EventEnvelope {
	return EventEnvelope{
		EventID:       ev.ID,
		AggregateType: ev.AggregateType,
		AggregateID:   ev.AggregateID,
		EventType:     ev.EventType,
		EventTime:     ev.EventTime,
		Payload:       ev.Payload,
	}
}

// EventFilter selects events for the query surface. Nil fields are ignored.
type EventFilter struct {
	AggregateType  *string
	AggregateID    *string
	EventType      *string
	IdempotencyKey *string
	Limit          int
	Offset         int
}
