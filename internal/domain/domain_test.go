package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Validator Tests ---

func TestValidatePositiveAmount(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		wantErr bool
	}{
		{"positive", "100.00", false},
		{"one cent", "0.01", false},
		{"large amount", "999999999.99", false},
		{"zero", "0", true},
		{"zero with scale", "0.00", true},
		{"negative", "-0.01", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, err := decimal.NewFromString(tt.amount)
			require.NoError(t, err)
			err = ValidatePositiveAmount(amount)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "must be positive")
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidateRate(t *testing.T) {
	tests := []struct {
		name    string
		rate    string
		wantErr bool
	}{
		{"zero is allowed", "0", false},
		{"typical deposit rate", "0.10", false},
		{"typical loan rate", "0.12", false},
		{"negative", "-0.01", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate, err := decimal.NewFromString(tt.rate)
			require.NoError(t, err)
			err = ValidateRate(rate)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidateBasis(t *testing.T) {
	assert.NoError(t, ValidateBasis(360))
	assert.NoError(t, ValidateBasis(365))
	assert.NoError(t, ValidateBasis(366))
	assert.Error(t, ValidateBasis(359))
	assert.Error(t, ValidateBasis(0))
	assert.Error(t, ValidateBasis(-365))
}

func TestValidateMaxMessages(t *testing.T) {
	assert.NoError(t, ValidateMaxMessages(1))
	assert.NoError(t, ValidateMaxMessages(50))
	assert.NoError(t, ValidateMaxMessages(500))
	assert.Error(t, ValidateMaxMessages(0))
	assert.Error(t, ValidateMaxMessages(501))
	assert.Error(t, ValidateMaxMessages(-1))
}

func TestValidateTargetURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"https", "https://hooks.example.com/fincore", false},
		{"http", "http://localhost:9999/hook", false},
		{"empty", "", true},
		{"no scheme", "hooks.example.com/fincore", true},
		{"ftp", "ftp://example.com/hook", true},
		{"scheme only", "https://", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTargetURL(tt.url)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

// --- Error Tests ---

func TestAppError(t *testing.T) {
	t.Run("error string includes code and message", func(t *testing.T) {
		err := ErrAccountNotFound("acct-1")
		assert.Equal(t, "ACCOUNT_NOT_FOUND", err.Code)
		assert.Equal(t, 404, err.Status)
		assert.Contains(t, err.Error(), "ACCOUNT_NOT_FOUND")
		assert.Contains(t, err.Error(), "acct-1")
	})

	t.Run("insufficient funds is a 400", func(t *testing.T) {
		err := ErrInsufficientFunds()
		assert.Equal(t, "INSUFFICIENT_FUNDS", err.Code)
		assert.Equal(t, 400, err.Status)
	})

	t.Run("cause is unwrapped", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := ErrInternal("db unavailable", cause)
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("errors.As finds AppError through wrapping", func(t *testing.T) {
		var appErr *AppError
		wrapped := ErrValidation("bad amount")
		require.True(t, errors.As(error(wrapped), &appErr))
		assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	})
}

// --- Destination Tests ---

func TestDestinations(t *testing.T) {
	assert.Equal(t, "queue:domain_events", QueueDestination(QueueTopicDomainEvents))
	assert.Equal(t, "webhook:sub-123", WebhookDestination("sub-123"))

	tests := []struct {
		dest       string
		wantScheme string
		wantRest   string
	}{
		{"queue:domain_events", "queue", "domain_events"},
		{"webhook:sub-123", "webhook", "sub-123"},
		{"queue:topic:with:colons", "queue", "topic:with:colons"},
		{"garbage", "garbage", ""},
		{"sms:+15551234567", "sms", "+15551234567"},
	}
	for _, tt := range tests {
		t.Run(tt.dest, func(t *testing.T) {
			scheme, rest := SplitDestination(tt.dest)
			assert.Equal(t, tt.wantScheme, scheme)
			assert.Equal(t, tt.wantRest, rest)
		})
	}
}

// --- Envelope & Payload Tests ---

func TestNewEventEnvelope(t *testing.T) {
	eventTime := time.Date(2026, 1, 11, 9, 30, 0, 0, time.UTC)
	key := "dep-1"
	ev := &DomainEvent{
		ID:             "ev-1",
		CreatedAt:      time.Now().UTC(),
		AggregateType:  AggregateDepositAccount,
		AggregateID:    "acct-1",
		EventType:      EventDepositPosted,
		EventTime:      eventTime,
		Payload:        json.RawMessage(`{"amount":"100.00","effective_date":"2026-01-01"}`),
		IdempotencyKey: &key,
	}

	env := NewEventEnvelope(ev)
	body, err := json.Marshal(env)
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(body, &wire))
	assert.Equal(t, "ev-1", wire["event_id"])
	assert.Equal(t, "deposit_account", wire["aggregate_type"])
	assert.Equal(t, "acct-1", wire["aggregate_id"])
	assert.Equal(t, "DEPOSIT_POSTED", wire["event_type"])
	assert.Equal(t, "2026-01-11T09:30:00Z", wire["event_time"])

	payload, ok := wire["payload"].(map[string]any)
	require.True(t, ok, "payload must stay a JSON object")
	assert.Equal(t, "100.00", payload["amount"])
}

func TestEventDraftConstructors(t *testing.T) {
	at := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	key := "dep-1"

	t.Run("deposit posted", func(t *testing.T) {
		draft := NewDepositPostedEvent("acct-1", MoneyMovedPayload{
			Amount:        "100.00",
			EffectiveDate: "2026-01-01",
		}, at, &key)

		assert.Equal(t, AggregateDepositAccount, draft.AggregateType)
		assert.Equal(t, EventDepositPosted, draft.EventType)
		assert.Equal(t, &key, draft.IdempotencyKey)
		assert.JSONEq(t, `{"amount":"100.00","effective_date":"2026-01-01"}`, string(draft.Payload))
	})

	t.Run("accrual picks event type by aggregate", func(t *testing.T) {
		p := InterestAccruedPayload{FromDate: "2026-01-01", ToDate: "2026-01-11", Days: 10, Interest: "0.27"}

		deposit := NewInterestAccruedEvent(AggregateDepositAccount, "d-1", p, at)
		assert.Equal(t, EventInterestAccrued, deposit.EventType)
		assert.Nil(t, deposit.IdempotencyKey)

		loan := NewInterestAccruedEvent(AggregateLoanAccount, "l-1", p, at)
		assert.Equal(t, EventLoanInterestAccrued, loan.EventType)
		assert.JSONEq(t, `{"from_date":"2026-01-01","to_date":"2026-01-11","days":10,"interest":"0.27"}`, string(loan.Payload))
	})

	t.Run("repayment payload exposes allocation", func(t *testing.T) {
		draft := NewLoanRepaymentPostedEvent("l-1", LoanRepaymentPostedPayload{
			Amount:        "200.00",
			InterestPaid:  "9.86",
			PrincipalPaid: "190.14",
			EffectiveDate: "2026-01-31",
		}, at, &key)

		assert.Equal(t, EventLoanRepaymentPosted, draft.EventType)
		assert.JSONEq(t, `{"amount":"200.00","interest_paid":"9.86","principal_paid":"190.14","effective_date":"2026-01-31"}`, string(draft.Payload))
	})
}

// --- Aggregate Tests ---

func TestAccrualStart(t *testing.T) {
	opened := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	accruedTo := time.Date(2026, 1, 11, 0, 0, 0, 0, time.UTC)

	deposit := &DepositAccount{OpenedOn: opened}
	assert.Equal(t, opened, deposit.AccrualStart())
	deposit.LastAccrualDate = &accruedTo
	assert.Equal(t, accruedTo, deposit.AccrualStart())

	loan := &LoanAccount{OpenedOn: opened}
	assert.Equal(t, opened, loan.AccrualStart())
	loan.LastAccrualDate = &accruedTo
	assert.Equal(t, accruedTo, loan.AccrualStart())
}
