//go:build integration

package integration

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/fincore/platform/test/integration/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─── Query Surface Tests ──────────────────────────────────────────────────

type eventItem struct {
	ID             string          `json:"id"`
	CreatedAt      time.Time       `json:"created_at"`
	AggregateType  string          `json:"aggregate_type"`
	AggregateID    string          `json:"aggregate_id"`
	EventType      string          `json:"event_type"`
	EventTime      time.Time       `json:"event_time"`
	Payload        json.RawMessage `json:"payload"`
	IdempotencyKey *string         `json:"idempotency_key"`
}

type eventList struct {
	Total int64       `json:"total"`
	Items []eventItem `json:"items"`
}

func TestEvents_ListFilters(t *testing.T) {
	env := testutil.NewTestEnv(t)

	dep := env.OpenDeposit("2026-01-01", "0.05")
	resp := env.POST("/api/v1/deposit/accounts/"+dep.ID+"/deposit", map[string]interface{}{
		"amount":          "100.00",
		"effective_date":  "2026-01-02",
		"idempotency_key": "api-dep-1",
	})
	testutil.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	loan := env.OpenLoan("2026-01-01", "1000.00", "0.12", 365)

	var list eventList

	resp = env.GET("/api/v1/events")
	testutil.AssertStatus(t, resp, http.StatusOK)
	testutil.DecodeJSON(t, resp, &list)
	assert.Equal(t, int64(3), list.Total)

	resp = env.GET("/api/v1/events?aggregate_type=deposit_account")
	testutil.AssertStatus(t, resp, http.StatusOK)
	testutil.DecodeJSON(t, resp, &list)
	require.Equal(t, int64(2), list.Total)
	for _, item := range list.Items {
		assert.Equal(t, "deposit_account", item.AggregateType)
		assert.Equal(t, dep.ID, item.AggregateID)
	}

	resp = env.GET("/api/v1/events?event_type=LOAN_OPENED")
	testutil.AssertStatus(t, resp, http.StatusOK)
	testutil.DecodeJSON(t, resp, &list)
	require.Equal(t, int64(1), list.Total)
	assert.Equal(t, loan.ID, list.Items[0].AggregateID)

	resp = env.GET("/api/v1/events?aggregate_id=" + loan.ID)
	testutil.AssertStatus(t, resp, http.StatusOK)
	testutil.DecodeJSON(t, resp, &list)
	require.Equal(t, int64(1), list.Total)
	assert.Equal(t, "LOAN_OPENED", list.Items[0].EventType)

	resp = env.GET("/api/v1/events?idempotency_key=api-dep-1")
	testutil.AssertStatus(t, resp, http.StatusOK)
	testutil.DecodeJSON(t, resp, &list)
	require.Equal(t, int64(1), list.Total)
	assert.Equal(t, "DEPOSIT_POSTED", list.Items[0].EventType)
	require.NotNil(t, list.Items[0].IdempotencyKey)
	assert.Equal(t, "api-dep-1", *list.Items[0].IdempotencyKey)
}

func TestEvents_ListNewestFirstAndPaged(t *testing.T) {
	env := testutil.NewTestEnv(t)

	a := env.OpenDeposit("2026-01-01", "0.05")
	b := env.OpenDeposit("2026-01-02", "0.05")

	var list eventList
	resp := env.GET("/api/v1/events?limit=1")
	testutil.AssertStatus(t, resp, http.StatusOK)
	testutil.DecodeJSON(t, resp, &list)
	assert.Equal(t, int64(2), list.Total)
	require.Len(t, list.Items, 1)
	assert.Equal(t, b.ID, list.Items[0].AggregateID)

	resp = env.GET("/api/v1/events?limit=1&offset=1")
	testutil.AssertStatus(t, resp, http.StatusOK)
	testutil.DecodeJSON(t, resp, &list)
	require.Len(t, list.Items, 1)
	assert.Equal(t, a.ID, list.Items[0].AggregateID)
}

type ledgerEntryItem struct {
	ID            string `json:"id"`
	EffectiveDate string `json:"effective_date"`
	AccountType   string `json:"account_type"`
	AccountID     string `json:"account_id"`
	TxnID         string `json:"txn_id"`
	Description   string `json:"description"`
	DebitAccount  string `json:"debit_account"`
	CreditAccount string `json:"credit_account"`
	Amount        string `json:"amount"`
}

type ledgerList struct {
	Total int64             `json:"total"`
	Items []ledgerEntryItem `json:"items"`
}

func TestLedger_ListFilters(t *testing.T) {
	env := testutil.NewTestEnv(t)

	dep := env.OpenDeposit("2026-01-01", "0.05")
	for _, d := range []string{"2026-01-02", "2026-02-02"} {
		resp := env.POST("/api/v1/deposit/accounts/"+dep.ID+"/deposit", map[string]interface{}{
			"amount":          "100.00",
			"effective_date":  d,
			"idempotency_key": "led-" + d,
		})
		testutil.AssertStatus(t, resp, http.StatusOK)
		resp.Body.Close()
	}
	loan := env.OpenLoan("2026-01-01", "1000.00", "0.12", 365)

	var list ledgerList

	resp := env.GET("/api/v1/ledger/entries")
	testutil.AssertStatus(t, resp, http.StatusOK)
	testutil.DecodeJSON(t, resp, &list)
	assert.Equal(t, int64(3), list.Total)

	resp = env.GET("/api/v1/ledger/entries?account_id=" + dep.ID)
	testutil.AssertStatus(t, resp, http.StatusOK)
	testutil.DecodeJSON(t, resp, &list)
	require.Equal(t, int64(2), list.Total)
	for _, item := range list.Items {
		assert.Equal(t, "deposit_account", item.AccountType)
		assert.Equal(t, "cash", item.DebitAccount)
		assert.Equal(t, "customer_deposits", item.CreditAccount)
		assert.Equal(t, "100.00", item.Amount)
	}

	resp = env.GET("/api/v1/ledger/entries?account_type=loan_account")
	testutil.AssertStatus(t, resp, http.StatusOK)
	testutil.DecodeJSON(t, resp, &list)
	require.Equal(t, int64(1), list.Total)
	assert.Equal(t, loan.ID, list.Items[0].AccountID)
	assert.Equal(t, "loan_receivable", list.Items[0].DebitAccount)
	assert.Equal(t, "cash", list.Items[0].CreditAccount)
	assert.Equal(t, "1000.00", list.Items[0].Amount)

	// Date-range bounds are inclusive.
	resp = env.GET("/api/v1/ledger/entries?account_id=" + dep.ID + "&effective_date_from=2026-02-01")
	testutil.AssertStatus(t, resp, http.StatusOK)
	testutil.DecodeJSON(t, resp, &list)
	require.Equal(t, int64(1), list.Total)
	assert.Equal(t, "2026-02-02", list.Items[0].EffectiveDate)

	resp = env.GET("/api/v1/ledger/entries?account_id=" + dep.ID + "&effective_date_to=2026-01-31")
	testutil.AssertStatus(t, resp, http.StatusOK)
	testutil.DecodeJSON(t, resp, &list)
	require.Equal(t, int64(1), list.Total)
	assert.Equal(t, "2026-01-02", list.Items[0].EffectiveDate)

	resp = env.GET("/api/v1/ledger/entries?effective_date_from=bad-date")
	testutil.AssertStatus(t, resp, http.StatusBadRequest)
	testutil.AssertErrorCode(t, resp, "VALIDATION_ERROR")
}

func TestLedger_TxnIDGroupsRepaymentLegs(t *testing.T) {
	env := testutil.NewTestEnv(t)

	loan := env.OpenLoan("2026-01-01", "1000.00", "0.12", 365)

	resp := env.POST("/api/v1/loan/accounts/"+loan.ID+"/accrue", map[string]string{
		"as_of_date": "2026-01-31",
	})
	testutil.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = env.POST("/api/v1/loan/accounts/"+loan.ID+"/repay", map[string]interface{}{
		"amount":          "200.00",
		"effective_date":  "2026-01-31",
		"idempotency_key": "txn-grp-1",
	})
	testutil.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	// The repayment splits into an interest leg and a principal leg keyed
	// by the idempotency key.
	var list ledgerList
	resp = env.GET("/api/v1/ledger/entries?account_id=" + loan.ID)
	testutil.AssertStatus(t, resp, http.StatusOK)
	testutil.DecodeJSON(t, resp, &list)
	require.Equal(t, int64(3), list.Total)

	legs := map[string]ledgerEntryItem{}
	for _, item := range list.Items {
		if item.DebitAccount == "cash" {
			legs[item.TxnID] = item
		}
	}
	require.Len(t, legs, 2)

	interest, ok := legs["loan_payment_interest:txn-grp-1"]
	require.True(t, ok)
	assert.Equal(t, "interest_income", interest.CreditAccount)
	assert.Equal(t, "9.86", interest.Amount)

	principal, ok := legs["loan_payment_principal:txn-grp-1"]
	require.True(t, ok)
	assert.Equal(t, "loan_receivable", principal.CreditAccount)
	assert.Equal(t, "190.14", principal.Amount)

	resp = env.GET("/api/v1/ledger/entries?txn_id=loan_payment_interest:txn-grp-1")
	testutil.AssertStatus(t, resp, http.StatusOK)
	testutil.DecodeJSON(t, resp, &list)
	require.Equal(t, int64(1), list.Total)
	assert.Equal(t, "9.86", list.Items[0].Amount)
}

func TestHealthz(t *testing.T) {
	env := testutil.NewTestEnv(t)

	resp := env.GET("/healthz")
	testutil.AssertStatus(t, resp, http.StatusOK)

	var body struct {
		Status string `json:"status"`
	}
	testutil.DecodeJSON(t, resp, &body)
	assert.Equal(t, "healthy", body.Status)
}
