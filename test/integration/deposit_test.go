//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/fincore/platform/test/integration/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─── Deposit Account Tests ────────────────────────────────────────────────

func TestDeposit_Lifecycle(t *testing.T) {
	env := testutil.NewTestEnv(t)

	acct := env.OpenDeposit("2026-01-01", "0.10")
	assert.Equal(t, "OPEN", acct.Status)
	assert.Equal(t, "2026-01-01", acct.OpenedOn)
	assert.Equal(t, "0.100000", acct.AnnualInterestRate)
	assert.Equal(t, 365, acct.DayCountBasis)
	assert.Equal(t, "0.00", acct.CurrentBalance)
	assert.Equal(t, "0.00", acct.AccruedInterest)

	// Deposit twice with the same idempotency key: only the first posts.
	depositBody := map[string]interface{}{
		"amount":          "100.00",
		"effective_date":  "2026-01-01",
		"idempotency_key": "dep-1",
	}
	resp := env.POST("/api/v1/deposit/accounts/"+acct.ID+"/deposit", depositBody)
	testutil.AssertStatus(t, resp, http.StatusOK)
	var snap testutil.AccountSnapshot
	testutil.DecodeJSON(t, resp, &snap)
	assert.Equal(t, "100.00", snap.CurrentBalance)

	resp = env.POST("/api/v1/deposit/accounts/"+acct.ID+"/deposit", depositBody)
	testutil.AssertStatus(t, resp, http.StatusOK)
	testutil.DecodeJSON(t, resp, &snap)
	assert.Equal(t, "100.00", snap.CurrentBalance)

	// One opened event, one deposit event; the replay added nothing.
	assert.Equal(t, 2, testutil.CountEvents(t, env, acct.ID))
	assert.Equal(t, 1, testutil.CountLedgerEntries(t, env, acct.ID))

	// Accrue 10 days at 10%: 100.00 * 0.10 * 10/365 rounds to 0.27.
	resp = env.POST("/api/v1/deposit/accounts/"+acct.ID+"/accrue", map[string]string{
		"as_of_date": "2026-01-11",
	})
	testutil.AssertStatus(t, resp, http.StatusOK)
	testutil.DecodeJSON(t, resp, &snap)
	assert.Equal(t, "100.00", snap.CurrentBalance)
	assert.Equal(t, "0.27", snap.AccruedInterest)

	// Month end moves the accrual into the balance.
	resp = env.POST("/api/v1/deposit/accounts/"+acct.ID+"/month-end", map[string]string{
		"effective_date": "2026-01-31",
	})
	testutil.AssertStatus(t, resp, http.StatusOK)
	testutil.DecodeJSON(t, resp, &snap)
	assert.Equal(t, "100.27", snap.CurrentBalance)
	assert.Equal(t, "0.00", snap.AccruedInterest)

	// Journal grew by exactly the interest posting row.
	assert.Equal(t, 2, testutil.CountLedgerEntries(t, env, acct.ID))
}

func TestDeposit_WithdrawBoundaries(t *testing.T) {
	env := testutil.NewTestEnv(t)

	acct := env.OpenDeposit("2026-01-01", "0.05")
	resp := env.POST("/api/v1/deposit/accounts/"+acct.ID+"/deposit", map[string]string{
		"amount":         "50.00",
		"effective_date": "2026-01-02",
	})
	testutil.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	// Overdraw is rejected and changes nothing.
	resp = env.POST("/api/v1/deposit/accounts/"+acct.ID+"/withdraw", map[string]string{
		"amount":         "50.01",
		"effective_date": "2026-01-03",
	})
	testutil.AssertStatus(t, resp, http.StatusBadRequest)
	testutil.AssertErrorCode(t, resp, "INSUFFICIENT_FUNDS")

	// Withdrawing the exact balance drains the account to zero.
	resp = env.POST("/api/v1/deposit/accounts/"+acct.ID+"/withdraw", map[string]string{
		"amount":         "50.00",
		"effective_date": "2026-01-03",
	})
	testutil.AssertStatus(t, resp, http.StatusOK)
	var snap testutil.AccountSnapshot
	testutil.DecodeJSON(t, resp, &snap)
	assert.Equal(t, "0.00", snap.CurrentBalance)

	// Non-positive amounts never reach the balance check.
	resp = env.POST("/api/v1/deposit/accounts/"+acct.ID+"/withdraw", map[string]string{
		"amount":         "-1.00",
		"effective_date": "2026-01-03",
	})
	testutil.AssertStatus(t, resp, http.StatusBadRequest)
	testutil.AssertErrorCode(t, resp, "VALIDATION_ERROR")
}

func TestDeposit_AccrueZeroWindowIsNoOp(t *testing.T) {
	env := testutil.NewTestEnv(t)

	acct := env.OpenDeposit("2026-01-01", "0.10")

	// as_of equal to the accrual anchor accrues nothing and emits no event.
	resp := env.POST("/api/v1/deposit/accounts/"+acct.ID+"/accrue", map[string]string{
		"as_of_date": "2026-01-01",
	})
	testutil.AssertStatus(t, resp, http.StatusOK)
	var snap testutil.AccountSnapshot
	testutil.DecodeJSON(t, resp, &snap)
	assert.Equal(t, "0.00", snap.AccruedInterest)
	assert.Equal(t, 1, testutil.CountEvents(t, env, acct.ID))

	// Same for a date before the anchor.
	resp = env.POST("/api/v1/deposit/accounts/"+acct.ID+"/accrue", map[string]string{
		"as_of_date": "2025-12-15",
	})
	testutil.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()
	assert.Equal(t, 1, testutil.CountEvents(t, env, acct.ID))
}

func TestDeposit_MonthEndZeroAccrualIsNoOp(t *testing.T) {
	env := testutil.NewTestEnv(t)

	acct := env.OpenDeposit("2026-01-01", "0.10")

	resp := env.POST("/api/v1/deposit/accounts/"+acct.ID+"/month-end", map[string]string{
		"effective_date": "2026-01-31",
	})
	testutil.AssertStatus(t, resp, http.StatusOK)
	var snap testutil.AccountSnapshot
	testutil.DecodeJSON(t, resp, &snap)
	assert.Equal(t, "0.00", snap.CurrentBalance)

	// No posting event, no journal row.
	assert.Equal(t, 1, testutil.CountEvents(t, env, acct.ID))
	assert.Equal(t, 0, testutil.CountLedgerEntries(t, env, acct.ID))
}

func TestDeposit_OpenIsIdempotent(t *testing.T) {
	env := testutil.NewTestEnv(t)

	body := map[string]interface{}{
		"opened_on":            "2026-01-01",
		"annual_interest_rate": "0.05",
		"idempotency_key":      "open-1",
	}
	resp := env.POST("/api/v1/deposit/accounts", body)
	testutil.AssertStatus(t, resp, http.StatusOK)
	var first testutil.AccountSnapshot
	testutil.DecodeJSON(t, resp, &first)

	resp = env.POST("/api/v1/deposit/accounts", body)
	testutil.AssertStatus(t, resp, http.StatusOK)
	var second testutil.AccountSnapshot
	testutil.DecodeJSON(t, resp, &second)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, testutil.CountEvents(t, env, first.ID))
}

func TestDeposit_GetAndList(t *testing.T) {
	env := testutil.NewTestEnv(t)

	a := env.OpenDeposit("2026-01-01", "0.05")
	b := env.OpenDeposit("2026-02-01", "0.07")

	resp := env.GET("/api/v1/deposit/accounts/" + a.ID)
	testutil.AssertStatus(t, resp, http.StatusOK)
	var snap testutil.AccountSnapshot
	testutil.DecodeJSON(t, resp, &snap)
	assert.Equal(t, a.ID, snap.ID)
	assert.Equal(t, "0.050000", snap.AnnualInterestRate)

	resp = env.GET("/api/v1/deposit/accounts/")
	testutil.AssertStatus(t, resp, http.StatusOK)
	var list struct {
		Total int64                      `json:"total"`
		Items []testutil.AccountSnapshot `json:"items"`
	}
	testutil.DecodeJSON(t, resp, &list)
	assert.Equal(t, int64(2), list.Total)
	require.Len(t, list.Items, 2)

	// Newest first.
	assert.Equal(t, b.ID, list.Items[0].ID)
	assert.Equal(t, a.ID, list.Items[1].ID)

	resp = env.GET("/api/v1/deposit/accounts/missing-id")
	testutil.AssertStatus(t, resp, http.StatusNotFound)
	testutil.AssertErrorCode(t, resp, "ACCOUNT_NOT_FOUND")
}

func TestDeposit_OpenValidation(t *testing.T) {
	env := testutil.NewTestEnv(t)

	// Negative rate.
	resp := env.POST("/api/v1/deposit/accounts", map[string]interface{}{
		"opened_on":            "2026-01-01",
		"annual_interest_rate": "-0.01",
	})
	testutil.AssertStatus(t, resp, http.StatusBadRequest)
	testutil.AssertErrorCode(t, resp, "VALIDATION_ERROR")

	// Basis below the 360 floor.
	resp = env.POST("/api/v1/deposit/accounts", map[string]interface{}{
		"opened_on":            "2026-01-01",
		"annual_interest_rate": "0.05",
		"day_count_basis":      252,
	})
	testutil.AssertStatus(t, resp, http.StatusBadRequest)
	testutil.AssertErrorCode(t, resp, "VALIDATION_ERROR")

	// Malformed date.
	resp = env.POST("/api/v1/deposit/accounts", map[string]interface{}{
		"opened_on":            "01/01/2026",
		"annual_interest_rate": "0.05",
	})
	testutil.AssertStatus(t, resp, http.StatusBadRequest)
	testutil.AssertErrorCode(t, resp, "VALIDATION_ERROR")
}
