//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/fincore/platform/test/integration/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─── Loan Account Tests ───────────────────────────────────────────────────

func TestLoan_Lifecycle(t *testing.T) {
	env := testutil.NewTestEnv(t)

	acct := env.OpenLoan("2026-01-01", "1000.00", "0.12", 365)
	assert.Equal(t, "OPEN", acct.Status)
	assert.Equal(t, "1000.00", acct.Principal)
	assert.Equal(t, "1000.00", acct.OutstandingPrincipal)
	assert.Equal(t, "0.120000", acct.AnnualInterestRate)
	assert.Equal(t, "0.00", acct.AccruedInterest)

	// Disbursement journals principal against cash.
	assert.Equal(t, 1, testutil.CountLedgerEntries(t, env, acct.ID))

	// Accrue 30 days at 12%: 1000 * 0.12 * 30/365 rounds to 9.86.
	resp := env.POST("/api/v1/loan/accounts/"+acct.ID+"/accrue", map[string]string{
		"as_of_date": "2026-01-31",
	})
	testutil.AssertStatus(t, resp, http.StatusOK)
	var snap testutil.AccountSnapshot
	testutil.DecodeJSON(t, resp, &snap)
	assert.Equal(t, "9.86", snap.AccruedInterest)
	assert.Equal(t, "1000.00", snap.OutstandingPrincipal)

	// Repay 200: interest first, the rest against principal.
	repayBody := map[string]interface{}{
		"amount":          "200.00",
		"effective_date":  "2026-01-31",
		"idempotency_key": "pay-1",
	}
	resp = env.POST("/api/v1/loan/accounts/"+acct.ID+"/repay", repayBody)
	testutil.AssertStatus(t, resp, http.StatusOK)
	testutil.DecodeJSON(t, resp, &snap)
	assert.Equal(t, "0.00", snap.AccruedInterest)
	assert.Equal(t, "809.86", snap.OutstandingPrincipal)

	// Same key again: no second repayment, same aggregate state.
	resp = env.POST("/api/v1/loan/accounts/"+acct.ID+"/repay", repayBody)
	testutil.AssertStatus(t, resp, http.StatusOK)
	testutil.DecodeJSON(t, resp, &snap)
	assert.Equal(t, "0.00", snap.AccruedInterest)
	assert.Equal(t, "809.86", snap.OutstandingPrincipal)

	// opened + accrual + one repayment.
	assert.Equal(t, 3, testutil.CountEvents(t, env, acct.ID))

	// Journal: disbursement + interest allocation + principal allocation.
	assert.Equal(t, 3, testutil.CountLedgerEntries(t, env, acct.ID))
}

func TestLoan_RepaymentInterestFirst(t *testing.T) {
	env := testutil.NewTestEnv(t)

	acct := env.OpenLoan("2026-01-01", "1000.00", "0.12", 365)
	resp := env.POST("/api/v1/loan/accounts/"+acct.ID+"/accrue", map[string]string{
		"as_of_date": "2026-01-31",
	})
	testutil.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	// Payment smaller than accrued interest touches no principal.
	resp = env.POST("/api/v1/loan/accounts/"+acct.ID+"/repay", map[string]string{
		"amount":         "5.00",
		"effective_date": "2026-01-31",
	})
	testutil.AssertStatus(t, resp, http.StatusOK)
	var snap testutil.AccountSnapshot
	testutil.DecodeJSON(t, resp, &snap)
	assert.Equal(t, "4.86", snap.AccruedInterest)
	assert.Equal(t, "1000.00", snap.OutstandingPrincipal)
}

func TestLoan_OverpaymentClearsBothBuckets(t *testing.T) {
	env := testutil.NewTestEnv(t)

	acct := env.OpenLoan("2026-01-01", "100.00", "0.10", 365)

	// Pay far more than is owed: both buckets go to zero, the excess is
	// dropped rather than creating a negative balance.
	resp := env.POST("/api/v1/loan/accounts/"+acct.ID+"/repay", map[string]string{
		"amount":         "500.00",
		"effective_date": "2026-01-05",
	})
	testutil.AssertStatus(t, resp, http.StatusOK)
	var snap testutil.AccountSnapshot
	testutil.DecodeJSON(t, resp, &snap)
	assert.Equal(t, "0.00", snap.OutstandingPrincipal)
	assert.Equal(t, "0.00", snap.AccruedInterest)

	// Only the principal allocation journals; no interest row for a loan
	// with nothing accrued.
	assert.Equal(t, 2, testutil.CountLedgerEntries(t, env, acct.ID))
}

func TestLoan_AccrueUsesBasis360(t *testing.T) {
	env := testutil.NewTestEnv(t)

	acct := env.OpenLoan("2026-01-01", "10000.00", "0.12", 360)
	assert.Equal(t, 360, acct.DayCountBasis)

	// 30/360 at 12% on 10000 is exactly 100.00.
	resp := env.POST("/api/v1/loan/accounts/"+acct.ID+"/accrue", map[string]string{
		"as_of_date": "2026-01-31",
	})
	testutil.AssertStatus(t, resp, http.StatusOK)
	var snap testutil.AccountSnapshot
	testutil.DecodeJSON(t, resp, &snap)
	assert.Equal(t, "100.00", snap.AccruedInterest)
}

func TestLoan_GetAndList(t *testing.T) {
	env := testutil.NewTestEnv(t)

	a := env.OpenLoan("2026-01-01", "1000.00", "0.12", 365)
	b := env.OpenLoan("2026-02-01", "2000.00", "0.10", 360)

	resp := env.GET("/api/v1/loan/accounts/" + a.ID)
	testutil.AssertStatus(t, resp, http.StatusOK)
	var snap testutil.AccountSnapshot
	testutil.DecodeJSON(t, resp, &snap)
	assert.Equal(t, a.ID, snap.ID)
	assert.Equal(t, "1000.00", snap.Principal)

	resp = env.GET("/api/v1/loan/accounts/")
	testutil.AssertStatus(t, resp, http.StatusOK)
	var list struct {
		Total int64                      `json:"total"`
		Items []testutil.AccountSnapshot `json:"items"`
	}
	testutil.DecodeJSON(t, resp, &list)
	assert.Equal(t, int64(2), list.Total)
	require.Len(t, list.Items, 2)
	assert.Equal(t, b.ID, list.Items[0].ID)

	resp = env.GET("/api/v1/loan/accounts/nope")
	testutil.AssertStatus(t, resp, http.StatusNotFound)
	testutil.AssertErrorCode(t, resp, "ACCOUNT_NOT_FOUND")
}

func TestLoan_OpenValidation(t *testing.T) {
	env := testutil.NewTestEnv(t)

	// Principal must be positive.
	resp := env.POST("/api/v1/loan/accounts", map[string]interface{}{
		"opened_on":            "2026-01-01",
		"principal":            "0.00",
		"annual_interest_rate": "0.12",
	})
	testutil.AssertStatus(t, resp, http.StatusBadRequest)
	testutil.AssertErrorCode(t, resp, "VALIDATION_ERROR")

	// Repay on an unknown loan.
	resp = env.POST("/api/v1/loan/accounts/unknown/repay", map[string]string{
		"amount":         "10.00",
		"effective_date": "2026-01-31",
	})
	testutil.AssertStatus(t, resp, http.StatusNotFound)
	testutil.AssertErrorCode(t, resp, "ACCOUNT_NOT_FOUND")
}
