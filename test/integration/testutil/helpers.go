//go:build integration

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/fincore/platform/internal/domain"
)

// AccountSnapshot mirrors the account response body. Deposit and loan
// responses share it; fields absent from one kind stay zero.
type AccountSnapshot struct {
	ID                   string `json:"id"`
	OpenedOn             string `json:"opened_on"`
	Status               string `json:"status"`
	Principal            string `json:"principal"`
	AnnualInterestRate   string `json:"annual_interest_rate"`
	DayCountBasis        int    `json:"day_count_basis"`
	CurrentBalance       string `json:"current_balance"`
	OutstandingPrincipal string `json:"outstanding_principal"`
	AccruedInterest      string `json:"accrued_interest"`
}

// GET performs a GET request.
func (env *TestEnv) GET(path string) *http.Response {
	env.t.Helper()
	resp, err := http.Get(env.Server.URL + path)
	if err != nil {
		env.t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

// POST performs a POST request with a JSON body.
func (env *TestEnv) POST(path string, body interface{}) *http.Response {
	env.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			env.t.Fatalf("POST %s: encode: %v", path, err)
		}
	}
	req, err := http.NewRequest("POST", env.Server.URL+path, &buf)
	if err != nil {
		env.t.Fatalf("POST %s: new request: %v", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

// RawPOST performs a POST request with raw bytes and custom headers.
func (env *TestEnv) RawPOST(path string, body []byte, headers map[string]string) *http.Response {
	env.t.Helper()
	req, err := http.NewRequest("POST", env.Server.URL+path, bytes.NewReader(body))
	if err != nil {
		env.t.Fatalf("RawPOST %s: new request: %v", path, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("RawPOST %s: %v", path, err)
	}
	return resp
}

// OpenDeposit opens a deposit account and returns its snapshot.
func (env *TestEnv) OpenDeposit(openedOn, rate string) AccountSnapshot {
	env.t.Helper()
	resp := env.POST("/api/v1/deposit/accounts", map[string]interface{}{
		"opened_on":            openedOn,
		"annual_interest_rate": rate,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		env.t.Fatalf("OpenDeposit: expected 200, got %d", resp.StatusCode)
	}

	var snap AccountSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		env.t.Fatalf("OpenDeposit: decode: %v", err)
	}
	return snap
}

// OpenLoan opens a loan account and returns its snapshot.
func (env *TestEnv) OpenLoan(openedOn, principal, rate string, basis int) AccountSnapshot {
	env.t.Helper()
	resp := env.POST("/api/v1/loan/accounts", map[string]interface{}{
		"opened_on":            openedOn,
		"principal":            principal,
		"annual_interest_rate": rate,
		"day_count_basis":      basis,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		env.t.Fatalf("OpenLoan: expected 200, got %d", resp.StatusCode)
	}

	var snap AccountSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		env.t.Fatalf("OpenLoan: decode: %v", err)
	}
	return snap
}

// CreateSubscription registers a webhook subscription and returns its ID.
func (env *TestEnv) CreateSubscription(targetURL string) string {
	env.t.Helper()
	resp := env.POST("/api/v1/webhooks/subscriptions", map[string]string{
		"target_url": targetURL,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		env.t.Fatalf("CreateSubscription: expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		env.t.Fatalf("CreateSubscription: decode: %v", err)
	}
	return result.ID
}

// DisableSubscription flips a subscription off directly in the database.
// There is no API for it; operations does this by hand.
func (env *TestEnv) DisableSubscription(id string) {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := env.Pool.Exec(ctx,
		"UPDATE webhook_subscriptions SET enabled = FALSE WHERE id = $1", id)
	if err != nil {
		env.t.Fatalf("DisableSubscription: %v", err)
	}
}

// Dispatch runs one dispatch cycle through the API and returns the report.
func (env *TestEnv) Dispatch(maxMessages int) domain.DispatchReport {
	env.t.Helper()
	resp := env.POST("/api/v1/outbox/dispatch", map[string]int{
		"max_messages": maxMessages,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		env.t.Fatalf("Dispatch: expected 200, got %d", resp.StatusCode)
	}

	var report domain.DispatchReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		env.t.Fatalf("Dispatch: decode: %v", err)
	}
	return report
}

// Replay re-arms outbox rows through the API and returns how many were reset.
func (env *TestEnv) Replay(filter map[string]interface{}) int64 {
	env.t.Helper()
	resp := env.POST("/api/v1/outbox/replay", filter)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		env.t.Fatalf("Replay: expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Updated int64 `json:"updated"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		env.t.Fatalf("Replay: decode: %v", err)
	}
	return result.Updated
}

// ForceDue rewinds every pending row's next_attempt_at so the next cycle
// picks it up without waiting out the backoff.
func (env *TestEnv) ForceDue() {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := env.Pool.Exec(ctx,
		"UPDATE outbox_messages SET next_attempt_at = now() - interval '1 second' WHERE status = 'PENDING'")
	if err != nil {
		env.t.Fatalf("ForceDue: %v", err)
	}
}

// ExhaustAttempts burns a row's whole delivery budget so the next pickup
// dead-letters it.
func (env *TestEnv) ExhaustAttempts(messageID string) {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := env.Pool.Exec(ctx,
		"UPDATE outbox_messages SET attempts = max_attempts WHERE id = $1", messageID)
	if err != nil {
		env.t.Fatalf("ExhaustAttempts: %v", err)
	}
}

// SetMaxAttempts shrinks a row's delivery budget.
func (env *TestEnv) SetMaxAttempts(messageID string, n int) {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := env.Pool.Exec(ctx,
		"UPDATE outbox_messages SET max_attempts = $2 WHERE id = $1", messageID, n)
	if err != nil {
		env.t.Fatalf("SetMaxAttempts: %v", err)
	}
}
