//go:build integration

package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"
)

// DecodeJSON reads and decodes a JSON response body into dst.
func DecodeJSON(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
}

// AssertStatus checks that the response has the expected HTTP status code.
func AssertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

// AssertErrorCode checks that the response body contains the expected error code.
func AssertErrorCode(t *testing.T, resp *http.Response, expectedCode string) {
	t.Helper()
	var errResp struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	DecodeJSON(t, resp, &errResp)
	if errResp.Code != expectedCode {
		t.Errorf("expected error code %q, got %q (message: %s)", expectedCode, errResp.Code, errResp.Message)
	}
}

// OutboxRow is the subset of an outbox row the tests inspect.
type OutboxRow struct {
	ID            string
	EventID       string
	Destination   string
	Status        string
	Attempts      int
	MaxAttempts   int
	NextAttemptAt *time.Time
	LastError     *string
}

// OutboxRowsForEvent returns the outbox rows staged for an event, ordered by
// destination for stable assertions.
func OutboxRowsForEvent(t *testing.T, env *TestEnv, eventID string) []OutboxRow {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rows, err := env.Pool.Query(ctx, `
		SELECT id, event_id, destination, status, attempts, max_attempts, next_attempt_at, last_error
		FROM outbox_messages WHERE event_id = $1 ORDER BY destination`, eventID)
	if err != nil {
		t.Fatalf("OutboxRowsForEvent: query: %v", err)
	}
	defer rows.Close()

	var out []OutboxRow
	for rows.Next() {
		var r OutboxRow
		if err := rows.Scan(&r.ID, &r.EventID, &r.Destination, &r.Status, &r.Attempts,
			&r.MaxAttempts, &r.NextAttemptAt, &r.LastError); err != nil {
			t.Fatalf("OutboxRowsForEvent: scan: %v", err)
		}
		out = append(out, r)
	}
	return out
}

// OutboxRowByID fetches one outbox row.
func OutboxRowByID(t *testing.T, env *TestEnv, messageID string) OutboxRow {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var r OutboxRow
	err := env.Pool.QueryRow(ctx, `
		SELECT id, event_id, destination, status, attempts, max_attempts, next_attempt_at, last_error
		FROM outbox_messages WHERE id = $1`, messageID).
		Scan(&r.ID, &r.EventID, &r.Destination, &r.Status, &r.Attempts,
			&r.MaxAttempts, &r.NextAttemptAt, &r.LastError)
	if err != nil {
		t.Fatalf("OutboxRowByID: %v", err)
	}
	return r
}

// EventIDFor returns the ID of the aggregate's single event of the given
// type, failing the test if there is not exactly one.
func EventIDFor(t *testing.T, env *TestEnv, aggregateID, eventType string) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rows, err := env.Pool.Query(ctx,
		"SELECT id FROM domain_events WHERE aggregate_id = $1 AND event_type = $2", aggregateID, eventType)
	if err != nil {
		t.Fatalf("EventIDFor: query: %v", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			t.Fatalf("EventIDFor: scan: %v", err)
		}
		ids = append(ids, id)
	}
	if len(ids) != 1 {
		t.Fatalf("EventIDFor: expected exactly 1 %s event for %s, got %d", eventType, aggregateID, len(ids))
	}
	return ids[0]
}

// CountEvents returns the number of events recorded for an aggregate.
func CountEvents(t *testing.T, env *TestEnv, aggregateID string) int {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var count int
	err := env.Pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM domain_events WHERE aggregate_id = $1", aggregateID).Scan(&count)
	if err != nil {
		t.Fatalf("CountEvents: %v", err)
	}
	return count
}

// CountLedgerEntries returns the number of journal rows for an account.
func CountLedgerEntries(t *testing.T, env *TestEnv, accountID string) int {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var count int
	err := env.Pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM ledger_entries WHERE account_id = $1", accountID).Scan(&count)
	if err != nil {
		t.Fatalf("CountLedgerEntries: %v", err)
	}
	return count
}

// CountQueueMessages returns the number of internal queue rows for a topic.
func CountQueueMessages(t *testing.T, env *TestEnv, topic string) int {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var count int
	err := env.Pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM queue_messages WHERE topic = $1", topic).Scan(&count)
	if err != nil {
		t.Fatalf("CountQueueMessages: %v", err)
	}
	return count
}
