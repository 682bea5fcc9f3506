package provider

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fincore/platform/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEnvelope() domain.EventEnvelope {
	return domain.EventEnvelope{
		EventID:       "ev-1",
		AggregateType: domain.AggregateDepositAccount,
		AggregateID:   "acct-1",
		EventType:     domain.EventDepositPosted,
		EventTime:     time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Payload:       json.RawMessage(`{"amount":"100.00","effective_date":"2024-03-01"}`),
	}
}

func TestDeliver_Success(t *testing.T) {
	secret := "whsec_test_secret"
	var gotBody []byte
	var gotSig string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get(SignatureHeader)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		gotBody = body
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := NewWebhookSender(5*time.Second, secret)
	err := sender.Deliver(context.Background(), srv.URL, testEnvelope())
	require.NoError(t, err)

	require.NoError(t, VerifySignature(secret, gotBody, gotSig))

	var env domain.EventEnvelope
	require.NoError(t, json.Unmarshal(gotBody, &env))
	assert.Equal(t, "ev-1", env.EventID)
	assert.Equal(t, domain.EventDepositPosted, env.EventType)
}

func TestDeliver_Non2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "subscriber exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	sender := NewWebhookSender(5*time.Second, "")
	err := sender.Deliver(context.Background(), srv.URL, testEnvelope())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestDeliver_NoSecretOmitsHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get(SignatureHeader))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sender := NewWebhookSender(5*time.Second, "")
	require.NoError(t, sender.Deliver(context.Background(), srv.URL, testEnvelope()))
}

func TestVerifySignature_Valid(t *testing.T) {
	secret := "whsec_test_secret"
	payload := []byte(`{"event_id":"ev-1"}`)
	ts := time.Now().Unix()

	header := SignPayload(secret, ts, payload)
	require.NoError(t, VerifySignature(secret, payload, header))
}

func TestVerifySignature_MatchesManualHMAC(t *testing.T) {
	secret := "whsec_test_secret"
	payload := []byte(`{"event_id":"ev-1"}`)
	ts := time.Now().Unix()

	signed := fmt.Sprintf("%d.%s", ts, payload)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signed))
	sig := hex.EncodeToString(mac.Sum(nil))

	header := fmt.Sprintf("t=%d,v1=%s", ts, sig)
	require.NoError(t, VerifySignature(secret, payload, header))
}

func TestVerifySignature_InvalidSignature(t *testing.T) {
	payload := []byte(`{"event_id":"ev-1"}`)
	header := fmt.Sprintf("t=%d,v1=deadbeef", time.Now().Unix())

	err := VerifySignature("whsec_test_secret", payload, header)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid webhook signature")
}

func TestVerifySignature_ExpiredTimestamp(t *testing.T) {
	secret := "whsec_test_secret"
	payload := []byte(`{"event_id":"ev-1"}`)
	ts := time.Now().Add(-10 * time.Minute).Unix()

	header := SignPayload(secret, ts, payload)
	err := VerifySignature(secret, payload, header)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timestamp too old")
}

func TestVerifySignature_MissingHeader(t *testing.T) {
	err := VerifySignature("whsec_test_secret", []byte(`{}`), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid signature header format")
}

func TestVerifySignature_WrongSecret(t *testing.T) {
	payload := []byte(`{"event_id":"ev-1"}`)
	header := SignPayload("secret-a", time.Now().Unix(), payload)

	err := VerifySignature("secret-b", payload, header)
	require.Error(t, err)
}
