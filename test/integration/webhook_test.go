//go:build integration

package integration

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fincore/platform/internal/provider"
	"github.com/fincore/platform/internal/webhooksink"
	"github.com/fincore/platform/test/integration/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─── Webhook Subscription Tests ───────────────────────────────────────────

func TestSubscription_Create(t *testing.T) {
	env := testutil.NewTestEnv(t)

	resp := env.POST("/api/v1/webhooks/subscriptions", map[string]string{
		"target_url": "https://hooks.example.com/fincore",
	})
	testutil.AssertStatus(t, resp, http.StatusOK)

	var sub struct {
		ID        string `json:"id"`
		TargetURL string `json:"target_url"`
		Enabled   bool   `json:"enabled"`
	}
	testutil.DecodeJSON(t, resp, &sub)
	assert.NotEmpty(t, sub.ID)
	assert.Equal(t, "https://hooks.example.com/fincore", sub.TargetURL)
	assert.True(t, sub.Enabled)
}

func TestSubscription_CreateValidation(t *testing.T) {
	env := testutil.NewTestEnv(t)

	for _, target := range []string{"", "not-a-url", "ftp://example.com/hook", "/relative/path"} {
		resp := env.POST("/api/v1/webhooks/subscriptions", map[string]string{
			"target_url": target,
		})
		testutil.AssertStatus(t, resp, http.StatusBadRequest)
		testutil.AssertErrorCode(t, resp, "VALIDATION_ERROR")
	}
}

func TestSubscription_ListWithEnabledFilter(t *testing.T) {
	env := testutil.NewTestEnv(t)

	active := env.CreateSubscription("https://hooks.example.com/a")
	disabled := env.CreateSubscription("https://hooks.example.com/b")
	env.DisableSubscription(disabled)

	var list struct {
		Total int64 `json:"total"`
		Items []struct {
			ID      string `json:"id"`
			Enabled bool   `json:"enabled"`
		} `json:"items"`
	}

	resp := env.GET("/api/v1/webhooks/subscriptions")
	testutil.AssertStatus(t, resp, http.StatusOK)
	testutil.DecodeJSON(t, resp, &list)
	assert.Equal(t, int64(2), list.Total)

	resp = env.GET("/api/v1/webhooks/subscriptions?enabled=true")
	testutil.AssertStatus(t, resp, http.StatusOK)
	testutil.DecodeJSON(t, resp, &list)
	require.Equal(t, int64(1), list.Total)
	assert.Equal(t, active, list.Items[0].ID)

	resp = env.GET("/api/v1/webhooks/subscriptions?enabled=false")
	testutil.AssertStatus(t, resp, http.StatusOK)
	testutil.DecodeJSON(t, resp, &list)
	require.Equal(t, int64(1), list.Total)
	assert.Equal(t, disabled, list.Items[0].ID)
}

func TestWebhookDelivery_SignsPayload(t *testing.T) {
	env := testutil.NewTestEnv(t)

	target := testutil.NewStubTarget(t)
	env.CreateSubscription(target.URL())
	env.OpenDeposit("2026-01-01", "0.05")
	env.Dispatch(50)

	reqs := target.Requests()
	require.Len(t, reqs, 1)
	require.NotEmpty(t, reqs[0].Signature, "delivery must carry %s", provider.SignatureHeader)

	err := provider.VerifySignature(testutil.TestWebhookSecret, reqs[0].Body, reqs[0].Signature)
	assert.NoError(t, err)

	// The signature binds the body: a tampered payload fails verification.
	tampered := append([]byte(nil), reqs[0].Body...)
	tampered[len(tampered)-2] ^= 0xff
	err = provider.VerifySignature(testutil.TestWebhookSecret, tampered, reqs[0].Signature)
	assert.Error(t, err)

	err = provider.VerifySignature("wrong-secret", reqs[0].Body, reqs[0].Signature)
	assert.Error(t, err)
}

func TestWebhookDelivery_EndToEndSink(t *testing.T) {
	env := testutil.NewTestEnv(t)

	// Run the dev sink in-process and subscribe the dispatcher to it.
	receiver := webhooksink.NewReceiver(testutil.TestWebhookSecret, slog.New(slog.NewTextHandler(io.Discard, nil)))
	sink := httptest.NewServer(webhooksink.NewRouter(receiver))
	t.Cleanup(sink.Close)

	env.CreateSubscription(sink.URL + "/webhooks")

	acct := env.OpenDeposit("2026-01-01", "0.05")
	eventID := testutil.EventIDFor(t, env, acct.ID, "DEPOSIT_ACCOUNT_OPENED")

	report := env.Dispatch(50)
	for _, res := range report.Results {
		assert.Equal(t, "SENT", string(res.Status), "destination %s", res.Destination)
	}

	resp, err := http.Get(sink.URL + "/received")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var received struct {
		Total int64 `json:"total"`
		Items []struct {
			EventID       string          `json:"event_id"`
			AggregateType string          `json:"aggregate_type"`
			AggregateID   string          `json:"aggregate_id"`
			EventType     string          `json:"event_type"`
			Payload       json.RawMessage `json:"payload"`
		} `json:"items"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&received))
	require.Equal(t, int64(1), received.Total)
	assert.Equal(t, eventID, received.Items[0].EventID)
	assert.Equal(t, "deposit_account", received.Items[0].AggregateType)
	assert.Equal(t, acct.ID, received.Items[0].AggregateID)
	assert.Equal(t, "DEPOSIT_ACCOUNT_OPENED", received.Items[0].EventType)
	assert.NotEmpty(t, received.Items[0].Payload)
}

func TestWebhookDelivery_SinkDeduplicatesRedelivery(t *testing.T) {
	env := testutil.NewTestEnv(t)

	receiver := webhooksink.NewReceiver(testutil.TestWebhookSecret, slog.New(slog.NewTextHandler(io.Discard, nil)))
	sink := httptest.NewServer(webhooksink.NewRouter(receiver))
	t.Cleanup(sink.Close)

	subID := env.CreateSubscription(sink.URL + "/webhooks")
	env.OpenDeposit("2026-01-01", "0.05")

	env.Dispatch(50)

	// Replaying the delivered row sends the same envelope again; the sink
	// acknowledges it but keeps a single copy.
	updated := env.Replay(map[string]interface{}{"destination": "webhook:" + subID})
	require.Equal(t, int64(1), updated)
	env.Dispatch(50)

	resp, err := http.Get(sink.URL + "/received")
	require.NoError(t, err)
	defer resp.Body.Close()

	var received struct {
		Total int64 `json:"total"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&received))
	assert.Equal(t, int64(1), received.Total)
}
