package provider

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fincore/platform/internal/domain"
)

// SignatureHeader carries the HMAC signature on outbound webhook deliveries.
const SignatureHeader = "X-Fincore-Signature"

// signatureTolerance is how far in the past a signed timestamp may lie
// before verification rejects it.
const signatureTolerance = 5 * time.Minute

// WebhookSender posts signed event envelopes to subscriber endpoints. The
// HTTP timeout covers the whole exchange; a slow subscriber counts as a
// delivery failure.
type WebhookSender struct {
	client        *http.Client
	signingSecret string
}

// NewWebhookSender creates a sender. An empty signingSecret disables the
// signature header.
func NewWebhookSender(timeout time.Duration, signingSecret string) *WebhookSender {
	return &WebhookSender{
		client:        &http.Client{Timeout: timeout},
		signingSecret: signingSecret,
	}
}

// Deliver POSTs the envelope to targetURL. Any transport error or non-2xx
// response is returned as an error.
func (s *WebhookSender) Deliver(ctx context.Context, targetURL string, envelope domain.EventEnvelope) error {
	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, targetURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.signingSecret != "" {
		req.Header.Set(SignatureHeader, SignPayload(s.signingSecret, time.Now().Unix(), body))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// SignPayload computes the signature header value for a payload signed at
// ts: "t=<unix>,v1=<hex hmac-sha256(secret, "<unix>.<payload>")>".
func SignPayload(secret string, ts int64, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

// VerifySignature checks a signature header against the payload. The
// timestamp must be within tolerance and at least one v1 signature must
// match.
func VerifySignature(secret string, payload []byte, sigHeader string) error {
	parts := strings.Split(sigHeader, ",")
	var timestamp string
	var signatures []string
	for _, part := range parts {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			timestamp = kv[1]
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return fmt.Errorf("invalid signature header format")
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp: %w", err)
	}
	if time.Now().Unix()-ts > int64(signatureTolerance.Seconds()) {
		return fmt.Errorf("webhook timestamp too old")
	}

	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s.", timestamp)
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, sig := range signatures {
		if hmac.Equal([]byte(expected), []byte(sig)) {
			return nil
		}
	}
	return fmt.Errorf("invalid webhook signature")
}
