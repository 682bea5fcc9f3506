// Package webhooksink is a small webhook receiver used in development and
// demos. It verifies delivery signatures, deduplicates envelopes by event ID
// and keeps everything it accepted in memory for inspection.
package webhooksink

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/fincore/platform/internal/domain"
	"github.com/fincore/platform/internal/provider"
	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

// Receiver accepts signed event envelopes. An empty secret disables
// signature verification.
type Receiver struct {
	secret string
	logger *slog.Logger

	mu       sync.Mutex
	seen     map[string]bool
	received []domain.EventEnvelope
}

// NewReceiver creates a receiver with an empty in-memory store.
func NewReceiver(secret string, logger *slog.Logger) *Receiver {
	return &Receiver{
		secret: secret,
		logger: logger,
		seen:   make(map[string]bool),
	}
}

// NewRouter builds the sink's chi.Router.
func NewRouter(rcv *Receiver) chi.Router {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			rcv.logger.Info("webhook-sink request",
				"method", req.Method,
				"path", req.URL.Path,
				"remote", req.RemoteAddr)
			next.ServeHTTP(w, req)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Post("/webhooks", rcv.Receive)
	r.Get("/received", rcv.List)

	return r
}

// Receive handles one delivery: verify the signature, decode the envelope,
// record it unless the event ID was already seen.
func (rcv *Receiver) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "unreadable body"})
		return
	}

	if rcv.secret != "" {
		sig := r.Header.Get(provider.SignatureHeader)
		if err := provider.VerifySignature(rcv.secret, body, sig); err != nil {
			rcv.logger.Warn("webhook signature rejected", "error", err)
			respond(w, http.StatusUnauthorized, map[string]string{"error": "invalid signature"})
			return
		}
	}

	var envelope domain.EventEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid envelope"})
		return
	}
	if envelope.EventID == "" {
		respond(w, http.StatusBadRequest, map[string]string{"error": "event_id required"})
		return
	}

	duplicate := rcv.remember(envelope)
	rcv.logger.Info("webhook received",
		"event_id", envelope.EventID,
		"event_type", envelope.EventType,
		"aggregate_id", envelope.AggregateID,
		"duplicate", duplicate)

	respond(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"duplicate": duplicate,
	})
}

// List returns every distinct envelope accepted so far, oldest first.
func (rcv *Receiver) List(w http.ResponseWriter, r *http.Request) {
	rcv.mu.Lock()
	items := make([]domain.EventEnvelope, len(rcv.received))
	copy(items, rcv.received)
	rcv.mu.Unlock()

	respond(w, http.StatusOK, map[string]interface{}{
		"total": len(items),
		"items": items,
	})
}

// remember records the envelope and reports whether its event ID was
// already seen.
func (rcv *Receiver) remember(envelope domain.EventEnvelope) bool {
	rcv.mu.Lock()
	defer rcv.mu.Unlock()

	if rcv.seen[envelope.EventID] {
		return true
	}
	rcv.seen[envelope.EventID] = true
	rcv.received = append(rcv.received, envelope)
	return false
}

func respond(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
