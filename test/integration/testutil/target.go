//go:build integration

package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/fincore/platform/internal/provider"
)

// StubRequest is one delivery captured by a StubTarget.
type StubRequest struct {
	Body      []byte
	Signature string
}

// StubTarget is a scripted webhook receiver. It records every delivery and
// answers 500 for the first FailFirst(n) of them, 200 afterwards.
type StubTarget struct {
	srv *httptest.Server

	mu       sync.Mutex
	failures int
	requests []StubRequest
}

// NewStubTarget starts a stub receiver that shuts down with the test.
func NewStubTarget(t *testing.T) *StubTarget {
	st := &StubTarget{}
	st.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		st.mu.Lock()
		st.requests = append(st.requests, StubRequest{
			Body:      body,
			Signature: r.Header.Get(provider.SignatureHeader),
		})
		fail := st.failures > 0
		if fail {
			st.failures--
		}
		st.mu.Unlock()

		if fail {
			http.Error(w, "stub target failure", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(st.srv.Close)
	return st
}

// URL is the address subscriptions should target.
func (st *StubTarget) URL() string { return st.srv.URL }

// FailFirst makes the next n deliveries answer 500.
func (st *StubTarget) FailFirst(n int) {
	st.mu.Lock()
	st.failures = n
	st.mu.Unlock()
}

// Requests returns a copy of everything received so far.
func (st *StubTarget) Requests() []StubRequest {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]StubRequest, len(st.requests))
	copy(out, st.requests)
	return out
}
