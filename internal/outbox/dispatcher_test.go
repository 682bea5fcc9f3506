package outbox

import (
	"errors"
	"testing"
	"time"

	"github.com/fincore/platform/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoff(t *testing.T) {
	tests := []struct {
		attempts int
		want     time.Duration
	}{
		{0, 1 * time.Second},
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 16 * time.Second},
		{8, 128 * time.Second},
		{9, 256 * time.Second},
		{10, 300 * time.Second},
		{11, 300 * time.Second},
		{50, 300 * time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, backoff(tt.attempts), "attempts=%d", tt.attempts)
	}
}

func TestMarkSent(t *testing.T) {
	next := time.Now().UTC()
	lastErr := "previous failure"
	msg := &domain.OutboxMessage{
		Status:        domain.OutboxPending,
		NextAttemptAt: &next,
		LastError:     &lastErr,
	}

	markSent(msg)

	assert.Equal(t, domain.OutboxSent, msg.Status)
	assert.Nil(t, msg.NextAttemptAt)
	assert.Nil(t, msg.LastError)
}

func TestErrString(t *testing.T) {
	s := errString(errors.New("connection refused"))
	require.NotNil(t, s)
	assert.Equal(t, "connection refused", *s)
}
