package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// OutboxStatus enumerates the outbox row lifecycle.
type OutboxStatus string

const (
	OutboxPending OutboxStatus = "PENDING"
	OutboxSent    OutboxStatus = "SENT"
	OutboxSkipped OutboxStatus = "SKIPPED"
	OutboxFailed  OutboxStatus = "FAILED"
	OutboxDead    OutboxStatus = "DEAD"

	// OutboxRetry appears only in dispatch cycle results: the row itself
	// stays PENDING with a future next_attempt_at.
	OutboxRetry OutboxStatus = "RETRY"
)

// DefaultMaxAttempts is the delivery budget assigned to new outbox rows.
const DefaultMaxAttempts = 10

// Destination schemes.
const (
	SchemeQueue   = "queue"
	SchemeWebhook = "webhook"
)

// QueueTopicDomainEvents is the internal topic every event is staged to.
const QueueTopicDomainEvents = "domain_events"

// QueueDestination renders a queue destination string.
func QueueDestination(topic string) string { return SchemeQueue + ":" + topic }

// WebhookDestination renders a webhook destination string.
func WebhookDestination(subscriptionID string) string {
	return SchemeWebhook + ":" + subscriptionID
}

// SplitDestination separates a destination into scheme and remainder. The
// remainder may itself contain colons; only the first is significant.
func SplitDestination(dest string) (scheme, rest string) {
	parts := strings.SplitN(dest, ":", 2)
	if len(parts) != 2 {
		return dest, ""
	}
	return parts[0], parts[1]
}

// OutboxMessage is the mutable delivery envelope staged next to every
// domain event. One row exists per (event, destination).
type OutboxMessage struct {
	ID            string
	CreatedAt     time.Time
	EventID       string
	Destination   string
	Status        OutboxStatus
	Attempts      int
	MaxAttempts   int
	NextAttemptAt *time.Time
	LastError     *string
}

// WebhookSubscription is an externally registered HTTP destination.
// Subscriptions are never deleted; disabling stops future staging and causes
// already-staged rows to be SKIPPED.
type WebhookSubscription struct {
	ID        string
	CreatedAt time.Time
	TargetURL string
	Enabled   bool
}

// QueueMessage is the terminal artifact for queue: destinations, the
// "delivered to internal bus" record.
type QueueMessage struct {
	ID        string
	CreatedAt time.Time
	Topic     string
	Payload   json.RawMessage
}

// DispatchResult reports the outcome for one outbox row within a cycle.
type DispatchResult struct {
	ID            string       `json:"id"`
	Destination   string       `json:"destination"`
	Status        OutboxStatus `json:"status"`
	Error         string       `json:"error,omitempty"`
	NextAttemptAt *time.Time   `json:"next_attempt_at,omitempty"`
}

// DispatchReport is the result of one dispatch cycle.
type DispatchReport struct {
	Processed int              `json:"processed"`
	Results   []DispatchResult `json:"results"`
}

// ReplayFilter selects outbox rows (joined to their events) for re-arming.
// Nil fields are ignored; an empty filter selects everything.
type ReplayFilter struct {
	AggregateType *string `json:"aggregate_type,omitempty"`
	AggregateID   *string `json:"aggregate_id,omitempty"`
	Destination   *string `json:"destination,omitempty"`
}

// OutboxFilter selects outbox rows for the query surface.
type OutboxFilter struct {
	Status        *string
	Destination   *string
	EventID       *string
	AggregateType *string
	AggregateID   *string
	Limit         int
	Offset        int
}

// SubscriptionFilter selects webhook subscriptions for the query surface.
type SubscriptionFilter struct {
	Enabled *bool
	Limit   int
	Offset  int
}
