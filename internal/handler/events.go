package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fincore/platform/internal/domain"
	"github.com/fincore/platform/internal/repository"
)

// EventsHandler exposes the immutable event log.
type EventsHandler struct {
	pool   *pgxpool.Pool
	events repository.EventRepository
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(pool *pgxpool.Pool, events repository.EventRepository) *EventsHandler {
	return &EventsHandler{pool: pool, events: events}
}

type eventResponse struct {
	ID             string          `json:"id"`
	CreatedAt      time.Time       `json:"created_at"`
	AggregateType  string          `json:"aggregate_type"`
	AggregateID    string          `json:"aggregate_id"`
	EventType      string          `json:"event_type"`
	EventTime      time.Time       `json:"event_time"`
	Payload        json.RawMessage `json:"payload"`
	IdempotencyKey *string         `json:"idempotency_key"`
}

func newEventResponse(ev *domain.DomainEvent) eventResponse {
	return eventResponse{
		ID:             ev.ID,
		CreatedAt:      ev.CreatedAt,
		AggregateType:  string(ev.AggregateType),
		AggregateID:    ev.AggregateID,
		EventType:      string(ev.EventType),
		EventTime:      ev.EventTime,
		Payload:        ev.Payload,
		IdempotencyKey: ev.IdempotencyKey,
	}
}

// List handles GET /events.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	events, total, err := h.events.List(r.Context(), h.pool, domain.EventFilter{
		AggregateType:  optQuery(r, "aggregate_type"),
		AggregateID:    optQuery(r, "aggregate_id"),
		EventType:      optQuery(r, "event_type"),
		IdempotencyKey: optQuery(r, "idempotency_key"),
		Limit:          limit,
		Offset:         offset,
	})
	if err != nil {
		RespondError(w, domain.ErrInternal("list events", err))
		return
	}

	items := make([]eventResponse, 0, len(events))
	for i := range events {
		items = append(items, newEventResponse(&events[i]))
	}
	RespondJSON(w, http.StatusOK, listResponse{Total: total, Items: items})
}
