package handler

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fincore/platform/internal/domain"
	"github.com/fincore/platform/internal/outbox"
	"github.com/fincore/platform/internal/repository"
)

// OutboxHandler exposes the outbox ops surface: inspection, on-demand
// dispatch cycles and replay.
type OutboxHandler struct {
	pool       *pgxpool.Pool
	dispatcher *outbox.Dispatcher
	messages   repository.OutboxRepository
}

// NewOutboxHandler creates a new OutboxHandler.
func NewOutboxHandler(pool *pgxpool.Pool, dispatcher *outbox.Dispatcher, messages repository.OutboxRepository) *OutboxHandler {
	return &OutboxHandler{pool: pool, dispatcher: dispatcher, messages: messages}
}

type outboxMessageResponse struct {
	ID            string     `json:"id"`
	CreatedAt     time.Time  `json:"created_at"`
	EventID       string     `json:"event_id"`
	Destination   string     `json:"destination"`
	Status        string     `json:"status"`
	Attempts      int        `json:"attempts"`
	MaxAttempts   int        `json:"max_attempts"`
	NextAttemptAt *time.Time `json:"next_attempt_at"`
	LastError     *string    `json:"last_error"`
}

func newOutboxMessageResponse(m *domain.OutboxMessage) outboxMessageResponse {
	return outboxMessageResponse{
		ID:            m.ID,
		CreatedAt:     m.CreatedAt,
		EventID:       m.EventID,
		Destination:   m.Destination,
		Status:        string(m.Status),
		Attempts:      m.Attempts,
		MaxAttempts:   m.MaxAttempts,
		NextAttemptAt: m.NextAttemptAt,
		LastError:     m.LastError,
	}
}

// List handles GET /outbox/messages.
func (h *OutboxHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	msgs, total, err := h.messages.List(r.Context(), h.pool, domain.OutboxFilter{
		Status:        optQuery(r, "status"),
		Destination:   optQuery(r, "destination"),
		EventID:       optQuery(r, "event_id"),
		AggregateType: optQuery(r, "aggregate_type"),
		AggregateID:   optQuery(r, "aggregate_id"),
		Limit:         limit,
		Offset:        offset,
	})
	if err != nil {
		RespondError(w, domain.ErrInternal("list outbox messages", err))
		return
	}

	items := make([]outboxMessageResponse, 0, len(msgs))
	for i := range msgs {
		items = append(items, newOutboxMessageResponse(&msgs[i]))
	}
	RespondJSON(w, http.StatusOK, listResponse{Total: total, Items: items})
}

type dispatchRequest struct {
	MaxMessages *int `json:"max_messages"`
}

// Dispatch handles POST /outbox/dispatch: runs one delivery cycle inline.
// An empty body means defaults.
func (h *OutboxHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	var req dispatchRequest
	if err := DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		RespondJSON(w, http.StatusBadRequest, map[string]string{
			"code": "VALIDATION_ERROR", "message": "invalid request body",
		})
		return
	}

	maxMessages := 50
	if req.MaxMessages != nil {
		maxMessages = *req.MaxMessages
	}

	report, err := h.dispatcher.RunCycle(r.Context(), maxMessages)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, report)
}

// Replay handles POST /outbox/replay: re-arms matching rows for delivery.
// An empty body replays everything.
func (h *OutboxHandler) Replay(w http.ResponseWriter, r *http.Request) {
	var filter domain.ReplayFilter
	if err := DecodeJSON(r, &filter); err != nil && !errors.Is(err, io.EOF) {
		RespondJSON(w, http.StatusBadRequest, map[string]string{
			"code": "VALIDATION_ERROR", "message": "invalid request body",
		})
		return
	}

	updated, err := h.dispatcher.Replay(r.Context(), filter)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]int64{"updated": updated})
}
