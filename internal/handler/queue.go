package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fincore/platform/internal/domain"
	"github.com/fincore/platform/internal/repository"
)

// QueueHandler exposes the internal queue topics the dispatcher writes to.
type QueueHandler struct {
	pool  *pgxpool.Pool
	queue repository.QueueRepository
}

// NewQueueHandler creates a new QueueHandler.
func NewQueueHandler(pool *pgxpool.Pool, queue repository.QueueRepository) *QueueHandler {
	return &QueueHandler{pool: pool, queue: queue}
}

type queueMessageResponse struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	Topic     string          `json:"topic"`
	Payload   json.RawMessage `json:"payload"`
}

// List handles GET /queue/messages.
func (h *QueueHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	topic := domain.QueueTopicDomainEvents
	if t := optQuery(r, "topic"); t != nil {
		topic = *t
	}

	msgs, total, err := h.queue.ListByTopic(r.Context(), h.pool, topic, limit, offset)
	if err != nil {
		RespondError(w, domain.ErrInternal("list queue messages", err))
		return
	}

	items := make([]queueMessageResponse, 0, len(msgs))
	for i := range msgs {
		items = append(items, queueMessageResponse{
			ID:        msgs[i].ID,
			CreatedAt: msgs[i].CreatedAt,
			Topic:     msgs[i].Topic,
			Payload:   msgs[i].Payload,
		})
	}
	RespondJSON(w, http.StatusOK, listResponse{Total: total, Items: items})
}
