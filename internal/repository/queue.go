package repository

import (
	"context"
	"fmt"

	"github.com/fincore/platform/internal/domain"
)

type queueRepo struct{}

// NewQueueRepository returns a pgx-backed QueueRepository.
func NewQueueRepository() QueueRepository {
	return &queueRepo{}
}

func (r *queueRepo) Insert(ctx context.Context, db DBTX, msg *domain.QueueMessage) error {
	_, err := db.Exec(ctx, `
		INSERT INTO queue_messages (id, created_at, topic, payload)
		VALUES ($1, $2, $3, $4)`,
		msg.ID, msg.CreatedAt, msg.Topic, msg.Payload,
	)
	if err != nil {
		return fmt.Errorf("insert queue message: %w", err)
	}
	return nil
}

func (r *queueRepo) ListByTopic(ctx context.Context, db DBTX, topic string, limit, offset int) ([]domain.QueueMessage, int64, error) {
	limit, offset = clampPage(limit, offset, 100, 500)

	var total int64
	if err := db.QueryRow(ctx,
		`SELECT COUNT(*) FROM queue_messages WHERE topic = $1`, topic).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count queue messages: %w", err)
	}

	rows, err := db.Query(ctx, `
		SELECT id, created_at, topic, payload
		FROM queue_messages
		WHERE topic = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, topic, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query queue messages: %w", err)
	}
	defer rows.Close()

	var msgs []domain.QueueMessage
	for rows.Next() {
		var msg domain.QueueMessage
		if err := rows.Scan(&msg.ID, &msg.CreatedAt, &msg.Topic, &msg.Payload); err != nil {
			return nil, 0, fmt.Errorf("scan queue message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, total, rows.Err()
}
