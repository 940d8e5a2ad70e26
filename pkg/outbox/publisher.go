package outbox

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/iota-uz/staffimport/pkg/composables"
)

const tableName = "import_outbox"

// Publisher enqueues messages into import_outbox. Enqueue must run inside the
// same transaction as the state change it announces; the transaction is taken
// from the context.
type Publisher interface {
	Enqueue(ctx context.Context, msg Message) (sequence int64, err error)
}

type publisher struct {
	m *metrics
}

func NewPublisher() Publisher {
	return &publisher{m: getMetrics()}
}

func (p *publisher) Enqueue(ctx context.Context, msg Message) (int64, error) {
	if msg.TenantID == uuid.Nil {
		return 0, fmt.Errorf("%w: tenant_id is required", ErrInvalidConfig)
	}
	if msg.EventID == uuid.Nil {
		return 0, fmt.Errorf("%w: event_id is required", ErrInvalidConfig)
	}
	if msg.Topic == "" {
		return 0, fmt.Errorf("%w: topic is required", ErrInvalidConfig)
	}

	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}

	q := `INSERT INTO ` + tableName + ` (tenant_id, topic, payload, event_id, available_at)
	 VALUES ($1, $2, $3, $4, now())
	 ON CONFLICT (event_id) DO UPDATE SET event_id = EXCLUDED.event_id
	 RETURNING sequence`

	var sequence int64
	if err := tx.QueryRow(ctx, q, msg.TenantID, msg.Topic, msg.Payload, msg.EventID).Scan(&sequence); err != nil {
		return 0, fmt.Errorf("outbox enqueue: %w", err)
	}

	p.m.enqueueTotal.WithLabelValues(msg.Topic).Inc()
	return sequence, nil
}
