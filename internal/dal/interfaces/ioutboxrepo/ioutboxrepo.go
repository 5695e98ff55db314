package ioutboxrepo

import (
	"context"
	"time"

	"github.com/corray333/backend-labs/checkout/internal/service/models/outbox"
)

// IOutboxRepository stores order events until the outbox worker has delivered them.
type IOutboxRepository interface {
	// Insert enqueues a message. Called inside the order transaction.
	Insert(ctx context.Context, msg outbox.OutboxMessage) error

	// GetPendingMessages returns due messages that still have retries left, oldest first.
	GetPendingMessages(ctx context.Context, limit int) ([]outbox.OutboxMessage, error)

	Delete(ctx context.Context, id int64) error

	// UpdateRetry records a failed delivery and reschedules the message.
	UpdateRetry(
		ctx context.Context,
		id int64,
		retryCount int,
		lastError string,
		nextRetryAt time.Time,
	) error
}
