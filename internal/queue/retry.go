package queue

import (
	"context"
	"errors"

	"github.com/OFFIS-RIT/papergraph/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

// ErrPoisonMessage marks a message that can never succeed.
var ErrPoisonMessage = errors.New("poison message")

const retryHeader = "x-retries"

func retryCount(headers amqp091.Table) int {
	switch v := headers[retryHeader].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	}
	return 0
}

// HandleProcessingError routes a failed delivery to the retry queue, or to
// the dead-letter queue once MaxRetries is reached or the failure is
// permanent. The delivery is acked after a successful republish and requeued
// when republishing fails.
func HandleProcessingError(ctx context.Context, ch Publisher, msg amqp091.Delivery, queueName string, cause error) {
	retries := retryCount(msg.Headers)

	if retries >= MaxRetries || errors.Is(cause, ErrPoisonMessage) {
		dlqName := queueName + "_dlq"
		logger.Warn("[Queue] Sending message to DLQ", "dlq", dlqName, "retries", retries)
		if err := PublishFIFO(ctx, ch, dlqName, msg.Body, msg.Headers); err != nil {
			logger.Error("[Queue] Failed to publish to DLQ", "dlq", dlqName, "err", err)
			_ = msg.Nack(false, true)
			return
		}
		_ = msg.Ack(false)
		return
	}

	headers := amqp091.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[retryHeader] = int32(retries + 1)

	retryName := queueName + "_retry"
	if err := PublishFIFO(ctx, ch, retryName, msg.Body, headers); err != nil {
		logger.Error("[Queue] Failed to publish to retry queue", "retry_queue", retryName, "err", err)
		_ = msg.Nack(false, true)
		return
	}
	_ = msg.Ack(false)
}
