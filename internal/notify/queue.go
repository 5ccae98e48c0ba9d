package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"spiceexport/internal/metrics"
)

// Publisher hands a serialized notification to a broker. *rabbitmq.Client satisfies it.
type Publisher interface {
	PublishNotification(body []byte) error
}

// QueueNotifier enqueues notifications for asynchronous delivery.
type QueueNotifier struct {
	publisher Publisher
}

// NewQueueNotifier creates a QueueNotifier.
func NewQueueNotifier(p Publisher) *QueueNotifier {
	return &QueueNotifier{publisher: p}
}

// Notify publishes n as JSON.
func (q *QueueNotifier) Notify(ctx context.Context, n Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	if err := q.publisher.PublishNotification(body); err != nil {
		metrics.NotificationsTotal.WithLabelValues("queue", "failed").Inc()
		return err
	}
	metrics.NotificationsTotal.WithLabelValues("queue", "enqueued").Inc()
	return nil
}

// DeliveryHandler returns a consumer callback that decodes queued notifications
// and sends them through next.
func DeliveryHandler(next Notifier) func(body []byte) error {
	return func(body []byte) error {
		var n Notification
		if err := json.Unmarshal(body, &n); err != nil {
			return fmt.Errorf("malformed notification: %w", err)
		}
		if n.To == "" {
			return fmt.Errorf("notification %q has no recipient", n.Subject)
		}
		return next.Notify(context.Background(), n)
	}
}
