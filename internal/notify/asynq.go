package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

const (
	maxRetry    = 5
	taskTimeout = 30 * time.Second
)

// AsynqNotifier enqueues events for the notification worker.
type AsynqNotifier struct {
	client *asynq.Client
}

func NewAsynqNotifier(client *asynq.Client) *AsynqNotifier {
	return &AsynqNotifier{client: client}
}

// NewAsynqClient shares an existing Redis connection with the task queue.
func NewAsynqClient(rdb *redis.Client) *asynq.Client {
	return asynq.NewClientFromRedisClient(rdb)
}

func (n *AsynqNotifier) Notify(ctx context.Context, event Event) error {
	payload, err := encodeEvent(event)
	if err != nil {
		return fmt.Errorf("encode %s: %w", event.Type, err)
	}
	task := asynq.NewTask(event.Type, payload)
	if _, err := n.client.EnqueueContext(ctx, task, asynq.Queue(Queue), asynq.MaxRetry(maxRetry), asynq.Timeout(taskTimeout)); err != nil {
		return fmt.Errorf("enqueue %s: %w", event.Type, err)
	}
	return nil
}
