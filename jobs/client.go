package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

type taskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Client submits jobs to the queue.
type Client struct {
	client taskEnqueuer
	closer func() error
}

func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	c := asynq.NewClient(redisOpts)
	return &Client{client: c, closer: c.Close}
}

// EnqueueInvoicePDF queues rendering of an invoice. Requests for the same
// invoice within a minute are collapsed into one task.
func (c *Client) EnqueueInvoicePDF(ctx context.Context, userID, invoiceID string) error {
	task, err := NewInvoicePDFTask(userID, invoiceID)
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault), asynq.Unique(time.Minute))
	if err != nil && !errors.Is(err, asynq.ErrDuplicateTask) {
		return fmt.Errorf("enqueue invoice pdf: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}
