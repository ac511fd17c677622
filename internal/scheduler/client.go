package scheduler

import (
	"context"
	"errors"
	"time"

	"training_leads_backend/platform/config"

	"github.com/hibiken/asynq"
)

// ReminderEnqueuer queues one payment reminder job per lead.
type ReminderEnqueuer interface {
	EnqueuePaymentReminder(ctx context.Context, payload PaymentReminderPayload, day time.Time) error
}

// Client enqueues scheduler tasks onto the configured queue.
type Client struct {
	asynq *asynq.Client
	queue string
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	b, err := newBackend(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{asynq: asynq.NewClient(b.redis), queue: b.queue}, nil
}

func (c *Client) Close() error {
	if c == nil || c.asynq == nil {
		return nil
	}
	return c.asynq.Close()
}

// EnqueuePaymentReminder queues a reminder job for the lead. The task id is
// keyed on the lead and day so a re-run sweep does not queue it twice.
func (c *Client) EnqueuePaymentReminder(ctx context.Context, payload PaymentReminderPayload, day time.Time) error {
	if c == nil || c.asynq == nil {
		return nil
	}

	task, err := NewPaymentReminderTask(payload)
	if err != nil {
		return err
	}

	_, err = c.asynq.EnqueueContext(ctx, task,
		asynq.Queue(c.queue),
		asynq.TaskID(paymentReminderTaskID(payload.LeadID, day)),
		asynq.Retention(24*time.Hour),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

func paymentReminderTaskID(leadID string, day time.Time) string {
	return "payment-reminder:" + leadID + ":" + day.UTC().Format(time.DateOnly)
}
