// Package notification queues push notifications for recipients who could
// not be reached over a live connection, and hands them to a push backend.
package notification

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/moderation"
	"context"
	"log/slog"
)

var _ contract.INotificationDispatcher = (*Dispatcher)(nil)

// Dispatcher never blocks the caller: a full queue drops the notification.
// The queue is drained by workers.PushWorker.
type Dispatcher struct {
	jobs      chan domain.PushJob
	moderator *moderation.Moderator
	log       *slog.Logger
}

// NewDispatcher builds the queue. moderator may be nil, previews are then
// sent as written.
func NewDispatcher(queueSize int, moderator *moderation.Moderator, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		jobs:      make(chan domain.PushJob, queueSize),
		moderator: moderator,
		log:       log,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, accountID string, notification domain.Notification) error {
	if d.moderator != nil {
		body, words := d.moderator.Censor(notification.Body)
		if len(words) > 0 {
			d.log.Debug("Notification preview censored", "account_id", accountID, "words", len(words))
		}
		notification.Body = body
	}

	job := domain.PushJob{AccountID: accountID, Priority: domain.PriorityHigh, Notification: notification}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case d.jobs <- job:
		return nil
	default:
		d.log.Warn("Push queue full, notification dropped", "account_id", accountID)
		return errors.ErrPushQueueFull
	}
}

// Jobs is the consuming side of the queue.
func (d *Dispatcher) Jobs() <-chan domain.PushJob {
	return d.jobs
}

// Probe fails while the queue is saturated.
func (d *Dispatcher) Probe(context.Context) error {
	if len(d.jobs) >= cap(d.jobs) {
		return errors.ErrPushQueueFull
	}
	return nil
}
