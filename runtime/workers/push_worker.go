package workers

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	stderrors "errors"
	"log/slog"
	"time"
)

var _ contract.Worker = (*PushWorker)(nil)

// PushWorker drains queued notifications, resolves the device token of the
// recipient and hands the job to the push backend.
// Accounts without a token are skipped.
type PushWorker struct {
	jobs        <-chan domain.PushJob
	tokens      contract.ITokenRepository
	pusher      contract.IPusher
	pushTimeout time.Duration
	log         *slog.Logger
}

func NewPushWorker(
	jobs <-chan domain.PushJob,
	tokens contract.ITokenRepository,
	pusher contract.IPusher,
	pushTimeout time.Duration,
	log *slog.Logger) *PushWorker {
	return &PushWorker{
		jobs:        jobs,
		tokens:      tokens,
		pusher:      pusher,
		pushTimeout: pushTimeout,
		log:         log,
	}
}

func (w *PushWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return ctx.Err()
		case job, ok := <-w.jobs:
			if !ok {
				w.log.Debug("Channel is closed")
				return nil
			}
			w.deliver(ctx, job)
		}
	}
}

func (w *PushWorker) deliver(ctx context.Context, job domain.PushJob) {
	token, err := w.tokens.FindToken(ctx, job.AccountID)
	if stderrors.Is(err, errors.ErrTokenAbsent) {
		w.log.Debug("No device token, notification skipped", "account_id", job.AccountID)
		return
	}
	if err != nil {
		w.log.Warn("Device token lookup failed", "account_id", job.AccountID, "error", err)
		return
	}
	job.Token = token.Token

	pushCtx, cancel := context.WithTimeout(ctx, w.pushTimeout)
	defer cancel()
	if err := w.pusher.Push(pushCtx, job); err != nil {
		w.log.Warn("Push failed", "account_id", job.AccountID, "error", err)
		return
	}
	w.log.Debug("Push sent", "account_id", job.AccountID, "chat_id", job.Notification.Data["chatId"])
}
