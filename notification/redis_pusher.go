package notification

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// maxQueued bounds the Redis list when no provider bridge drains it.
const maxQueued = 10_000

var _ contract.IPusher = (*RedisPusher)(nil)

// RedisPusher hands jobs to the push provider bridge through a Redis list.
// The bridge pops from the right end, so jobs come out in push order.
type RedisPusher struct {
	client *redis.Client
	list   string
	log    *slog.Logger
}

func NewRedisPusher(client *redis.Client, list string, log *slog.Logger) *RedisPusher {
	return &RedisPusher{client: client, list: list, log: log}
}

func (p *RedisPusher) Push(ctx context.Context, job domain.PushJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode push job: %w", err)
	}
	pipe := p.client.TxPipeline()
	pipe.LPush(ctx, p.list, payload)
	pipe.LTrim(ctx, p.list, 0, maxQueued-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("enqueue push job on %s: %w", p.list, err)
	}
	return nil
}

// Ping checks the backend is reachable at startup.
func (p *RedisPusher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

var _ contract.IPusher = (*LogPusher)(nil)

// LogPusher is the backend used when no Redis is configured: jobs are only logged.
type LogPusher struct {
	log *slog.Logger
}

func NewLogPusher(log *slog.Logger) *LogPusher {
	return &LogPusher{log: log}
}

func (p *LogPusher) Push(_ context.Context, job domain.PushJob) error {
	p.log.Info("Push notification",
		"account_id", job.AccountID,
		"title", job.Notification.Title,
		"body", job.Notification.Body,
		"priority", job.Priority)
	return nil
}
