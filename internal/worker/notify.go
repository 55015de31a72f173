package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"careersite/internal/tasks"
)

// 快照状态。
const (
	SnapshotCompleted = "completed"
	SnapshotError     = "error"
)

// SnapshotNotifyMessage 是通过 Redis Pub/Sub 转发给编辑器 WebSocket 的消息。
// 字段名与前端解析保持一致。
type SnapshotNotifyMessage struct {
	Type            string `json:"type"`
	Status          string `json:"status"`
	CompanyID       uint   `json:"company_id"`
	Version         int    `json:"version"`
	PreviewImageURL string `json:"preview_image_url,omitempty"`
	CorrelationID   string `json:"correlation_id"`
	ErrorCode       int    `json:"error_code"`
	ErrorMessage    string `json:"error_message"`
}

// Notifier 把快照结果推送给招聘方。
type Notifier interface {
	Notify(ctx context.Context, recruiterID uint, msg SnapshotNotifyMessage) error
}

// RedisNotifier 通过 Redis Publish 发送通知。
type RedisNotifier struct {
	client redis.UniversalClient
}

// NewRedisNotifier 创建 Redis 通知器。
func NewRedisNotifier(client redis.UniversalClient) *RedisNotifier {
	return &RedisNotifier{client: client}
}

func (n *RedisNotifier) Notify(ctx context.Context, recruiterID uint, msg SnapshotNotifyMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	channel := tasks.NotifyChannel(recruiterID)
	if err := n.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish redis notification to %q: %w", channel, err)
	}
	return nil
}
