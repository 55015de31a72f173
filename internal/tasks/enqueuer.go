package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
)

// SnapshotEnqueuer 在公司页面变化后安排一次预览截图。
// Correlation ID 从 ctx 中读取。
type SnapshotEnqueuer interface {
	EnqueueSnapshot(ctx context.Context, companyID uint) error
}

type correlationKey struct{}

// WithCorrelationID 把请求的 Correlation ID 放进 ctx，随任务一起传给 worker。
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID 返回 ctx 中的 Correlation ID。
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// taskEnqueuer 是 *asynq.Client 中用到的部分。
type taskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AsynqEnqueuer 通过 asynq 入队快照任务。
type AsynqEnqueuer struct {
	client taskEnqueuer
}

// NewAsynqEnqueuer 包装 asynq 客户端。
func NewAsynqEnqueuer(client *asynq.Client) *AsynqEnqueuer {
	return &AsynqEnqueuer{client: client}
}

func (e *AsynqEnqueuer) EnqueueSnapshot(ctx context.Context, companyID uint) error {
	task, err := NewCompanySnapshotTask(companyID, CorrelationID(ctx))
	if err != nil {
		return fmt.Errorf("create snapshot task: %w", err)
	}
	_, err = e.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueSnapshots),
		asynq.MaxRetry(3),
		asynq.Unique(snapshotDebounce),
		asynq.ProcessIn(snapshotDebounce),
	)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("enqueue snapshot: %w", err)
	}
	return nil
}

// NopEnqueuer 丢弃所有任务，用于未启用 worker 的环境与测试。
type NopEnqueuer struct{}

func (NopEnqueuer) EnqueueSnapshot(context.Context, uint) error { return nil }
