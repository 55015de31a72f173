package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypeCompanySnapshot = "company:snapshot"
)

// QueueSnapshots 是快照任务使用的队列。
const QueueSnapshots = "snapshots"

// CompanySnapshotPayload 描述生成招聘页预览截图所需的最小信息。
type CompanySnapshotPayload struct {
	CompanyID     uint   `json:"company_id"`
	CorrelationID string `json:"correlation_id"`
}

// NewCompanySnapshotTask 构造一个新的预览截图任务。
func NewCompanySnapshotTask(companyID uint, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(CompanySnapshotPayload{
		CompanyID:     companyID,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeCompanySnapshot, payload), nil
}

// ParseCompanySnapshotPayload 解析任务载荷。
func ParseCompanySnapshotPayload(t *asynq.Task) (CompanySnapshotPayload, error) {
	var p CompanySnapshotPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return CompanySnapshotPayload{}, fmt.Errorf("decode snapshot payload: %w", err)
	}
	if p.CompanyID == 0 {
		return CompanySnapshotPayload{}, fmt.Errorf("snapshot payload: company id missing")
	}
	return p, nil
}

// NotifyChannel 返回某个招聘方的 Redis 通知频道，worker 发布、WebSocket 订阅。
func NotifyChannel(recruiterID uint) string {
	return fmt.Sprintf("recruiter_notify:%d", recruiterID)
}

// snapshotDebounce 是同一家公司两次快照之间的最短间隔。
// 编辑器连续保存时，窗口内的重复任务会被 asynq 去重。
const snapshotDebounce = 10 * time.Second
