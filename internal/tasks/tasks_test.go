package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
)

type recordingClient struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
	err   error
}

func (r *recordingClient) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.tasks = append(r.tasks, task)
	r.opts = append(r.opts, opts)
	return &asynq.TaskInfo{ID: "t1"}, nil
}

func TestSnapshotPayloadRoundTrip(t *testing.T) {
	task, err := NewCompanySnapshotTask(9, "corr-1")
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if task.Type() != TypeCompanySnapshot {
		t.Fatalf("type = %q", task.Type())
	}
	p, err := ParseCompanySnapshotPayload(task)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if p.CompanyID != 9 || p.CorrelationID != "corr-1" {
		t.Fatalf("payload = %+v", p)
	}

	if _, err := ParseCompanySnapshotPayload(asynq.NewTask(TypeCompanySnapshot, []byte(`{}`))); err == nil {
		t.Fatalf("expected error for missing company id")
	}
}

func TestAsynqEnqueuer(t *testing.T) {
	client := &recordingClient{}
	e := &AsynqEnqueuer{client: client}

	ctx := WithCorrelationID(context.Background(), "corr-9")
	if err := e.EnqueueSnapshot(ctx, 3); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if len(client.tasks) != 1 || len(client.opts[0]) != 4 {
		t.Fatalf("recorded %d tasks with %v", len(client.tasks), client.opts)
	}
	p, err := ParseCompanySnapshotPayload(client.tasks[0])
	if err != nil || p.CorrelationID != "corr-9" || p.CompanyID != 3 {
		t.Fatalf("payload = %+v, %v", p, err)
	}

	client.err = asynq.ErrDuplicateTask
	if err := e.EnqueueSnapshot(context.Background(), 3); err != nil {
		t.Fatalf("duplicate task must be ignored: %v", err)
	}

	client.err = errors.New("redis down")
	if err := e.EnqueueSnapshot(context.Background(), 3); err == nil {
		t.Fatalf("expected error")
	}
}
