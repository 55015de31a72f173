package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 任务结果标签取值。
const (
	OutcomeSucceeded = "succeeded"
	OutcomeRetry     = "retry"
	OutcomeDropped   = "dropped"
)

var (
	tasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "careersite",
			Subsystem: "worker",
			Name:      "tasks_total",
			Help:      "按结果统计的后台任务数量（succeeded/retry/dropped）。",
		},
		[]string{"task_type", "outcome"},
	)

	taskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "careersite",
			Subsystem: "worker",
			Name:      "task_duration_seconds",
			Help:      "后台任务耗时分布（秒），截图任务通常在数秒内完成。",
			Buckets:   []float64{.25, .5, 1, 2.5, 5, 10, 20, 40},
		},
		[]string{"task_type"},
	)

	tasksRunning = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "careersite",
			Subsystem: "worker",
			Name:      "tasks_running",
			Help:      "当前正在执行的后台任务数量。",
		},
		[]string{"task_type"},
	)
)

// TaskOutcome 把处理结果归类：nil 为成功，带 SkipRetry 的错误不会重试，其余错误交给 asynq 重试。
func TaskOutcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSucceeded
	case errors.Is(err, asynq.SkipRetry):
		return OutcomeDropped
	default:
		return OutcomeRetry
	}
}

// AsynqMetricsMiddleware 记录每个任务的耗时、并发与结果。
func AsynqMetricsMiddleware() asynq.MiddlewareFunc {
	return func(next asynq.Handler) asynq.Handler {
		return asynq.HandlerFunc(func(ctx context.Context, task *asynq.Task) error {
			taskType := task.Type()
			running := tasksRunning.WithLabelValues(taskType)
			running.Inc()
			defer running.Dec()

			start := time.Now()
			err := next.ProcessTask(ctx, task)
			taskDuration.WithLabelValues(taskType).Observe(time.Since(start).Seconds())
			tasksTotal.WithLabelValues(taskType, TaskOutcome(err)).Inc()
			return err
		})
	}
}
