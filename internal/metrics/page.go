package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"careersite/internal/page"
)

var (
	pageRenderTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "careersite",
			Subsystem: "page",
			Name:      "renders_total",
			Help:      "页面渲染总数。",
		},
		[]string{"surface"},
	)

	pageRenderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "careersite",
			Subsystem: "page",
			Name:      "render_duration_seconds",
			Help:      "页面渲染耗时分布（秒）。",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		},
		[]string{"surface"},
	)

	pageRenderSections = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "careersite",
			Subsystem: "page",
			Name:      "rendered_sections",
			Help:      "单次渲染输出的区块数量。",
			Buckets:   []float64{0, 1, 2, 4, 6, 8, 12, 16, 24},
		},
		[]string{"surface"},
	)

	pageDegradeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "careersite",
			Subsystem: "page",
			Name:      "degradations_total",
			Help:      "渲染时降级为占位内容的次数。",
		},
		[]string{"surface", "kind", "reason"},
	)
)

// PageObserver 把渲染统计写入 Prometheus，surface 区分公开页、预览与 worker 截图。
type PageObserver struct {
	surface string
}

// NewPageObserver 返回指定 surface 标签的 page.Observer。
func NewPageObserver(surface string) PageObserver {
	return PageObserver{surface: surface}
}

func (o PageObserver) ObserveRender(sections int, elapsed time.Duration) {
	pageRenderTotal.WithLabelValues(o.surface).Inc()
	pageRenderDuration.WithLabelValues(o.surface).Observe(elapsed.Seconds())
	pageRenderSections.WithLabelValues(o.surface).Observe(float64(sections))
}

func (o PageObserver) ObserveDegrade(kind page.Kind, reason string) {
	label := string(kind)
	switch {
	case kind == "":
		label = "page"
	case !kind.Valid():
		// 避免任意字符串撑爆标签基数
		label = "unknown"
	}
	pageDegradeTotal.WithLabelValues(o.surface, label, reason).Inc()
}

var _ page.Observer = PageObserver{}
