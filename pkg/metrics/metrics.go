package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics Prometheus 指标集合
// HTTP 维度由中间件上报；engine 维度由统计服务上报
type Metrics struct {
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	shiftsReduced     prometheus.Counter
	recordsDerived    prometheus.Counter
	fallbackReduces   prometheus.Counter
}

// New 创建并注册指标集合
func New() *Metrics {
	m := &Metrics{
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "minelog_http_requests_total",
			Help: "Total count of HTTP requests by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "minelog_http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		shiftsReduced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "minelog_engine_shifts_reduced_total",
			Help: "Total shifts reduced to canonical metric maps.",
		}),
		recordsDerived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "minelog_engine_records_derived_total",
			Help: "Total activity records passed through metric derivation.",
		}),
		fallbackReduces: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "minelog_engine_fallback_reduces_total",
			Help: "Total shifts reduced from stored aggregates instead of activity records.",
		}),
	}

	prometheus.MustRegister(
		m.httpRequestsTotal,
		m.httpDuration,
		m.shiftsReduced,
		m.recordsDerived,
		m.fallbackReduces,
	)

	return m
}

// Handler 返回 /metrics 的 HTTP 处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRequest 上报一次 HTTP 请求
func (m *Metrics) ObserveRequest(route, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(route, status).Inc()
	m.httpDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// ShiftReduced 上报一次班次归并
// fallback 表示本次使用了预聚合降级路径
func (m *Metrics) ShiftReduced(records int, fallback bool) {
	if m == nil {
		return
	}
	m.shiftsReduced.Inc()
	m.recordsDerived.Add(float64(records))
	if fallback {
		m.fallbackReduces.Inc()
	}
}
