package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector 指标收集器
type MetricsCollector struct {
	// 服务端 HTTP 指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// 客户端调用后端的指标
	apiCallsTotal   *prometheus.CounterVec
	apiCallDuration *prometheus.HistogramVec

	// 卡片交互结果
	interactionsTotal *prometheus.CounterVec
}

// NewMetricsCollector 创建指标收集器，reg 为空时使用默认注册表
func NewMetricsCollector(reg prometheus.Registerer) *MetricsCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &MetricsCollector{
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		apiCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "learnhub_api_calls_total",
				Help: "Total number of backend API calls issued by the client",
			},
			[]string{"method", "status"},
		),

		apiCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "learnhub_api_call_duration_seconds",
				Help:    "Backend API call duration in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method"},
		),

		interactionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "learnhub_interactions_total",
				Help: "Card interactions by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
	}
}

// RecordHTTPRequest 记录服务端 HTTP 请求指标
func (m *MetricsCollector) RecordHTTPRequest(method, endpoint string, status int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, endpoint, getStatusCategory(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordAPICall 记录客户端请求, status 为 0 表示传输失败
func (m *MetricsCollector) RecordAPICall(method string, status int, duration time.Duration) {
	m.apiCallsTotal.WithLabelValues(method, getStatusCategory(status)).Inc()
	m.apiCallDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordInteraction 记录点赞/评论等交互结果
func (m *MetricsCollector) RecordInteraction(operation, outcome string) {
	m.interactionsTotal.WithLabelValues(operation, outcome).Inc()
}

// getStatusCategory 获取状态分类
func getStatusCategory(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500:
		return "5xx"
	case status == 0:
		return "transport_error"
	default:
		return "unknown"
	}
}

var (
	globalCollector *MetricsCollector
	globalOnce      sync.Once
)

// GetGlobalCollector 获取全局指标收集器
func GetGlobalCollector() *MetricsCollector {
	globalOnce.Do(func() {
		globalCollector = NewMetricsCollector(prometheus.DefaultRegisterer)
	})
	return globalCollector
}
