package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector 指标收集器
type MetricsCollector struct {
	// HTTP 指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// 支付对账指标
	notificationsTotal *prometheus.CounterVec
	transitionsTotal   *prometheus.CounterVec
	checkoutsTotal     *prometheus.CounterVec

	// 数据库连接池
	dbConnectionsOpen  prometheus.Gauge
	dbConnectionsInUse prometheus.Gauge
}

// NewMetricsCollector 创建指标收集器，reg 为 nil 时注册到默认 Registry
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

		notificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_notifications_total",
				Help: "Payment provider notifications by channel and reconciliation outcome",
			},
			[]string{"channel", "action"},
		),

		transitionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "order_transitions_total",
				Help: "Guarded order status transitions by source, target status and whether they applied",
			},
			[]string{"source", "status", "applied"},
		),

		checkoutsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkouts_total",
				Help: "Checkout initiations by channel and result",
			},
			[]string{"channel", "result"},
		),

		dbConnectionsOpen: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "db_connections_open",
				Help: "Number of open database connections",
			},
		),

		dbConnectionsInUse: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "db_connections_in_use",
				Help: "Number of database connections in use",
			},
		),
	}
}

// RecordHTTPRequest 记录 HTTP 请求指标
func (m *MetricsCollector) RecordHTTPRequest(method, endpoint string, status int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, endpoint, getStatusCategory(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordNotification 记录一次回调处理结果
func (m *MetricsCollector) RecordNotification(channel, action string) {
	m.notificationsTotal.WithLabelValues(channel, action).Inc()
}

// RecordTransition 记录一次条件状态迁移
func (m *MetricsCollector) RecordTransition(source, status string, applied bool) {
	a := "false"
	if applied {
		a = "true"
	}
	m.transitionsTotal.WithLabelValues(source, status, a).Inc()
}

// RecordCheckout 记录下单结果
func (m *MetricsCollector) RecordCheckout(channel, result string) {
	m.checkoutsTotal.WithLabelValues(channel, result).Inc()
}

// UpdateDBConnections 更新数据库连接指标
func (m *MetricsCollector) UpdateDBConnections(open, inUse int) {
	m.dbConnectionsOpen.Set(float64(open))
	m.dbConnectionsInUse.Set(float64(inUse))
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
	default:
		return "unknown"
	}
}

var (
	globalCollector *MetricsCollector
	initOnce        sync.Once
)

// GetGlobalCollector 获取全局指标收集器
func GetGlobalCollector() *MetricsCollector {
	initOnce.Do(func() {
		globalCollector = NewMetricsCollector(nil)
	})
	return globalCollector
}
